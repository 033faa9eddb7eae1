package validation_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidInputFile(t *testing.T) {
	tmpDir := t.TempDir()
	csvFile := filepath.Join(tmpDir, "bank.CSV")
	require.NoError(t, os.WriteFile(csvFile, []byte("a,b\n"), 0600))
	pdfFile := filepath.Join(tmpDir, "bank.pdf")
	require.NoError(t, os.WriteFile(pdfFile, []byte("%PDF"), 0600))

	tests := []struct {
		name        string
		path        string
		extensions  []string
		errContains string
	}{
		{name: "supported extension", path: csvFile, extensions: []string{".csv", ".xlsx"}},
		{name: "any extension", path: pdfFile},
		{name: "unsupported extension", path: pdfFile, extensions: []string{".csv"}, errContains: "unsupported file type"},
		{name: "missing file", path: filepath.Join(tmpDir, "nope.csv"), errContains: "file does not exist"},
		{name: "directory", path: tmpDir, errContains: "not a regular file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidInputFile(tt.path, tt.extensions...)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			var vErr *parsererror.ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestIsValidDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, validation.IsValidDirectory(dir))
	assert.Error(t, validation.IsValidDirectory(filepath.Join(dir, "missing")))
}

func TestIsValidOutputFormat(t *testing.T) {
	assert.NoError(t, validation.IsValidOutputFormat("csv", "text", "csv", "json"))
	err := validation.IsValidOutputFormat("xml", "text", "csv", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text, csv, json")
}

func TestParseEvalDate(t *testing.T) {
	now := time.Date(2026, 2, 20, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty is today", input: "", want: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)},
		{name: "iso", input: "2026-01-31", want: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{name: "slash", input: "2026/01/31", want: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{name: "era", input: "R8.1.31", want: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validation.ParseEvalDate(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestIsValidMapping(t *testing.T) {
	tests := []struct {
		name    string
		mapping models.ColumnMapping
		wantErr bool
	}{
		{name: "single date", mapping: models.ColumnMapping{Date: "日付", Amount: "金額"}},
		{name: "date parts", mapping: models.ColumnMapping{DateParts: &models.DateParts{Year: "年", Month: "月", Day: "日"}, Amount: "金額"}},
		{name: "no amount", mapping: models.ColumnMapping{Date: "日付"}, wantErr: true},
		{name: "no date", mapping: models.ColumnMapping{Amount: "金額"}, wantErr: true},
		{name: "partial parts", mapping: models.ColumnMapping{DateParts: &models.DateParts{Year: "年"}, Amount: "金額"}, wantErr: true},
		{name: "both date forms", mapping: models.ColumnMapping{Date: "日付", DateParts: &models.DateParts{Year: "年", Month: "月", Day: "日"}, Amount: "金額"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidMapping(tt.mapping)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, parsererror.ErrMappingRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
