// Package validation checks command-line input before it reaches the
// pipeline.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"
)

// IsValidInputFile checks that path is an existing regular file with one of
// the given extensions. An empty extension list accepts any file.
func IsValidInputFile(path string, extensions ...string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &parsererror.ValidationError{FilePath: path, Reason: "file does not exist"}
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return &parsererror.ValidationError{FilePath: path, Reason: "not a regular file"}
	}
	if len(extensions) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return nil
		}
	}
	return &parsererror.ValidationError{
		FilePath: path,
		Reason:   fmt.Sprintf("unsupported file type %q (expected %s)", ext, strings.Join(extensions, ", ")),
	}
}

// IsValidDirectory checks that path is an existing directory.
func IsValidDirectory(path string) error {
	if !fileutils.DirectoryExists(path) {
		return &parsererror.ValidationError{FilePath: path, Reason: "directory does not exist"}
	}
	return nil
}

// IsValidOutputFormat checks that format is one of supported.
func IsValidOutputFormat(format string, supported ...string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s. Supported formats are %s", format, strings.Join(supported, ", "))
}

// ParseEvalDate reads an evaluation date. Empty input means today; Japanese
// era dates are accepted.
func ParseEvalDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return dateutils.StartOfDay(now), nil
	}
	d, ok := dateutils.ParseEraDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid evaluation date: %s", s)
	}
	return d, nil
}

// IsValidMapping checks an operator-supplied column mapping: an amount column
// and either one date column or all three date-part columns.
func IsValidMapping(m models.ColumnMapping) error {
	if m.Amount == "" {
		return &parsererror.MappingError{Role: "amount", Reason: "no column given"}
	}
	if m.DateParts != nil {
		if m.Date != "" {
			return &parsererror.MappingError{Role: "date", Reason: "give either a date column or year/month/day columns, not both"}
		}
		p := m.DateParts
		if p.Year == "" || p.Month == "" || p.Day == "" {
			return &parsererror.MappingError{Role: "date", Reason: "year, month and day columns are all required"}
		}
		return nil
	}
	if m.Date == "" {
		return &parsererror.MappingError{Role: "date", Reason: "no column given"}
	}
	return nil
}
