// Package common contains shared functionality for command handlers
package common

import (
	"io"
	"os"
	"time"

	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

// Now is the clock used for default evaluation dates.
var Now = time.Now

// MappingFlags are the column-override flags shared by ingest and mapping save.
type MappingFlags struct {
	Date   string
	Year   string
	Month  string
	Day    string
	Amount string
	Sender string
	Filter string
}

// Register adds the mapping flags to cmd.
func (f *MappingFlags) Register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.Date, "date-col", "", "Column holding the deposit date")
	fs.StringVar(&f.Year, "year-col", "", "Column holding the deposit year (with --month-col and --day-col)")
	fs.StringVar(&f.Month, "month-col", "", "Column holding the deposit month")
	fs.StringVar(&f.Day, "day-col", "", "Column holding the deposit day")
	fs.StringVar(&f.Amount, "amount-col", "", "Column holding the deposit amount")
	fs.StringVar(&f.Sender, "sender-col", "", "Column holding the payer name")
	fs.StringVar(&f.Filter, "filter-col", "", "Column holding the transaction type used to keep deposits only")
}

// IsSet reports whether any mapping flag was given.
func (f MappingFlags) IsSet() bool {
	return f.Date != "" || f.Year != "" || f.Month != "" || f.Day != "" ||
		f.Amount != "" || f.Sender != "" || f.Filter != ""
}

// Mapping builds the operator mapping, or nil when no flag was given.
func (f MappingFlags) Mapping() (*models.ColumnMapping, error) {
	if !f.IsSet() {
		return nil, nil
	}
	m := models.ColumnMapping{
		Date:          f.Date,
		Amount:        f.Amount,
		Sender:        f.Sender,
		DepositFilter: f.Filter,
		Confidence:    1,
		Source:        models.SourceManual,
	}
	if f.Year != "" || f.Month != "" || f.Day != "" {
		m.DateParts = &models.DateParts{Year: f.Year, Month: f.Month, Day: f.Day}
	}
	if err := validation.IsValidMapping(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// EvalDate parses the --date flag; empty means today.
func EvalDate(s string) (time.Time, error) {
	return validation.ParseEvalDate(s, Now())
}

// OpenOutput returns the writer for --output: the command's stdout when
// path is empty or "-", otherwise a newly created file. The returned close
// function must be called.
func OpenOutput(cmd *cobra.Command, path string, logger logging.Logger) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close output file", logging.F(logging.FieldFile, path))
		}
	}, nil
}

// Stderr is where operator hints go.
func Stderr(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stderr
	}
	return cmd.ErrOrStderr()
}
