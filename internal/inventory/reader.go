package inventory

import (
	"fmt"
	"path/filepath"
	"strings"

	"go-migration-audit/internal/model"
)

type Format string

const (
	FormatAuto     Format = ""
	FormatWorkbook Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
)

// Options configures how an export is read.
type Options struct {
	Format Format
	// Sheet names the worksheet to read; empty selects the first sheet.
	Sheet       string
	Columns     Columns
	HeaderNames HeaderNames
	// HeaderRows leading rows are skipped. Header names resolve against the last one.
	HeaderRows int
	// Delimiter overrides the field separator of delimited text.
	Delimiter rune
}

func DefaultOptions() Options {
	return Options{Columns: DefaultColumns(), HeaderRows: 1}
}

func (o Options) Validate() error {
	if err := o.Columns.Validate(); err != nil {
		return err
	}
	if o.HeaderRows < 0 {
		return fmt.Errorf("header rows must not be negative, got %d", o.HeaderRows)
	}
	if !o.HeaderNames.empty() && o.HeaderRows == 0 {
		return fmt.Errorf("header names require at least one header row")
	}
	switch o.Format {
	case FormatAuto, FormatWorkbook, FormatCSV, FormatTSV:
	default:
		return fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, o.Format)
	}
	return nil
}

// Reader yields inventory rows once, in file order, and returns io.EOF when
// the export is exhausted.
type Reader interface {
	Next() (model.InventoryRow, error)
	Close() error
}

// Open selects a reader for path by format or file extension.
func Open(path string, opts Options) (Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	format := opts.Format
	if format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatWorkbook:
		return OpenWorkbook(path, opts)
	case FormatTSV:
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return OpenDelimited(path, opts)
	default:
		return OpenDelimited(path, opts)
	}
}

func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatWorkbook, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, filepath.Base(path))
	}
}
