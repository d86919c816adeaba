package inventory

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"go-migration-audit/internal/model"
)

type workbookReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	mapper rowMapper
	line   int
	done   bool
}

// OpenWorkbook streams rows from one worksheet of a workbook on disk.
func OpenWorkbook(path string, opts Options) (Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	reader, err := newWorkbookReader(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}

// NewWorkbookReader streams rows from a workbook read from r.
func NewWorkbookReader(r io.Reader, opts Options) (Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	reader, err := newWorkbookReader(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}

func newWorkbookReader(f *excelize.File, opts Options) (*workbookReader, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", model.ErrSheetNotFound)
		}
		sheet = sheets[0]
	} else if index, err := f.GetSheetIndex(sheet); err != nil || index < 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrSheetNotFound, sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("iterate sheet %q: %w", sheet, err)
	}

	reader := &workbookReader{file: f, rows: rows, mapper: rowMapper{cols: opts.Columns}}

	var header []string
	for i := 0; i < opts.HeaderRows; i++ {
		cells, ok, err := reader.read()
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("read sheet %q header: %w", sheet, err)
		}
		if !ok {
			break
		}
		header = cells
	}

	if !opts.HeaderNames.empty() {
		cols, err := opts.HeaderNames.resolve(opts.Columns, header)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reader.mapper.cols = cols
	}

	return reader, nil
}

func (r *workbookReader) read() ([]string, bool, error) {
	if !r.rows.Next() {
		return nil, false, r.rows.Error()
	}
	r.line++

	cells, err := r.rows.Columns()
	if err != nil {
		return nil, false, err
	}
	return cells, true, nil
}

func (r *workbookReader) Next() (model.InventoryRow, error) {
	if r.done {
		return model.InventoryRow{}, io.EOF
	}

	for {
		cells, ok, err := r.read()
		if err != nil {
			return model.InventoryRow{}, fmt.Errorf("read workbook row %d: %w", r.line+1, err)
		}
		if !ok {
			r.done = true
			return model.InventoryRow{}, io.EOF
		}
		if blank(cells) {
			continue
		}
		return r.mapper.build(cells, r.line), nil
	}
}

func (r *workbookReader) Close() error {
	r.done = true
	rowsErr := r.rows.Close()
	if err := r.file.Close(); err != nil {
		return err
	}
	return rowsErr
}
