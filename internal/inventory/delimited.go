package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go-migration-audit/internal/model"
)

type delimitedReader struct {
	csv    *csv.Reader
	closer io.Closer
	mapper rowMapper
	line   int
	done   bool
}

// OpenDelimited reads a delimited text export from path.
func OpenDelimited(path string, opts Options) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory %s: %w", path, err)
	}

	reader, err := newDelimitedReader(f, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}

// NewDelimitedReader reads a delimited text export from r.
func NewDelimitedReader(r io.Reader, opts Options) (Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newDelimitedReader(r, nil, opts)
}

func newDelimitedReader(r io.Reader, closer io.Closer, opts Options) (*delimitedReader, error) {
	parser := csv.NewReader(r)
	parser.FieldsPerRecord = -1
	parser.LazyQuotes = true
	if opts.Delimiter != 0 {
		parser.Comma = opts.Delimiter
	}

	reader := &delimitedReader{csv: parser, closer: closer, mapper: rowMapper{cols: opts.Columns}}

	var header []string
	for i := 0; i < opts.HeaderRows; i++ {
		record, err := reader.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read inventory header: %w", err)
		}
		header = record
	}

	if !opts.HeaderNames.empty() {
		cols, err := opts.HeaderNames.resolve(opts.Columns, header)
		if err != nil {
			return nil, err
		}
		reader.mapper.cols = cols
	}

	return reader, nil
}

func (r *delimitedReader) read() ([]string, error) {
	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	return record, nil
}

func (r *delimitedReader) Next() (model.InventoryRow, error) {
	if r.done {
		return model.InventoryRow{}, io.EOF
	}

	for {
		record, err := r.read()
		if errors.Is(err, io.EOF) {
			r.done = true
			return model.InventoryRow{}, io.EOF
		}
		if err != nil {
			return model.InventoryRow{}, fmt.Errorf("read inventory line %d: %w", r.line+1, err)
		}
		if blank(record) {
			continue
		}
		return r.mapper.build(record, r.line), nil
	}
}

func (r *delimitedReader) Close() error {
	r.done = true
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
