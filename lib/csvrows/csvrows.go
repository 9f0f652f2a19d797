package csvrows

import (
	"elabftw-tools/lib/metadata"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrNoHeader = fmt.Errorf("csv has no header row")

// Reader yields one metadata.Row per CSV record.
type Reader struct {
	csv    *csv.Reader
	header []string
	line   int
}

// ErrInvalidUTF8 is wrapped by errors about input that is not UTF-8, ex.
// a Latin-1 export.
var ErrInvalidUTF8 = fmt.Errorf("invalid UTF-8")

// NewReader reads the header immediately. a leading byte order mark is
// dropped, the bytes are otherwise passed through untouched and must be
// UTF-8.
func NewReader(r io.Reader) (*Reader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(decoded)
	cr.Comma = ','
	cr.LazyQuotes = false
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, name := range header {
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("read header: %w in column %q", ErrInvalidUTF8, strings.ToValidUTF8(name, "?"))
		}
	}

	return &Reader{csv: cr, header: header, line: 1}, nil
}

func (r *Reader) Header() []string {
	return r.header
}

// Line is the 1-indexed line the last record started on, the header being
// line 1.
func (r *Reader) Line() int {
	return r.line
}

// RecordError is a problem with a single record, reading can continue
// with the next one.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Next returns io.EOF once every record has been read. a record with more
// fields than the header is a *RecordError, fewer fields are padded with
// empty values.
func (r *Reader) Next() (metadata.Row, error) {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		r.line = parseErr.StartLine
		return nil, &RecordError{Line: parseErr.StartLine, Err: parseErr.Err}
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	line, _ := r.csv.FieldPos(0)
	r.line = line

	if len(record) > len(r.header) {
		return nil, &RecordError{
			Line: line,
			Err: fmt.Errorf(
				"record has %d fields, header has %d",
				len(record), len(r.header),
			),
		}
	}
	for i, value := range record {
		if utf8.ValidString(value) {
			continue
		}
		column := fmt.Sprintf("#%d", i+1)
		if i < len(r.header) {
			column = r.header[i]
		}
		return nil, &RecordError{
			Line: line,
			Err:  fmt.Errorf("%w in column %q", ErrInvalidUTF8, column),
		}
	}
	return metadata.NewRow(r.header, record), nil
}

// File is a Reader over an open file.
type File struct {
	*Reader
	f *os.File
}

func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Reader: reader, f: f}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}
