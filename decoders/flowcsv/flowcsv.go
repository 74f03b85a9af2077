// Package flowcsv reads and writes flow feature files.
//
// Flow files are comma separated with '#' as the quote character. A field is
// quoted only when it contains the separator, the quote character or a line
// break; a quote character inside a quoted field is doubled.
package flowcsv

import (
	"errors"
	"fmt"
)

var (
	ErrQuote      = errors.New("unterminated quoted field")
	ErrFieldCount = errors.New("wrong number of fields")
)

// ParseError reports the line a malformed record started on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record on line %d: %s", e.Line, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Dialect describes the separator and quoting conventions of a file.
type Dialect struct {
	Comma   byte
	Quote   byte
	UseCRLF bool
}

// Default is the dialect produced by the flow feature extractors. Records
// end with \r\n.
var Default = Dialect{
	Comma:   ',',
	Quote:   '#',
	UseCRLF: true,
}

func (d Dialect) fieldNeedsQuotes(field string) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case d.Comma, d.Quote, '\r', '\n':
			return true
		}
	}
	return false
}

// AppendRecord appends the encoded record to dst without a line terminator.
func (d Dialect) AppendRecord(dst []byte, record []string) []byte {
	if len(record) == 1 && record[0] == "" {
		// a lone empty field would otherwise read back as a blank line
		return append(dst, d.Quote, d.Quote)
	}
	for i, field := range record {
		if i > 0 {
			dst = append(dst, d.Comma)
		}
		if !d.fieldNeedsQuotes(field) {
			dst = append(dst, field...)
			continue
		}
		dst = append(dst, d.Quote)
		for j := 0; j < len(field); j++ {
			if field[j] == d.Quote {
				dst = append(dst, d.Quote)
			}
			dst = append(dst, field[j])
		}
		dst = append(dst, d.Quote)
	}
	return dst
}

// Record is one data row along with the header naming its columns.
type Record struct {
	Header   []string
	Fields   []string
	KeyField int
}

// Key returns the value of the key column, used for partitioning by transports.
func (r *Record) Key() []byte {
	if r.KeyField < 0 || r.KeyField >= len(r.Fields) {
		return nil
	}
	return []byte(r.Fields[r.KeyField])
}

// Map returns the row as column name to value.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.Header))
	for i, name := range r.Header {
		if i < len(r.Fields) {
			m[name] = r.Fields[i]
		}
	}
	return m
}
