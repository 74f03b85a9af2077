package flowcsv

import (
	"bufio"
	"io"
	"strings"
)

const (
	stateFieldStart = iota
	stateUnquoted
	stateQuoted
	stateQuoteInQuoted
)

// Reader decodes records one at a time. Blank lines are skipped.
type Reader struct {
	Dialect

	// FieldsPerRecord is the expected number of fields per record. When 0 it
	// is set from the first record; a negative value disables the check.
	FieldsPerRecord int

	r    *bufio.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		Dialect: Default,
		r:       bufio.NewReader(r),
	}
}

// Line returns the line number of the last line consumed.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) readLine() (string, error) {
	line, err := r.r.ReadString('\n')
	if len(line) > 0 {
		r.line++
		if err == io.EOF {
			err = nil
		}
	}
	return line, err
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	var line string
	for {
		var err error
		line, err = r.readLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimRight(line, "\r\n") != "" {
			break
		}
	}

	start := r.line
	record, err := r.parse(line)
	if err != nil {
		return nil, &ParseError{Line: start, Err: err}
	}

	if r.FieldsPerRecord > 0 {
		if len(record) != r.FieldsPerRecord {
			return record, &ParseError{Line: start, Err: ErrFieldCount}
		}
	} else if r.FieldsPerRecord == 0 {
		r.FieldsPerRecord = len(record)
	}
	return record, nil
}

func (r *Reader) parse(line string) ([]string, error) {
	var (
		record []string
		field  strings.Builder
		state  = stateFieldStart
	)

	i := 0
parse:
	for {
		if i == len(line) {
			if state != stateQuoted {
				break
			}
			next, err := r.readLine()
			if err == io.EOF {
				return nil, ErrQuote
			} else if err != nil {
				return nil, err
			}
			line += next
			continue
		}

		c := line[i]
		i++
		switch state {
		case stateFieldStart:
			switch c {
			case r.Quote:
				state = stateQuoted
			case r.Comma:
				record = append(record, "")
			case '\r', '\n':
				break parse
			default:
				field.WriteByte(c)
				state = stateUnquoted
			}
		case stateUnquoted:
			switch c {
			case r.Comma:
				record = append(record, field.String())
				field.Reset()
				state = stateFieldStart
			case '\r', '\n':
				break parse
			default:
				field.WriteByte(c)
			}
		case stateQuoted:
			if c == r.Quote {
				state = stateQuoteInQuoted
			} else {
				field.WriteByte(c)
			}
		case stateQuoteInQuoted:
			switch c {
			case r.Quote:
				field.WriteByte(c)
				state = stateQuoted
			case r.Comma:
				record = append(record, field.String())
				field.Reset()
				state = stateFieldStart
			case '\r', '\n':
				break parse
			default:
				// lenient: text after a closing quote is kept
				field.WriteByte(c)
				state = stateUnquoted
			}
		}
	}
	return append(record, field.String()), nil
}
