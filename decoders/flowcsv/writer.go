package flowcsv

import (
	"bufio"
	"io"
)

// Writer encodes records using a Dialect. Output is buffered; call Flush
// before closing the underlying writer.
type Writer struct {
	Dialect

	w   *bufio.Writer
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		Dialect: Default,
		w:       bufio.NewWriter(w),
	}
}

// Write encodes a single record followed by a line terminator.
func (w *Writer) Write(record []string) error {
	w.buf = w.AppendRecord(w.buf[:0], record)
	if w.UseCRLF {
		w.buf = append(w.buf, '\r', '\n')
	} else {
		w.buf = append(w.buf, '\n')
	}
	_, err := w.w.Write(w.buf)
	return err
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}
