// Package file appends exported records to a file, or writes them to stdout.
package file

import (
	"errors"
	"flag"
	"io"
	"os"
	"sync"

	"github.com/netsampler/flowlabel/transport"
)

var errClosed = errors.New("file transport is not open")

// Driver writes each message payload followed by Separator. Keys are not written.
type Driver struct {
	Path      string // empty for stdout
	Separator string

	lock sync.Mutex
	w    io.Writer
	f    *os.File
}

func (d *Driver) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&d.Path, "transport.file", "", "File receiving exported flows, appended to (empty for stdout)")
	fs.StringVar(&d.Separator, "transport.file.sep", "\n", "Separator written after each exported flow")
}

func (d *Driver) Open() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.Path == "" {
		d.w = os.Stdout
		return nil
	}
	f, err := os.OpenFile(d.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	d.f, d.w = f, f
	return nil
}

func (d *Driver) Send(msg *transport.Message) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.w == nil {
		return errClosed
	}
	if _, err := d.w.Write(msg.Payload); err != nil {
		return err
	}
	_, err := io.WriteString(d.w, d.Separator)
	return err
}

// Close closes the file. Closing twice is a no-op.
func (d *Driver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.w = nil
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func init() {
	transport.Register("file", &Driver{Separator: "\n"})
}
