// Package format renders exported flow records. Formats register themselves
// by name from their init function.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
)

var (
	formatters = make(map[string]Formatter)
	lock       = &sync.RWMutex{}

	ErrFormat = errors.New("format error")
)

// Formatter renders the payload of one record.
type Formatter interface {
	Format(rec *flowcsv.Record) ([]byte, error)
}

type FormatterFunc func(rec *flowcsv.Record) ([]byte, error)

func (f FormatterFunc) Format(rec *flowcsv.Record) ([]byte, error) {
	return f(rec)
}

// FormatError reports a record a format could not render.
type FormatError struct {
	Format string
	Key    string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s record %s: %s", ErrFormat.Error(), e.Format, e.Key, e.Err.Error())
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// Format is a formatter looked up by name.
type Format struct {
	name string
	f    Formatter
}

func (f *Format) Name() string {
	return f.name
}

// Encode returns the key of rec, its source address, and the rendered payload.
func (f *Format) Encode(rec *flowcsv.Record) (key, payload []byte, err error) {
	key = rec.Key()
	payload, err = f.f.Format(rec)
	if err != nil {
		return key, nil, &FormatError{f.name, string(key), err}
	}
	return key, payload, nil
}

// Register makes a formatter available under name. Registering a name twice panics.
func Register(name string, f Formatter) {
	lock.Lock()
	defer lock.Unlock()
	if _, dup := formatters[name]; dup {
		panic("format: " + name + " registered twice")
	}
	formatters[name] = f
}

func Find(name string) (*Format, error) {
	lock.RLock()
	f, ok := formatters[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q (available: %s)", ErrFormat, name, strings.Join(Names(), ", "))
	}
	return &Format{name, f}, nil
}

// Names returns the registered format names, sorted.
func Names() []string {
	lock.RLock()
	defer lock.RUnlock()
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
