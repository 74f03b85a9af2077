// Package transport delivers exported flow records. Drivers register
// themselves by name from their init function.
package transport

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	drivers = make(map[string]Driver)
	lock    = &sync.RWMutex{}

	ErrTransport = errors.New("transport error")
)

// Message is one exported record. Key is the source address of the flow;
// partitioning drivers use it to keep the alerts of a host together.
type Message struct {
	Key     []byte
	Payload []byte
}

// Driver delivers messages to a destination between Open and Close.
type Driver interface {
	Open() error
	Send(msg *Message) error
	Close() error
}

// FlagBinder is implemented by drivers configured from the command line.
type FlagBinder interface {
	BindFlags(fs *flag.FlagSet)
}

// SendError reports a message a transport failed to deliver.
type SendError struct {
	Transport string
	Key       string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %s message %s: %s", ErrTransport.Error(), e.Transport, e.Key, e.Err.Error())
}

func (e *SendError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Transport is an opened driver.
type Transport struct {
	name string
	d    Driver
}

func (t *Transport) Name() string {
	return t.name
}

func (t *Transport) Send(msg *Message) error {
	if err := t.d.Send(msg); err != nil {
		return &SendError{t.name, string(msg.Key), err}
	}
	return nil
}

// Close flushes and releases the destination.
func (t *Transport) Close() error {
	if err := t.d.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrTransport, t.name, err)
	}
	return nil
}

// Register makes a driver available under name. Registering a name twice panics.
func Register(name string, d Driver) {
	lock.Lock()
	defer lock.Unlock()
	if _, dup := drivers[name]; dup {
		panic("transport: " + name + " registered twice")
	}
	drivers[name] = d
}

// BindFlags registers the flags of every driver that has some.
func BindFlags(fs *flag.FlagSet) {
	for _, name := range Names() {
		lock.RLock()
		d := drivers[name]
		lock.RUnlock()
		if b, ok := d.(FlagBinder); ok {
			b.BindFlags(fs)
		}
	}
}

// Open looks up a driver and opens its destination.
func Open(name string) (*Transport, error) {
	lock.RLock()
	d, ok := drivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown transport %q (available: %s)", ErrTransport, name, strings.Join(Names(), ", "))
	}
	if err := d.Open(); err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrTransport, name, err)
	}
	return &Transport{name, d}, nil
}

// Names returns the registered transport names, sorted.
func Names() []string {
	lock.RLock()
	defer lock.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
