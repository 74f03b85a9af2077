package transport

import (
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDriver struct {
	topic   string
	opened  bool
	sent    []*Message
	sendErr error
}

func (d *memDriver) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&d.topic, "transport.mem.topic", "alerts", "")
}

func (d *memDriver) Open() error {
	d.opened = true
	return nil
}

func (d *memDriver) Send(msg *Message) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *memDriver) Close() error {
	d.opened = false
	return nil
}

func TestRegistry(t *testing.T) {
	d := &memDriver{}
	Register("mem", d)
	assert.Panics(t, func() { Register("mem", d) })
	assert.Contains(t, Names(), "mem")

	fs := flag.NewFlagSet("flowlabel", flag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-transport.mem.topic", "flows"}))
	assert.Equal(t, "flows", d.topic)

	tr, err := Open("mem")
	require.NoError(t, err)
	assert.True(t, d.opened)
	assert.Equal(t, "mem", tr.Name())

	msg := &Message{Key: []byte("10.0.0.5"), Payload: []byte("10.0.0.5,8.8.8.8,1")}
	require.NoError(t, tr.Send(msg))
	assert.Equal(t, []*Message{msg}, d.sent)

	d.sendErr = errors.New("broker unavailable")
	err = tr.Send(msg)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, d.sendErr))
	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "10.0.0.5", sendErr.Key)

	require.NoError(t, tr.Close())
	assert.False(t, d.opened)

	_, err = Open("carrier-pigeon")
	assert.True(t, errors.Is(err, ErrTransport))
}
