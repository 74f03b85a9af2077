package labeller

import (
	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/transport"
	"github.com/netsampler/flowlabel/utils"

	log "github.com/sirupsen/logrus"
)

// RecordEncoder is satisfied by *format.Format.
type RecordEncoder interface {
	Encode(rec *flowcsv.Record) (key, payload []byte, err error)
}

// MessageSender is satisfied by *transport.Transport.
type MessageSender interface {
	Send(msg *transport.Message) error
}

// Exporter forwards malicious rows to a transport, keyed by source address.
//
// Export is best effort: a failing format or transport is logged and counted
// but never aborts the labelling pass.
type Exporter struct {
	Format    RecordEncoder
	Transport MessageSender
	Mute      *utils.BatchMute // optional, limits error logs
	Logger    log.FieldLogger

	sent     int
	failures int
}

func (e *Exporter) Alert(record *flowcsv.Record) error {
	key, payload, err := e.Format.Encode(record)
	if err == nil {
		err = e.Transport.Send(&transport.Message{Key: key, Payload: payload})
	}
	if err == nil {
		e.sent++
		return nil
	}

	e.failures++
	ok, skipped := true, 0
	if e.Mute != nil {
		ok, skipped = e.Mute.Allow()
	}
	if ok {
		loggerOrDefault(e.Logger).WithFields(log.Fields{
			"key":     string(key),
			"skipped": skipped,
		}).Error(err)
	}
	return nil
}

func (e *Exporter) Sent() int {
	return e.sent
}

func (e *Exporter) Failures() int {
	return e.failures
}
