// Package labeller marks flow records as malicious ("1") or benign ("0")
// by cross-referencing their endpoints with a blocklist and, in session
// mode, with time-bounded malicious sessions.
package labeller

import (
	"fmt"
	"io"

	"github.com/netsampler/flowlabel/decoders/flowcsv"

	log "github.com/sirupsen/logrus"
)

const progressInterval = 100000

// IPMatcher is satisfied by refdata.IPSet.
type IPMatcher interface {
	Contains(ip string) bool
}

// RowWriter receives output rows. *flowcsv.Writer satisfies it.
type RowWriter interface {
	Write(record []string) error
}

// AlertSink receives a copy of every row labelled malicious.
type AlertSink interface {
	Alert(record *flowcsv.Record) error
}

func readHeader(r *flowcsv.Reader) ([]string, error) {
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrSchema)
	} else if err != nil {
		return nil, err
	}
	r.FieldsPerRecord = len(header)
	return header, nil
}

func loggerOrDefault(l log.FieldLogger) log.FieldLogger {
	if l == nil {
		return log.StandardLogger()
	}
	return l
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// HostStats summarises a host labelling pass.
type HostStats struct {
	Flows      int // input rows
	Labelled   int // rows labelled malicious
	Skipped    int // rows dropped by the validity filter
	SrcMatches int
	DstMatches int
}

// Written returns the number of rows emitted.
func (s HostStats) Written() int {
	return s.Flows - s.Skipped
}

func (s HostStats) LabelledPercent() float64 {
	return percent(s.Labelled, s.Flows)
}

func (s HostStats) SkippedPercent() float64 {
	return percent(s.Skipped, s.Flows)
}

func (s HostStats) Fields() log.Fields {
	return log.Fields{
		"flows":    s.Flows,
		"labelled": s.Labelled,
		"percent":  fmt.Sprintf("%.2f", s.LabelledPercent()),
		"skipped":  s.Skipped,
		"src":      s.SrcMatches,
		"dst":      s.DstMatches,
	}
}

// SessionStats summarises a session labelling pass.
type SessionStats struct {
	Flows    int
	Labelled int
}

func (s SessionStats) Benign() int {
	return s.Flows - s.Labelled
}

func (s SessionStats) LabelledPercent() float64 {
	return percent(s.Labelled, s.Flows)
}

func (s SessionStats) Fields() log.Fields {
	return log.Fields{
		"flows":    s.Flows,
		"labelled": s.Labelled,
		"percent":  fmt.Sprintf("%.2f", s.LabelledPercent()),
	}
}
