package labeller

import (
	"fmt"
	"io"
	"time"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/refdata"
	"github.com/netsampler/flowlabel/utils"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultYear      = 2017
	DefaultUTCOffset = 2 * time.Hour

	sessionLayout = "2/1/2006 15:04:05"
)

// Resolver is satisfied by refdata.ResolutionMap.
type Resolver interface {
	Resolve(host string) ([]string, bool)
}

// SessionConfig holds everything needed to build a SessionLabeller.
type SessionConfig struct {
	IPs        IPMatcher
	Catalog    *refdata.Catalog
	Resolution Resolver
	Mode       Mode
	// Year completes the day/month session dates.
	Year int
	// UTCOffset is subtracted from flow timestamps, which are local time
	// while session windows are UTC. Nil means DefaultUTCOffset.
	UTCOffset *time.Duration
	Alerts    AlertSink
	Logger    log.FieldLogger
}

// Partitions are the outputs of a session labelling pass. A nil writer is skipped.
type Partitions struct {
	Benign    RowWriter
	Malicious RowWriter
	Combined  RowWriter
}

func (p Partitions) each(fn func(RowWriter) error) error {
	for _, w := range []RowWriter{p.Benign, p.Malicious, p.Combined} {
		if w == nil {
			continue
		}
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

type sessionWindow struct {
	process string
	start   time.Time
	end     time.Time
	ips     map[string]struct{}
}

func (w *sessionWindow) matches(src, dst string, t time.Time) bool {
	_, srcHit := w.ips[src]
	_, dstHit := w.ips[dst]
	if !srcHit && !dstHit {
		return false
	}
	return !t.Before(w.start) && !t.After(w.end)
}

// SessionLabeller labels a flow malicious when it touches a blocklisted
// address and falls inside a malicious session involving one of its endpoints.
type SessionLabeller struct {
	ips     IPMatcher
	mode    Mode
	offset  time.Duration
	windows []sessionWindow
	alerts  AlertSink
	logger  log.FieldLogger
}

// NewSessionLabeller resolves every session of the catalog into a time
// window and a set of addresses. Hostnames without a resolution entry are
// logged and contribute no address.
func NewSessionLabeller(cfg SessionConfig) (*SessionLabeller, error) {
	l := &SessionLabeller{
		ips:    cfg.IPs,
		mode:   cfg.Mode,
		offset: DefaultUTCOffset,
		alerts: cfg.Alerts,
		logger: loggerOrDefault(cfg.Logger),
	}
	if cfg.UTCOffset != nil {
		l.offset = *cfg.UTCOffset
	}
	if l.ips == nil {
		l.ips = refdata.NewIPSet()
	}
	year := cfg.Year
	if year == 0 {
		year = DefaultYear
	}
	if cfg.Catalog == nil {
		return l, nil
	}

	for _, group := range cfg.Catalog.Groups {
		for i, session := range group.Sessions {
			window, unresolved, err := newSessionWindow(group.Process, session, year, cfg.Resolution)
			if err != nil {
				return nil, fmt.Errorf("session %d of %s: %w", i, group.Process, err)
			}
			if len(unresolved) > 0 {
				l.logger.WithFields(log.Fields{
					"process": group.Process,
					"session": i,
					"hosts":   unresolved,
				}).Debug("hosts could not be resolved to an ip")
			}
			l.windows = append(l.windows, window)
		}
	}
	return l, nil
}

func parseSessionTime(date, clock string, year int) (time.Time, error) {
	value := fmt.Sprintf("%s/%d %s:00", date, year, clock)
	return parseTime(sessionLayout, value)
}

func newSessionWindow(process string, s refdata.Session, year int, res Resolver) (sessionWindow, []string, error) {
	w := sessionWindow{
		process: process,
		ips:     make(map[string]struct{}),
	}
	var err error
	if w.start, err = parseSessionTime(s.StartDate, s.StartTime, year); err != nil {
		return w, nil, err
	}
	if w.end, err = parseSessionTime(s.EndDate, s.EndTime, year); err != nil {
		return w, nil, err
	}

	var unresolved []string
	for _, host := range s.Hosts {
		if utils.IsValidIP(host) {
			w.ips[host] = struct{}{}
			continue
		}
		var ips []string
		var ok bool
		if res != nil {
			ips, ok = res.Resolve(host)
		}
		if !ok {
			unresolved = append(unresolved, host)
			continue
		}
		for _, ip := range ips {
			w.ips[ip] = struct{}{}
		}
	}
	return w, unresolved, nil
}

// Sessions returns the number of sessions known to the labeller.
func (l *SessionLabeller) Sessions() int {
	return len(l.windows)
}

// Match returns the process of the first session, in catalog order, that
// involves src or dst and whose window contains eventTime (bounds inclusive).
func (l *SessionLabeller) Match(src, dst string, eventTime time.Time) (string, bool) {
	for i := range l.windows {
		if l.windows[i].matches(src, dst, eventTime) {
			return l.windows[i].process, true
		}
	}
	return "", false
}

// EventTime converts a flow timestamp to the UTC time used by session windows.
func (l *SessionLabeller) EventTime(timestamp string) (time.Time, error) {
	t, err := l.mode.ParseTimestamp(timestamp)
	if err != nil {
		return t, err
	}
	return t.Add(-l.offset), nil
}

// Label reads a flow file from r and writes every row to the benign or
// malicious partition and to the combined partition. Only rows touching a
// blocklisted address are checked against sessions.
func (l *SessionLabeller) Label(r *flowcsv.Reader, out Partitions) (SessionStats, error) {
	var stats SessionStats

	header, err := readHeader(r)
	if err != nil {
		return stats, err
	}
	schema, err := NewSchema(header, ColSrcIP, ColDstIP, l.mode.TimestampColumn())
	if err != nil {
		return stats, err
	}
	src, _ := schema.Column(ColSrcIP)
	dst, _ := schema.Column(ColDstIP)
	ts, _ := schema.Column(l.mode.TimestampColumn())

	if err := out.each(func(w RowWriter) error { return w.Write(schema.Header()) }); err != nil {
		return stats, err
	}

	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return stats, err
		}
		stats.Flows++
		if stats.Flows%progressInterval == 0 {
			l.logger.WithFields(stats.Fields()).Debug("flows parsed")
		}

		row := schema.Row(fields)
		srcIP, dstIP := row.Value(src), row.Value(dst)

		label := Benign
		if l.ips.Contains(srcIP) || l.ips.Contains(dstIP) {
			process, ok, err := l.matchRow(srcIP, dstIP, row.Value(ts))
			if err != nil {
				return stats, fmt.Errorf("line %d: %w", r.Line(), err)
			}
			if ok {
				label = Malicious
				l.logger.WithFields(log.Fields{"process": process, "src": srcIP, "dst": dstIP}).Trace("session match")
			}
		}
		row.SetLabel(label)

		partition := out.Benign
		if label == Malicious {
			stats.Labelled++
			partition = out.Malicious
			if l.alerts != nil {
				rec := &flowcsv.Record{Header: schema.Header(), Fields: row.Fields(), KeyField: int(src)}
				if err := l.alerts.Alert(rec); err != nil {
					return stats, err
				}
			}
		}
		if partition != nil {
			if err := partition.Write(row.Fields()); err != nil {
				return stats, err
			}
		}
		if out.Combined != nil {
			if err := out.Combined.Write(row.Fields()); err != nil {
				return stats, err
			}
		}
	}

	l.logger.WithFields(stats.Fields()).WithField("mode", l.mode).Info("session labelling done")
	return stats, nil
}

func (l *SessionLabeller) matchRow(src, dst, timestamp string) (string, bool, error) {
	if len(l.windows) == 0 {
		return "", false, nil
	}
	t, err := l.EventTime(timestamp)
	if err != nil {
		return "", false, err
	}
	process, ok := l.Match(src, dst, t)
	return process, ok, nil
}
