package labeller

import (
	"io"

	"github.com/netsampler/flowlabel/decoders/flowcsv"

	log "github.com/sirupsen/logrus"
)

// HostLabeller labels a flow malicious when either endpoint is in the
// blocklist. Rows failing the mode's validity filter are dropped.
type HostLabeller struct {
	IPs    IPMatcher
	Mode   Mode
	Alerts AlertSink // optional
	Logger log.FieldLogger
}

// Label reads a flow file from r and writes one labelled row per kept input
// row to w, header first.
func (h *HostLabeller) Label(r *flowcsv.Reader, w RowWriter) (HostStats, error) {
	var stats HostStats
	logger := loggerOrDefault(h.Logger)

	header, err := readHeader(r)
	if err != nil {
		return stats, err
	}
	schema, err := NewSchema(header, ColSrcIP, ColDstIP)
	if err != nil {
		return stats, err
	}
	src, _ := schema.Column(ColSrcIP)
	dst, _ := schema.Column(ColDstIP)
	valid, err := h.Mode.validityFilter(schema)
	if err != nil {
		return stats, err
	}

	if err := w.Write(schema.Header()); err != nil {
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
			logger.WithFields(stats.Fields()).Debug("flows parsed")
		}

		row := schema.Row(fields)
		if !valid(row) {
			stats.Skipped++
			continue
		}

		srcHit := h.IPs.Contains(row.Value(src))
		dstHit := h.IPs.Contains(row.Value(dst))
		if srcHit {
			stats.SrcMatches++
		}
		if dstHit {
			stats.DstMatches++
		}

		if srcHit || dstHit {
			row.SetLabel(Malicious)
			stats.Labelled++
			if h.Alerts != nil {
				rec := &flowcsv.Record{Header: schema.Header(), Fields: row.Fields(), KeyField: int(src)}
				if err := h.Alerts.Alert(rec); err != nil {
					return stats, err
				}
			}
		} else {
			row.SetLabel(Benign)
		}

		if err := w.Write(row.Fields()); err != nil {
			return stats, err
		}
	}

	entry := logger.WithFields(stats.Fields()).WithField("mode", h.Mode)
	entry.Info("host labelling done")
	if stats.Skipped > 0 {
		reason := "zero SYN count"
		if h.Mode == KDD {
			reason = "non-established state"
		}
		entry.WithField("reason", reason).Infof("%d (%.2f%%) flows skipped", stats.Skipped, stats.SkippedPercent())
	}
	return stats, nil
}
