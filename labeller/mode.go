package labeller

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the feature extractor a flow file was produced by. It fixes
// the timestamp column and format and the validity filter of host labelling.
type Mode string

const (
	FlowMeter Mode = "FlowMeter"
	KDD       Mode = "KDD"
)

const (
	ColSrcIP     = "Src IP"
	ColDstIP     = "Dst IP"
	ColTimestamp = "Timestamp"
	ColConnEnd   = "conn_end_time"
	ColProtocol  = "Protocol"
	ColSYNCount  = "SYN Flag Cnt"
	ColFlag      = "flag"
	ColLabel     = "Label"
)

const (
	Benign    = "0"
	Malicious = "1"
)

var (
	// connection states of an established or cleanly terminated connection
	validConnStates = map[string]bool{
		"S1":   true,
		"S2":   true,
		"S3":   true,
		"SF":   true,
		"RSTO": true,
		"RSTR": true,
	}
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case FlowMeter, KDD:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (available: %s, %s)", s, FlowMeter, KDD)
}

// TimestampColumn returns the name of the column holding the flow time.
func (m Mode) TimestampColumn() string {
	if m == KDD {
		return ColConnEnd
	}
	return ColTimestamp
}

// TimestampLayout returns the time layout of the timestamp column,
// e.g. 26/04/2017 02:02:56 for FlowMeter and 2017-04-26T02:02:56 for KDD.
func (m Mode) TimestampLayout() string {
	if m == KDD {
		return "2006-1-2T15:04:05"
	}
	return "2/1/2006 15:04:05"
}

// ParseTimestamp parses a flow timestamp as written by the extractor.
func (m Mode) ParseTimestamp(value string) (time.Time, error) {
	return parseTime(m.TimestampLayout(), value)
}

// parseTime parses value with whole-second precision. time.Parse accepts a
// fractional second after the seconds field even when the layout has none.
func parseTime(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, &TimeParseError{value, layout, err}
	}
	if i := strings.LastIndexByte(value, ':'); i >= 0 && strings.ContainsAny(value[i:], ".,") {
		return time.Time{}, &TimeParseError{value, layout, errFractionalSeconds}
	}
	return t, nil
}

// validityFilter returns a predicate reporting whether a row describes a
// usable connection. FlowMeter drops TCP flows that never saw a SYN, KDD
// drops connections that were not established.
func (m Mode) validityFilter(s *Schema) (func(Row) bool, error) {
	if m == KDD {
		flag, err := s.Column(ColFlag)
		if err != nil {
			return nil, err
		}
		return func(r Row) bool {
			return validConnStates[r.Value(flag)]
		}, nil
	}

	proto, err := s.Column(ColProtocol)
	if err != nil {
		return nil, err
	}
	syn, err := s.Column(ColSYNCount)
	if err != nil {
		return nil, err
	}
	return func(r Row) bool {
		return !(r.Value(proto) == "6" && r.Value(syn) == "0")
	}, nil
}
