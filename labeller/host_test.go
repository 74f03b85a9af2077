package labeller

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/refdata"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	rows [][]string
}

func (m *memWriter) Write(record []string) error {
	m.rows = append(m.rows, append([]string(nil), record...))
	return nil
}

type memAlerts struct {
	records []*flowcsv.Record
}

func (m *memAlerts) Alert(record *flowcsv.Record) error {
	m.records = append(m.records, record)
	return nil
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func reader(s string) *flowcsv.Reader {
	return flowcsv.NewReader(strings.NewReader(s))
}

const flowMeterInput = `Flow ID,Src IP,Dst IP,Protocol,SYN Flag Cnt,Timestamp
a,10.0.0.5,8.8.8.8,6,1,26/04/2017 12:30:00
b,10.0.0.7,8.8.8.8,6,0,26/04/2017 12:31:00
c,8.8.4.4,10.0.0.5,17,0,26/04/2017 12:32:00
d,192.168.1.1,192.168.1.2,6,2,26/04/2017 12:33:00
e,10.0.0.5,10.0.0.5,6,0,26/04/2017 12:34:00
`

func TestHostLabelFlowMeter(t *testing.T) {
	h := &HostLabeller{
		IPs:    refdata.NewIPSet("10.0.0.5"),
		Mode:   FlowMeter,
		Logger: quietLogger(),
	}
	w := &memWriter{}
	stats, err := h.Label(reader(flowMeterInput), w)
	require.NoError(t, err)

	assert.Equal(t, HostStats{Flows: 5, Labelled: 2, Skipped: 2, SrcMatches: 1, DstMatches: 1}, stats)
	assert.Equal(t, stats.Flows, stats.Written()+stats.Skipped)
	require.Len(t, w.rows, 1+stats.Written())

	assert.Equal(t, []string{"Flow ID", "Src IP", "Dst IP", "Protocol", "SYN Flag Cnt", "Timestamp", "Label"}, w.rows[0])
	assert.Equal(t, []string{"a", "10.0.0.5", "8.8.8.8", "6", "1", "26/04/2017 12:30:00", "1"}, w.rows[1])
	assert.Equal(t, "c", w.rows[2][0])
	assert.Equal(t, "1", w.rows[2][6], "UDP flows are never filtered")
	assert.Equal(t, "d", w.rows[3][0])
	assert.Equal(t, "0", w.rows[3][6])

	for _, row := range w.rows[1:] {
		assert.Len(t, row, len(w.rows[0]))
		assert.Contains(t, []string{Benign, Malicious}, row[len(row)-1])
	}
}

func TestHostLabelScenario(t *testing.T) {
	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: FlowMeter, Logger: quietLogger()}

	w := &memWriter{}
	stats, err := h.Label(reader("Src IP,Dst IP,Protocol,SYN Flag Cnt\n10.0.0.5,8.8.8.8,6,1\n"), w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SrcMatches)
	assert.Equal(t, "1", w.rows[1][4])

	w = &memWriter{}
	stats, err = h.Label(reader("Src IP,Dst IP,Protocol,SYN Flag Cnt\n10.0.0.5,8.8.8.8,6,0\n"), w)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, w.rows, 1, "only the header is written")
}

func TestHostLabelKDD(t *testing.T) {
	input := `Src IP,Dst IP,flag,conn_end_time,Label
10.0.0.5,1.1.1.1,SF,2017-04-26T02:02:56,
10.0.0.5,1.1.1.1,S0,2017-04-26T02:02:57,
1.1.1.1,2.2.2.2,RSTO,2017-04-26T02:02:58,1
1.1.1.1,2.2.2.2,REJ,2017-04-26T02:02:59,1
`
	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: KDD, Logger: quietLogger()}
	w := &memWriter{}
	stats, err := h.Label(reader(input), w)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Skipped)
	require.Len(t, w.rows, 3)
	assert.Equal(t, []string{"Src IP", "Dst IP", "flag", "conn_end_time", "Label"}, w.rows[0], "existing Label column is reused")
	assert.Equal(t, "1", w.rows[1][4])
	assert.Equal(t, "0", w.rows[2][4], "existing label is overwritten")
}

func TestHostLabelSchemaErrors(t *testing.T) {
	h := &HostLabeller{IPs: refdata.NewIPSet(), Mode: FlowMeter, Logger: quietLogger()}

	_, err := h.Label(reader("Src IP,Protocol,SYN Flag Cnt\n1.1.1.1,6,1\n"), &memWriter{})
	require.Error(t, err)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColDstIP, schemaErr.Column)

	_, err = h.Label(reader("Src IP,Dst IP\n1.1.1.1,2.2.2.2\n"), &memWriter{})
	assert.True(t, errors.Is(err, ErrSchema))

	h.Mode = KDD
	_, err = h.Label(reader("Src IP,Dst IP,Protocol\n1.1.1.1,2.2.2.2,6\n"), &memWriter{})
	assert.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColFlag, schemaErr.Column)

	_, err = h.Label(reader(""), &memWriter{})
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestHostLabelFieldCount(t *testing.T) {
	h := &HostLabeller{IPs: refdata.NewIPSet(), Mode: FlowMeter, Logger: quietLogger()}
	_, err := h.Label(reader("Src IP,Dst IP,Protocol,SYN Flag Cnt\n1.1.1.1,2.2.2.2,6\n"), &memWriter{})
	assert.True(t, errors.Is(err, flowcsv.ErrFieldCount))
}

func TestHostLabelEmpty(t *testing.T) {
	h := &HostLabeller{IPs: refdata.NewIPSet(), Mode: FlowMeter, Logger: quietLogger()}
	stats, err := h.Label(reader("Src IP,Dst IP,Protocol,SYN Flag Cnt\n"), &memWriter{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Flows)
	assert.Equal(t, 0.0, stats.LabelledPercent())
	assert.Equal(t, 0.0, stats.SkippedPercent())
}

func TestHostLabelIdempotent(t *testing.T) {
	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: FlowMeter, Logger: quietLogger()}

	run := func() string {
		var buf bytes.Buffer
		w := flowcsv.NewWriter(&buf)
		_, err := h.Label(reader(flowMeterInput), w)
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		return buf.String()
	}
	assert.Equal(t, run(), run())
}

func TestHostLabelAlerts(t *testing.T) {
	alerts := &memAlerts{}
	h := &HostLabeller{
		IPs:    refdata.NewIPSet("10.0.0.5"),
		Mode:   FlowMeter,
		Alerts: alerts,
		Logger: quietLogger(),
	}
	_, err := h.Label(reader(flowMeterInput), &memWriter{})
	require.NoError(t, err)

	require.Len(t, alerts.records, 2)
	assert.Equal(t, []byte("10.0.0.5"), alerts.records[0].Key())
	assert.Equal(t, []byte("8.8.4.4"), alerts.records[1].Key())
	assert.Equal(t, "1", alerts.records[1].Map()[ColLabel])
}

func TestHostLabelLogsSummary(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: FlowMeter, Logger: logger}
	_, err := h.Label(reader(flowMeterInput), &memWriter{})
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	entry := hook.AllEntries()[0]
	assert.Equal(t, "host labelling done", entry.Message)
	assert.Equal(t, 5, entry.Data["flows"])
	assert.Equal(t, "40.00", entry.Data["percent"])
}
