package labeller

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netsampler/flowlabel/format"
	_ "github.com/netsampler/flowlabel/format/csv"
	"github.com/netsampler/flowlabel/refdata"
	"github.com/netsampler/flowlabel/transport"
	"github.com/netsampler/flowlabel/utils"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlows(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "flows-labelled.csv"), OutputPath(filepath.Join("data", "flows.csv"), "", SuffixHost))
	assert.Equal(t, filepath.Join("out", "flows.pcap_Flow-intExt.csv"), OutputPath(filepath.Join("data", "flows.pcap_Flow.csv"), "out", SuffixIntExt))
}

func TestHostLabelFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFlows(t, dir, "flows.csv", flowMeterInput)
	output := OutputPath(input, "", SuffixHost)

	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: FlowMeter, Logger: quietLogger()}
	stats, err := h.LabelFile(input, output)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Labelled)

	first, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(first), "Timestamp,Label\r\na,10.0.0.5,8.8.8.8,6,1,26/04/2017 12:30:00,1\r\n")

	_, err = h.LabelFile(input, output)
	require.NoError(t, err)
	second, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHostLabelFileFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeFlows(t, dir, "flows.csv", "Src IP,Protocol\n1.1.1.1,6\n")
	output := OutputPath(input, "", SuffixHost)

	h := &HostLabeller{IPs: refdata.NewIPSet(), Mode: FlowMeter, Logger: quietLogger()}
	_, err := h.LabelFile(input, output)
	assert.True(t, errors.Is(err, ErrSchema))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "flows.csv", entries[0].Name())
}

func TestSessionLabelFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFlows(t, dir, "flows.csv", `Src IP,Dst IP,Timestamp
192.168.1.10,1.2.3.4,26/04/2017 12:30:00
192.168.1.10,8.8.8.8,26/04/2017 12:30:00
`)
	out := filepath.Join(dir, "out")

	l := newTestSessionLabeller(t, FlowMeter, "1.2.3.4")
	stats, err := l.LabelFile(input, out)
	require.NoError(t, err)
	assert.Equal(t, SessionStats{Flows: 2, Labelled: 1}, stats)

	read := func(suffix string) string {
		payload, err := os.ReadFile(OutputPath(input, out, suffix))
		require.NoError(t, err)
		return string(payload)
	}
	header := "Src IP,Dst IP,Timestamp,Label\r\n"
	assert.Equal(t, header+"192.168.1.10,8.8.8.8,26/04/2017 12:30:00,0\r\n", read(SuffixBenign))
	assert.Equal(t, header+"192.168.1.10,1.2.3.4,26/04/2017 12:30:00,1\r\n", read(SuffixMalicious))
	assert.Equal(t, header+
		"192.168.1.10,1.2.3.4,26/04/2017 12:30:00,1\r\n"+
		"192.168.1.10,8.8.8.8,26/04/2017 12:30:00,0\r\n", read(SuffixCombined))
}

func TestSessionLabelFileTimeParseFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeFlows(t, dir, "flows.csv", "Src IP,Dst IP,Timestamp\n1.2.3.4,8.8.8.8,yesterday\n")

	l := newTestSessionLabeller(t, FlowMeter, "1.2.3.4")
	_, err := l.LabelFile(input, "")
	assert.True(t, errors.Is(err, ErrTimeParse))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAugmentFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFlows(t, dir, "flows-labelled.csv", "Dst IP,Label\n10.0.0.1,1\n")
	output := OutputPath(input, "", SuffixIntExt)

	rows, err := AugmentFile(input, output, InternalExternal{Internal: internalNetworks(t, "10.0.0.0/8")})
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	payload, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Dst IP,dstIntExt,Label\r\n10.0.0.1,0,1\r\n", string(payload))
}

type memTransport struct {
	keys, payloads []string
}

func (m *memTransport) Send(msg *transport.Message) error {
	m.keys = append(m.keys, string(msg.Key))
	m.payloads = append(m.payloads, string(msg.Payload))
	return nil
}

func TestExporter(t *testing.T) {
	f, err := format.Find("csv")
	require.NoError(t, err)
	tr := &memTransport{}

	exporter := &Exporter{Format: f, Transport: tr}
	h := &HostLabeller{
		IPs:    refdata.NewIPSet("10.0.0.5"),
		Mode:   FlowMeter,
		Alerts: exporter,
		Logger: quietLogger(),
	}
	_, err = h.Label(reader(flowMeterInput), &memWriter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.5", "8.8.4.4"}, tr.keys)
	assert.Equal(t, "a,10.0.0.5,8.8.8.8,6,1,26/04/2017 12:30:00,1", tr.payloads[0])
	assert.Equal(t, 2, exporter.Sent())
}

type failingTransport struct{}

func (failingTransport) Send(*transport.Message) error {
	return errors.New("broker unavailable")
}

func TestExporterFailuresDoNotAbort(t *testing.T) {
	f, err := format.Find("csv")
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	exporter := &Exporter{
		Format:    f,
		Transport: failingTransport{},
		Mute:      utils.NewBatchMute(time.Hour, 1),
		Logger:    logger,
	}
	h := &HostLabeller{IPs: refdata.NewIPSet("10.0.0.5"), Mode: FlowMeter, Alerts: exporter, Logger: quietLogger()}

	w := &memWriter{}
	stats, err := h.Label(reader(flowMeterInput), w)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Labelled)
	assert.Len(t, w.rows, 4)

	assert.Equal(t, 0, exporter.Sent())
	assert.Equal(t, 2, exporter.Failures())
	assert.Len(t, hook.AllEntries(), 1, "second failure is muted")
}
