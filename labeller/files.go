package labeller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/utils"
)

// Output name suffixes, appended to the input name without its extension.
const (
	SuffixHost      = "-labelled"
	SuffixBenign    = "-normalSess"
	SuffixMalicious = "-maliciousSess"
	SuffixCombined  = "-labelledSess"
	SuffixIntExt    = "-intExt"
)

// OutputPath derives an output file name from input. An empty dir places
// the output next to the input.
func OutputPath(input, dir, suffix string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+suffix+".csv")
}

type outputs struct {
	files   []*utils.AtomicFile
	writers []*flowcsv.Writer
}

func createOutputs(paths ...string) (*outputs, error) {
	o := &outputs{}
	for _, path := range paths {
		f, err := utils.CreateAtomic(path)
		if err != nil {
			o.abort()
			return nil, err
		}
		o.files = append(o.files, f)
		o.writers = append(o.writers, flowcsv.NewWriter(f))
	}
	return o, nil
}

func (o *outputs) commit() error {
	for _, w := range o.writers {
		if err := w.Flush(); err != nil {
			o.abort()
			return err
		}
	}
	var errs []error
	for _, f := range o.files {
		if err := f.Commit(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path(), err))
		}
	}
	return errors.Join(errs...)
}

func (o *outputs) abort() {
	for _, f := range o.files {
		_ = f.Abort()
	}
}

func openInput(path string) (*os.File, *flowcsv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, flowcsv.NewReader(f), nil
}

// LabelFile labels input into output. Nothing is written to output unless
// the whole file was labelled.
func (h *HostLabeller) LabelFile(input, output string) (HostStats, error) {
	in, r, err := openInput(input)
	if err != nil {
		return HostStats{}, err
	}
	defer in.Close()

	out, err := createOutputs(output)
	if err != nil {
		return HostStats{}, err
	}
	stats, err := h.Label(r, out.writers[0])
	if err != nil {
		out.abort()
		return stats, fmt.Errorf("%s: %w", input, err)
	}
	return stats, out.commit()
}

// LabelFile labels input into the benign, malicious and combined files
// derived from its name inside dir (next to input when dir is empty).
func (l *SessionLabeller) LabelFile(input, dir string) (SessionStats, error) {
	in, r, err := openInput(input)
	if err != nil {
		return SessionStats{}, err
	}
	defer in.Close()

	out, err := createOutputs(
		OutputPath(input, dir, SuffixBenign),
		OutputPath(input, dir, SuffixMalicious),
		OutputPath(input, dir, SuffixCombined),
	)
	if err != nil {
		return SessionStats{}, err
	}
	stats, err := l.Label(r, Partitions{
		Benign:    out.writers[0],
		Malicious: out.writers[1],
		Combined:  out.writers[2],
	})
	if err != nil {
		out.abort()
		return stats, fmt.Errorf("%s: %w", input, err)
	}
	return stats, out.commit()
}

// AugmentFile runs Augment from input into output.
func AugmentFile(input, output string, features ...DestinationFeature) (int, error) {
	in, r, err := openInput(input)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := createOutputs(output)
	if err != nil {
		return 0, err
	}
	rows, err := Augment(r, out.writers[0], features...)
	if err != nil {
		out.abort()
		return rows, fmt.Errorf("%s: %w", input, err)
	}
	return rows, out.commit()
}
