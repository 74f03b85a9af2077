// Package batch runs a labelling engine over every flow file of a directory.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/netsampler/flowlabel/metrics"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultExt    = ".csv"
	DefaultOutDir = "Labelled"
)

// ProcessFunc processes one input file, writing its outputs into outDir.
type ProcessFunc func(input, outDir string) error

type Driver struct {
	Engine string // engine name used in logs and metrics
	Ext    string // extension of flow files, DefaultExt when empty
	// OutDir receives the outputs. A relative path is resolved against the
	// input directory; DefaultOutDir when empty.
	OutDir  string
	Process ProcessFunc
	Logger  log.FieldLogger
}

type Result struct {
	File string
	Err  error
}

type Report struct {
	OutDir  string
	Results []Result
}

func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Report) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

func (d *Driver) ext() string {
	if d.Ext == "" {
		return DefaultExt
	}
	return d.Ext
}

func (d *Driver) outDir(dir string) string {
	out := d.OutDir
	if out == "" {
		out = DefaultOutDir
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(dir, out)
}

// Files lists the flow files of dir in lexical order.
func (d *Driver) Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext := d.ext()
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// Run processes every flow file of dir. A failing file does not stop the
// others; the returned error joins every per-file failure.
func (d *Driver) Run(dir string) (*Report, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	files, err := d.Files(dir)
	if err != nil {
		return nil, err
	}
	report := &Report{OutDir: d.outDir(dir)}
	if err := os.MkdirAll(report.OutDir, 0o755); err != nil {
		return nil, err
	}

	var errs []error
	for _, file := range files {
		logger.WithFields(log.Fields{
			"engine": d.Engine,
			"file":   file,
		}).Info("processing file")

		err := d.Process(file, report.OutDir)
		metrics.ObserveFile(d.Engine, err)
		report.Results = append(report.Results, Result{File: file, Err: err})
		if err != nil {
			logger.WithFields(log.Fields{
				"engine": d.Engine,
				"file":   file,
			}).Error(err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(file), err))
		}
	}

	logger.WithFields(log.Fields{
		"engine": d.Engine,
		"files":  len(report.Results),
		"failed": len(errs),
	}).Info("batch done")
	return report, errors.Join(errs...)
}
