package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/netsampler/flowlabel/batch"
	"github.com/netsampler/flowlabel/labeller"
	"github.com/netsampler/flowlabel/metrics"
	"github.com/netsampler/flowlabel/pkg/flowlabel/config"
	"github.com/netsampler/flowlabel/pkg/flowlabel/logging"
	"github.com/netsampler/flowlabel/refdata"
	"github.com/netsampler/flowlabel/utils"

	// various formatters
	"github.com/netsampler/flowlabel/format"
	_ "github.com/netsampler/flowlabel/format/csv"
	_ "github.com/netsampler/flowlabel/format/json"
	_ "github.com/netsampler/flowlabel/format/text"

	// various transports
	"github.com/netsampler/flowlabel/transport"
	_ "github.com/netsampler/flowlabel/transport/file"
	_ "github.com/netsampler/flowlabel/transport/kafka"

	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "flowlabel " + version + " " + buildinfos

	appConfig = config.BindFlags(flag.CommandLine)
)

func httpServer(addr string, logger log.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithField("addr", addr).Error(err)
	}
}

// exporter returns the alert sink configured by -transport, nil when disabled.
func exporter(cfg *config.Config, logger log.FieldLogger) (*labeller.Exporter, func(), error) {
	if cfg.Transport == "" {
		return nil, func() {}, nil
	}
	formatter, err := format.Find(cfg.Format)
	if err != nil {
		return nil, nil, err
	}
	transporter, err := transport.Open(cfg.Transport)
	if err != nil {
		return nil, nil, err
	}
	e := &labeller.Exporter{
		Format:    formatter,
		Transport: transporter,
		Mute:      utils.NewBatchMute(time.Second*10, 10),
		Logger:    logger,
	}
	closer := func() {
		if err := transporter.Close(); err != nil {
			logger.Error(err)
		}
		logger.WithFields(log.Fields{
			"transport": cfg.Transport,
			"sent":      e.Sent(),
			"failures":  e.Failures(),
		}).Info("alert export done")
	}
	return e, closer, nil
}

func hostEngine(cfg *config.Config, mode labeller.Mode, alerts labeller.AlertSink, logger log.FieldLogger) (batch.ProcessFunc, error) {
	ips, err := refdata.LoadMaliciousIPs(cfg.IPs)
	if err != nil {
		return nil, err
	}
	metrics.ObserveReference("malicious_ips", ips.Len())

	h := &labeller.HostLabeller{IPs: ips, Mode: mode, Alerts: alerts, Logger: logger}
	return func(input, outDir string) error {
		stats, err := h.LabelFile(input, labeller.OutputPath(input, outDir, labeller.SuffixHost))
		if err != nil {
			return err
		}
		metrics.ObserveHost(mode, stats)
		return nil
	}, nil
}

func sessionEngine(cfg *config.Config, mode labeller.Mode, alerts labeller.AlertSink, logger log.FieldLogger) (batch.ProcessFunc, error) {
	ips, err := refdata.LoadMaliciousIPs(cfg.IPs)
	if err != nil {
		return nil, err
	}
	catalog, err := refdata.LoadSessions(cfg.Sessions)
	if err != nil {
		return nil, err
	}
	resolution, err := refdata.LoadResolution(cfg.Resolution)
	if err != nil {
		return nil, err
	}
	metrics.ObserveReference("malicious_ips", ips.Len())
	metrics.ObserveReference("sessions", catalog.Len())
	metrics.ObserveReference("resolutions", len(resolution))

	offset := cfg.UTCOffset
	l, err := labeller.NewSessionLabeller(labeller.SessionConfig{
		IPs:        ips,
		Catalog:    catalog,
		Resolution: resolution,
		Mode:       mode,
		Year:       cfg.Year,
		UTCOffset:  &offset,
		Alerts:     alerts,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return func(input, outDir string) error {
		stats, err := l.LabelFile(input, outDir)
		if err != nil {
			return err
		}
		metrics.ObserveSession(mode, stats)
		return nil
	}, nil
}

func augmentEngine(cfg *config.Config, logger log.FieldLogger) (batch.ProcessFunc, func(), error) {
	internal, err := utils.ParseNetworks(cfg.Internal)
	if err != nil {
		return nil, nil, err
	}
	features := []labeller.DestinationFeature{labeller.InternalExternal{Internal: internal}}

	closer := func() {}
	if cfg.GeoIPCountry != "" {
		db, err := geoip2.Open(cfg.GeoIPCountry)
		if err != nil {
			return nil, nil, err
		}
		closer = func() { db.Close() }
		features = append(features, labeller.Country{DB: db})
	}

	return func(input, outDir string) error {
		rows, err := labeller.AugmentFile(input, labeller.OutputPath(input, outDir, labeller.SuffixIntExt), features...)
		if err != nil {
			return err
		}
		logger.WithFields(log.Fields{
			"file":     input,
			"rows":     rows,
			"internal": internal.String(),
		}).Info("augmentation done")
		return nil
	}, closer, nil
}

func run(cfg *config.Config, logger log.FieldLogger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	mode, err := labeller.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	tm := metrics.TimeMeasureNow()

	alerts, closeAlerts, err := exporter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAlerts()
	var sink labeller.AlertSink
	if alerts != nil {
		sink = alerts
	}

	var process batch.ProcessFunc
	switch cfg.Engine {
	case config.EngineHost:
		process, err = hostEngine(cfg, mode, sink, logger)
	case config.EngineSession:
		process, err = sessionEngine(cfg, mode, sink, logger)
	case config.EngineAugment:
		var closer func()
		process, closer, err = augmentEngine(cfg, logger)
		if closer != nil {
			defer closer()
		}
	}
	if err != nil {
		return err
	}

	info, err := os.Stat(cfg.Input)
	if err != nil {
		return err
	}
	if info.IsDir() {
		d := &batch.Driver{
			Engine:  cfg.Engine,
			Ext:     cfg.Ext,
			OutDir:  cfg.Out,
			Process: process,
			Logger:  logger,
		}
		_, err = d.Run(cfg.Input)
	} else {
		err = process(cfg.Input, cfg.Out)
		metrics.ObserveFile(cfg.Engine, err)
	}

	elapsed := tm.MeasureRun(cfg.Engine)
	logger.WithFields(log.Fields{
		"engine":  cfg.Engine,
		"mode":    mode,
		"elapsed": elapsed,
	}).Info("run finished")

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error(werr)
		}
	}
	if cfg.MetricsPush != "" {
		if perr := metrics.Push(cfg.MetricsPush, "flowlabel"); perr != nil {
			logger.Error(perr)
		}
	}
	return err
}

func main() {
	flag.Parse()

	if appConfig.Version {
		fmt.Println(AppVersion)
		os.Exit(0)
	}

	if err := appConfig.Load(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFmt)
	if err != nil {
		log.Fatal("error parsing log level")
	}

	if appConfig.MetricsAddr != "" {
		go httpServer(appConfig.MetricsAddr, logger)
	}

	logger.WithFields(log.Fields{
		"engine": appConfig.Engine,
		"mode":   appConfig.Mode,
		"input":  appConfig.Input,
	}).Info("starting flowlabel")

	if err := run(appConfig, logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
