package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/netsampler/flowlabel/format"
	"github.com/netsampler/flowlabel/labeller"
	"github.com/netsampler/flowlabel/transport"

	"gopkg.in/yaml.v2"
)

const (
	EngineHost    = "host"
	EngineSession = "session"
	EngineAugment = "augment"
)

var ErrConfig = errors.New("invalid configuration")

// Config holds the configuration of a labelling run.
type Config struct {
	Engine string `yaml:"engine"`
	Mode   string `yaml:"mode"`

	Input string `yaml:"input"`
	Out   string `yaml:"out"`
	Ext   string `yaml:"ext"`

	IPs        string `yaml:"ips"`
	Sessions   string `yaml:"sessions"`
	Resolution string `yaml:"resolution"`

	Internal     StringSliceFlag `yaml:"internal"`
	GeoIPCountry string          `yaml:"geoip_country"`

	Year      int           `yaml:"year"`
	UTCOffset time.Duration `yaml:"utcoffset"`

	LogLevel string `yaml:"loglevel"`
	LogFmt   string `yaml:"logfmt"`

	MetricsTextfile string `yaml:"metrics_textfile"`
	MetricsAddr     string `yaml:"metrics_addr"`
	MetricsPush     string `yaml:"metrics_push"`

	Format    string `yaml:"format"`
	Transport string `yaml:"transport"`

	ConfigFile string `yaml:"-"`
	Version    bool   `yaml:"-"`
}

// BindFlags registers configuration flags, including those of the
// registered transports, and returns a Config.
func BindFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}

	fs.StringVar(&cfg.Engine, "engine", EngineHost, "Labelling engine (host, session or augment)")
	fs.StringVar(&cfg.Mode, "mode", string(labeller.FlowMeter), fmt.Sprintf("Feature extractor of the flow files (%s or %s)", labeller.FlowMeter, labeller.KDD))
	fs.StringVar(&cfg.Input, "input", "", "Flow file or directory of flow files")
	fs.StringVar(&cfg.Out, "out", "", "Output directory (next to the input for files, Labelled subdirectory for directories)")
	fs.StringVar(&cfg.Ext, "ext", ".csv", "Extension of flow files in a directory")
	fs.StringVar(&cfg.IPs, "ips", "", "JSON file listing malicious_ips")
	fs.StringVar(&cfg.Sessions, "sessions", "", "JSON file of malicious sessions per process")
	fs.StringVar(&cfg.Resolution, "resolution", "", "JSON file with the domain_to_ip_dict resolution table")
	fs.Var(&cfg.Internal, "internal", "Internal network prefixes for augmentation (repeat or separate with commas)")
	fs.StringVar(&cfg.GeoIPCountry, "geoip.country", "", "IP->Country database adding a dstCountry column")
	fs.IntVar(&cfg.Year, "year", labeller.DefaultYear, "Year of the session dates")
	fs.DurationVar(&cfg.UTCOffset, "utcoffset", labeller.DefaultUTCOffset, "Offset subtracted from flow timestamps to get UTC")
	fs.StringVar(&cfg.LogLevel, "loglevel", "info", "Log level")
	fs.StringVar(&cfg.LogFmt, "logfmt", "normal", "Log formatter")
	fs.StringVar(&cfg.MetricsTextfile, "metrics.textfile", "", "Write metrics to this file at the end of the run")
	fs.StringVar(&cfg.MetricsAddr, "metrics.addr", "", "Serve metrics on this address during the run")
	fs.StringVar(&cfg.MetricsPush, "metrics.push", "", "Pushgateway URL receiving metrics at the end of the run")
	fs.StringVar(&cfg.Format, "format", "csv", fmt.Sprintf("Format of exported malicious flows (available: %s)", strings.Join(format.Names(), ", ")))
	fs.StringVar(&cfg.Transport, "transport", "", fmt.Sprintf("Export malicious flows with this transport (available: %s)", strings.Join(transport.Names(), ", ")))
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file, flags take precedence")
	fs.BoolVar(&cfg.Version, "v", false, "Print version")
	transport.BindFlags(fs)

	return cfg
}

// LoadConfig decodes a YAML configuration into cfg. Keys absent from the
// document keep their current value.
func LoadConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Load applies the file named by -config. Flags set on the command line
// override values from the file.
func (c *Config) Load(fs *flag.FlagSet) error {
	if c.ConfigFile == "" {
		return nil
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	f, err := os.Open(c.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := LoadConfig(f, c); err != nil {
		return fmt.Errorf("%s: %w", c.ConfigFile, err)
	}

	if _, ok := explicit["internal"]; ok {
		c.Internal = nil
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the reference data required by the engine is set.
func (c *Config) Validate() error {
	if _, err := labeller.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Input == "" {
		return fmt.Errorf("%w: -input is required", ErrConfig)
	}

	var required map[string]string
	switch c.Engine {
	case EngineHost:
		required = map[string]string{"ips": c.IPs}
	case EngineSession:
		required = map[string]string{"ips": c.IPs, "sessions": c.Sessions, "resolution": c.Resolution}
	case EngineAugment:
		if len(c.Internal) == 0 {
			return fmt.Errorf("%w: -internal is required by the augment engine", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrConfig, c.Engine)
	}
	for _, name := range []string{"ips", "sessions", "resolution"} {
		if value, ok := required[name]; ok && value == "" {
			return fmt.Errorf("%w: -%s is required by the %s engine", ErrConfig, name, c.Engine)
		}
	}
	return nil
}
