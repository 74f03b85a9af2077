// Package kafka publishes exported records to a Kafka topic. Records are
// partitioned by the hash of their key, the flow source address.
package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	sarama "github.com/Shopify/sarama"
	"github.com/netsampler/flowlabel/transport"
	"github.com/xdg-go/scram"
)

const (
	saslNone        = "none"
	saslPlain       = "plain"
	saslSCRAMSHA256 = "scram-sha256"
	saslSCRAMSHA512 = "scram-sha512"
)

var (
	compressionCodecs = map[string]sarama.CompressionCodec{
		"none":   sarama.CompressionNone,
		"gzip":   sarama.CompressionGZIP,
		"snappy": sarama.CompressionSnappy,
		"lz4":    sarama.CompressionLZ4,
		"zstd":   sarama.CompressionZSTD,
	}

	errNotOpen = errors.New("kafka producer is not open")
)

// Driver produces every message synchronously, so a record that cannot be
// delivered fails its own Send.
type Driver struct {
	Brokers     string
	Topic       string
	Version     string
	Compression string
	TLS         bool
	SASL        string

	producer sarama.SyncProducer
}

func (d *Driver) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&d.Brokers, "transport.kafka.brokers", "127.0.0.1:9092", "Kafka brokers separated by commas")
	fs.StringVar(&d.Topic, "transport.kafka.topic", "flow-alerts", "Topic receiving malicious flows")
	fs.StringVar(&d.Version, "transport.kafka.version", "2.8.0", "Kafka protocol version")
	fs.StringVar(&d.Compression, "transport.kafka.compression", "none", "Compression codec (none, gzip, snappy, lz4, zstd)")
	fs.BoolVar(&d.TLS, "transport.kafka.tls", false, "Connect to the brokers with TLS")
	fs.StringVar(&d.SASL, "transport.kafka.sasl", saslNone,
		"SASL mechanism (none, plain, scram-sha256, scram-sha512), credentials are read from KAFKA_SASL_USER and KAFKA_SASL_PASS")
}

func (d *Driver) saramaConfig() (*sarama.Config, error) {
	version, err := sarama.ParseKafkaVersion(d.Version)
	if err != nil {
		return nil, err
	}

	cfg := sarama.NewConfig()
	cfg.ClientID = "flowlabel"
	cfg.Version = version
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	if d.Compression != "" {
		codec, ok := compressionCodecs[strings.ToLower(d.Compression)]
		if !ok {
			return nil, fmt.Errorf("unknown compression codec %q", d.Compression)
		}
		cfg.Producer.Compression = codec
	}

	if d.TLS {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("loading system certificates: %w", err)
		}
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = &tls.Config{RootCAs: pool}
	}

	if err := d.configureSASL(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (d *Driver) configureSASL(cfg *sarama.Config) error {
	var hash scram.HashGeneratorFcn
	switch strings.ToLower(d.SASL) {
	case "", saslNone:
		return nil
	case saslPlain:
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	case saslSCRAMSHA256:
		cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		hash = scram.SHA256
	case saslSCRAMSHA512:
		cfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		hash = scram.SHA512
	default:
		return fmt.Errorf("unknown SASL mechanism %q", d.SASL)
	}

	user, pass := os.Getenv("KAFKA_SASL_USER"), os.Getenv("KAFKA_SASL_PASS")
	if user == "" || pass == "" {
		return errors.New("KAFKA_SASL_USER and KAFKA_SASL_PASS must be set to use SASL")
	}
	cfg.Net.SASL.Enable = true
	cfg.Net.SASL.Handshake = true
	cfg.Net.SASL.User = user
	cfg.Net.SASL.Password = pass
	if hash != nil {
		cfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{hash: hash}
		}
	}
	return nil
}

func (d *Driver) Open() error {
	cfg, err := d.saramaConfig()
	if err != nil {
		return err
	}
	producer, err := sarama.NewSyncProducer(brokerList(d.Brokers), cfg)
	if err != nil {
		return err
	}
	d.producer = producer
	return nil
}

func brokerList(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (d *Driver) message(msg *transport.Message) *sarama.ProducerMessage {
	return &sarama.ProducerMessage{
		Topic: d.Topic,
		Key:   sarama.ByteEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Payload),
	}
}

func (d *Driver) Send(msg *transport.Message) error {
	if d.producer == nil {
		return errNotOpen
	}
	_, _, err := d.producer.SendMessage(d.message(msg))
	return err
}

// Close waits for in-flight messages and closes the producer.
func (d *Driver) Close() error {
	if d.producer == nil {
		return nil
	}
	err := d.producer.Close()
	d.producer = nil
	return err
}

func init() {
	transport.Register("kafka", &Driver{})
}
