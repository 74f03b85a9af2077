package config

import (
	"strings"
)

// StringSliceFlag collects values from repeated flags and comma-separated lists:
//
//	-internal 10.0.0.0/8 -internal 192.168.0.0/16
//	-internal 10.0.0.0/8,192.168.0.0/16
type StringSliceFlag []string

func (s *StringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *StringSliceFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			*s = append(*s, trimmed)
		}
	}
	return nil
}
