package refdata

import (
	"fmt"
	"io"
)

// ResolutionMap maps a hostname to the addresses it resolved to during capture.
type ResolutionMap map[string][]string

// Resolve returns the addresses recorded for host.
func (m ResolutionMap) Resolve(host string) ([]string, bool) {
	ips, ok := m[host]
	return ips, ok
}

type mappingDicts struct {
	DomainToIP map[string][]string `json:"domain_to_ip_dict"`
}

// ReadResolution decodes a resolution table of the form
// {"domain_to_ip_dict": {"host": ["1.2.3.4", ...]}}. Other keys are ignored.
func ReadResolution(r io.Reader) (ResolutionMap, error) {
	var doc mappingDicts
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	if doc.DomainToIP == nil {
		return nil, &ReferenceDataError{Err: fmt.Errorf("missing domain_to_ip_dict")}
	}
	return ResolutionMap(doc.DomainToIP), nil
}

// LoadResolution reads a resolution table file.
func LoadResolution(path string) (ResolutionMap, error) {
	return load(path, ReadResolution)
}
