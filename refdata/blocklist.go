package refdata

import (
	"fmt"
	"io"
	"sort"
)

// IPSet is a set of known malicious addresses, compared as literal strings.
type IPSet map[string]struct{}

func NewIPSet(ips ...string) IPSet {
	s := make(IPSet, len(ips))
	for _, ip := range ips {
		s[ip] = struct{}{}
	}
	return s
}

func (s IPSet) Contains(ip string) bool {
	_, ok := s[ip]
	return ok
}

func (s IPSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s IPSet) Sorted() []string {
	ips := make([]string, 0, len(s))
	for ip := range s {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

type maliciousIPsFile struct {
	MaliciousIPs *[]string `json:"malicious_ips"`
}

// ReadMaliciousIPs decodes a blocklist document of the form
// {"malicious_ips": ["1.2.3.4", ...]}.
func ReadMaliciousIPs(r io.Reader) (IPSet, error) {
	var doc maliciousIPsFile
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	if doc.MaliciousIPs == nil {
		return nil, &ReferenceDataError{Err: fmt.Errorf("missing malicious_ips")}
	}
	return NewIPSet(*doc.MaliciousIPs...), nil
}

// LoadMaliciousIPs reads a blocklist file.
func LoadMaliciousIPs(path string) (IPSet, error) {
	return load(path, ReadMaliciousIPs)
}
