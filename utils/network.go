package utils

import (
	"fmt"
	"net/netip"
	"strings"
)

var (
	// ErrInvalidAddress is the base error for malformed IP or CIDR strings.
	ErrInvalidAddress = fmt.Errorf("invalid address")
)

// InvalidAddressError wraps a parse failure with the offending string.
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidAddress.Error(), e.Address, e.Err.Error())
}

func (e *InvalidAddressError) Unwrap() []error {
	return []error{ErrInvalidAddress, e.Err}
}

// IsValidIP reports whether s is a literal IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// IsInNetwork reports whether ip lies inside the CIDR range cidr.
func IsInNetwork(ip, cidr string) (bool, error) {
	prefix, err := ParseNetwork(cidr)
	if err != nil {
		return false, err
	}
	return Networks{prefix}.Contains(ip)
}

// ParseNetwork parses a CIDR prefix. Host bits must be zero.
func ParseNetwork(cidr string) (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return netip.Prefix{}, &InvalidAddressError{cidr, err}
	}
	if prefix.Masked() != prefix {
		return netip.Prefix{}, &InvalidAddressError{cidr, fmt.Errorf("host bits set")}
	}
	return prefix, nil
}

// Networks is an ordered list of CIDR prefixes.
type Networks []netip.Prefix

// ParseNetworks parses every entry of cidrs, failing on the first malformed one.
func ParseNetworks(cidrs []string) (Networks, error) {
	nets := make(Networks, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := ParseNetwork(cidr)
		if err != nil {
			return nil, err
		}
		nets = append(nets, prefix)
	}
	return nets, nil
}

// Contains reports whether ip falls inside any of the prefixes.
// Addresses of a different family than a prefix never match it.
func (n Networks) Contains(ip string) (bool, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false, &InvalidAddressError{ip, err}
	}
	for _, prefix := range n {
		if prefix.Contains(addr) {
			return true, nil
		}
	}
	return false, nil
}

func (n Networks) String() string {
	s := make([]string, len(n))
	for i, prefix := range n {
		s[i] = prefix.String()
	}
	return strings.Join(s, ",")
}
