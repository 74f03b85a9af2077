package labeller

import (
	"fmt"
	"io"
	"net"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/utils"

	"github.com/oschwald/geoip2-golang"
)

const (
	ColDstIntExt  = "dstIntExt"
	ColDstCountry = "dstCountry"
)

// DestinationFeature derives one extra column from a flow's destination address.
type DestinationFeature interface {
	Name() string
	Value(dst string) (string, error)
}

// InternalExternal flags destinations inside the internal network with "0"
// and all others with "1".
type InternalExternal struct {
	Internal utils.Networks
}

func (f InternalExternal) Name() string {
	return ColDstIntExt
}

func (f InternalExternal) Value(dst string) (string, error) {
	internal, err := f.Internal.Contains(dst)
	if err != nil {
		return "", err
	}
	if internal {
		return "0", nil
	}
	return "1", nil
}

// CountryLookup is satisfied by *geoip2.Reader.
type CountryLookup interface {
	Country(ipAddress net.IP) (*geoip2.Country, error)
}

// Country adds the ISO country code of the destination. Addresses missing
// from the database get an empty value.
type Country struct {
	DB CountryLookup
}

func (f Country) Name() string {
	return ColDstCountry
}

func (f Country) Value(dst string) (string, error) {
	ip := net.ParseIP(dst)
	if ip == nil {
		return "", &utils.InvalidAddressError{Address: dst, Err: fmt.Errorf("unable to parse IP")}
	}
	entry, err := f.DB.Country(ip)
	if err != nil || entry == nil {
		return "", nil
	}
	return entry.Country.IsoCode, nil
}

// Augment copies a labelled flow file from r to w, inserting one column per
// feature immediately before the Label column. It returns the number of data
// rows written.
func Augment(r *flowcsv.Reader, w RowWriter, features ...DestinationFeature) (int, error) {
	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	schema, err := NewSchema(header, ColDstIP, ColLabel)
	if err != nil {
		return 0, err
	}
	dst, _ := schema.Column(ColDstIP)
	label, _ := schema.Column(ColLabel)

	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name()
	}
	if err := w.Write(insertBefore(header, int(label), names)); err != nil {
		return 0, err
	}

	var rows int
	values := make([]string, len(features))
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return rows, err
		}

		dstIP := fields[dst]
		for i, f := range features {
			if values[i], err = f.Value(dstIP); err != nil {
				return rows, fmt.Errorf("line %d: %w", r.Line(), err)
			}
		}
		if err := w.Write(insertBefore(fields, int(label), values)); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

func insertBefore(fields []string, at int, values []string) []string {
	out := make([]string, 0, len(fields)+len(values))
	out = append(out, fields[:at]...)
	out = append(out, values...)
	return append(out, fields[at:]...)
}
