// Package csv renders a record as one line of the flow file dialect, without
// a line terminator.
package csv

import (
	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/format"
)

func init() {
	format.Register("csv", format.FormatterFunc(func(rec *flowcsv.Record) ([]byte, error) {
		return flowcsv.Default.AppendRecord(nil, rec.Fields), nil
	}))
}
