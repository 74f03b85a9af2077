// Package json renders a record as an object keyed by column name.
package json

import (
	"encoding/json"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/format"
)

func init() {
	format.Register("json", format.FormatterFunc(func(rec *flowcsv.Record) ([]byte, error) {
		return json.Marshal(rec.Map())
	}))
}
