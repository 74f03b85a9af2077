// Package text renders a record as space separated name="value" pairs in
// column order. Spaces in column names become underscores.
package text

import (
	"strconv"
	"strings"

	"github.com/netsampler/flowlabel/decoders/flowcsv"
	"github.com/netsampler/flowlabel/format"
)

func formatText(rec *flowcsv.Record) ([]byte, error) {
	var b []byte
	for i, name := range rec.Header {
		if i >= len(rec.Fields) {
			break
		}
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, strings.ReplaceAll(name, " ", "_")...)
		b = append(b, '=')
		b = strconv.AppendQuote(b, rec.Fields[i])
	}
	return b, nil
}

func init() {
	format.Register("text", format.FormatterFunc(formatText))
}
