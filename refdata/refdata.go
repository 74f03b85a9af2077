// Package refdata loads the reference datasets used for labelling: the
// malicious IP blocklist, the malicious session catalog and the hostname
// resolution table captured alongside the traffic.
package refdata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var (
	ErrReferenceData = fmt.Errorf("reference data error")
)

// ReferenceDataError reports a reference file that is missing or malformed.
type ReferenceDataError struct {
	Path string
	Err  error
}

func (e *ReferenceDataError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrReferenceData.Error(), e.Err.Error())
	}
	return fmt.Sprintf("%s in %s: %s", ErrReferenceData.Error(), e.Path, e.Err.Error())
}

func (e *ReferenceDataError) Unwrap() []error {
	return []error{ErrReferenceData, e.Err}
}

func load[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, &ReferenceDataError{path, err}
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		if refErr, ok := err.(*ReferenceDataError); ok {
			refErr.Path = path
			return zero, refErr
		}
		return zero, &ReferenceDataError{path, err}
	}
	return v, nil
}

func decode(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return &ReferenceDataError{Err: err}
	}
	return nil
}
