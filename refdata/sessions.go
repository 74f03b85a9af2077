package refdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Session is one episode of malicious activity. Dates are day/month
// ("26/04"), times hour:minute ("10:00"); the year comes from the labelling run.
type Session struct {
	StartDate string   `json:"start_date"`
	StartTime string   `json:"start_time"`
	EndDate   string   `json:"end_date"`
	EndTime   string   `json:"end_time"`
	Hosts     []string `json:"hosts"`
}

// Group holds the sessions attributed to one process.
type Group struct {
	Process  string
	Sessions []Session
}

// Catalog is the list of session groups in the order they appear in the
// source document.
type Catalog struct {
	Groups []Group
}

// Len returns the total number of sessions across all groups.
func (c *Catalog) Len() int {
	var n int
	for _, g := range c.Groups {
		n += len(g.Sessions)
	}
	return n
}

// UnmarshalJSON decodes {"<process>": [session, ...], ...} keeping the key order.
// A repeated process keeps its first position and its last sessions.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("session catalog must be an object, got %v", tok)
	}

	c.Groups = c.Groups[:0]
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		process, _ := tok.(string)

		var sessions []Session
		if err := dec.Decode(&sessions); err != nil {
			return fmt.Errorf("process %s: %w", process, err)
		}
		if i, ok := seen[process]; ok {
			c.Groups[i].Sessions = sessions
			continue
		}
		seen[process] = len(c.Groups)
		c.Groups = append(c.Groups, Group{
			Process:  process,
			Sessions: sessions,
		})
	}

	_, err = dec.Token()
	return err
}

// ReadSessions decodes a session catalog document.
func ReadSessions(r io.Reader) (*Catalog, error) {
	catalog := &Catalog{}
	if err := decode(r, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// LoadSessions reads a session catalog file.
func LoadSessions(path string) (*Catalog, error) {
	return load(path, ReadSessions)
}
