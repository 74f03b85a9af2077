package labeller

// Column is a position in a flow row resolved from the header.
type Column int

// Schema is resolved once per flow file from its header. The output header
// always carries a Label column: it is appended when the input has none.
type Schema struct {
	header     []string
	index      map[string]Column
	label      Column
	labelAdded bool
}

// NewSchema resolves header and checks that every required column exists.
func NewSchema(header []string, required ...string) (*Schema, error) {
	s := &Schema{
		header: append([]string(nil), header...),
		index:  make(map[string]Column, len(header)+1),
	}
	for i, name := range header {
		if _, ok := s.index[name]; !ok {
			s.index[name] = Column(i)
		}
	}
	for _, name := range required {
		if _, err := s.Column(name); err != nil {
			return nil, err
		}
	}

	if label, ok := s.index[ColLabel]; ok {
		s.label = label
	} else {
		s.label = Column(len(s.header))
		s.header = append(s.header, ColLabel)
		s.index[ColLabel] = s.label
		s.labelAdded = true
	}
	return s, nil
}

// Column returns the position of name, or a SchemaError if it is absent.
func (s *Schema) Column(name string) (Column, error) {
	c, ok := s.index[name]
	if !ok {
		return 0, &SchemaError{Column: name}
	}
	return c, nil
}

// Header returns the output header, including the Label column.
func (s *Schema) Header() []string {
	return s.header
}

// InputWidth returns the number of fields of an input row.
func (s *Schema) InputWidth() int {
	if s.labelAdded {
		return len(s.header) - 1
	}
	return len(s.header)
}

// Row wraps input fields, making room for the label when the input has none.
func (s *Schema) Row(fields []string) Row {
	if s.labelAdded {
		fields = append(fields, "")
	}
	return Row{fields: fields, label: s.label}
}

// Row is one flow record with named-column access through a Schema.
type Row struct {
	fields []string
	label  Column
}

func (r Row) Value(c Column) string {
	return r.fields[c]
}

func (r Row) SetLabel(label string) {
	r.fields[r.label] = label
}

func (r Row) Label() string {
	return r.fields[r.label]
}

// Fields returns the row in output column order.
func (r Row) Fields() []string {
	return r.fields
}
