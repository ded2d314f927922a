package ml

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultIdentifierPattern matches per-student identifier dummies that leak
// into training columns and must never reach the model.
const DefaultIdentifierPattern = `^Student_ID_`

// Schema is the ordered list of feature columns fixed at training time.
// It is never mutated after construction.
type Schema struct {
	columns []string
	index   map[string]int
}

func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("schema has no columns")
	}
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("schema column %d is empty", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate schema column %q", name)
		}
		index[name] = i
	}
	return &Schema{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s *Schema) Len() int { return len(s.columns) }

func (s *Schema) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

func (s *Schema) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

// WithoutIdentifiers returns the schema minus every column matching pattern,
// along with the names that were removed. A nil pattern returns s unchanged.
func (s *Schema) WithoutIdentifiers(pattern *regexp.Regexp) (*Schema, []string, error) {
	if pattern == nil {
		return s, nil, nil
	}
	kept := make([]string, 0, len(s.columns))
	var dropped []string
	for _, name := range s.columns {
		if pattern.MatchString(name) {
			dropped = append(dropped, name)
			continue
		}
		kept = append(kept, name)
	}
	if len(dropped) == 0 {
		return s, nil, nil
	}
	effective, err := NewSchema(kept)
	if err != nil {
		return nil, dropped, fmt.Errorf("schema after identifier removal: %w", err)
	}
	return effective, dropped, nil
}
