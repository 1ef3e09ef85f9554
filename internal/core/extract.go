package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gradfinder.dev/gradfinder/internal/store"
)

const (
	minRanking = 1
	maxRanking = 100

	// maxArrayAttempts bounds how many '[' positions extractCandidates tries
	// before giving up on a reply.
	maxArrayAttempts = 64
)

// programCandidate is one element of the array the AI was asked to return.
// Field types are lenient because the model does not always honour the
// requested shape.
type programCandidate struct {
	Name          *string     `json:"name"`
	University    *string     `json:"university"`
	Country       lenientText `json:"country"`
	DegreeType    lenientText `json:"degree_type"`
	Description   lenientText `json:"description"`
	ResearchAreas stringList  `json:"research_areas"`
	Professors    stringList  `json:"professors"`
	Ranking       lenientRank `json:"ranking"`
	Tags          stringList  `json:"tags"`
}

// extractCandidates finds the first JSON array of objects embedded in reply
// and returns its raw elements. ok is false when no such array exists, which
// callers treat as a degraded (empty) result rather than an error.
func extractCandidates(reply string) (elems []json.RawMessage, ok bool) {
	for offset, attempts := 0, 0; offset < len(reply) && attempts < maxArrayAttempts; attempts++ {
		idx := strings.IndexByte(reply[offset:], '[')
		if idx < 0 {
			return nil, false
		}
		start := offset + idx

		var arr []json.RawMessage
		dec := json.NewDecoder(strings.NewReader(reply[start:]))
		if err := dec.Decode(&arr); err == nil && allObjects(arr) {
			return arr, true
		}
		offset = start + 1
	}
	return nil, false
}

// allObjects rejects arrays such as citation markers ("[1]") that happen to
// precede the real payload in the prose.
func allObjects(arr []json.RawMessage) bool {
	for _, el := range arr {
		if len(bytes.TrimSpace(el)) == 0 || bytes.TrimSpace(el)[0] != '{' {
			return false
		}
	}
	return true
}

// toProgram validates one element and converts it to a storable record.
func toProgram(raw json.RawMessage) (*store.Program, error) {
	var c programCandidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}

	name := trimmed(c.Name)
	university := trimmed(c.University)
	if name == nil || university == nil {
		return nil, fmt.Errorf("program is missing name or university")
	}

	p := &store.Program{
		Name:          *name,
		University:    *university,
		Country:       trimmed(c.Country.value),
		DegreeType:    trimmed(c.DegreeType.value),
		Description:   trimmed(c.Description.value),
		ResearchAreas: c.ResearchAreas.values(),
		Professors:    c.Professors.values(),
		Ranking:       c.Ranking.value,
		Tags:          c.Tags.values(),
	}
	return p, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// lenientText reads an optional scalar. Numbers are kept as their decimal
// text; objects, arrays and booleans leave the field absent.
type lenientText struct {
	value *string
}

func (t *lenientText) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.value = nil
	switch v := raw.(type) {
	case string:
		t.value = &v
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		t.value = &s
	}
	return nil
}

// stringList accepts a JSON array, a single scalar, or null. Array items that
// are objects contribute their "name" field; anything else unusable is skipped.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items, isArray := raw.([]any)
	if !isArray {
		items = []any{raw}
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		if s, ok := listItem(item); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func listItem(item any) (string, bool) {
	switch v := item.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case map[string]any:
		name, ok := v["name"].(string)
		return name, ok
	}
	return "", false
}

// values drops blank entries and never returns nil.
func (l stringList) values() []string {
	out := make([]string, 0, len(l))
	for _, s := range l {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lenientRank reads a ranking given as an integer, a float or a numeric
// string. Anything else, or a value outside [minRanking, maxRanking], leaves
// the ranking absent.
type lenientRank struct {
	value *int
}

func (r *lenientRank) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "#")), 64)
		if err != nil {
			r.value = nil
			return nil
		}
		f = parsed
	default:
		r.value = nil
		return nil
	}
	f = math.Round(f)
	if math.IsNaN(f) || f < minRanking || f > maxRanking {
		r.value = nil
		return nil
	}
	n := int(f)
	r.value = &n
	return nil
}
