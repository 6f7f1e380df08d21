package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tag is a global label attached to blogs. Name is canonical and unique.
type Tag struct {
	Record
	Name string `json:"name"`
}

// NormalizeTagName converts user input to the canonical tag name:
// trimmed, NFC-normalized and lowercased. "  AI " and "ai" are the same tag.
func NormalizeTagName(name string) string {
	s := norm.NFC.String(strings.TrimSpace(name))
	// cases.Caser is stateful, so one per call.
	return cases.Lower(language.Und).String(s)
}

// TagList is the tag specifier accepted on blog writes.
// On the wire it is either a comma-delimited string or an array of strings.
type TagList []string

var errTagListShape = errors.New("tags must be a string or an array of strings")

// UnmarshalJSON accepts "a, b" as well as ["a", "b"].
func (l *TagList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*l = nil
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errTagListShape
		}
		*l = ParseTagList(s)
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return errTagListShape
	}
	*l = names
	return nil
}

// ParseTagList splits a comma-delimited tag string.
func ParseTagList(s string) TagList {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Names returns the distinct canonical names in the list, skipping blanks.
func (l TagList) Names() []string {
	if len(l) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(l))
	names := make([]string, 0, len(l))
	for _, raw := range l {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
