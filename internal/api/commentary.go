package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Commentary is one of Plain, PerVerse or LegacyKeyed.
type Commentary interface {
	// ForVerse returns the text for a 1-based verse number.
	ForVerse(number int) (string, bool)
	commentary()
}

// Plain is a single text covering the whole chapter.
type Plain struct {
	Text string
}

// PerVerse holds one text per verse, indexed by verse number minus one.
type PerVerse struct {
	Texts []string
}

// LegacyKeyed holds positional entries whose text sits under a key that
// differs from entry to entry.
type LegacyKeyed struct {
	Entries []map[string]string
}

func (Plain) commentary()       {}
func (PerVerse) commentary()    {}
func (LegacyKeyed) commentary() {}

func (p Plain) ForVerse(int) (string, bool) {
	return p.Text, p.Text != ""
}

func (p PerVerse) ForVerse(number int) (string, bool) {
	if number < 1 || number > len(p.Texts) {
		return "", false
	}
	return p.Texts[number-1], true
}

// legacyKeys is the lookup order for keyed entries.
var legacyKeys = []string{"tafsir", "teks", "kemenangan"}

func (l LegacyKeyed) ForVerse(number int) (string, bool) {
	if number < 1 || number > len(l.Entries) {
		return "", false
	}
	entry := l.Entries[number-1]
	for _, k := range legacyKeys {
		if v, ok := entry[k]; ok {
			return v, true
		}
	}
	if len(entry) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return entry[keys[0]], true
}

// textKeys are the keys under which a per-verse object carries its text.
var textKeys = []string{"teks", "tafsir"}

// ParseCommentary resolves the raw `tafsir` field. A missing or null field
// yields a nil Commentary.
func ParseCommentary(raw json.RawMessage) (Commentary, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("commentary text: %w", err)
		}
		return Plain{Text: s}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("commentary list: %w", err)
		}
		return parseList(items)

	case '{':
		entry, err := parseEntry(raw)
		if err != nil {
			return nil, err
		}
		if text, ok := knownText(entry); ok {
			return Plain{Text: text}, nil
		}
		return LegacyKeyed{Entries: []map[string]string{entry}}, nil
	}

	return nil, fmt.Errorf("unsupported commentary shape %q", raw[:1])
}

func parseList(items []json.RawMessage) (Commentary, error) {
	entries := make([]map[string]string, len(items))
	texts := make([]string, len(items))
	keyed := false

	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, fmt.Errorf("commentary item %d: %w", i, err)
			}
			texts[i] = s
			entries[i] = map[string]string{"tafsir": s}
			continue
		}

		entry, err := parseEntry(item)
		if err != nil {
			return nil, fmt.Errorf("commentary item %d: %w", i, err)
		}
		entries[i] = entry
		if text, ok := knownText(entry); ok {
			texts[i] = text
		} else {
			keyed = true
		}
	}

	if keyed {
		return LegacyKeyed{Entries: entries}, nil
	}
	return PerVerse{Texts: texts}, nil
}

// parseEntry keeps the string-valued fields of an object. Numeric fields
// such as the verse number are dropped.
func parseEntry(raw json.RawMessage) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	entry := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if json.Unmarshal(v, &s) == nil {
			entry[k] = s
		}
	}
	return entry, nil
}

func knownText(entry map[string]string) (string, bool) {
	for _, k := range textKeys {
		if v, ok := entry[k]; ok {
			return v, true
		}
	}
	return "", false
}

// MarshalCommentary is the inverse of ParseCommentary.
func MarshalCommentary(c Commentary) (json.RawMessage, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case Plain:
		return json.Marshal(v.Text)
	case PerVerse:
		return json.Marshal(v.Texts)
	case LegacyKeyed:
		return json.Marshal(v.Entries)
	default:
		return nil, fmt.Errorf("unknown commentary type %T", c)
	}
}
