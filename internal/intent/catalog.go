// Package intent holds the assistant's intent catalog and the lexical
// similarity matcher that routes utterances to (use-case, function) pairs.
package intent

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Use-case tags form a closed set that must match the handler registry.
const (
	TagGeneral         = "general"
	TagMorningBriefing = "morningBriefing"
	TagEvents          = "events"
	TagTransportation  = "transportation"
	TagSport           = "sport"
)

// Tags lists the closed use-case tag set in canonical order.
func Tags() []string {
	return []string{TagGeneral, TagMorningBriefing, TagEvents, TagTransportation, TagSport}
}

// Entry is one trigger phrase bound to a (use-case, function) pair.
type Entry struct {
	UseCase  string
	Function string
	Phrase   string
}

// Catalog is the immutable, insertion-ordered set of entries derived from the
// intent document.
type Catalog struct {
	entries []Entry
}

// Load reads the intent document at path and flattens it into a Catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent document missing: %w", err)
	}
	return Parse(data)
}

// Parse decodes an intent document of shape
//
//	{ useCaseTag: { functionKey: [phrase, ...], ... }, ... }
//
// Phrases are lowercased and trimmed. Unknown tags, empty phrase lists and
// duplicate (tag, function, phrase) triples are rejected.
func Parse(data []byte) (*Catalog, error) {
	var doc map[string]map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("intent document malformed: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("intent document malformed: no use cases")
	}

	known := make(map[string]bool, len(Tags()))
	for _, tag := range Tags() {
		known[tag] = true
	}

	// JSON objects carry no order, so flatten deterministically: canonical
	// tag order first, then function keys sorted, then phrase order as
	// written. The result is stable across loads of the same document.
	var entries []Entry
	seen := make(map[Entry]bool)
	for _, tag := range sortedTags(doc) {
		if !known[tag] {
			return nil, fmt.Errorf("intent document malformed: unknown use case %q", tag)
		}
		functions := doc[tag]
		keys := make([]string, 0, len(functions))
		for key := range functions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			phrases := functions[key]
			if len(phrases) == 0 {
				return nil, fmt.Errorf("intent document malformed: %s.%s has no phrases", tag, key)
			}
			for _, raw := range phrases {
				phrase := strings.ToLower(strings.TrimSpace(raw))
				if phrase == "" {
					return nil, fmt.Errorf("intent document malformed: %s.%s has an empty phrase", tag, key)
				}
				entry := Entry{UseCase: tag, Function: key, Phrase: phrase}
				if seen[entry] {
					return nil, fmt.Errorf("intent document malformed: duplicate phrase %q for %s.%s", phrase, tag, key)
				}
				seen[entry] = true
				entries = append(entries, entry)
			}
		}
	}

	return &Catalog{entries: entries}, nil
}

func sortedTags(doc map[string]map[string][]string) []string {
	var tags []string
	for _, tag := range Tags() {
		if _, ok := doc[tag]; ok {
			tags = append(tags, tag)
		}
	}
	// Unknown tags still need to surface as errors, in a stable order.
	var unknown []string
	knownSet := make(map[string]bool)
	for _, tag := range Tags() {
		knownSet[tag] = true
	}
	for tag := range doc {
		if !knownSet[tag] {
			unknown = append(unknown, tag)
		}
	}
	sort.Strings(unknown)
	return append(tags, unknown...)
}

// Entries returns the catalog's entries in insertion order. The slice is a
// copy; the catalog itself never changes after load.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// UseCases returns the distinct use-case tags present, in canonical order.
func (c *Catalog) UseCases() []string {
	present := make(map[string]bool)
	for _, entry := range c.entries {
		present[entry.UseCase] = true
	}
	var tags []string
	for _, tag := range Tags() {
		if present[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Equal reports structural equality with another catalog.
func (c *Catalog) Equal(other *Catalog) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i := range c.entries {
		if c.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}
