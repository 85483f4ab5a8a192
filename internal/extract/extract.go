// Package extract turns a forms-analysis block graph into ordered key-value
// pairs. It is pure: no I/O, no service clients, no shared state.
package extract

import "strings"

// Block kinds and relationship types present in the analysis graph.
const (
	BlockWord        = "WORD"
	BlockLine        = "LINE"
	BlockKeyValueSet = "KEY_VALUE_SET"

	entityKey = "KEY"

	relationChild = "CHILD"
	relationValue = "VALUE"
)

// UnknownValue is the wire sentinel written for a pair whose value could not
// be resolved from the graph.
const UnknownValue = "UNKNOWN"

// Relationship links a block to other blocks by id.
type Relationship struct {
	Type string
	IDs  []string
}

// Block is one node of the analysis graph.
type Block struct {
	Type          string
	ID            string
	Text          string
	EntityTypes   []string
	Relationships []Relationship
}

// Document is the normalized graph both wire shapes decode into.
type Document struct {
	Blocks []Block
}

// Pair is one extracted key-value pair. Unresolved marks a value that could
// not be assembled from the graph; such pairs carry UnknownValue so the
// serialized output stays compatible with downstream readers.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`

	Unresolved bool `json:"-"`
}

// Extract walks every KEY entity of the graph and returns its display text
// paired with the resolved text of its VALUE entity. Pairs are returned in
// the order the KEY blocks appear in the input, not sorted. A value whose
// resolution fails structurally (missing value block, no relationships,
// empty assembled text) degrades to an unresolved pair; it never aborts
// extraction of the remaining pairs.
func Extract(doc Document) []Pair {
	words := make(map[string]string)
	lines := make(map[string]string)
	kvSets := make(map[string]Block)

	for _, b := range doc.Blocks {
		switch b.Type {
		case BlockWord:
			words[b.ID] = b.Text
		case BlockLine:
			lines[b.ID] = b.Text
		case BlockKeyValueSet:
			if len(b.Relationships) > 0 {
				kvSets[b.ID] = b
			}
		}
	}

	var pairs []Pair
	for _, b := range doc.Blocks {
		if b.Type != BlockKeyValueSet || len(b.Relationships) == 0 {
			continue
		}
		if len(b.EntityTypes) == 0 || b.EntityTypes[0] != entityKey {
			continue
		}

		var key string
		var valueIDs []string
		for _, rel := range b.Relationships {
			switch rel.Type {
			case relationChild:
				key, _ = childText(rel, lines, words)
			case relationValue:
				valueIDs = append(valueIDs, rel.IDs...)
			}
		}

		value, ok := resolveValue(valueIDs, kvSets, lines, words)
		if !ok {
			pairs = append(pairs, Pair{Key: key, Value: UnknownValue, Unresolved: true})
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs
}

// childText assembles display text from a CHILD relationship: a LINE id
// contributes its whole line, a WORD id is appended with a separating space.
// An id found in neither index makes the text unresolvable; partial text is
// never returned as resolved.
func childText(rel Relationship, lines, words map[string]string) (string, bool) {
	text := ""
	for _, id := range rel.IDs {
		if line, ok := lines[id]; ok {
			text = line
			continue
		}
		word, ok := words[id]
		if !ok {
			return "", false
		}
		text += " " + word
	}
	return strings.TrimPrefix(text, " "), true
}

// resolveValue resolves the first referenced VALUE entity into text. The
// false return covers every structural fault that degrades the pair to
// UnknownValue: no VALUE ids, value block absent from the graph, value block
// without a CHILD relationship, a child id missing from the graph, or
// assembled text that comes out empty.
func resolveValue(valueIDs []string, kvSets map[string]Block, lines, words map[string]string) (string, bool) {
	for _, id := range valueIDs {
		b, ok := kvSets[id]
		if !ok {
			return "", false
		}
		text := ""
		for _, rel := range b.Relationships {
			if rel.Type == relationChild {
				child, ok := childText(rel, lines, words)
				if !ok {
					return "", false
				}
				text = child
			}
		}
		if text == "" {
			return "", false
		}
		return text, true
	}
	return "", false
}
