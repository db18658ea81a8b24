// Package analysis decomposes study material into topics.
package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownShape is returned when stored analysis is neither a JSON array
// nor a JSON object.
var ErrUnknownShape = errors.New("topic analysis is neither an array nor an object")

// Topic is one subtopic of a material.
type Topic struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

// TopicAnalysis is either Legacy (a bare topic array) or Wrapped (an object
// carrying topics and an optional concept graph). Both shapes exist in stored
// materials.
type TopicAnalysis interface {
	// Topics returns the topics in the order the model produced them.
	Topics() []Topic
	isTopicAnalysis()
}

// Legacy is the bare-array shape: [{topic, description, difficulty}, ...].
type Legacy struct {
	Items []Topic
}

func (l Legacy) Topics() []Topic { return l.Items }
func (Legacy) isTopicAnalysis()  {}

// Wrapped is the object shape: {"topics": [...], "conceptGraph": ...}.
// ConceptGraph is kept verbatim so re-serializing never loses detail.
type Wrapped struct {
	Items        []Topic         `json:"topics"`
	ConceptGraph json.RawMessage `json:"conceptGraph,omitempty"`
}

func (w Wrapped) Topics() []Topic { return w.Items }
func (Wrapped) isTopicAnalysis()  {}

// Parse decodes stored or generated analysis, choosing the variant from the
// first non-space byte.
func Parse(raw []byte) (TopicAnalysis, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrUnknownShape
	}
	switch trimmed[0] {
	case '[':
		var items []Topic
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse topic array: %w", err)
		}
		return Legacy{Items: items}, nil
	case '{':
		var w Wrapped
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("parse wrapped topics: %w", err)
		}
		if bytes.Equal(bytes.TrimSpace(w.ConceptGraph), []byte("null")) {
			w.ConceptGraph = nil
		}
		return w, nil
	default:
		return nil, ErrUnknownShape
	}
}

// Marshal encodes a in its own shape.
func Marshal(a TopicAnalysis) (json.RawMessage, error) {
	switch v := a.(type) {
	case Legacy:
		items := v.Items
		if items == nil {
			items = []Topic{}
		}
		return json.Marshal(items)
	case Wrapped:
		if v.Items == nil {
			v.Items = []Topic{}
		}
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("marshal topic analysis: unsupported type %T", a)
	}
}

// TopicNames lists the topic names of a.
func TopicNames(a TopicAnalysis) []string {
	topics := a.Topics()
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Topic)
	}
	return names
}

// NamesFrom returns the topic names of stored analysis, or nil when raw
// cannot be read.
func NamesFrom(raw []byte) []string {
	a, err := Parse(raw)
	if err != nil {
		return nil
	}
	return TopicNames(a)
}
