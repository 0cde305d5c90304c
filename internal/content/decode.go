package content

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SourceInline marks data handed directly to a repository constructor.
const SourceInline = "inline"

var errEmptyTable = errors.New("table is empty")

// entry is one key/value pair of a YAML mapping, in document order.
type entry struct {
	Key   string
	Value *yaml.Node
}

// parseRoot parses a table document and returns the node stored under key.
// The node must be of the given kind.
func parseRoot(data []byte, key string, kind yaml.Kind) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errEmptyTable
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %s", kindName(root.Kind))
	}
	node := field(root, key)
	if node == nil {
		return nil, fmt.Errorf("missing top-level key '%s'", key)
	}
	if node.Kind != kind {
		return nil, fmt.Errorf("'%s' must be a %s, got %s", key, kindName(kind), kindName(node.Kind))
	}
	return node, nil
}

// entries returns the pairs of a mapping node in document order. Non-mapping
// nodes yield nothing.
func entries(node *yaml.Node) []entry {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, entry{Key: node.Content[i].Value, Value: node.Content[i+1]})
	}
	return out
}

// field looks up key in a mapping node.
func field(node *yaml.Node, key string) *yaml.Node {
	for _, e := range entries(node) {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "empty"
}
