package chatexport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedMapping is returned when the mapping is not a node object
	ErrMalformedMapping = errors.New("malformed mapping")
	// ErrMappingCycle is returned when following first children never ends
	ErrMappingCycle = errors.New("mapping contains a cycle")
)

// RootNodeID is the key of the mapping entry the walk starts from
const RootNodeID = "root"

// Extract walks the active branch of a mapping and returns its messages in
// order. Only the first child of each node is followed. An absent or null
// mapping, or one without a root, yields no messages and no error.
func Extract(mapping json.RawMessage) ([]Message, error) {
	mapping = bytes.TrimSpace(mapping)
	if len(mapping) == 0 || bytes.Equal(mapping, []byte("null")) {
		return []Message{}, nil
	}

	var nodes NodeMap
	if err := json.Unmarshal(mapping, &nodes); err != nil {
		return []Message{}, fmt.Errorf("%w: %v", ErrMalformedMapping, err)
	}

	return Walk(nodes)
}

// Walk follows first children from the root. The walk is bounded by the
// number of nodes; a longer path can only come from a cycle.
func Walk(nodes NodeMap) ([]Message, error) {
	messages := []Message{}

	root, ok := nodes[RootNodeID]
	if !ok || len(root.Children) == 0 {
		return messages, nil
	}

	currentID := root.Children[0]
	for steps := 0; ; steps++ {
		if steps > len(nodes) {
			return []Message{}, fmt.Errorf("%w: walked %d nodes from %q", ErrMappingCycle, steps, RootNodeID)
		}

		node, ok := nodes[currentID]
		if !ok {
			break
		}
		if node.Message != nil {
			messages = append(messages, *node.Message)
		}
		if len(node.Children) == 0 {
			break
		}
		currentID = node.Children[0]
	}

	return messages, nil
}
