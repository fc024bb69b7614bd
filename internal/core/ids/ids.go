// Package ids mints globally unique, time-ordered entity identifiers.
package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator mints snowflake ids for one node. Ids are rendered as decimal
// strings and sort in creation order.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for the given node id (0–1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// New returns a fresh id.
func (g *Generator) New() string {
	return g.node.Generate().String()
}
