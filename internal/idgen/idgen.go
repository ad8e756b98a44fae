package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator produces document identifiers.
type Generator interface {
	NewID() string
}

// Snowflake issues time-ordered ids that are unique per node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number (0-1023).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// NewID returns the next id in base-10 form.
func (s *Snowflake) NewID() string {
	return s.node.Generate().String()
}

// Valid reports whether id has the shape of a generated identifier.
func Valid(id string) bool {
	n, err := snowflake.ParseString(id)
	return err == nil && n > 0
}
