package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sovadim/knowledge-engine/internal/domain/node"
	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// SeedNode is one node entry in a seed file.
type SeedNode struct {
	ID       int     `yaml:"id"`
	Name     string  `yaml:"name"`
	Level    string  `yaml:"level"`
	Question *string `yaml:"question,omitempty"`
	Criteria *string `yaml:"criteria,omitempty"`
	Children []int   `yaml:"children,omitempty"`
}

// Seed is the on-disk shape of a graph seed file.
type Seed struct {
	Nodes []SeedNode `yaml:"nodes"`
}

// LoadSeed reads a YAML seed file from disk.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Sprintf("read seed file %s", path), err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("malformed seed file %s: %v", path, err))
	}
	return &seed, nil
}

// Apply creates all seed nodes first and then the edges, so forward
// references between entries are fine. Any failure aborts the load.
func (seed *Seed) Apply(store *Store) error {
	for _, sn := range seed.Nodes {
		level, err := node.ParseLevel(sn.Level)
		if err != nil {
			return apperrors.Wrap(err, fmt.Sprintf("seed node %d", sn.ID))
		}
		id := sn.ID
		spec := NodeSpec{
			Name:     sn.Name,
			Level:    level,
			Question: sn.Question,
			Criteria: sn.Criteria,
		}
		if id != 0 {
			spec.ID = &id
		}
		if _, err := store.CreateNode(spec); err != nil {
			return apperrors.Wrap(err, fmt.Sprintf("seed node %d", sn.ID))
		}
	}
	for _, sn := range seed.Nodes {
		for _, child := range sn.Children {
			if err := store.CreateEdge(sn.ID, child); err != nil {
				return apperrors.Wrap(err, fmt.Sprintf("seed edge %d -> %d", sn.ID, child))
			}
		}
	}
	return nil
}
