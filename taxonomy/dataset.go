package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/taxonomy.yaml
var defaultDataset []byte

// ErrInvalidDataset reports a structurally broken taxonomy file.
var ErrInvalidDataset = errors.New("invalid taxonomy dataset")

// Dataset is the on-disk shape of a taxonomy file.
type Dataset struct {
	Categories []*Node `yaml:"categories"`
}

// Load decodes a YAML dataset. An empty document yields an empty dataset.
func Load(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, nil
		}
		return Dataset{}, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := ds.validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open taxonomy: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the dataset compiled into the binary.
func Default() (Dataset, error) {
	return Load(bytes.NewReader(defaultDataset))
}

func (d Dataset) validate() error {
	seen := [3]map[string]struct{}{{}, {}, {}}
	var walk func(nodes []*Node, level Level) error
	walk = func(nodes []*Node, level Level) error {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if level > LevelSubdivision {
				return fmt.Errorf("%w: node %q nested below subdivision", ErrInvalidDataset, n.ID)
			}
			if n.ID == "" || n.Label == "" {
				return fmt.Errorf("%w: %s without id or label", ErrInvalidDataset, level)
			}
			if _, dup := seen[level][n.ID]; dup {
				return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDataset, level, n.ID)
			}
			seen[level][n.ID] = struct{}{}
			if err := walk(n.Children, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Categories, LevelCategory)
}
