package sources

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Items []Item `yaml:"items"`
}

// LoadItems decodes a YAML document holding an items list. Items without an
// id are rejected; an empty document yields no items.
func LoadItems(r io.Reader) ([]Item, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode items: %w", err)
	}
	for i, it := range doc.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item %d: missing id", i)
		}
		if it.Status == "" {
			doc.Items[i].Status = StatusPublished
		}
	}
	return doc.Items, nil
}

// LoadItemsFile is LoadItems on a file path.
func LoadItemsFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadItems(f)
}
