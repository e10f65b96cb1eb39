package flag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type definitionsFile struct {
	Flags []Flag `yaml:"flags"`
}

// LoadDefinitions decodes a YAML flag catalogue:
//
//	flags:
//	  - id: subscribe_node
//	    title: Follow content
//	    entity_type: node
//	    bundles: [article, page]
//	    enabled: true
func LoadDefinitions(r io.Reader) ([]Flag, error) {
	var file definitionsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode flag definitions: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Flags))
	for i, f := range file.Flags {
		if f.ID == "" || f.EntityType == "" {
			return nil, fmt.Errorf("%w: entry %d needs id and entity_type", ErrInvalidDefinition, i)
		}
		if _, ok := seen[f.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDefinition, f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return file.Flags, nil
}

// LoadDefinitionsFile reads a YAML flag catalogue from disk.
func LoadDefinitionsFile(path string) ([]Flag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flag definitions: %w", err)
	}
	return LoadDefinitions(bytes.NewReader(data))
}
