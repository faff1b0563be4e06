package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vedsharma/pingforge/internal/model"
)

// Bundle is the on-disk format for sharing environments and collections.
// Files ending in .json are JSON; anything else is YAML.
type Bundle struct {
	Environments []model.Environment `json:"environments,omitempty" yaml:"environments,omitempty"`
	Collections  []model.Collection  `json:"collections,omitempty" yaml:"collections,omitempty"`
}

func isJSONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// WriteBundle writes b to path with owner-only permissions.
func WriteBundle(path string, b Bundle) error {
	var (
		data []byte
		err  error
	)
	if isJSONFile(path) {
		data, err = json.MarshalIndent(b, "", "  ")
	} else {
		data, err = yaml.Marshal(b)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, secureFileMode)
}

// ReadBundle reads a bundle written by WriteBundle or by hand.
func ReadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if isJSONFile(path) {
		err = json.Unmarshal(data, &b)
	} else {
		err = yaml.Unmarshal(data, &b)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &b, nil
}

// ImportBundle stores every environment and collection in b. Environments
// with an existing name are overwritten; collections are replaced.
func (s *SQLiteStorage) ImportBundle(b *Bundle) (envs, cols int, err error) {
	for _, e := range b.Environments {
		existing, err := s.GetEnvironment(e.Name)
		if err != nil {
			return envs, cols, err
		}
		if existing != nil {
			e.ID = existing.ID
			e.RemoteID = existing.RemoteID
			if err := s.SaveEnvironment(e); err != nil {
				return envs, cols, err
			}
		} else {
			e.ID = ""
			if _, err := s.CreateEnvironment(e); err != nil {
				return envs, cols, err
			}
		}
		envs++
	}
	for _, c := range b.Collections {
		c.ID = ""
		c.RemoteID = ""
		if _, err := s.ImportCollection(c); err != nil {
			return envs, cols, fmt.Errorf("import collection %q: %w", c.Name, err)
		}
		cols++
	}
	return envs, cols, nil
}
