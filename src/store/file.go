package store

import (
	"bytes"
	"categorizer-server/src/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File keeps the rules in a single JSON or YAML document, chosen by the
// file extension (.yaml/.yml for YAML, anything else JSON).
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(f.path))
	return ext == ".yaml" || ext == ".yml"
}

func (f *File) Load(ctx context.Context) ([]models.Rule, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rules []models.Rule
	if f.isYAML() {
		err = yaml.Unmarshal(data, &rules)
	} else {
		err = json.Unmarshal(data, &rules)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", f.path, err)
	}
	return rules, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so readers see either the old or the new collection.
func (f *File) Save(ctx context.Context, rules []models.Rule) error {
	if rules == nil {
		rules = []models.Rule{}
	}

	var (
		data []byte
		err  error
	)
	if f.isYAML() {
		data, err = yaml.Marshal(rules)
	} else {
		data, err = json.MarshalIndent(rules, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp rules file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}
