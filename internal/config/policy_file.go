package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"go-migration-audit/internal/compliance"
	"go-migration-audit/internal/inventory"
)

// PolicyFile is the YAML document that describes one migration's audit
// policy and the export layout. Absent keys keep their defaults.
type PolicyFile struct {
	ExcludedPaths     []string       `yaml:"excluded_paths"`
	AuthorizedOwners  []string       `yaml:"authorized_owners"`
	MaxPathLength     *int           `yaml:"max_path_length"`
	MaxFileSizeGB     *float64       `yaml:"max_file_size_gb"`
	NameQualityMarker *string        `yaml:"name_quality_marker"`
	Inventory         *InventoryFile `yaml:"inventory"`
}

type InventoryFile struct {
	Format     string                 `yaml:"format"`
	Sheet      string                 `yaml:"sheet"`
	HeaderRows *int                   `yaml:"header_rows"`
	Delimiter  string                 `yaml:"delimiter"`
	Columns    *ColumnsFile           `yaml:"columns"`
	Headers    *inventory.HeaderNames `yaml:"headers"`
}

// ColumnsFile overrides individual 0-based column positions.
type ColumnsFile struct {
	Owner    *int `yaml:"owner"`
	Path     *int `yaml:"path"`
	Name     *int `yaml:"name"`
	ItemID   *int `yaml:"item_id"`
	ItemType *int `yaml:"item_type"`
	Size     *int `yaml:"size"`
}

func (c ColumnsFile) apply(cols *inventory.Columns) {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&cols.Owner, c.Owner)
	set(&cols.Path, c.Path)
	set(&cols.Name, c.Name)
	set(&cols.ItemID, c.ItemID)
	set(&cols.ItemType, c.ItemType)
	set(&cols.Size, c.Size)
}

func LoadPolicyFile(path string) (PolicyFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PolicyFile{}, fmt.Errorf("read policy file: %w", err)
	}

	var file PolicyFile
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return PolicyFile{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	if file.Inventory != nil && utf8.RuneCountInString(file.Inventory.Delimiter) > 1 {
		return PolicyFile{}, fmt.Errorf("parse policy file %s: delimiter must be a single character", path)
	}

	return file, nil
}

func (f PolicyFile) apply(policy *compliance.Policy, opts *inventory.Options) {
	if f.ExcludedPaths != nil {
		policy.ExcludedPathPrefixes = f.ExcludedPaths
	}
	if f.AuthorizedOwners != nil {
		policy.AuthorizedOwners = f.AuthorizedOwners
	}
	if f.MaxPathLength != nil {
		policy.MaxPathLength = *f.MaxPathLength
	}
	if f.MaxFileSizeGB != nil {
		policy.MaxFileSizeGB = *f.MaxFileSizeGB
	}
	if f.NameQualityMarker != nil {
		policy.NameQualityMarker = *f.NameQualityMarker
	}

	if f.Inventory == nil {
		return
	}
	if f.Inventory.Format != "" {
		opts.Format = inventory.Format(f.Inventory.Format)
	}
	if f.Inventory.Sheet != "" {
		opts.Sheet = f.Inventory.Sheet
	}
	if f.Inventory.HeaderRows != nil {
		opts.HeaderRows = *f.Inventory.HeaderRows
	}
	if f.Inventory.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(f.Inventory.Delimiter)
	}
	if f.Inventory.Columns != nil {
		f.Inventory.Columns.apply(&opts.Columns)
	}
	if f.Inventory.Headers != nil {
		opts.HeaderNames = *f.Inventory.Headers
	}
}
