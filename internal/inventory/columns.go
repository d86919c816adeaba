package inventory

import (
	"fmt"
	"strings"

	"go-migration-audit/internal/model"
)

// Field names used when reporting missing columns.
const (
	FieldOwner    = "owner_login"
	FieldPath     = "path"
	FieldName     = "name"
	FieldItemID   = "item_id"
	FieldItemType = "item_type"
	FieldSize     = "size"
)

// Columns maps 0-based column positions onto row fields.
type Columns struct {
	Owner    int
	Path     int
	Name     int
	ItemID   int
	ItemType int
	Size     int
}

// DefaultColumns matches the folder-tree export layout: column A holds the
// owner name, D the parent folder, and the rest follow in export order.
func DefaultColumns() Columns {
	return Columns{Owner: 1, Path: 2, Name: 4, ItemID: 5, ItemType: 6, Size: 7}
}

func (c Columns) Validate() error {
	for field, index := range c.byField() {
		if index < 0 {
			return fmt.Errorf("column for %s must not be negative, got %d", field, index)
		}
	}
	return nil
}

func (c Columns) byField() map[string]int {
	return map[string]int{
		FieldOwner:    c.Owner,
		FieldPath:     c.Path,
		FieldName:     c.Name,
		FieldItemID:   c.ItemID,
		FieldItemType: c.ItemType,
		FieldSize:     c.Size,
	}
}

// HeaderNames selects columns by header text instead of position. Empty
// entries keep the positional mapping.
type HeaderNames struct {
	Owner    string `yaml:"owner"`
	Path     string `yaml:"path"`
	Name     string `yaml:"name"`
	ItemID   string `yaml:"item_id"`
	ItemType string `yaml:"item_type"`
	Size     string `yaml:"size"`
}

func (h HeaderNames) empty() bool {
	return h == HeaderNames{}
}

// resolve returns cols with every named header replaced by its position in
// header. Header matching ignores case and surrounding space.
func (h HeaderNames) resolve(cols Columns, header []string) (Columns, error) {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	lookup := func(name string, fallback int) (int, error) {
		if strings.TrimSpace(name) == "" {
			return fallback, nil
		}
		position, exists := index[strings.ToLower(strings.TrimSpace(name))]
		if !exists {
			return 0, fmt.Errorf("%w: %q", model.ErrColumnNotFound, name)
		}
		return position, nil
	}

	var err error
	resolved := cols
	if resolved.Owner, err = lookup(h.Owner, cols.Owner); err != nil {
		return Columns{}, err
	}
	if resolved.Path, err = lookup(h.Path, cols.Path); err != nil {
		return Columns{}, err
	}
	if resolved.Name, err = lookup(h.Name, cols.Name); err != nil {
		return Columns{}, err
	}
	if resolved.ItemID, err = lookup(h.ItemID, cols.ItemID); err != nil {
		return Columns{}, err
	}
	if resolved.ItemType, err = lookup(h.ItemType, cols.ItemType); err != nil {
		return Columns{}, err
	}
	if resolved.Size, err = lookup(h.Size, cols.Size); err != nil {
		return Columns{}, err
	}
	return resolved, nil
}

// rowMapper turns raw cells into inventory rows.
type rowMapper struct {
	cols Columns
}

func (m rowMapper) build(cells []string, line int) model.InventoryRow {
	var missing []string
	cell := func(field string, index int, required bool) string {
		if index < len(cells) && strings.TrimSpace(cells[index]) != "" {
			return cells[index]
		}
		if required {
			missing = append(missing, field)
		}
		return ""
	}

	row := model.InventoryRow{
		OwnerLogin: cell(FieldOwner, m.cols.Owner, true),
		Path:       cell(FieldPath, m.cols.Path, true),
		Name:       cell(FieldName, m.cols.Name, true),
		ItemID:     strings.TrimSpace(cell(FieldItemID, m.cols.ItemID, true)),
	}
	row.ItemType = model.ParseItemType(cell(FieldItemType, m.cols.ItemType, true))
	row.SizeText = strings.TrimSpace(cell(FieldSize, m.cols.Size, false))
	row.Line = line
	row.Missing = missing
	return row
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
