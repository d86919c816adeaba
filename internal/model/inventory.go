package model

import "strings"

type ItemType string

const (
	ItemTypeFile    ItemType = "file"
	ItemTypeFolder  ItemType = "folder"
	ItemTypeUnknown ItemType = "unknown"
)

// ParseItemType maps the export's type column onto an ItemType. The export
// writes "File" and "Folder" but some tools append qualifiers, so matching is
// by case-insensitive containment.
func ParseItemType(raw string) ItemType {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lowered, "folder"):
		return ItemTypeFolder
	case strings.Contains(lowered, "file"):
		return ItemTypeFile
	default:
		return ItemTypeUnknown
	}
}

// InventoryRow is one audited file or folder. Rows are produced once by an
// inventory reader and never modified afterwards.
type InventoryRow struct {
	OwnerLogin string   `json:"owner_login"`
	Path       string   `json:"path"`
	Name       string   `json:"name"`
	ItemID     string   `json:"item_id"`
	ItemType   ItemType `json:"item_type"`
	SizeText   string   `json:"size_text,omitempty"`
	Line       int      `json:"line"`
	Missing    []string `json:"missing,omitempty"`
}

func (r InventoryRow) IsMissing(field string) bool {
	for _, missing := range r.Missing {
		if missing == field {
			return true
		}
	}
	return false
}
