package model

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// RenameIntent is a proposed, not yet applied rename of a remote item.
type RenameIntent struct {
	ItemID       string   `json:"item_id"`
	ItemType     ItemType `json:"item_type"`
	ProposedName string   `json:"proposed_name"`
	CurrentName  string   `json:"current_name"`
	Line         int      `json:"line"`
}

// Key identifies the intent for duplicate suppression and is sent to the
// remote service as the idempotency key of the update call.
func (i RenameIntent) Key() string {
	sum := blake2b.Sum256([]byte(i.ItemID + "\x00" + i.ProposedName))
	return hex.EncodeToString(sum[:16])
}

type RenameStatus string

const (
	RenameStatusDryRun    RenameStatus = "dry_run"
	RenameStatusRenamed   RenameStatus = "renamed"
	RenameStatusUnchanged RenameStatus = "unchanged"
	RenameStatusDuplicate RenameStatus = "skipped_duplicate"
	RenameStatusFailed    RenameStatus = "failed"
)

type RenameResult struct {
	Intent       RenameIntent `json:"intent"`
	Status       RenameStatus `json:"status"`
	PreviousName string       `json:"previous_name,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Attempts     int          `json:"attempts"`
	FinishedAt   string       `json:"finished_at"`
}

type RenameQuery struct {
	RunID  string
	Status string
	Page   int
	Limit  int
}

type RenameListData struct {
	RunID string         `json:"run_id"`
	Items []RenameResult `json:"items"`
}
