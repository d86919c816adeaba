package compliance

import (
	"errors"
	"fmt"
	"strings"

	"go-migration-audit/internal/model"
)

const (
	DefaultMaxPathLength     = 400
	DefaultMaxFileSizeGB     = 15.0
	DefaultNameQualityMarker = "#NAME?"
)

// Policy is the operator-supplied configuration of the rule set.
type Policy struct {
	// ExcludedPathPrefixes opt matching subtrees out of the character rules.
	// A row is excluded when its path contains any entry.
	ExcludedPathPrefixes []string
	// AuthorizedOwners lists the owner logins whose items may be renamed.
	// Matching is exact.
	AuthorizedOwners  []string
	MaxPathLength     int
	MaxFileSizeGB     float64
	NameQualityMarker string
}

func DefaultPolicy() Policy {
	return Policy{
		MaxPathLength:     DefaultMaxPathLength,
		MaxFileSizeGB:     DefaultMaxFileSizeGB,
		NameQualityMarker: DefaultNameQualityMarker,
	}
}

// Validate rejects configurations the evaluator cannot run with. Apply mode
// additionally requires at least one authorized owner.
func (p Policy) Validate(mode model.Mode) error {
	if p.MaxPathLength <= 0 {
		return fmt.Errorf("max path length must be positive, got %d", p.MaxPathLength)
	}
	if p.MaxFileSizeGB <= 0 {
		return fmt.Errorf("max file size must be positive, got %g GB", p.MaxFileSizeGB)
	}
	for _, owner := range p.AuthorizedOwners {
		if strings.TrimSpace(owner) == "" {
			return errors.New("authorized owners must not contain blank entries")
		}
	}
	for _, excluded := range p.ExcludedPathPrefixes {
		if excluded == "" {
			return errors.New("excluded path prefixes must not contain blank entries")
		}
	}
	if mode == model.ModeApply && len(p.AuthorizedOwners) == 0 {
		return errors.New("apply mode requires at least one authorized owner")
	}
	return nil
}

func (p Policy) isExcluded(path string) bool {
	for _, excluded := range p.ExcludedPathPrefixes {
		if strings.Contains(path, excluded) {
			return true
		}
	}
	return false
}

func ownerSet(owners []string) map[string]struct{} {
	set := make(map[string]struct{}, len(owners))
	for _, owner := range owners {
		set[owner] = struct{}{}
	}
	return set
}
