package compliance

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go-migration-audit/internal/model"
	"go-migration-audit/internal/util"
)

// Rule pairs one destination constraint with its trigger. Rules are
// evaluated in table order by [Evaluator.Evaluate]; every rule that fires
// yields exactly one finding.
type Rule struct {
	Kind     model.RuleKind
	Severity model.Severity
	// CharacterRule rules are skipped for rows under an excluded path.
	CharacterRule bool
	Check         func(policy Policy, row model.InventoryRow) (message string, fired bool)
}

// Rules returns the fixed rule table in evaluation order.
func Rules() []Rule {
	return []Rule{
		{
			Kind:          model.RuleForbiddenCharacters,
			Severity:      model.SeverityWarn,
			CharacterRule: true,
			Check:         checkForbiddenCharacters,
		},
		{
			Kind:          model.RuleReservedToken,
			Severity:      model.SeverityWarn,
			CharacterRule: true,
			Check:         checkReservedToken,
		},
		{
			Kind:     model.RuleLeadingTilde,
			Severity: model.SeverityWarn,
			Check:    checkLeadingTilde,
		},
		{
			Kind:     model.RulePathTooLong,
			Severity: model.SeverityError,
			Check:    checkPathTooLong,
		},
		{
			Kind:     model.RuleOversizedFile,
			Severity: model.SeverityError,
			Check:    checkOversizedFile,
		},
	}
}

func checkForbiddenCharacters(_ Policy, row model.InventoryRow) (string, bool) {
	chars := util.ForbiddenCharsIn(row.Name)
	if len(chars) == 0 {
		return "", false
	}
	return fmt.Sprintf("invalid character(s) %s in name %q", strings.Join(chars, " "), row.Name), true
}

func checkReservedToken(_ Policy, row model.InventoryRow) (string, bool) {
	if !util.ContainsReservedToken(row.Name) {
		return "", false
	}
	return fmt.Sprintf("name %q contains reserved token %s", row.Name, util.ReservedToken), true
}

func checkLeadingTilde(_ Policy, row model.InventoryRow) (string, bool) {
	if row.ItemType != model.ItemTypeFolder || !util.HasLeadingTilde(row.Name) {
		return "", false
	}
	return fmt.Sprintf("folder name %q starts with ~", row.Name), true
}

func checkPathTooLong(policy Policy, row model.InventoryRow) (string, bool) {
	length := utf8.RuneCountInString(row.Path)
	if length < policy.MaxPathLength {
		return "", false
	}
	return fmt.Sprintf("path is %d characters, must be fewer than %d; manual remediation required", length, policy.MaxPathLength), true
}

func checkOversizedFile(policy Policy, row model.InventoryRow) (string, bool) {
	gigabytes, ok := parseGigabytes(row)
	if !ok || gigabytes <= policy.MaxFileSizeGB {
		return "", false
	}
	return fmt.Sprintf("file size %s exceeds the %gGB upload limit; manual remediation required", row.SizeText, policy.MaxFileSizeGB), true
}

// parseGigabytes returns the size of a file row measured in GB. ok is false
// for folders, other units, and sizes with no number in them.
func parseGigabytes(row model.InventoryRow) (float64, bool) {
	if row.ItemType != model.ItemTypeFile || !util.HasSizeUnit(row.SizeText, "GB") {
		return 0, false
	}
	return util.FirstNumber(row.SizeText)
}

// malformedSize reports a GB size with no parsable number, which the
// oversized file rule cannot judge.
func malformedSize(row model.InventoryRow) bool {
	if row.ItemType != model.ItemTypeFile || !util.HasSizeUnit(row.SizeText, "GB") {
		return false
	}
	_, ok := util.FirstNumber(row.SizeText)
	return !ok
}

// CorrectName composes every name substitution in a fixed order: forbidden
// characters, then the reserved token, then the leading tilde of folders.
// Character substitutions are skipped when characterRules is false. The
// result is stable under a second application.
func CorrectName(name string, itemType model.ItemType, characterRules bool) string {
	corrected := name
	if characterRules {
		corrected = util.ReplaceForbiddenChars(corrected)
		corrected = util.ReplaceReservedToken(corrected)
	}
	if itemType == model.ItemTypeFolder {
		corrected = util.ReplaceLeadingTilde(corrected)
	}
	return corrected
}
