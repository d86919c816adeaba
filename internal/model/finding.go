package model

type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type RuleKind string

// Rule table kinds, in evaluation order.
const (
	RuleForbiddenCharacters RuleKind = "forbidden_characters"
	RuleReservedToken       RuleKind = "reserved_token"
	RuleLeadingTilde        RuleKind = "leading_tilde"
	RulePathTooLong         RuleKind = "path_too_long"
	RuleOversizedFile       RuleKind = "oversized_file"
)

// Gating and diagnostic kinds. These follow the rule table findings of a row.
const (
	RuleMalformedInput       RuleKind = "malformed_input"
	RuleQualityMarkerSkipped RuleKind = "quality_marker_skipped"
	RuleNotActionable        RuleKind = "not_actionable"
	RuleUnknownItemType      RuleKind = "unknown_item_type"
)

// Correctable reports whether the rule proposes a new name.
func (k RuleKind) Correctable() bool {
	switch k {
	case RuleForbiddenCharacters, RuleReservedToken, RuleLeadingTilde:
		return true
	default:
		return false
	}
}

type Finding struct {
	Rule         RuleKind     `json:"rule"`
	Severity     Severity     `json:"severity"`
	Row          InventoryRow `json:"row"`
	Message      string       `json:"message"`
	ProposedName string       `json:"proposed_name,omitempty"`
	Actionable   bool         `json:"actionable"`
}

type FindingQuery struct {
	RunID    string
	Rule     string
	Severity string
	Page     int
	Limit    int
}

type FindingListData struct {
	RunID string    `json:"run_id"`
	Items []Finding `json:"items"`
}
