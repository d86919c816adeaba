package compliance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-migration-audit/internal/model"
)

// RowSource yields inventory rows one at a time and returns io.EOF once the
// input is exhausted. Sources are not restartable.
type RowSource interface {
	Next() (model.InventoryRow, error)
}

// Sink receives evaluation output in emission order.
type Sink interface {
	Finding(finding model.Finding)
	Intent(intent model.RenameIntent)
}

// Result is the evaluation of a single row.
type Result struct {
	Findings []model.Finding
	Intent   *model.RenameIntent
}

// Summary counts what a run emitted.
type Summary struct {
	Rows     int `json:"rows"`
	Findings int `json:"findings"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Intents  int `json:"intents"`
	Excluded int `json:"excluded"`
}

type Evaluator struct {
	policy Policy
	owners map[string]struct{}
	rules  []Rule
}

// NewEvaluator validates policy for mode and builds an evaluator.
func NewEvaluator(policy Policy, mode model.Mode) (*Evaluator, error) {
	if err := policy.Validate(mode); err != nil {
		return nil, fmt.Errorf("invalid compliance policy: %w", err)
	}

	return &Evaluator{
		policy: policy,
		owners: ownerSet(policy.AuthorizedOwners),
		rules:  Rules(),
	}, nil
}

func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Run drains src through Evaluate and forwards every finding and intent to
// sink. It stops early only when src fails or ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context, src RowSource, sink Sink) (Summary, error) {
	var summary Summary

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, fmt.Errorf("read inventory row %d: %w", summary.Rows+1, err)
		}

		summary.Rows++
		if e.policy.isExcluded(row.Path) {
			summary.Excluded++
		}

		result := e.Evaluate(row)
		for _, finding := range result.Findings {
			summary.Findings++
			if finding.Severity == model.SeverityError {
				summary.Errors++
			} else {
				summary.Warnings++
			}
			sink.Finding(finding)
		}
		if result.Intent != nil {
			summary.Intents++
			sink.Intent(*result.Intent)
		}
	}
}

// Evaluate applies the rule table to row and decides whether the proposed
// correction, if any, may be applied.
func (e *Evaluator) Evaluate(row model.InventoryRow) Result {
	characterRules := !e.policy.isExcluded(row.Path)

	var result Result
	correctable := false

	for _, rule := range e.rules {
		if rule.CharacterRule && !characterRules {
			continue
		}

		message, fired := rule.Check(e.policy, row)
		if !fired {
			continue
		}

		result.Findings = append(result.Findings, model.Finding{
			Rule:     rule.Kind,
			Severity: rule.Severity,
			Row:      row,
			Message:  message,
		})
		if rule.Kind.Correctable() {
			correctable = true
		}
	}

	if problems := malformedFields(row); len(problems) > 0 {
		result.Findings = append(result.Findings, e.diagnostic(row, model.RuleMalformedInput, model.SeverityWarn,
			strings.Join(problems, "; ")))
	}

	if !correctable {
		return result
	}

	proposed := CorrectName(row.Name, row.ItemType, characterRules)
	for i := range result.Findings {
		if result.Findings[i].Rule.Correctable() {
			result.Findings[i].ProposedName = proposed
		}
	}

	if gate, blocked := e.gate(row, proposed); blocked {
		result.Findings = append(result.Findings, gate)
		return result
	}

	for i := range result.Findings {
		if result.Findings[i].Rule.Correctable() {
			result.Findings[i].Actionable = true
		}
	}
	result.Intent = &model.RenameIntent{
		ItemID:       row.ItemID,
		ItemType:     row.ItemType,
		ProposedName: proposed,
		CurrentName:  row.Name,
		Line:         row.Line,
	}
	return result
}

// gate returns the finding that blocks an otherwise available correction.
func (e *Evaluator) gate(row model.InventoryRow, proposed string) (model.Finding, bool) {
	if e.policy.NameQualityMarker != "" && strings.Contains(row.Name, e.policy.NameQualityMarker) {
		return e.diagnostic(row, model.RuleQualityMarkerSkipped, model.SeverityWarn,
			fmt.Sprintf("name contains data-quality marker %q from a failed export conversion; skipped for correction", e.policy.NameQualityMarker)), true
	}

	if _, authorized := e.owners[row.OwnerLogin]; !authorized {
		return e.diagnostic(row, model.RuleNotActionable, model.SeverityError,
			fmt.Sprintf("object needs a new name but is not owned by an authorized account (owner %q)", row.OwnerLogin)), true
	}

	if row.ItemID == "" {
		return e.diagnostic(row, model.RuleNotActionable, model.SeverityError,
			"object needs a new name but the row has no item id"), true
	}

	if strings.TrimSpace(proposed) == "" {
		return e.diagnostic(row, model.RuleNotActionable, model.SeverityError,
			fmt.Sprintf("correction of %q leaves an empty name; manual rename required", row.Name)), true
	}

	if row.ItemType == model.ItemTypeUnknown {
		return e.diagnostic(row, model.RuleUnknownItemType, model.SeverityError,
			"unknown object type; rename not issued"), true
	}

	return model.Finding{}, false
}

func (e *Evaluator) diagnostic(row model.InventoryRow, kind model.RuleKind, severity model.Severity, message string) model.Finding {
	return model.Finding{Rule: kind, Severity: severity, Row: row, Message: message}
}

// malformedFields describes input problems that stop some rules from judging
// the row. The remaining rules still run.
func malformedFields(row model.InventoryRow) []string {
	var problems []string
	if len(row.Missing) > 0 {
		problems = append(problems, fmt.Sprintf("missing column(s): %s", strings.Join(row.Missing, ", ")))
	}
	if malformedSize(row) {
		problems = append(problems, fmt.Sprintf("size %q has no numeric value; size limit not checked", row.SizeText))
	}
	return problems
}
