// Package rules evaluates EN 16931, PEPPOL and national business rules
// against an invoice and its aggregated tax view.
//
// Each rule is a pure function of the invoice and the tax view. The registry
// runs rules in registration order and never modifies the invoice.
package rules

import (
	"fmt"

	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/tax"
)

// Violation is a single rule failure
type Violation struct {
	Path    string
	Message string
}

// CheckFunc evaluates a rule
type CheckFunc func(inv *model.Invoice, view *tax.View) []Violation

// Rule is a registered business rule
type Rule struct {
	ID          string
	Severity    model.Severity
	Description string
	// Formats restricts the rule to some syntaxes; empty means all
	Formats []model.Format
	Check   CheckFunc
}

// AppliesTo returns true if the rule runs for the format
func (r Rule) AppliesTo(format model.Format) bool {
	if len(r.Formats) == 0 {
		return true
	}
	for _, f := range r.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Options selects optional rules
type Options struct {
	WarnOnUnmappedUoM bool
}

// Registry holds rules in evaluation order
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry creates a registry with the given rules
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// Register adds a rule. A rule with an existing ID replaces it in place.
func (r *Registry) Register(rule Rule) {
	if i, ok := r.index[rule.ID]; ok {
		r.rules[i] = rule
		return
	}
	r.index[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)
}

// Get returns the rule with the given ID
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.index[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// IDs returns the registered rule IDs in evaluation order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		ids = append(ids, rule.ID)
	}
	return ids
}

// Check runs every rule applicable to format and returns the diagnostics
func (r *Registry) Check(inv *model.Invoice, view *tax.View, format model.Format) model.Diagnostics {
	var diags model.Diagnostics
	for _, rule := range r.rules {
		if !rule.AppliesTo(format) {
			continue
		}
		for _, v := range rule.Check(inv, view) {
			diags = append(diags, model.Diagnostic{
				RuleID:   rule.ID,
				Severity: rule.Severity,
				Message:  v.Message,
				Path:     v.Path,
			})
		}
	}
	return diags
}

// Default returns the full rule set
func Default(opts Options) *Registry {
	r := NewRegistry()
	for _, family := range [][]Rule{
		structuralRules(),
		intracomRules(),
		vatRules(),
		paymentRules(),
		peppolRules(),
		netherlandsRules(),
		norwayRules(),
		denmarkRules(),
		franceRules(),
		advisoryRules(opts),
	} {
		for _, rule := range family {
			r.Register(rule)
		}
	}
	return r
}

func fail(path, format string, args ...interface{}) []Violation {
	return []Violation{{Path: path, Message: fmt.Sprintf(format, args...)}}
}

var (
	ublOnly     = []model.Format{model.FormatUBL}
	facturxOnly = []model.Format{model.FormatFacturX}
)
