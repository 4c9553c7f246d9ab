package model

import "fmt"

// Severity of a diagnostic
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// Format identifies an electronic invoice syntax
type Format string

const (
	FormatFacturX Format = "facturx"
	FormatUBL     Format = "ubl_bis3"
	FormatUnknown Format = "unknown"
)

func (f Format) String() string {
	return string(f)
}

// Diagnostic is a rule outcome attached to an export
type Diagnostic struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", d.Severity, d.RuleID, d.Message, d.Path)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.RuleID, d.Message)
}

// Blocking creates a blocking diagnostic
func Blocking(ruleID, path, message string) Diagnostic {
	return Diagnostic{RuleID: ruleID, Severity: SeverityBlocking, Message: message, Path: path}
}

// Warning creates a warning diagnostic
func Warning(ruleID, path, message string) Diagnostic {
	return Diagnostic{RuleID: ruleID, Severity: SeverityWarning, Message: message, Path: path}
}

// Diagnostics is an ordered list of diagnostics
type Diagnostics []Diagnostic

// Blocking returns the blocking diagnostics in order
func (ds Diagnostics) Blocking() Diagnostics {
	return ds.filter(SeverityBlocking)
}

// Warnings returns the warning diagnostics in order
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

// HasBlocking returns true if any diagnostic is blocking
func (ds Diagnostics) HasBlocking() bool {
	for _, d := range ds {
		if d.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// Has returns true if a diagnostic with the rule id is present
func (ds Diagnostics) Has(ruleID string) bool {
	for _, d := range ds {
		if d.RuleID == ruleID {
			return true
		}
	}
	return false
}

// Strings renders each diagnostic for display
func (ds Diagnostics) Strings() []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

func (ds Diagnostics) filter(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
