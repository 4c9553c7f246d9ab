package server

import (
	"github.com/rezonia/einvoice-codec/internal/model"
)

// ImportResponse is the response for the import endpoint
type ImportResponse struct {
	Invoice    *model.Invoice `json:"invoice"`
	Format     string         `json:"format"`
	Container  string         `json:"container"`
	Attachment string         `json:"attachment,omitempty"`
	Logs       []string       `json:"logs,omitempty"`
}

// ValidationResponse is the response for validate endpoint
type ValidationResponse struct {
	Valid       bool              `json:"valid"`
	Format      string            `json:"format"`
	Diagnostics model.Diagnostics `json:"diagnostics"`
}

// DetectResponse is the response for detect endpoint
type DetectResponse struct {
	Format    string `json:"format"`
	Container string `json:"container"`
	Size      int    `json:"size"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error       string            `json:"error"`
	Details     string            `json:"details,omitempty"`
	Diagnostics model.Diagnostics `json:"diagnostics,omitempty"`
}
