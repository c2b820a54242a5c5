package common

import (
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

// Problem codes from Aries RFC 0035 and the protocol RFCs.
const (
	CodeRequestNotAccepted     = "request-not-accepted"
	CodeRequestProcessingError = "request-processing-error"
	CodeResponseNotAccepted    = "response-not-accepted"
	CodeResponseProcessError   = "response-processing-error"
	CodeIssuanceAbandoned      = "issuance-abandoned"
	CodePresentationAbandoned  = "presentation-abandoned"
	CodePresentationRejected   = "presentation-rejected"
	CodeAckTimeout             = "ack-timeout"
	CodeAbandoned              = "abandoned"
)

// ProblemReport problem report definition, Aries RFC 0035
type ProblemReport struct {
	Type           string            `json:"@type"`
	ID             string            `json:"@id"`
	Description    Code              `json:"description"`
	ExplainLongTxt string            `json:"explain-ltxt,omitempty"` // ACApy
	Thread         *decorator.Thread `json:"~thread,omitempty"`
}

// Code represents a problem report code
type Code struct {
	Code string `json:"code"`
	En   string `json:"en,omitempty"`
}

// NewProblemReport creates a problem report to the thread.
func NewProblemReport(typ, thid, code, text string) *ProblemReport {
	return &ProblemReport{
		Type:        typ,
		ID:          utils.UUID(),
		Description: Code{Code: code, En: text},
		Thread:      &decorator.Thread{ID: thid},
	}
}

// Text returns the human readable part from where ever the sender put it.
func (p *ProblemReport) Text() string {
	if p.Description.En != "" {
		return p.Description.En
	}
	return p.ExplainLongTxt
}
