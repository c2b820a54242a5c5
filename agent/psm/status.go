package psm

import "github.com/findy-network/findy-didcomm/std/common"

// StatusKind is the outcome of a finished issuance or presentation.
type StatusKind int

const (
	StatusSuccess StatusKind = iota + 1
	StatusFailed
	StatusDeclined
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	case StatusDeclined:
		return "Declined"
	default:
		return "Unknown"
	}
}

// Status is the payload of a Finished state. Success carries the id of the
// credential or presentation, the others the problem report that was sent
// or received.
type Status struct {
	Kind   StatusKind            `json:"kind"`
	ID     string                `json:"id,omitempty"`
	Report *common.ProblemReport `json:"report,omitempty"`
}

func Success(id string) Status {
	return Status{Kind: StatusSuccess, ID: id}
}

func Failed(pr *common.ProblemReport) Status {
	return Status{Kind: StatusFailed, Report: pr}
}

func Declined(pr *common.ProblemReport) Status {
	return Status{Kind: StatusDeclined, Report: pr}
}

func (s Status) String() string {
	if s.Report != nil {
		return s.Kind.String() + "(" + s.Report.Description.Code + ")"
	}
	return s.Kind.String()
}
