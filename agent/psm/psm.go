// Package psm is the protocol state machine engine. It doesn't know any
// protocol kinds. It enforces the validation order every protocol shares:
// terminal replay, thread identity, problem report folding and accepted
// message kinds. The protocols in the protocol/ packages build their typed
// state unions on top of it.
package psm

import (
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/golang/glog"
)

var (
	ErrThreadMismatch           = errors.New("thread mismatch")
	ErrUnexpectedMessageKind    = errors.New("unexpected message kind")
	ErrMissingDidDoc            = errors.New("missing DID document")
	ErrInvalidResponseSignature = errors.New("invalid response signature")
	ErrNotFound                 = errors.New("protocol run not found")
)

// Machine is implemented by every protocol state union. The methods read the
// live case; they never change it.
type Machine interface {
	// StateName is the name of the live case, e.g. "Invited".
	StateName() string

	// Thread returns the key the inbound messages must match or nil when the
	// run has no thread yet.
	Thread() ThreadKey

	// Accepts tells if an inbound message of the kind is legal in the
	// current case.
	Accepts(kind string) bool

	Terminal() bool

	// LastMsgID is the @id of the inbound message that moved the run to its
	// terminal case, empty when a local action ended the run.
	LastMsgID() string
}

// Abandon folds a problem report into the protocol's terminal failure case.
type Abandon[S Machine] func(pr *common.ProblemReport, msgID string) S

// Next is the protocol specific transition for an inbound message that
// passed validation. It returns the new state and an optional outbound
// message.
type Next[S Machine] func(msg *common.Msg) (S, any, error)

// Step validates msg against s and runs the transition. On any error the
// returned state is s itself. A problem report is the only inbound message
// that ends a run without the protocol's transition.
func Step[S Machine](s S, msg *common.Msg, abandon Abandon[S], next Next[S]) (_ S, out any, err error) {
	if s.Terminal() {
		if msg.ID != "" && msg.ID == s.LastMsgID() {
			glog.V(1).Infoln("replay of", msg.Kind(), "in", s.StateName())
			return s, nil, nil
		}
		return s, nil, fmt.Errorf("%w: %s in terminal state %s",
			ErrUnexpectedMessageKind, msg.Kind(), s.StateName())
	}
	if key := s.Thread(); key != nil && !key.Match(msg) {
		return s, nil, fmt.Errorf("%w: %s (thid: %s, pthid: %s) for run %s",
			ErrThreadMismatch, msg.Kind(), msg.ThreadID(), msg.ParentThreadID(), key)
	}
	if msg.IsProblemReport() {
		pr, err := msg.ProblemReport()
		if err != nil {
			return s, nil, err
		}
		glog.V(1).Infof("%s abandoned: %s", s.StateName(), pr.Description.Code)
		return abandon(pr, msg.ID), nil, nil
	}
	if !s.Accepts(msg.Kind()) {
		return s, nil, fmt.Errorf("%w: %s in state %s",
			ErrUnexpectedMessageKind, msg.Kind(), s.StateName())
	}
	next2, out, err := next(msg)
	if err != nil {
		return s, nil, err
	}
	glog.V(1).Infoln(s.StateName(), "->", next2.StateName())
	return next2, out, nil
}

// Require returns ErrUnexpectedMessageKind unless ok. Local actions use it
// to check they are called in a state that allows them.
func Require(ok bool, action string, s Machine) error {
	if !ok {
		return fmt.Errorf("%w: %s not allowed in state %s",
			ErrUnexpectedMessageKind, action, s.StateName())
	}
	return nil
}
