package psm

import "github.com/findy-network/findy-didcomm/std/common"

// ThreadKey binds the inbound messages to a run.
type ThreadKey interface {
	Match(msg *common.Msg) bool

	// Index returns the lookup keys a store indexes the run with.
	Index() []string

	String() string
}

// SingleThread is a plain thread id. A message matches when its ~thread.thid,
// or its @id without a thread, equals it.
type SingleThread string

func (t SingleThread) Match(msg *common.Msg) bool {
	return string(t) == msg.ThreadID()
}

func (t SingleThread) Index() []string {
	return []string{string(t)}
}

func (t SingleThread) String() string {
	return string(t)
}

// CompoundThread is the DID exchange key. Both the invitation id (pthid) and
// the request id (thid) must match. Before a request exists only the
// invitation id is checked.
type CompoundThread struct {
	InvitationID string
	RequestID    string
}

func (t CompoundThread) Match(msg *common.Msg) bool {
	if msg.ParentThreadID() != t.InvitationID {
		return false
	}
	return t.RequestID == "" || msg.ThreadID() == t.RequestID
}

// Index doesn't give the bare invitation id after a request exists. A
// multi-use invitation's template keeps owning it.
func (t CompoundThread) Index() []string {
	if t.RequestID == "" {
		return []string{t.InvitationID}
	}
	return []string{CompoundIndex(t.InvitationID, t.RequestID)}
}

func (t CompoundThread) String() string {
	return CompoundIndex(t.InvitationID, t.RequestID)
}

// CompoundIndex is the store key of a pthid, thid pair.
func CompoundIndex(pthid, thid string) string {
	return pthid + "/" + thid
}

// Lookup returns the store keys to try for an inbound message, the most
// specific first.
func Lookup(msg *common.Msg) []string {
	keys := make([]string, 0, 3)
	if pthid := msg.ParentThreadID(); pthid != "" {
		keys = append(keys, CompoundIndex(pthid, msg.ThreadID()))
	}
	keys = append(keys, msg.ThreadID())
	if pthid := msg.ParentThreadID(); pthid != "" {
		keys = append(keys, pthid)
	}
	return keys
}
