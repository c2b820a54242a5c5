package common

import (
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

// Ack status values, Aries RFC 0015
const (
	AckOK      = "OK"
	AckFail    = "FAIL"
	AckPending = "PENDING"
)

// Ack acknowledgement struct
type Ack struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Status string            `json:"status,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// NewAck creates an OK ack to the thread.
func NewAck(typ, thid string) *Ack {
	return &Ack{
		Type:   typ,
		ID:     utils.UUID(),
		Status: AckOK,
		Thread: &decorator.Thread{ID: thid},
	}
}
