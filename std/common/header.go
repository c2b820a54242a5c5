// Package common holds the message parts every protocol shares: the message
// header, problem reports and acks.
package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

var ErrNoType = errors.New("message has no @type")

// Header is the part of any Aries message the engine needs for routing and
// validation.
type Header struct {
	Type      string               `json:"@type"`
	ID        string               `json:"@id"`
	Thread    *decorator.Thread    `json:"~thread,omitempty"`
	Timing    *decorator.Timing    `json:"~timing,omitempty"`
	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
}

// Msg is an inbound plaintext message with its parsed header. Data is kept
// for the protocol to unmarshal the body into its own type.
type Msg struct {
	Header
	MsgType pltype.Type
	Data    []byte
}

// ParseMsg parses the header of the plaintext message.
func ParseMsg(data []byte) (m *Msg, err error) {
	m = &Msg{Data: data}
	if err = json.Unmarshal(data, &m.Header); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if m.Type == "" {
		return nil, ErrNoType
	}
	if m.MsgType, err = pltype.ParseType(m.Type); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMsg builds an inbound message from an outbound struct. Tests and local
// loops use it to feed messages without wire transport.
func NewMsg(v any) (*Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("new message: %w", err)
	}
	return ParseMsg(data)
}

// Kind returns the message kind, the last part of the type.
func (m *Msg) Kind() string {
	return m.MsgType.Kind
}

// Family returns the protocol family of the message.
func (m *Msg) Family() string {
	return m.MsgType.Family
}

// ThreadID returns the thread id of the message, which is its own id when
// the message has no ~thread.
func (m *Msg) ThreadID() string {
	return decorator.CheckThread(m.Thread, m.ID).ID
}

// ParentThreadID returns the pthid or an empty string.
func (m *Msg) ParentThreadID() string {
	if m.Thread == nil {
		return ""
	}
	return m.Thread.PID
}

// IsProblemReport tells if the message is a problem report of any family.
func (m *Msg) IsProblemReport() bool {
	return m.MsgType.IsProblemReport()
}

// Unmarshal reads the whole message into v.
func (m *Msg) Unmarshal(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: %w", m.Kind(), err)
	}
	return nil
}

// ProblemReport returns the message as a problem report.
func (m *Msg) ProblemReport() (*ProblemReport, error) {
	var pr ProblemReport
	if err := m.Unmarshal(&pr); err != nil {
		return nil, err
	}
	pr.Thread = decorator.CheckThread(pr.Thread, pr.ID)
	return &pr, nil
}
