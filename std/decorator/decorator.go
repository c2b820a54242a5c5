// Package decorator implements the Aries message decorators used by the
// protocols: ~thread, ~timing, ~please_ack and attachments.
package decorator

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/findy-network/findy-didcomm/agent/utils"
)

// Thread is the ~thread decorator. ID is the thread id, PID the parent
// thread id.
type Thread struct {
	ID             string         `json:"thid,omitempty"`
	PID            string         `json:"pthid,omitempty"`
	SenderOrder    int            `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

// Timing is the ~timing decorator.
type Timing struct {
	InTime        *time.Time `json:"in_time,omitempty"`
	OutTime       *time.Time `json:"out_time,omitempty"`
	StaleTime     *time.Time `json:"stale_time,omitempty"`
	ExpiresTime   *time.Time `json:"expires_time,omitempty"`
	DelayMilli    int        `json:"delay_milli,omitempty"`
	WaitUntilTime *time.Time `json:"wait_until_time,omitempty"`
}

// PleaseAck is the ~please_ack decorator.
type PleaseAck struct {
	On []string `json:"on,omitempty"`
}

// Attachment is an Aries RFC 0017 attachment.
type Attachment struct {
	ID          string         `json:"@id,omitempty"`
	Description string         `json:"description,omitempty"`
	FileName    string         `json:"filename,omitempty"`
	MimeType    string         `json:"mime-type,omitempty"`
	LastModTime *time.Time     `json:"lastmod_time,omitempty"`
	ByteCount   int64          `json:"byte_count,omitempty"`
	Data        AttachmentData `json:"data"`
}

// AttachmentData holds the attachment content either as base64 or inline
// JSON.
type AttachmentData struct {
	Sha256 string          `json:"sha256,omitempty"`
	Links  []string        `json:"links,omitempty"`
	Base64 string          `json:"base64,omitempty"`
	JSON   json.RawMessage `json:"json,omitempty"`
}

var ErrEmptyAttachment = errors.New("attachment has no data")

func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

// CheckThread returns a thread where the thread id falls back to ID, the
// message's own id, as Aries RFC 0008 defines. The argument isn't modified.
func CheckThread(thread *Thread, ID string) *Thread {
	if thread == nil {
		return &Thread{ID: ID}
	}
	th := *thread
	if th.ID == "" {
		th.ID = ID
	}
	return &th
}

// NewTiming returns a timing decorator stamped with the current out time.
func NewTiming() *Timing {
	now := time.Now().UTC().Truncate(time.Second)
	return &Timing{OutTime: &now}
}

// NewAttachment creates a base64 attachment from the data.
func NewAttachment(id, mimeType string, data []byte) *Attachment {
	if id == "" {
		id = utils.UUID()
	}
	return &Attachment{
		ID:       id,
		MimeType: mimeType,
		Data:     AttachmentData{Base64: utils.EncodeB64(data)},
	}
}

// Bytes returns the attachment content, base64 decoded or the raw inline
// JSON.
func (a *Attachment) Bytes() ([]byte, error) {
	if a == nil {
		return nil, ErrEmptyAttachment
	}
	switch {
	case a.Data.Base64 != "":
		return utils.DecodeB64(a.Data.Base64)
	case len(a.Data.JSON) > 0:
		return a.Data.JSON, nil
	}
	return nil, ErrEmptyAttachment
}

// FirstBytes returns the content of the first attachment.
func FirstBytes(as []Attachment) ([]byte, error) {
	if len(as) == 0 {
		return nil, ErrEmptyAttachment
	}
	return as[0].Bytes()
}
