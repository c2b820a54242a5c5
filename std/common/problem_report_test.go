package common

import (
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

var prJSON = `
{
  "@type": "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/notification/1.0/problem-report",
  "@id": "8e59230b-47e4-4abb-a5cc-28d1b09f0e96",
  "~thread": {
    "thid": "8225993b-73f9-404c-804b-139bd03893dc"
  },
  "explain-ltxt": "Error deserializing message: CredentialAck schema validation failed"
}`

func TestProblemReport_ReadJSON(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	msg := try.To1(ParseMsg([]byte(prJSON)))
	assert.Equal(msg.ID, "8e59230b-47e4-4abb-a5cc-28d1b09f0e96")
	assert.Equal(msg.ThreadID(), "8225993b-73f9-404c-804b-139bd03893dc")
	assert.That(msg.IsProblemReport())
	assert.Equal(msg.Family(), pltype.ProtocolNotification)

	pr := try.To1(msg.ProblemReport())
	assert.NotEmpty(pr.Text())
	assert.Equal(pr.Description.Code, "")
}

func TestNewProblemReport(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pr := NewProblemReport(pltype.AriesConnectionProblemRpt, "thread-1",
		CodeRequestNotAccepted, "no thanks")
	msg := try.To1(NewMsg(pr))
	assert.That(msg.IsProblemReport())
	assert.Equal(msg.ThreadID(), "thread-1")

	back := try.To1(msg.ProblemReport())
	assert.Equal(back.Description.Code, CodeRequestNotAccepted)
	assert.Equal(back.Text(), "no thanks")
}

func TestParseMsg(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		thid    string
		pthid   string
		wantErr bool
	}{
		{"own id as thread", `{"@type":"https://didcomm.org/connections/1.0/request","@id":"r1"}`, "r1", "", false},
		{"thread and parent", `{"@type":"https://didcomm.org/didexchange/1.0/response","@id":"x","~thread":{"thid":"r1","pthid":"inv"}}`, "r1", "inv", false},
		{"no type", `{"@id":"x"}`, "", "", true},
		{"bad type", `{"@type":"nope","@id":"x"}`, "", "", true},
		{"not json", `nope`, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMsg([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.thid, m.ThreadID())
			require.Equal(t, tt.pthid, m.ParentThreadID())
		})
	}
}

func TestNewAck(t *testing.T) {
	ack := NewAck(pltype.NotificationAck, "th")
	m, err := NewMsg(ack)
	require.NoError(t, err)
	require.Equal(t, pltype.HandlerAck, m.Kind())
	require.Equal(t, "th", m.ThreadID())
	require.Equal(t, AckOK, ack.Status)
}
