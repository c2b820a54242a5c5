package psm

import (
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/std/common"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

// pingState is a two state machine for exercising the engine.
type pingState struct {
	Name   string
	ThID   string
	LastID string
	Code   string
}

func (s pingState) StateName() string { return s.Name }

func (s pingState) Thread() ThreadKey {
	if s.ThID == "" {
		return nil
	}
	return SingleThread(s.ThID)
}

func (s pingState) Accepts(kind string) bool {
	return s.Name == "Waiting" && kind == pltype.HandlerPingResponse
}

func (s pingState) Terminal() bool    { return s.Name == "Done" || s.Name == "Abandoned" }
func (s pingState) LastMsgID() string { return s.LastID }

func step(s pingState, msg *common.Msg) (pingState, any, error) {
	return Step(s, msg,
		func(pr *common.ProblemReport, id string) pingState {
			return pingState{Name: "Abandoned", ThID: s.ThID, LastID: id, Code: pr.Description.Code}
		},
		func(msg *common.Msg) (pingState, any, error) {
			return pingState{Name: "Done", ThID: s.ThID, LastID: msg.ID}, "ok", nil
		})
}

func pingResponse(thid string) *common.Msg {
	return try.To1(common.NewMsg(&common.Header{
		Type:   pltype.TrustPingResponse,
		ID:     "resp-1",
		Thread: &decorator.Thread{ID: thid},
	}))
}

func TestStep(t *testing.T) {
	waiting := pingState{Name: "Waiting", ThID: "th-1"}

	s, out, err := step(waiting, pingResponse("th-1"))
	require.NoError(t, err)
	require.Equal(t, "Done", s.Name)
	require.Equal(t, "ok", out)

	t.Run("thread mismatch", func(t *testing.T) {
		s, out, err := step(waiting, pingResponse("th-2"))
		require.ErrorIs(t, err, ErrThreadMismatch)
		require.Equal(t, waiting, s)
		require.Nil(t, out)
	})
	t.Run("unexpected kind", func(t *testing.T) {
		ping := try.To1(common.NewMsg(&common.Header{
			Type:   pltype.TrustPingPing,
			ID:     "ping-1",
			Thread: &decorator.Thread{ID: "th-1"},
		}))
		s, _, err := step(waiting, ping)
		require.ErrorIs(t, err, ErrUnexpectedMessageKind)
		require.Equal(t, waiting, s)
	})
	t.Run("problem report", func(t *testing.T) {
		pr := common.NewProblemReport(pltype.NotificationProblemReport, "th-1",
			common.CodeRequestNotAccepted, "no")
		s, out, err := step(waiting, try.To1(common.NewMsg(pr)))
		require.NoError(t, err)
		require.Nil(t, out)
		require.Equal(t, "Abandoned", s.Name)
		require.Equal(t, common.CodeRequestNotAccepted, s.Code)
	})
	t.Run("replay in terminal", func(t *testing.T) {
		again, out, err := step(s, pingResponse("th-1"))
		require.NoError(t, err)
		require.Nil(t, out)
		require.Equal(t, s, again)
	})
	t.Run("other message in terminal", func(t *testing.T) {
		msg := pingResponse("th-1")
		msg.ID = "resp-2"
		again, _, err := step(s, msg)
		require.ErrorIs(t, err, ErrUnexpectedMessageKind)
		require.Equal(t, s, again)
	})
	t.Run("no thread yet", func(t *testing.T) {
		s, _, err := step(pingState{Name: "Waiting"}, pingResponse("any"))
		require.NoError(t, err)
		require.Equal(t, "Done", s.Name)
	})
}

func TestCompoundThread(t *testing.T) {
	msg := func(thid, pthid string) *common.Msg {
		return try.To1(common.NewMsg(&common.Header{
			Type:   pltype.DIDExchangeResponse,
			ID:     "m",
			Thread: &decorator.Thread{ID: thid, PID: pthid},
		}))
	}
	key := CompoundThread{InvitationID: "inv", RequestID: "req"}
	tests := []struct {
		name  string
		key   CompoundThread
		msg   *common.Msg
		match bool
	}{
		{"both", key, msg("req", "inv"), true},
		{"other invitation", key, msg("req", "inv-2"), false},
		{"other request", key, msg("req-2", "inv"), false},
		{"no pthid", key, msg("req", ""), false},
		{"invitation only", CompoundThread{InvitationID: "inv"}, msg("any", "inv"), true},
		{"invitation only wrong", CompoundThread{InvitationID: "inv"}, msg("any", "x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.match, tt.key.Match(tt.msg))
		})
	}
	require.Equal(t, []string{"inv/req"}, key.Index())
	require.Equal(t, []string{"inv/req", "req", "inv"}, Lookup(msg("req", "inv")))
	require.Equal(t, []string{"req"}, Lookup(msg("req", "")))
}

func TestSingleThread(t *testing.T) {
	noThread := try.To1(common.NewMsg(&common.Header{Type: pltype.AriesConnectionRequest, ID: "req"}))
	require.True(t, SingleThread("req").Match(noThread))
	require.False(t, SingleThread("inv").Match(noThread))
}

func TestStatus(t *testing.T) {
	pr := common.NewProblemReport(pltype.IssueCredentialProblemReport, "th",
		common.CodeIssuanceAbandoned, "")
	require.Equal(t, "Success", Success("cred").String())
	require.Equal(t, "Declined(issuance-abandoned)", Declined(pr).String())
	require.Equal(t, StatusFailed, Failed(pr).Kind)
}
