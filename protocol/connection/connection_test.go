package connection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/common"
	stdconn "github.com/findy-network/findy-didcomm/std/connection"
	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	inviterCfg = Config{Label: "faber", Endpoint: "http://faber.example/a2a"}
	inviteeCfg = Config{Label: "alice", Endpoint: "http://alice.example/a2a"}
)

func msgOf(t *testing.T, v any) *common.Msg {
	m, err := common.NewMsg(v)
	require.NoError(t, err)
	return m
}

// handshake runs the protocol up to the response. The returned states are
// Inviter Requested and Invitee Requested.
func handshake(t *testing.T, iw, ew wallet.Wallet) (Inviter, Invitee) {
	inviter, inv, err := NewInviter().CreateInvitation(ctx, iw, inviterCfg)
	require.NoError(t, err)
	require.Equal(t, Invited, inviter.State)

	invitee, err := NewInvitee().HandleInvitation(ctx, inv, vdr.New())
	require.NoError(t, err)
	require.Equal(t, Invited, invitee.State)

	invitee, req, err := invitee.CreateRequest(ctx, ew, inviteeCfg)
	require.NoError(t, err)
	require.Equal(t, inv.ID, req.Thread.ID)

	inviter, out, err := inviter.Handle(msgOf(t, req))
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, Requested, inviter.State)
	return inviter, invitee
}

func TestHappyPath(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)

	inviter, resp, err := inviter.CreateResponse(ctx, iw, false)
	assert.NoError(err)
	assert.Equal(inviter.State, Completed)

	invitee, out, err := invitee.Handle(msgOf(t, resp))
	assert.NoError(err)
	assert.Equal(invitee.State, Completed)
	assert.That(out == nil)

	ipw, ok := inviter.Pairwise()
	assert.That(ok)
	epw, ok := invitee.Pairwise()
	assert.That(ok)

	assert.Equal(ipw.ThreadID, epw.ThreadID)
	assert.NotEmpty(ipw.TheirDoc.Endpoint())
	assert.NotEmpty(epw.TheirDoc.Endpoint())
	assert.Equal(ipw.TheirDoc.Endpoint(), inviteeCfg.Endpoint)
	assert.Equal(epw.TheirDoc.Endpoint(), inviterCfg.Endpoint)
	assert.Equal(ipw.TheirDID, epw.MyDID)
	assert.Equal(epw.TheirDID, ipw.MyDID)
	assert.Equal(epw.TheirLabel, "faber")
	assert.Equal(ipw.TheirLabel, "alice")

	// both ends can build secure pipes to each other
	ip := try.To1(ipw.Pipe(iw))
	ep := try.To1(epw.Pipe(ew))
	packed := try.To1(ip.Pack(ctx, []byte("hello")))
	plain, sender := try.To2(ep.Unpack(ctx, packed))
	assert.Equal(string(plain), "hello")
	assert.Equal(sender, ipw.MyKey)
}

func TestPleaseAck(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)

	inviter, resp, err := inviter.CreateResponse(ctx, iw, true)
	require.NoError(t, err)
	require.Equal(t, Responded, inviter.State)
	require.False(t, inviter.Terminal())

	invitee, out, err := invitee.Handle(msgOf(t, resp))
	require.NoError(t, err)
	require.Equal(t, Completed, invitee.State)
	ack, ok := out.(*common.Ack)
	require.True(t, ok)

	ackMsg := msgOf(t, ack)
	inviter, _, err = inviter.Handle(ackMsg)
	require.NoError(t, err)
	require.Equal(t, Completed, inviter.State)

	again, _, err := inviter.Handle(ackMsg)
	require.NoError(t, err)
	require.Equal(t, inviter, again)
}

func TestThreadMismatch(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)

	_, resp, err := inviter.CreateResponse(ctx, iw, false)
	require.NoError(t, err)
	resp.Thread = &decorator.Thread{ID: "other-thread"}

	before := invitee
	after, out, err := invitee.Handle(msgOf(t, resp))
	require.ErrorIs(t, err, psm.ErrThreadMismatch)
	require.Nil(t, out)
	require.Equal(t, before, after)

	// the run stays usable for the right message
	resp.Thread = &decorator.Thread{ID: invitee.Requested.ThreadID}
	after, _, err = after.Handle(msgOf(t, resp))
	require.NoError(t, err)
	require.Equal(t, Completed, after.State)
}

func TestRequestForOtherInvitation(t *testing.T) {
	iw := wallet.NewMemory()
	inviter, _, err := NewInviter().CreateInvitation(ctx, iw, inviterCfg)
	require.NoError(t, err)

	key := try.To1(iw.CreateKey(ctx, ""))
	doc := did.NewDoc(try.To1(did.FromKey(key)), key, "http://x/a2a")
	req := stdconn.NewRequest("eve", "another-invitation", &stdconn.Connection{DID: doc.ID, DIDDoc: doc})

	after, _, err := inviter.Handle(msgOf(t, req))
	require.ErrorIs(t, err, psm.ErrThreadMismatch)
	require.Equal(t, inviter, after)
}

func TestInvalidResponseSignature(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)

	// sign with a key that isn't in the invitation
	other := inviter
	otherReq := *inviter.Requested
	otherReq.Key = try.To1(iw.CreateKey(ctx, ""))
	other.Requested = &otherReq

	_, resp, err := other.CreateResponse(ctx, iw, false)
	require.NoError(t, err)

	after, _, err := invitee.Handle(msgOf(t, resp))
	require.ErrorIs(t, err, psm.ErrInvalidResponseSignature)
	require.ErrorIs(t, err, stdconn.ErrSigner)
	require.Equal(t, invitee, after)
}

func TestMissingDidDoc(t *testing.T) {
	iw := wallet.NewMemory()
	inviter, inv, err := NewInviter().CreateInvitation(ctx, iw, inviterCfg)
	require.NoError(t, err)

	req := stdconn.NewRequest("bob", inv.ID, &stdconn.Connection{DID: "did"})
	after, _, err := inviter.Handle(msgOf(t, req))
	require.ErrorIs(t, err, psm.ErrMissingDidDoc)
	require.Equal(t, inviter, after)

	req = stdconn.NewRequest("bob", inv.ID, &stdconn.Connection{DID: "did", DIDDoc: &did.Doc{ID: "did"}})
	_, _, err = inviter.Handle(msgOf(t, req))
	require.ErrorIs(t, err, psm.ErrMissingDidDoc)

	noEndpoint := *inv
	noEndpoint.ServiceEndpoint = ""
	_, err = NewInvitee().HandleInvitation(ctx, &noEndpoint, vdr.New())
	require.ErrorIs(t, err, psm.ErrMissingDidDoc)
}

func TestProblemReportAbsorption(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()

	inviterInvited, inv, err := NewInviter().CreateInvitation(ctx, iw, inviterCfg)
	require.NoError(t, err)
	inviteeInvited, err := NewInvitee().HandleInvitation(ctx, inv, vdr.New())
	require.NoError(t, err)
	inviteeRequested, req, err := inviteeInvited.CreateRequest(ctx, ew, inviteeCfg)
	require.NoError(t, err)
	inviterRequested, _, err := inviterInvited.Handle(msgOf(t, req))
	require.NoError(t, err)
	inviterResponded, _, err := inviterRequested.CreateResponse(ctx, iw, true)
	require.NoError(t, err)

	report := func(thid string) *common.Msg {
		return msgOf(t, common.NewProblemReport(pltype.AriesConnectionProblemRpt,
			thid, common.CodeRequestNotAccepted, "not today"))
	}
	thid := inv.ID

	inviters := []Inviter{NewInviter(), inviterInvited, inviterRequested, inviterResponded}
	for _, s := range inviters {
		t.Run("inviter "+s.StateName(), func(t *testing.T) {
			got, out, err := s.Handle(report(thid))
			require.NoError(t, err)
			require.Nil(t, out)
			require.Equal(t, Abandoned, got.State)
			require.Equal(t, common.CodeRequestNotAccepted, got.Abandoned.Report.Description.Code)
			require.True(t, got.Terminal())
		})
	}
	invitees := []Invitee{NewInvitee(), inviteeInvited, inviteeRequested}
	for _, s := range invitees {
		t.Run("invitee "+s.StateName(), func(t *testing.T) {
			got, _, err := s.Handle(report(thid))
			require.NoError(t, err)
			require.Equal(t, Abandoned, got.State)
			require.Equal(t, common.CodeRequestNotAccepted, got.Abandoned.Report.Description.Code)
		})
	}
}

func TestUnexpectedKind(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)

	// a second request to an already requested inviter
	after, _, err := inviter.Handle(msgOf(t, invitee.Requested.Request))
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
	require.Equal(t, inviter, after)

	_, _, err = NewInviter().CreateResponse(ctx, iw, false)
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
	_, _, err = invitee.CreateRequest(ctx, ew, inviteeCfg)
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
}

func TestPublicInvitation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	publicKey := try.To1(iw.CreateKey(ctx, "000000000000000000000000Steward1"))
	publicDID := "did:sov:" + try.To1(did.FromKey(publicKey))
	assert.NoError(iw.StoreDID(ctx, publicDID, publicKey))

	registry := vdr.New()
	assert.NoError(registry.Register(did.NewDoc(publicDID, publicKey, inviterCfg.Endpoint)))

	template, inv := try.To2(NewInviter().CreatePublicInvitation(ctx, iw, inviterCfg, publicDID))
	assert.That(inv.Public())
	assert.That(template.Thread() == nil)
	assert.That(template.Reusable())

	invitee := try.To1(NewInvitee().HandleInvitation(ctx, inv, registry))
	invitee, req := try.To2(invitee.CreateRequest(ctx, ew, inviteeCfg))
	assert.Equal(req.Thread.ID, req.ID)

	inviter, _ := try.To2(template.Handle(msgOf(t, req)))
	assert.Equal(inviter.Requested.ThreadID, req.ID)

	inviter, resp := try.To2(inviter.CreateResponse(ctx, iw, false))
	assert.Equal(resp.ConnectionSignature.SignVerKey, publicKey.String())

	invitee, _ = try.To2(invitee.Handle(msgOf(t, resp)))
	assert.Equal(invitee.State, Completed)
	assert.Equal(template.State, Invited)
}

func TestStateSerialization(t *testing.T) {
	iw, ew := wallet.NewMemory(), wallet.NewMemory()
	inviter, invitee := handshake(t, iw, ew)
	inviter, resp, err := inviter.CreateResponse(ctx, iw, true)
	require.NoError(t, err)

	var gotInviter Inviter
	require.NoError(t, json.Unmarshal(try.To1(json.Marshal(inviter)), &gotInviter))
	require.Equal(t, inviter, gotInviter)

	var gotInvitee Invitee
	require.NoError(t, json.Unmarshal(try.To1(json.Marshal(invitee)), &gotInvitee))
	require.Equal(t, invitee, gotInvitee)

	// the loaded state continues the run
	done, _, err := gotInvitee.Handle(msgOf(t, resp))
	require.NoError(t, err)
	require.Equal(t, Completed, done.State)
}
