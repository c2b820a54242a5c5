package issuecredential

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/vc"
	"github.com/findy-network/findy-didcomm/agent/vc/mock_vc"
	"github.com/findy-network/findy-didcomm/std/common"
	stdissue "github.com/findy-network/findy-didcomm/std/issuecredential"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

const credDefID = "Th7MpTaRZVRYnPiabds81Y:3:CL:1:tag"

var (
	ctx = context.Background()

	attrs = []stdissue.Attribute{
		{Name: "email", Value: "alice@example.com"},
		{Name: "name", Value: "Alice"},
	}
)

func msgOf(t *testing.T, v any) *common.Msg {
	m, err := common.NewMsg(v)
	require.NoError(t, err)
	return m
}

// issue runs the protocol until the issuer has sent the credential.
func issue(t *testing.T, ac vc.AnonCreds) (Issuer, Holder, *stdissue.Issue) {
	issuer, offer, err := NewIssuer().CreateOffer(ctx, ac,
		OfferInfo{CredDefID: credDefID, Attributes: attrs})
	require.NoError(t, err)
	require.Equal(t, OfferSent, issuer.State)

	holder, _, err := NewHolder().Handle(ctx, ac, msgOf(t, offer))
	require.NoError(t, err)
	require.Equal(t, OfferReceived, holder.State)
	require.Equal(t, offer.Thread.ID, holder.ThreadID())

	holder, req, err := holder.CreateRequest(ctx, ac, "did:sov:holder")
	require.NoError(t, err)

	issuer, _, err = issuer.Handle(msgOf(t, req))
	require.NoError(t, err)
	require.Equal(t, RequestReceived, issuer.State)

	issuer, cred, err := issuer.CreateCredential(ctx, ac)
	require.NoError(t, err)
	require.Equal(t, CredentialSent, issuer.State)
	require.NotNil(t, cred.PleaseAck)
	return issuer, holder, cred
}

func TestIssue(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ac := vc.NewPlain(nil)
	issuer, holder, cred := issue(t, ac)

	holder, out := try.To2(holder.Handle(ctx, ac, msgOf(t, cred)))
	assert.Equal(holder.State, Finished)
	status, ok := holder.Status()
	assert.That(ok)
	assert.Equal(status.Kind, psm.StatusSuccess)
	stored, ok := ac.Credential(status.ID)
	assert.That(ok)
	assert.Equal(stored.Values["email"], "alice@example.com")
	assert.Equal(stored.CredDefID, credDefID)

	ack, ok := out.(*common.Ack)
	assert.That(ok)
	assert.Equal(ack.Type, pltype.IssueCredentialACK)

	issuer, _ = try.To2(issuer.Handle(msgOf(t, ack)))
	status, ok = issuer.Status()
	assert.That(ok)
	assert.Equal(status.Kind, psm.StatusSuccess)
	assert.Equal(status.ID, cred.ID)
}

func TestDuplicateAck(t *testing.T) {
	ac := vc.NewPlain(nil)
	issuer, holder, cred := issue(t, ac)
	_, out, err := holder.Handle(ctx, ac, msgOf(t, cred))
	require.NoError(t, err)

	ackMsg := msgOf(t, out)
	finished, _, err := issuer.Handle(ackMsg)
	require.NoError(t, err)
	require.Equal(t, Finished, finished.State)

	again, out, err := finished.Handle(ackMsg)
	require.NoError(t, err)
	require.Nil(t, out)
	require.Equal(t, finished, again)

	// a different ack is not a replay
	_, _, err = finished.Handle(msgOf(t, common.NewAck(pltype.IssueCredentialACK, issuer.ThreadID())))
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
}

func TestRequestBeforeOffer(t *testing.T) {
	req := stdissue.NewRequest("some-thread", []byte(`{}`))

	issuer := NewIssuer()
	after, out, err := issuer.Handle(msgOf(t, req))
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
	require.Nil(t, out)
	require.Equal(t, issuer, after)

	holder := NewHolder()
	_, _, err = holder.Handle(ctx, vc.NewPlain(nil), msgOf(t, req))
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)

	_, _, err = NewIssuer().CreateCredential(ctx, vc.NewPlain(nil))
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
}

func TestProposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ac := vc.NewPlain(nil)
	holder, prop := try.To2(NewHolder().CreateProposal("please", credDefID, attrs))
	assert.Equal(holder.State, ProposalSent)

	issuer, _ := try.To2(NewIssuer().Handle(msgOf(t, prop)))
	assert.Equal(issuer.State, ProposalReceived)
	assert.Equal(issuer.ThreadID(), prop.ID)

	// offer values default to the proposal
	issuer, offer := try.To2(issuer.CreateOffer(ctx, ac, OfferInfo{}))
	assert.Equal(offer.Thread.ID, prop.ID)
	assert.Equal(issuer.OfferSent.Info.CredDefID, credDefID)
	assert.DeepEqual(offer.CredentialPreview.Attributes, attrs)

	holder, _ = try.To2(holder.Handle(ctx, ac, msgOf(t, offer)))
	assert.Equal(holder.State, OfferReceived)

	// an offer from another thread doesn't fit the proposal
	proposing, _ := try.To2(NewHolder().CreateProposal("", credDefID, attrs))
	_, otherOffer := try.To2(NewIssuer().CreateOffer(ctx, ac, OfferInfo{CredDefID: credDefID}))
	after, _, err := proposing.Handle(ctx, ac, msgOf(t, otherOffer))
	require.ErrorIs(t, err, psm.ErrThreadMismatch)
	assert.DeepEqual(after, proposing)
}

func TestDecline(t *testing.T) {
	ac := vc.NewPlain(nil)
	issuer, offer, err := NewIssuer().CreateOffer(ctx, ac, OfferInfo{CredDefID: credDefID, Attributes: attrs})
	require.NoError(t, err)
	holder, _, err := NewHolder().Handle(ctx, ac, msgOf(t, offer))
	require.NoError(t, err)

	declined, pr, err := holder.Decline("not interested")
	require.NoError(t, err)
	status, _ := declined.Status()
	require.Equal(t, psm.StatusDeclined, status.Kind)
	require.Equal(t, common.CodeIssuanceAbandoned, pr.Description.Code)
	require.Equal(t, offer.Thread.ID, pr.Thread.ID)
	require.Equal(t, "Declined(issuance-abandoned)", status.String())

	// the issuer sees the holder's decline as a failure
	issuerDone, _, err := issuer.Handle(msgOf(t, pr))
	require.NoError(t, err)
	status, _ = issuerDone.Status()
	require.Equal(t, psm.StatusFailed, status.Kind)
	require.Equal(t, "not interested", status.Report.Description.En)

	_, _, err = NewHolder().Decline("x")
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
	_, _, err = declined.Decline("x")
	require.ErrorIs(t, err, psm.ErrUnexpectedMessageKind)
}

func TestProblemReportAbsorption(t *testing.T) {
	ac := vc.NewPlain(nil)
	credentialSent, requestSent, _ := issue(t, ac)
	thid := credentialSent.ThreadID()

	report := msgOf(t, common.NewProblemReport(pltype.IssueCredentialProblemReport,
		thid, common.CodeRequestNotAccepted, "no"))
	for _, s := range []Issuer{NewIssuer(), credentialSent} {
		got, _, err := s.Handle(report)
		require.NoError(t, err)
		require.Equal(t, Finished, got.State)
		require.Equal(t, common.CodeRequestNotAccepted, got.Finished.Status.Report.Description.Code)
	}
	got, _, err := requestSent.Handle(ctx, ac, report)
	require.NoError(t, err)
	require.Equal(t, psm.StatusFailed, got.Finished.Status.Kind)
}

func TestAnonCredsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	plain := vc.NewPlain(nil)
	_, holder, cred := issue(t, plain)

	errStore := errors.New("wallet closed")
	m := mock_vc.NewMockAnonCreds(ctrl)
	m.EXPECT().StoreCredential(gomock.Any(), holder.RequestSent.Meta, gomock.Any()).
		Return("", errStore)

	after, out, err := holder.Handle(ctx, m, msgOf(t, cred))
	require.ErrorIs(t, err, errStore)
	require.Nil(t, out)
	require.Equal(t, holder, after)

	m.EXPECT().CreateOffer(gomock.Any(), "").Return(nil, vc.ErrNoCredDefID)
	_, _, err = NewIssuer().CreateOffer(ctx, m, OfferInfo{})
	require.ErrorIs(t, err, vc.ErrNoCredDefID)
}

func TestRevocableCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rev := vc.Revocation{RevRegID: "rev-reg-1", TailsFile: "/var/tails/rev-reg-1"}
	offerData, reqData := []byte(`{"offer":1}`), []byte(`{"req":1}`)
	m := mock_vc.NewMockAnonCreds(ctrl)
	m.EXPECT().CreateOffer(gomock.Any(), credDefID).Return(offerData, nil)
	m.EXPECT().IssueCredential(gomock.Any(), offerData, reqData,
		map[string]string{"email": "alice@example.com", "name": "Alice"}, rev).
		Return([]byte(`{"cred":1}`), nil)

	issuer, offer, err := NewIssuer().CreateOffer(ctx, m, OfferInfo{
		CredDefID:  credDefID,
		Attributes: attrs,
		RevRegID:   rev.RevRegID,
		TailsFile:  rev.TailsFile,
	})
	require.NoError(t, err)
	issuer, _, err = issuer.Handle(msgOf(t, stdissue.NewRequest(offer.Thread.ID, reqData)))
	require.NoError(t, err)
	issuer, _, err = issuer.CreateCredential(ctx, m)
	require.NoError(t, err)
	require.Equal(t, CredentialSent, issuer.State)
}

func TestRevocableWithoutTails(t *testing.T) {
	ac := vc.NewPlain(nil)
	issuer, offer, err := NewIssuer().CreateOffer(ctx, ac,
		OfferInfo{CredDefID: credDefID, Attributes: attrs, RevRegID: "rev-reg-1"})
	require.NoError(t, err)
	holder, _, err := NewHolder().Handle(ctx, ac, msgOf(t, offer))
	require.NoError(t, err)
	_, req, err := holder.CreateRequest(ctx, ac, "did:sov:holder")
	require.NoError(t, err)
	issuer, _, err = issuer.Handle(msgOf(t, req))
	require.NoError(t, err)

	after, out, err := issuer.CreateCredential(ctx, ac)
	require.ErrorIs(t, err, vc.ErrNoTails)
	require.Nil(t, out)
	require.Equal(t, issuer, after)
}

func TestStateSerialization(t *testing.T) {
	ac := vc.NewPlain(nil)
	issuer, holder, cred := issue(t, ac)

	var gotIssuer Issuer
	require.NoError(t, json.Unmarshal(try.To1(json.Marshal(issuer)), &gotIssuer))
	require.Equal(t, issuer, gotIssuer)

	var gotHolder Holder
	require.NoError(t, json.Unmarshal(try.To1(json.Marshal(holder)), &gotHolder))
	require.Equal(t, holder, gotHolder)

	done, _, err := gotHolder.Handle(ctx, ac, msgOf(t, cred))
	require.NoError(t, err)
	require.Equal(t, Finished, done.State)
}
