package vc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

func newRegistry() *vdr.Registry {
	r := vdr.New()
	r.Put("cred-def-1", []byte(`{"id":"cred-def-1"}`))
	return r
}

func TestPlainIssueAndPresent(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	issuer, holder := NewPlain(newRegistry()), NewPlain(nil)

	offer := try.To1(issuer.CreateOffer(ctx, "cred-def-1"))
	req, meta := try.To2(holder.CreateRequest(ctx, "did:sov:holder", offer))
	cred := try.To1(issuer.IssueCredential(ctx, offer, req,
		map[string]string{"email": "alice@example.com"}, Revocation{}))
	id := try.To1(holder.StoreCredential(ctx, meta, cred))

	c, ok := holder.Credential(id)
	assert.That(ok)
	assert.Equal(c.Values["email"], "alice@example.com")
	assert.That(!c.Revocable())

	proofReq := NewProofRequest("email proof", "email")
	pres := try.To1(holder.CreatePresentation(ctx, proofReq))
	assert.That(try.To1(issuer.VerifyPresentation(ctx, proofReq, pres)))

	other := NewProofRequest("email proof", "email")
	assert.That(!try.To1(issuer.VerifyPresentation(ctx, other, pres)))
}

func TestPlainRevocable(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	issuer, holder := NewPlain(newRegistry()), NewPlain(nil)
	rev := Revocation{RevRegID: "rev-reg-1", TailsFile: "/var/tails/rev-reg-1"}

	offer := try.To1(issuer.CreateOffer(ctx, "cred-def-1"))
	req, meta := try.To2(holder.CreateRequest(ctx, "did:sov:holder", offer))

	_, err := issuer.IssueCredential(ctx, offer, req, nil, Revocation{RevRegID: rev.RevRegID})
	require.ErrorIs(t, err, ErrNoTails)

	cred := try.To1(issuer.IssueCredential(ctx, offer, req, map[string]string{"age": "42"}, rev))
	id := try.To1(holder.StoreCredential(ctx, meta, cred))
	c, _ := holder.Credential(id)
	assert.Equal(c.Revocation, rev)

	proofReq := NewProofRequest("age proof", "age")
	var pres plainPresentation
	try.To(json.Unmarshal(try.To1(holder.CreatePresentation(ctx, proofReq)), &pres))
	assert.Equal(len(pres.Identifiers), 1)
	assert.Equal(pres.Identifiers[0].CredDefID, "cred-def-1")
	assert.Equal(pres.Identifiers[0].RevRegID, rev.RevRegID)
	assert.That(pres.Identifiers[0].Timestamp > 0)
}

type failingLedger struct {
	vdr.Ledger
	err error
}

func (l failingLedger) ReadCredDef(context.Context, string) ([]byte, error) {
	return nil, l.err
}

func TestPlainVerifyReadsLedger(t *testing.T) {
	ctx := context.Background()
	holder := NewPlain(nil)
	cred, _ := json.Marshal(PlainCredential{CredDefID: "cred-def-2", Values: map[string]string{"email": "a@b.c"}})
	_, err := holder.StoreCredential(ctx, []byte("meta"), cred)
	require.NoError(t, err)

	proofReq := NewProofRequest("email proof", "email")
	pres, err := holder.CreatePresentation(ctx, proofReq)
	require.NoError(t, err)

	tests := []struct {
		name   string
		ledger vdr.Ledger
		ok     bool
		err    error
	}{
		{"cred def missing", newRegistry(), false, nil},
		{"no ledger", nil, false, ErrNoLedger},
		{"ledger down", failingLedger{err: errors.New("ledger down")}, false, errors.New("ledger down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := NewPlain(tt.ledger).VerifyPresentation(ctx, proofReq, pres)
			require.Equal(t, tt.ok, ok)
			if tt.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.err.Error())
			}
		})
	}

	registry := newRegistry()
	registry.Put("cred-def-2", []byte(`{"id":"cred-def-2"}`))
	ok, err := NewPlain(registry).VerifyPresentation(ctx, proofReq, pres)
	require.NoError(t, err)
	require.True(t, ok)

	// a presentation naming no credentials proves nothing
	var stripped plainPresentation
	require.NoError(t, json.Unmarshal(pres, &stripped))
	stripped.Identifiers = nil
	ok, err = NewPlain(registry).VerifyPresentation(ctx, proofReq, try.To1(json.Marshal(stripped)))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPlainErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPlain(nil)

	_, err := p.CreateOffer(ctx, "")
	require.ErrorIs(t, err, ErrNoCredDefID)

	offer, err := p.CreateOffer(ctx, "cd")
	require.NoError(t, err)
	req, _ := json.Marshal(plainRequest{CredDefID: "cd", Nonce: "other"})
	_, err = p.IssueCredential(ctx, offer, req, nil, Revocation{})
	require.ErrorIs(t, err, ErrNonce)

	_, err = p.CreatePresentation(ctx, NewProofRequest("p", "age"))
	require.ErrorIs(t, err, ErrNoCredential)
}
