package vdr

import (
	"context"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

const verkey = wallet.Key("8QhFxKxyaFsJy4CyxeYX34dFH8oWqyBv1P4HLQCsoeLy")

func TestResolve(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	r := New()
	doc := did.NewDoc("did:sov:Th7MpTaRZVRYnPiabds81Y", verkey, "http://localhost:8080/a2a")
	assert.NoError(r.Register(doc))

	got := try.To1(r.Resolve(ctx, "did:sov:Th7MpTaRZVRYnPiabds81Y"))
	assert.Equal(got.Endpoint(), "http://localhost:8080/a2a")

	got = try.To1(r.Resolve(ctx, "Th7MpTaRZVRYnPiabds81Y"))
	assert.Equal(got.ID, doc.ID)

	got.Service[0].ServiceEndpoint = "changed"
	got = try.To1(r.Resolve(ctx, doc.ID))
	assert.Equal(got.Endpoint(), "http://localhost:8080/a2a")

	_, err := r.Resolve(ctx, "did:sov:unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveKeyDID(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	keyDID := try.To1(did.KeyDID(verkey))
	doc := try.To1(New().Resolve(context.Background(), keyDID+"#key-1"))
	keys := try.To1(doc.RecipientKeys())
	assert.DeepEqual(keys, []wallet.Key{verkey})
}

func TestRegisterInvalid(t *testing.T) {
	err := New().Register(&did.Doc{ID: "did:sov:x"})
	require.ErrorIs(t, err, did.ErrNoService)
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	r := New()
	r.Put("schema-1", []byte(`{"name":"email"}`))
	r.PutRevRegStatus("rev-1", 100, []byte(`{"revoked":[]}`))

	data, err := r.ReadSchema(ctx, "schema-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"email"}`, string(data))

	_, err = r.ReadCredDef(ctx, "schema-1-missing")
	require.ErrorIs(t, err, ErrNotFound)

	data, err = r.ReadRevRegStatus(ctx, "rev-1", 100)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	_, err = r.ReadRevRegStatus(ctx, "rev-1", 101)
	require.ErrorIs(t, err, ErrNotFound)
}
