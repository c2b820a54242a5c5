package wallet

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

func TestKMS_CreateKey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()
	w := try.To1(NewKMS())

	k := try.To1(w.CreateKey(ctx, seed1))
	assert.That(w.HasKey(ctx, k))
	kid := try.To1(KID(k))
	_, err := w.KeyManager().Get(kid)
	assert.NoError(err)

	pub, kt, err := w.KeyManager().ExportPubKeyBytes(kid)
	assert.NoError(err)
	assert.Equal(kt, kms.ED25519Type)
	assert.Equal(KeyFromPublic(ed25519.PublicKey(pub)), k)

	// the same seed again finds the imported key
	again := try.To1(w.CreateKey(ctx, seed1))
	assert.Equal(again, k)

	other := try.To1(KeyFromSeed(seed2))
	_, err = w.KeyManager().Get(try.To1(KID(other)))
	require.Error(t, err)
}

func TestKMS_IsWallet(t *testing.T) {
	ctx := context.Background()
	w, err := NewKMS()
	require.NoError(t, err)

	var wlt Wallet = w
	k, err := wlt.CreateKey(ctx, "")
	require.NoError(t, err)
	sig, err := wlt.Sign(ctx, k, []byte("data"))
	require.NoError(t, err)
	require.True(t, Verify(k, []byte("data"), sig))
}
