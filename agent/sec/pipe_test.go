package sec

import (
	"context"
	"encoding/binary"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	w1, w2     *wallet.Memory
	key1, key2 wallet.Key
)

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	os.Exit(code)
}

func setUp() {
	w1, w2 = wallet.NewMemory(), wallet.NewMemory()
	key1 = try.To1(w1.CreateKey(ctx, "000000000000000000000000Steward1"))
	key2 = try.To1(w2.CreateKey(ctx, "000000000000000000000000Steward2"))
}

func TestPipe_PackUnpack(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	msg := []byte(`{"@type":"https://didcomm.org/trust_ping/1.0/ping"}`)

	out := NewPipe(w1, key1, key2)
	in := NewPipe(w2, key2, key1)

	packed := try.To1(out.Pack(ctx, msg))
	got, sender := try.To2(in.Unpack(ctx, packed))
	assert.DeepEqual(got, msg)
	assert.Equal(sender, key1)

	packed = try.To1(out.PackAnon(ctx, msg))
	got, sender = try.To2(in.Unpack(ctx, packed))
	assert.DeepEqual(got, msg)
	assert.Equal(sender, wallet.Key(""))
}

func TestPipe_Plain(t *testing.T) {
	msg := []byte("hello")
	out := Pipe{W: w1, Env: envelope.Plain{}, In: key1, Out: []wallet.Key{key2}}
	in := Pipe{W: w2, Env: envelope.Plain{W: w2}, In: key2}

	packed, err := out.Pack(ctx, msg)
	require.NoError(t, err)
	got, sender, err := in.Unpack(ctx, packed)
	require.NoError(t, err)
	require.Equal(t, msg, got)
	require.Equal(t, key1, sender)
}

func TestPipe_SignVerify(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	restore := getEpochTime
	defer func() { getEpochTime = restore }()
	getEpochTime = func() int64 { return 1700000000 }

	msg := []byte("connection json")
	signer := NewPipe(w1, key1)
	data, sig := try.To2(signer.SignAndStamp(ctx, msg))
	assert.Equal(binary.BigEndian.Uint64(data[:8]), uint64(1700000000))
	assert.DeepEqual(data[8:], msg)

	verifier := NewPipe(w2, key2, key1)
	assert.That(verifier.Verify(data, sig))
	assert.That(!verifier.Verify(msg, sig))
	assert.That(!NewPipe(w2, key2).Verify(data, sig))
}

func TestPipe_NoRecipients(t *testing.T) {
	_, err := NewPipe(w1, key1).Pack(ctx, []byte("x"))
	require.ErrorIs(t, err, envelope.ErrNoRecipients)
}
