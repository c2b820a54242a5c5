package sec

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

// Pipe is a secure way to transport data between the ends of a DID
// connection. All agent to agent communication uses it. In is our key, Out
// holds their recipient keys.
type Pipe struct {
	W   wallet.Wallet
	Env envelope.Envelope

	In  wallet.Key
	Out []wallet.Key
}

// NewPipe creates a pipe which uses the legacy envelope of the wallet.
func NewPipe(w wallet.Wallet, in wallet.Key, out ...wallet.Key) Pipe {
	return Pipe{
		W:   w,
		Env: envelope.NewLegacy(w),
		In:  in,
		Out: out,
	}
}

// Pack packs the byte slice with sender authentication.
func (p Pipe) Pack(ctx context.Context, src []byte) (dst []byte, err error) {
	defer err2.Handle(&err, "sec pipe pack")
	assert.INotNil(p.Env)

	return p.Env.Pack(ctx, src, p.In, p.Out)
}

// PackAnon packs the byte slice anonymously.
func (p Pipe) PackAnon(ctx context.Context, src []byte) (dst []byte, err error) {
	defer err2.Handle(&err, "sec pipe pack anon")
	assert.INotNil(p.Env)

	return p.Env.Pack(ctx, src, "", p.Out)
}

// Unpack unpacks the source bytes and returns the sender key as well, which
// is empty for anonymous payloads.
func (p Pipe) Unpack(ctx context.Context, src []byte) (dst []byte, sender wallet.Key, err error) {
	defer err2.Handle(&err, "sec pipe unpack")
	assert.INotNil(p.Env)

	u := try.To1(p.Env.Unpack(ctx, src))
	if p.In != "" && u.Recipient != p.In {
		glog.Warningf("pipe unpack: recipient %s, pipe in %s", u.Recipient, p.In)
	}
	return u.Message, u.Sender, nil
}

// Sign signs the message with our key.
func (p Pipe) Sign(ctx context.Context, src []byte) (sig []byte, err error) {
	defer err2.Handle(&err, "sec pipe sign")
	assert.NotEmpty(string(p.In))

	return p.W.Sign(ctx, p.In, src)
}

// SignAndStamp prefixes the message with the current time as 8 byte big endian
// unix seconds and signs the result.
func (p Pipe) SignAndStamp(ctx context.Context, src []byte) (data, sig []byte, err error) {
	defer err2.Handle(&err, "sec pipe sign and stamp")

	data = make([]byte, 8+len(src))
	binary.BigEndian.PutUint64(data[0:], uint64(getEpochTime()))
	copy(data[8:], src)

	sig = try.To1(p.Sign(ctx, data))
	return data, sig, nil
}

// Verify verifies the signature with their first key.
func (p Pipe) Verify(msg, sig []byte) bool {
	if len(p.Out) == 0 {
		return false
	}
	return wallet.Verify(p.Out[0], msg, sig)
}

var getEpochTime = func() int64 {
	return time.Now().Unix()
}
