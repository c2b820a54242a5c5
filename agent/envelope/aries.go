package envelope

import (
	"context"
	"crypto/ed25519"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/golang/glog"
	cryptoapi "github.com/hyperledger/aries-framework-go/pkg/crypto"
	legacy "github.com/hyperledger/aries-framework-go/pkg/didcomm/packer/legacy/authcrypt"
	vdrapi "github.com/hyperledger/aries-framework-go/pkg/framework/aries/api/vdr"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Aries packs and unpacks authcrypted envelopes with the aries-framework-go
// legacy packer, which reads the keys from the wallet's KMS. It does
// chacha20poly1305_ietf authcrypt only. Anoncrypt and the xchacha envelopes
// go through the embedded Legacy.
type Aries struct {
	*Legacy

	packer *legacy.Packer
}

func NewAries(w *wallet.KMS) *Aries {
	return &Aries{
		Legacy: NewLegacy(w),
		packer: legacy.New(&packerProvider{km: w.KeyManager()}),
	}
}

func (a *Aries) Pack(
	ctx context.Context,
	msg []byte,
	sender wallet.Key,
	recipients []wallet.Key,
) (
	_ []byte,
	err error,
) {
	defer err2.Handle(&err, "aries pack")

	if sender == "" {
		return a.Legacy.Pack(ctx, msg, sender, recipients)
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	from := try.To1(sender.Bytes())
	to := make([][]byte, 0, len(recipients))
	for _, r := range recipients {
		to = append(to, []byte(try.To1(r.Bytes())))
	}
	glog.V(3).Infof("aries packs authcrypt for %d recipient(s)", len(recipients))
	return a.packer.Pack("", msg, []byte(from), to)
}

func (a *Aries) Unpack(ctx context.Context, packed []byte) (_ *Unpacked, err error) {
	defer err2.Handle(&err, "aries unpack")

	env, hdr, err := parse(packed)
	if err != nil {
		return nil, err
	}
	if hdr.Alg != algAuthcrypt || hdr.Enc != encChaCha {
		return a.Legacy.Unpack(ctx, packed)
	}
	if _, _, _, err = payloadParts(env); err != nil {
		return nil, err
	}
	out, err := a.packer.Unpack(packed)
	if err != nil {
		return nil, decryptionFailed("%v", err)
	}
	return &Unpacked{
		Message:   out.Message,
		Recipient: wallet.KeyFromPublic(ed25519.PublicKey(out.ToKey)),
		Sender:    wallet.KeyFromPublic(ed25519.PublicKey(out.FromKey)),
	}, nil
}

// packerProvider gives the legacy packer its KMS. The packer uses nothing
// else.
type packerProvider struct {
	km kms.KeyManager
}

func (p *packerProvider) KMS() kms.KeyManager               { return p.km }
func (p *packerProvider) Crypto() cryptoapi.Crypto          { return nil }
func (p *packerProvider) StorageProvider() storage.Provider { return nil }
func (p *packerProvider) VDRegistry() vdrapi.Registry       { return nil }
