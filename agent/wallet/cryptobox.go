package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/teserakt-io/golang-ed25519/extra25519"
	"golang.org/x/crypto/nacl/box"
)

// NonceSize is the crypto_box nonce size.
const NonceSize = 24

var errBoxOpen = errors.New("box open failed")

// AnonEncrypt is crypto_box_seal to their key. Anyone can seal, so it is not
// a wallet operation.
func AnonEncrypt(their Key, msg []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "anon encrypt")

	pub := try.To1(curvePublic(their))
	return box.SealAnonymous(nil, msg, pub, rand.Reader)
}

func curvePublic(k Key) (_ *[32]byte, err error) {
	defer err2.Handle(&err, "curve25519 public")

	edPub := try.To1(k.Bytes())
	var in, out [32]byte
	copy(in[:], edPub)
	if !extra25519.PublicKeyToCurve25519(&out, &in) {
		return nil, ErrKeySize
	}
	return &out, nil
}

func curvePrivate(priv ed25519.PrivateKey) *[32]byte {
	var in [ed25519.PrivateKeySize]byte
	var out [32]byte
	copy(in[:], priv)
	extra25519.PrivateKeyToCurve25519(&out, &in)
	return &out
}

func boxSeal(priv ed25519.PrivateKey, their Key, msg, nonce []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "box seal")

	if len(nonce) != NonceSize {
		return nil, errors.New("illegal nonce size")
	}
	pub := try.To1(curvePublic(their))
	var n [NonceSize]byte
	copy(n[:], nonce)
	return box.Seal(nil, msg, &n, pub, curvePrivate(priv)), nil
}

func boxOpen(priv ed25519.PrivateKey, their Key, sealed, nonce []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "box open")

	if len(nonce) != NonceSize {
		return nil, errors.New("illegal nonce size")
	}
	pub := try.To1(curvePublic(their))
	var n [NonceSize]byte
	copy(n[:], nonce)
	out, ok := box.Open(nil, sealed, &n, pub, curvePrivate(priv))
	if !ok {
		return nil, errBoxOpen
	}
	return out, nil
}

func sealOpen(priv ed25519.PrivateKey, sealed []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "seal open")

	edPub := priv.Public().(ed25519.PublicKey)
	pub := try.To1(curvePublic(KeyFromPublic(edPub)))
	out, ok := box.OpenAnonymous(nil, sealed, pub, curvePrivate(priv))
	if !ok {
		return nil, errBoxOpen
	}
	return out, nil
}
