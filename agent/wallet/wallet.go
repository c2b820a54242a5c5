// Package wallet is the key custody capability of the agent. Every protocol and
// envelope operation receives a Wallet explicitly; there is no process-wide
// wallet handle.
package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Key is a base58 encoded Ed25519 verification key, the same format DIDComm
// uses in recipientKeys and envelope headers.
type Key string

func (k Key) String() string {
	return string(k)
}

// Bytes returns the raw Ed25519 public key.
func (k Key) Bytes() (pub ed25519.PublicKey, err error) {
	b, err := base58.Decode(string(k))
	if err != nil {
		return nil, fmt.Errorf("verkey %q: %w", k, err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verkey %q: %w", k, ErrKeySize)
	}
	return b, nil
}

// KeyFromPublic encodes the raw Ed25519 public key.
func KeyFromPublic(pub ed25519.PublicKey) Key {
	return Key(base58.Encode(pub))
}

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrDIDNotFound = errors.New("did not found")
	ErrKeySize     = errors.New("illegal key size")
	ErrSeedSize    = errors.New("seed must be 32 bytes")
)

// Wallet holds the secret half of every key the agent owns. The envelope
// calls the encryption operations, the protocols call CreateKey and Sign.
// Implementations must be safe for concurrent use, many protocol runs share
// one wallet.
type Wallet interface {
	// CreateKey creates a new Ed25519 key pair. An empty seed means a random
	// key.
	CreateKey(ctx context.Context, seed string) (Key, error)
	HasKey(ctx context.Context, k Key) bool
	Sign(ctx context.Context, k Key, data []byte) ([]byte, error)

	StoreDID(ctx context.Context, did string, k Key) error
	KeyForDID(ctx context.Context, did string) (Key, error)

	// AuthEncrypt is crypto_box from our key to theirs.
	AuthEncrypt(ctx context.Context, my, their Key, msg, nonce []byte) ([]byte, error)
	// AuthDecrypt is crypto_box_open of a box from their key to ours.
	AuthDecrypt(ctx context.Context, my, their Key, box, nonce []byte) ([]byte, error)
	// AnonDecrypt is crypto_box_seal_open with our key.
	AnonDecrypt(ctx context.Context, my Key, box []byte) ([]byte, error)
}

// Verify verifies an Ed25519 signature. It needs no secrets and so it isn't
// a wallet operation.
func Verify(k Key, data, sig []byte) bool {
	pub, err := k.Bytes()
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, data, sig)
}
