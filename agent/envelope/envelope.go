// Package envelope packs plaintext DIDComm messages into authenticated
// encrypted wire payloads and unpacks them again. Key material is never
// touched directly, every secret operation goes through the wallet.
package envelope

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/wallet"
)

var (
	// ErrMalformedEnvelope means that the bytes are not a valid envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrDecryptionFailed means that no locally held key matched any
	// recipient, or that authentication of the payload failed.
	ErrDecryptionFailed = errors.New("decryption failed")

	ErrNoRecipients = errors.New("at least one recipient key needed")
)

// Envelope is the pack/unpack boundary of wire messages. An empty sender key
// in Pack means anonymous encryption.
type Envelope interface {
	Pack(ctx context.Context, msg []byte, sender wallet.Key, recipients []wallet.Key) ([]byte, error)
	Unpack(ctx context.Context, packed []byte) (*Unpacked, error)
}

// Unpacked is the result of Unpack. Sender is empty when the payload was
// anonymously encrypted.
type Unpacked struct {
	Message   []byte
	Recipient wallet.Key
	Sender    wallet.Key
}

// Anon tells if the message was anonymously encrypted.
func (u *Unpacked) Anon() bool {
	return u.Sender == ""
}

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEnvelope, fmt.Sprintf(format, a...))
}

func decryptionFailed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrDecryptionFailed, fmt.Sprintf(format, a...))
}
