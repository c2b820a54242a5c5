package envelope

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Plain is an Envelope that does no cryptography at all. It is the test double
// for protocol flows: it keeps the same addressing rules as Legacy, but the
// message travels in clear text. When W is set, Unpack accepts only payloads
// addressed to a key the wallet holds.
type Plain struct {
	W wallet.Wallet
}

type plainEnvelope struct {
	Plain      []byte       `json:"plain"`
	Sender     wallet.Key   `json:"sender,omitempty"`
	Recipients []wallet.Key `json:"recipients"`
}

func (p Plain) Pack(
	_ context.Context,
	msg []byte,
	sender wallet.Key,
	recipients []wallet.Key,
) (
	_ []byte,
	err error,
) {
	defer err2.Handle(&err, "plain pack")

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	return try.To1(json.Marshal(plainEnvelope{
		Plain:      msg,
		Sender:     sender,
		Recipients: recipients,
	})), nil
}

func (p Plain) Unpack(ctx context.Context, packed []byte) (*Unpacked, error) {
	var env plainEnvelope
	if err := json.Unmarshal(packed, &env); err != nil {
		return nil, malformed("%v", err)
	}
	if len(env.Recipients) == 0 {
		return nil, malformed("no recipients")
	}
	me := env.Recipients[0]
	if p.W != nil {
		me = ""
		for _, r := range env.Recipients {
			if p.W.HasKey(ctx, r) {
				me = r
				break
			}
		}
		if me == "" {
			return nil, decryptionFailed("no recipient key in wallet")
		}
	}
	return &Unpacked{
		Message:   env.Plain,
		Recipient: me,
		Sender:    env.Sender,
	}, nil
}
