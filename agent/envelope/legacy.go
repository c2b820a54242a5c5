package envelope

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	encXChaCha = "xchacha20poly1305_ietf"
	encChaCha  = "chacha20poly1305_ietf"
	typJWM     = "JWM/1.0"

	algAuthcrypt = "Authcrypt"
	algAnoncrypt = "Anoncrypt"
)

// Legacy is the pre DIDComm v2 envelope, the JWE-like JSON format which
// Aries agents use with the connection and did-exchange protocols.
type Legacy struct {
	W wallet.Wallet
}

// NewLegacy returns the legacy envelope using w for all key operations.
func NewLegacy(w wallet.Wallet) *Legacy {
	return &Legacy{W: w}
}

type jwe struct {
	Protected  string `json:"protected"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

type protected struct {
	Enc        string      `json:"enc"`
	Typ        string      `json:"typ"`
	Alg        string      `json:"alg"`
	Recipients []recipient `json:"recipients"`
}

type recipient struct {
	EncryptedKey string          `json:"encrypted_key"`
	Header       recipientHeader `json:"header"`
}

type recipientHeader struct {
	KID    string `json:"kid"`
	Sender string `json:"sender,omitempty"`
	IV     string `json:"iv,omitempty"`
}

func (l *Legacy) Pack(
	ctx context.Context,
	msg []byte,
	sender wallet.Key,
	recipients []wallet.Key,
) (
	_ []byte,
	err error,
) {
	defer err2.Handle(&err, "legacy pack")

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	cek := make([]byte, chacha20poly1305.KeySize)
	try.To1(rand.Read(cek))

	alg := algAnoncrypt
	if sender != "" {
		alg = algAuthcrypt
	}
	hdr := protected{
		Enc:        encXChaCha,
		Typ:        typJWM,
		Alg:        alg,
		Recipients: make([]recipient, 0, len(recipients)),
	}
	for _, r := range recipients {
		hdr.Recipients = append(hdr.Recipients,
			try.To1(l.encryptCEK(ctx, cek, sender, r)))
	}
	protectedB64 := encode(try.To1(json.Marshal(hdr)))

	aead := try.To1(chacha20poly1305.NewX(cek))
	iv := make([]byte, aead.NonceSize())
	try.To1(rand.Read(iv))

	sealed := aead.Seal(nil, iv, msg, []byte(protectedB64))
	tagPos := len(sealed) - aead.Overhead()

	glog.V(3).Infof("packed %s for %d recipient(s)", alg, len(recipients))
	return json.Marshal(jwe{
		Protected:  protectedB64,
		IV:         encode(iv),
		Ciphertext: encode(sealed[:tagPos]),
		Tag:        encode(sealed[tagPos:]),
	})
}

func (l *Legacy) encryptCEK(
	ctx context.Context,
	cek []byte,
	sender, to wallet.Key,
) (
	r recipient,
	err error,
) {
	defer err2.Handle(&err, "recipient %s", to)

	if sender == "" {
		encKey := try.To1(wallet.AnonEncrypt(to, cek))
		return recipient{
			EncryptedKey: encode(encKey),
			Header:       recipientHeader{KID: to.String()},
		}, nil
	}

	nonce := make([]byte, wallet.NonceSize)
	try.To1(rand.Read(nonce))
	encKey := try.To1(l.W.AuthEncrypt(ctx, sender, to, cek, nonce))
	encSender := try.To1(wallet.AnonEncrypt(to, []byte(sender)))
	return recipient{
		EncryptedKey: encode(encKey),
		Header: recipientHeader{
			KID:    to.String(),
			Sender: encode(encSender),
			IV:     encode(nonce),
		},
	}, nil
}

func (l *Legacy) Unpack(ctx context.Context, packed []byte) (_ *Unpacked, err error) {
	defer err2.Handle(&err, "legacy unpack")

	env, hdr, err := parse(packed)
	if err != nil {
		return nil, err
	}

	var rec *recipient
	for i := range hdr.Recipients {
		if l.W.HasKey(ctx, wallet.Key(hdr.Recipients[i].Header.KID)) {
			rec = &hdr.Recipients[i]
			break
		}
	}
	if rec == nil {
		return nil, decryptionFailed("no recipient key in wallet")
	}
	me := wallet.Key(rec.Header.KID)

	cek, sender, err := l.decryptCEK(ctx, hdr.Alg, me, rec)
	if err != nil {
		return nil, err
	}
	if len(cek) != chacha20poly1305.KeySize {
		return nil, malformed("cek size %d", len(cek))
	}

	iv, ct, tag, err := payloadParts(env)
	if err != nil {
		return nil, err
	}
	aead := try.To1(newAEAD(hdr.Enc, cek))
	if len(iv) != aead.NonceSize() {
		return nil, malformed("iv size %d", len(iv))
	}
	msg, err := aead.Open(nil, iv, append(ct, tag...), []byte(env.Protected))
	if err != nil {
		return nil, decryptionFailed("payload: %v", err)
	}

	glog.V(3).Infoln("unpacked", hdr.Alg, "for", me)
	return &Unpacked{
		Message:   msg,
		Recipient: me,
		Sender:    sender,
	}, nil
}

func (l *Legacy) decryptCEK(
	ctx context.Context,
	alg string,
	me wallet.Key,
	rec *recipient,
) (
	cek []byte,
	sender wallet.Key,
	err error,
) {
	encKey, err := utils.DecodeB64(rec.EncryptedKey)
	if err != nil {
		return nil, "", malformed("encrypted_key: %v", err)
	}
	if alg == algAnoncrypt {
		cek, err = l.W.AnonDecrypt(ctx, me, encKey)
		if err != nil {
			return nil, "", decryptionFailed("cek: %v", err)
		}
		return cek, "", nil
	}

	encSender, err := utils.DecodeB64(rec.Header.Sender)
	if err != nil || len(encSender) == 0 {
		return nil, "", malformed("sender header")
	}
	nonce, err := utils.DecodeB64(rec.Header.IV)
	if err != nil {
		return nil, "", malformed("recipient iv: %v", err)
	}
	senderBytes, err := l.W.AnonDecrypt(ctx, me, encSender)
	if err != nil {
		return nil, "", decryptionFailed("sender: %v", err)
	}
	sender = wallet.Key(senderBytes)
	cek, err = l.W.AuthDecrypt(ctx, me, sender, encKey, nonce)
	if err != nil {
		return nil, "", decryptionFailed("cek: %v", err)
	}
	return cek, sender, nil
}

// parse reads the envelope and its protected header.
func parse(packed []byte) (env jwe, hdr protected, err error) {
	if err = json.Unmarshal(packed, &env); err != nil {
		return env, hdr, malformed("%v", err)
	}
	hdrBytes, err := utils.DecodeB64(env.Protected)
	if err != nil {
		return env, hdr, malformed("protected: %v", err)
	}
	if err = json.Unmarshal(hdrBytes, &hdr); err != nil {
		return env, hdr, malformed("protected: %v", err)
	}
	switch {
	case hdr.Enc != encXChaCha && hdr.Enc != encChaCha:
		return env, hdr, malformed("unsupported enc %q", hdr.Enc)
	case hdr.Alg != algAuthcrypt && hdr.Alg != algAnoncrypt:
		return env, hdr, malformed("unsupported alg %q", hdr.Alg)
	case len(hdr.Recipients) == 0:
		return env, hdr, malformed("no recipients")
	}
	return env, hdr, nil
}

func payloadParts(env jwe) (iv, ct, tag []byte, err error) {
	if iv, err = utils.DecodeB64(env.IV); err != nil {
		return nil, nil, nil, malformed("iv: %v", err)
	}
	if ct, err = utils.DecodeB64(env.Ciphertext); err != nil {
		return nil, nil, nil, malformed("ciphertext: %v", err)
	}
	if tag, err = utils.DecodeB64(env.Tag); err != nil {
		return nil, nil, nil, malformed("tag: %v", err)
	}
	return iv, ct, tag, nil
}

func newAEAD(enc string, cek []byte) (cipher.AEAD, error) {
	if enc == encChaCha {
		return chacha20poly1305.New(cek)
	}
	return chacha20poly1305.NewX(cek)
}

func encode(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}
