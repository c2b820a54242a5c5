package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Memory is an in-memory Wallet. All key access goes through one lock.
type Memory struct {
	l sync.RWMutex

	keys map[Key]ed25519.PrivateKey
	dids map[string]Key
}

func NewMemory() *Memory {
	return &Memory{
		keys: make(map[Key]ed25519.PrivateKey),
		dids: make(map[string]Key),
	}
}

func (m *Memory) CreateKey(_ context.Context, seed string) (k Key, err error) {
	defer err2.Handle(&err, "create key")

	var priv ed25519.PrivateKey
	if seed == "" {
		_, priv = try.To2(ed25519.GenerateKey(rand.Reader))
	} else {
		priv = try.To1(privateFromSeed(seed))
	}
	k = KeyFromPublic(priv.Public().(ed25519.PublicKey))

	m.l.Lock()
	defer m.l.Unlock()
	m.keys[k] = priv
	glog.V(3).Infoln("wallet key created:", k)
	return k, nil
}

// KeyFromSeed returns the verkey a seed produces without storing anything.
func KeyFromSeed(seed string) (Key, error) {
	priv, err := privateFromSeed(seed)
	if err != nil {
		return "", err
	}
	return KeyFromPublic(priv.Public().(ed25519.PublicKey)), nil
}

func privateFromSeed(seed string) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrSeedSize
	}
	return ed25519.NewKeyFromSeed([]byte(seed)), nil
}

func (m *Memory) HasKey(_ context.Context, k Key) bool {
	m.l.RLock()
	defer m.l.RUnlock()
	_, ok := m.keys[k]
	return ok
}

func (m *Memory) Sign(_ context.Context, k Key, data []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "sign")

	priv := try.To1(m.private(k))
	return ed25519.Sign(priv, data), nil
}

func (m *Memory) StoreDID(_ context.Context, did string, k Key) error {
	m.l.Lock()
	defer m.l.Unlock()
	m.dids[did] = k
	return nil
}

func (m *Memory) KeyForDID(_ context.Context, did string) (Key, error) {
	m.l.RLock()
	defer m.l.RUnlock()
	k, ok := m.dids[did]
	if !ok {
		return "", fmt.Errorf("%s: %w", did, ErrDIDNotFound)
	}
	return k, nil
}

func (m *Memory) AuthEncrypt(_ context.Context, my, their Key, msg, nonce []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "auth encrypt")

	priv := try.To1(m.private(my))
	return boxSeal(priv, their, msg, nonce)
}

func (m *Memory) AuthDecrypt(_ context.Context, my, their Key, box, nonce []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "auth decrypt")

	priv := try.To1(m.private(my))
	return boxOpen(priv, their, box, nonce)
}

func (m *Memory) AnonDecrypt(_ context.Context, my Key, box []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "anon decrypt")

	priv := try.To1(m.private(my))
	return sealOpen(priv, box)
}

func (m *Memory) private(k Key) (ed25519.PrivateKey, error) {
	m.l.RLock()
	defer m.l.RUnlock()
	priv, ok := m.keys[k]
	if !ok {
		return nil, fmt.Errorf("%s: %w", k, ErrKeyNotFound)
	}
	return priv, nil
}
