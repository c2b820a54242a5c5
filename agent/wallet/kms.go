package wallet

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/pkg/doc/util/jwkkid"
	"github.com/hyperledger/aries-framework-go/pkg/kms"
	"github.com/hyperledger/aries-framework-go/pkg/kms/localkms"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock"
	"github.com/hyperledger/aries-framework-go/pkg/secretlock/noop"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const primaryKeyURI = "local-lock://findy-didcomm/primary/"

// KMS is a Memory wallet whose keys are also held by an aries-framework-go
// local KMS. The aries packers reach the private keys only through a
// kms.KeyManager, which must be the local one.
type KMS struct {
	*Memory

	km *localkms.LocalKMS
}

func NewKMS() (_ *KMS, err error) {
	defer err2.Handle(&err, "new kms wallet")

	p := &kmsProvider{store: &keysets{m: make(map[string][]byte)}, lock: &noop.NoLock{}}
	return &KMS{
		Memory: NewMemory(),
		km:     try.To1(localkms.New(primaryKeyURI, p)),
	}, nil
}

// KeyManager returns the KMS holding the wallet's keys.
func (w *KMS) KeyManager() kms.KeyManager {
	return w.km
}

// CreateKey creates the key to the wallet and imports it to the KMS with
// the key id the aries packers look it up with.
func (w *KMS) CreateKey(ctx context.Context, seed string) (k Key, err error) {
	defer err2.Handle(&err, "create kms key")

	k = try.To1(w.Memory.CreateKey(ctx, seed))
	priv := try.To1(w.private(k))
	kid := try.To1(KID(k))
	if _, err := w.km.Get(kid); err == nil {
		return k, nil
	}
	_, _ = try.To2(w.km.ImportPrivateKey(priv, kms.ED25519Type, kms.WithKeyID(kid)))
	glog.V(3).Infoln("kms key imported:", k, kid)
	return k, nil
}

// KID returns the KMS key id of the verkey.
func KID(k Key) (_ string, err error) {
	defer err2.Handle(&err, "kid of %s", k)

	pub := try.To1(k.Bytes())
	return jwkkid.CreateKID([]byte(pub), kms.ED25519Type)
}

type kmsProvider struct {
	store kms.Store
	lock  secretlock.Service
}

func (p *kmsProvider) StorageProvider() kms.Store {
	return p.store
}

func (p *kmsProvider) SecretLock() secretlock.Service {
	return p.lock
}

// keysets is the KMS store. The keysets live as long as the wallet.
type keysets struct {
	l sync.RWMutex
	m map[string][]byte
}

func (s *keysets) Put(id string, keyset []byte) error {
	s.l.Lock()
	defer s.l.Unlock()
	s.m[id] = append([]byte(nil), keyset...)
	return nil
}

func (s *keysets) Get(id string) ([]byte, error) {
	s.l.RLock()
	defer s.l.RUnlock()
	keyset, ok := s.m[id]
	if !ok {
		return nil, kms.ErrKeyNotFound
	}
	return append([]byte(nil), keyset...), nil
}

func (s *keysets) Delete(id string) error {
	s.l.Lock()
	defer s.l.Unlock()
	delete(s.m, id)
	return nil
}
