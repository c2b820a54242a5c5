// Package did is the DID document model the connection and did-exchange
// protocols carry, the sov/IndyAgent flavour of it.
package did

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/mr-tron/base58"
)

const (
	Context          = "https://w3id.org/did/v1"
	KeyType          = "Ed25519VerificationKey2018"
	AuthType         = "Ed25519SignatureAuthentication2018"
	ServiceIndyAgent = "IndyAgent"
	ServiceDIDComm   = "did-communication"
)

var (
	ErrNoService      = errors.New("did doc has no service")
	ErrNoEndpoint     = errors.New("did doc service has no endpoint")
	ErrNoRecipientKey = errors.New("did doc service has no recipient keys")
)

// Doc DID Document definition
type Doc struct {
	Context        string               `json:"@context,omitempty"`
	ID             string               `json:"id,omitempty"`
	PublicKey      []PublicKey          `json:"publicKey,omitempty"`
	Service        []Service            `json:"service,omitempty"`
	Authentication []VerificationMethod `json:"authentication,omitempty"`
}

// PublicKey DID doc public key
type PublicKey struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	Controller      string `json:"controller,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
}

// Service DID doc service
type Service struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	Priority        uint     `json:"priority,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// VerificationMethod authentication verification method
type VerificationMethod struct {
	Type      string `json:"type,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

// NewDoc builds a DID document with one key and one service.
func NewDoc(did string, vk wallet.Key, endpoint string, routingKeys ...wallet.Key) *Doc {
	didURI := did
	didURIRef := didURI + "#1"
	pubK := PublicKey{
		ID:              didURIRef,
		Type:            KeyType,
		Controller:      didURI,
		PublicKeyBase58: vk.String(),
	}
	var routing []string
	for _, k := range routingKeys {
		routing = append(routing, k.String())
	}
	service := Service{
		ID:              didURI + ";indy",
		Type:            ServiceIndyAgent,
		RecipientKeys:   []string{vk.String()},
		RoutingKeys:     routing,
		ServiceEndpoint: endpoint,
	}
	return &Doc{
		Context:   Context,
		ID:        didURI,
		PublicKey: []PublicKey{pubK},
		Service:   []Service{service},
		Authentication: []VerificationMethod{{
			Type:      AuthType,
			PublicKey: didURIRef,
		}},
	}
}

// FromKey returns the Indy style DID of the verkey: base58 of its first 16
// bytes.
func FromKey(vk wallet.Key) (string, error) {
	pub, err := vk.Bytes()
	if err != nil {
		return "", err
	}
	return base58.Encode(pub[:16]), nil
}

// Validate checks that the document can be used to address messages.
func (d *Doc) Validate() error {
	if d == nil || len(d.Service) == 0 {
		return ErrNoService
	}
	s := d.Service[0]
	if s.ServiceEndpoint == "" {
		return ErrNoEndpoint
	}
	keys, err := d.RecipientKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return ErrNoRecipientKey
	}
	return nil
}

// Endpoint returns the endpoint of the first service.
func (d *Doc) Endpoint() string {
	if d == nil || len(d.Service) == 0 {
		return ""
	}
	return d.Service[0].ServiceEndpoint
}

// RecipientKeys returns the recipient keys of the first service. Key
// references to the publicKey section are resolved.
func (d *Doc) RecipientKeys() ([]wallet.Key, error) {
	if d == nil || len(d.Service) == 0 {
		return nil, ErrNoService
	}
	return d.keys(d.Service[0].RecipientKeys)
}

// RoutingKeys returns the routing keys of the first service.
func (d *Doc) RoutingKeys() ([]wallet.Key, error) {
	if d == nil || len(d.Service) == 0 {
		return nil, ErrNoService
	}
	return d.keys(d.Service[0].RoutingKeys)
}

func (d *Doc) keys(refs []string) ([]wallet.Key, error) {
	keys := make([]wallet.Key, 0, len(refs))
	for _, ref := range refs {
		k, err := d.resolveKey(ref)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (d *Doc) resolveKey(ref string) (wallet.Key, error) {
	if !strings.Contains(ref, "#") {
		k := wallet.Key(ref)
		if _, err := k.Bytes(); err != nil {
			return "", err
		}
		return k, nil
	}
	for _, pk := range d.PublicKey {
		if pk.ID == ref || strings.HasSuffix(ref, pk.ID) {
			return wallet.Key(pk.PublicKeyBase58), nil
		}
	}
	return "", fmt.Errorf("key reference %s: %w", ref, ErrNoRecipientKey)
}

// KeyDID returns the did:key form of the verkey, multicodec ed25519-pub in
// base58btc multibase.
func KeyDID(vk wallet.Key) (string, error) {
	pub, err := vk.Bytes()
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 2+ed25519.PublicKeySize)
	buf = append(buf, multicodecEd25519...)
	buf = append(buf, pub...)
	return "did:key:z" + base58.Encode(buf), nil
}

// KeyFromKeyDID is the inverse of KeyDID.
func KeyFromKeyDID(did string) (wallet.Key, error) {
	const prefix = "did:key:z"
	id, _, _ := strings.Cut(did, "#")
	if !strings.HasPrefix(id, prefix) {
		return "", fmt.Errorf("not a did:key %q", did)
	}
	buf, err := base58.Decode(id[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("did:key %q: %w", did, err)
	}
	if len(buf) != 2+ed25519.PublicKeySize ||
		buf[0] != multicodecEd25519[0] || buf[1] != multicodecEd25519[1] {
		return "", fmt.Errorf("did:key %q: %w", did, wallet.ErrKeySize)
	}
	return wallet.KeyFromPublic(buf[2:]), nil
}

var multicodecEd25519 = []byte{0xed, 0x01}
