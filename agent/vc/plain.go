package vc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/agent/vdr"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrNonce         = errors.New("nonce mismatch")
	ErrNoCredential  = errors.New("no credential for attribute")
	ErrNoCredDefID   = errors.New("cred def id missing")
	ErrUnknownCredID = errors.New("unknown request metadata")
	ErrNoTails       = errors.New("tails file missing")
	ErrNoLedger      = errors.New("no ledger to verify with")
)

// Plain is an AnonCreds without the zero knowledge math. The payloads are
// plain JSON and verification compares the revealed values to the request.
// It is for development agents and tests only. The ledger is needed only
// for verification.
type Plain struct {
	l      sync.RWMutex
	creds  map[string]PlainCredential
	ledger vdr.Ledger
}

type plainOffer struct {
	CredDefID string `json:"cred_def_id"`
	Nonce     string `json:"nonce"`
}

type plainRequest struct {
	CredDefID string `json:"cred_def_id"`
	ProverDID string `json:"prover_did"`
	Nonce     string `json:"nonce"`
}

type PlainCredential struct {
	CredDefID string            `json:"cred_def_id"`
	Values    map[string]string `json:"values"`
	Revocation
}

// ProofRequest is the proof request format Plain understands, a subset of
// the Indy one.
type ProofRequest struct {
	Name       string                    `json:"name"`
	Nonce      string                    `json:"nonce"`
	Attributes map[string]AttributeQuery `json:"requested_attributes"`
}

type AttributeQuery struct {
	Name string `json:"name"`
}

// Identifier names the ledger objects of a credential used in a
// presentation.
type Identifier struct {
	CredDefID string `json:"cred_def_id"`
	RevRegID  string `json:"rev_reg_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type plainPresentation struct {
	Nonce       string            `json:"nonce"`
	Revealed    map[string]string `json:"revealed"`
	Identifiers []Identifier      `json:"identifiers"`
}

func NewPlain(ledger vdr.Ledger) *Plain {
	return &Plain{creds: make(map[string]PlainCredential), ledger: ledger}
}

// NewProofRequest builds a proof request asking the attributes by name.
func NewProofRequest(name string, attrs ...string) []byte {
	r := ProofRequest{
		Name:       name,
		Nonce:      utils.NewNonceStr(),
		Attributes: make(map[string]AttributeQuery, len(attrs)),
	}
	for i, a := range attrs {
		r.Attributes[fmt.Sprintf("attr%d_referent", i+1)] = AttributeQuery{Name: a}
	}
	return try.To1(json.Marshal(r))
}

func (p *Plain) CreateOffer(_ context.Context, credDefID string) (_ []byte, err error) {
	if credDefID == "" {
		return nil, ErrNoCredDefID
	}
	return json.Marshal(plainOffer{CredDefID: credDefID, Nonce: utils.NewNonceStr()})
}

func (p *Plain) CreateRequest(_ context.Context, holderDID string, offer []byte) (req, meta []byte, err error) {
	defer err2.Handle(&err, "plain request")

	var o plainOffer
	try.To(json.Unmarshal(offer, &o))
	req = try.To1(json.Marshal(plainRequest{
		CredDefID: o.CredDefID,
		ProverDID: holderDID,
		Nonce:     o.Nonce,
	}))
	return req, req, nil
}

func (p *Plain) IssueCredential(
	_ context.Context,
	offer, req []byte,
	values map[string]string,
	rev Revocation,
) (_ []byte, err error) {
	defer err2.Handle(&err, "plain issue")

	var o plainOffer
	try.To(json.Unmarshal(offer, &o))
	var r plainRequest
	try.To(json.Unmarshal(req, &r))
	if o.Nonce != r.Nonce {
		return nil, ErrNonce
	}
	if rev.Revocable() && rev.TailsFile == "" {
		return nil, fmt.Errorf("%w: rev reg %s", ErrNoTails, rev.RevRegID)
	}
	return json.Marshal(PlainCredential{CredDefID: o.CredDefID, Values: values, Revocation: rev})
}

func (p *Plain) StoreCredential(_ context.Context, meta, cred []byte) (_ string, err error) {
	defer err2.Handle(&err, "plain store")

	if len(meta) == 0 {
		return "", ErrUnknownCredID
	}
	var c PlainCredential
	try.To(json.Unmarshal(cred, &c))

	id := utils.UUID()
	p.l.Lock()
	defer p.l.Unlock()
	p.creds[id] = c
	return id, nil
}

// Credential returns a stored credential.
func (p *Plain) Credential(id string) (PlainCredential, bool) {
	p.l.RLock()
	defer p.l.RUnlock()
	c, ok := p.creds[id]
	return c, ok
}

func (p *Plain) CreatePresentation(_ context.Context, proofReq []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "plain presentation")

	var r ProofRequest
	try.To(json.Unmarshal(proofReq, &r))

	p.l.RLock()
	defer p.l.RUnlock()

	pres := plainPresentation{Nonce: r.Nonce, Revealed: make(map[string]string)}
	used := make(map[string]bool)
	now := time.Now().Unix()
	for ref, q := range r.Attributes {
		id, c, ok := p.find(q.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoCredential, q.Name)
		}
		pres.Revealed[ref] = c.Values[q.Name]
		if used[id] {
			continue
		}
		used[id] = true
		ident := Identifier{CredDefID: c.CredDefID, RevRegID: c.RevRegID}
		if c.Revocable() {
			ident.Timestamp = now
		}
		pres.Identifiers = append(pres.Identifiers, ident)
	}
	return json.Marshal(pres)
}

func (p *Plain) find(name string) (string, PlainCredential, bool) {
	for id, c := range p.creds {
		if _, ok := c.Values[name]; ok {
			return id, c, true
		}
	}
	return "", PlainCredential{}, false
}

// VerifyPresentation rejects presentations of credentials whose cred def
// isn't on the ledger. Other ledger errors are returned as is.
func (p *Plain) VerifyPresentation(ctx context.Context, proofReq, presentation []byte) (ok bool, err error) {
	defer err2.Handle(&err, "plain verify")

	if p.ledger == nil {
		return false, ErrNoLedger
	}
	var r ProofRequest
	try.To(json.Unmarshal(proofReq, &r))
	var pres plainPresentation
	try.To(json.Unmarshal(presentation, &pres))

	if r.Nonce != pres.Nonce {
		return false, nil
	}
	for ref := range r.Attributes {
		if _, found := pres.Revealed[ref]; !found {
			return false, nil
		}
	}
	if len(r.Attributes) > 0 && len(pres.Identifiers) == 0 {
		return false, nil
	}
	for _, ident := range pres.Identifiers {
		_, err := p.ledger.ReadCredDef(ctx, ident.CredDefID)
		if errors.Is(err, vdr.ErrNotFound) {
			glog.Warningf("presentation of unknown cred def %s", ident.CredDefID)
			return false, nil
		}
		try.To(err)
	}
	return true, nil
}
