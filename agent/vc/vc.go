// Package vc is the AnonCreds capability. The protocols thread its opaque
// JSON payloads through their states and never look inside them.
package vc

//go:generate mockgen -destination mock_vc/mock_vc.go github.com/findy-network/findy-didcomm/agent/vc AnonCreds

import "context"

// AnonCreds creates and checks the cryptographic payloads of the issuance
// and presentation protocols.
type AnonCreds interface {
	// CreateOffer returns a credential offer for the credential definition.
	CreateOffer(ctx context.Context, credDefID string) ([]byte, error)

	// CreateRequest returns the credential request for the offer and the
	// request metadata the holder needs to store the credential later.
	CreateRequest(ctx context.Context, holderDID string, offer []byte) (req, meta []byte, err error)

	// IssueCredential issues the credential for the request. A non-empty
	// rev names the revocation registry the credential is issued to.
	IssueCredential(ctx context.Context, offer, req []byte, values map[string]string, rev Revocation) ([]byte, error)

	// StoreCredential stores the issued credential to the holder's wallet
	// and returns its id.
	StoreCredential(ctx context.Context, meta, cred []byte) (string, error)

	CreatePresentation(ctx context.Context, proofReq []byte) ([]byte, error)

	// VerifyPresentation reads the ledger objects the presentation refers
	// to and checks it against the proof request.
	VerifyPresentation(ctx context.Context, proofReq, presentation []byte) (bool, error)
}

// Revocation is the revocation registry of an issued credential. The zero
// value issues a credential that cannot be revoked.
type Revocation struct {
	RevRegID  string `json:"rev_reg_id,omitempty"`
	TailsFile string `json:"tails_file,omitempty"`
}

func (r Revocation) Revocable() bool {
	return r.RevRegID != ""
}
