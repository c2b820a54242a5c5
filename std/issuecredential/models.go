/*
Taken from aries-framework-go, and heavily modified.

Most important modification were 1) renaming structures: removing Credential
word which is already in the package name, and 2) adding thread decorators to
all, and 3) IDs.
*/

// Package issuecredential is package for Aries protocol messages for same name.
package issuecredential

import "github.com/findy-network/findy-didcomm/std/decorator"

// Attachment ids of the Indy anoncreds payloads.
const (
	OfferAttachID      = "libindy-cred-offer-0"
	RequestAttachID    = "libindy-cred-request-0"
	CredentialAttachID = "libindy-cred-0"
	MimeTypeJSON       = "application/json"
)

// Propose is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message when
// the Holder wants some adjustments made to the credential data offered by
// Issuer.
type Propose struct {
	ID                 string            `json:"@id,omitempty"`
	Type               string            `json:"@type,omitempty"`
	Comment            string            `json:"comment,omitempty"`
	CredentialProposal PreviewCredential `json:"credential_proposal,omitempty"`
	SchemaIssuerDid    string            `json:"schema_issuer_did,omitempty"`
	SchemaID           string            `json:"schema_id,omitempty"`
	SchemaName         string            `json:"schema_name,omitempty"`
	SchemaVersion      string            `json:"schema_version,omitempty"`
	CredDefID          string            `json:"cred_def_id,omitempty"`
	IssuerDid          string            `json:"issuer_did,omitempty"`

	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// Offer is a message sent by the Issuer to the potential Holder, describing
// the credential they intend to offer.
type Offer struct {
	ID                string                 `json:"@id,omitempty"`
	Type              string                 `json:"@type,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview PreviewCredential      `json:"credential_preview,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach,omitempty"`

	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// Request is a message sent by the potential Holder to the Issuer, to request
// the issuance of a credential.
type Request struct {
	ID             string                 `json:"@id,omitempty"`
	Type           string                 `json:"@type,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach,omitempty"`

	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// Issue contains as attached payload the credentials being issued and is
// sent in response to a valid Request Credential message.
type Issue struct {
	ID                string                 `json:"@id,omitempty"`
	Type              string                 `json:"@type,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`

	Thread    *decorator.Thread    `json:"~thread,omitempty"`
	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
}

// PreviewCredential is used to construct a preview of the data for the
// credential that is to be issued.
type PreviewCredential struct {
	Type       string      `json:"@type,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// Attribute describes an attribute for a Preview Credential
type Attribute struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value,omitempty"`
}
