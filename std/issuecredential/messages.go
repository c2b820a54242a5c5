package issuecredential

import (
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

// NewPreview builds a credential preview from attribute values.
func NewPreview(attrs []Attribute) PreviewCredential {
	return PreviewCredential{
		Type:       pltype.IssueCredentialCredentialPreview,
		Attributes: attrs,
	}
}

// Values returns the preview as a name to value map.
func (p PreviewCredential) Values() map[string]string {
	values := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		values[a.Name] = a.Value
	}
	return values
}

func NewPropose(comment, credDefID string, preview PreviewCredential) *Propose {
	id := utils.UUID()
	return &Propose{
		ID:                 id,
		Type:               pltype.IssueCredentialPropose,
		Comment:            comment,
		CredentialProposal: preview,
		CredDefID:          credDefID,
		Thread:             &decorator.Thread{ID: id},
	}
}

// NewOffer creates an offer. An empty thid starts a new thread with the
// offer's own id.
func NewOffer(thid, comment string, preview PreviewCredential, offer []byte) *Offer {
	id := utils.UUID()
	if thid == "" {
		thid = id
	}
	return &Offer{
		ID:                id,
		Type:              pltype.IssueCredentialOffer,
		Comment:           comment,
		CredentialPreview: preview,
		OffersAttach: []decorator.Attachment{
			*decorator.NewAttachment(OfferAttachID, MimeTypeJSON, offer),
		},
		Thread: &decorator.Thread{ID: thid},
	}
}

func NewRequest(thid string, req []byte) *Request {
	return &Request{
		ID:   utils.UUID(),
		Type: pltype.IssueCredentialRequest,
		RequestsAttach: []decorator.Attachment{
			*decorator.NewAttachment(RequestAttachID, MimeTypeJSON, req),
		},
		Thread: &decorator.Thread{ID: thid},
	}
}

func NewIssue(thid string, cred []byte) *Issue {
	return &Issue{
		ID:   utils.UUID(),
		Type: pltype.IssueCredentialIssue,
		CredentialsAttach: []decorator.Attachment{
			*decorator.NewAttachment(CredentialAttachID, MimeTypeJSON, cred),
		},
		Thread:    &decorator.Thread{ID: thid},
		PleaseAck: &decorator.PleaseAck{On: []string{"RECEIPT"}},
	}
}
