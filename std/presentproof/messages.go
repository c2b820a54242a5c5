package presentproof

import (
	"github.com/findy-network/findy-didcomm/agent/pltype"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/findy-network/findy-didcomm/std/decorator"
)

func NewPropose(comment string, preview *Preview) *Propose {
	id := utils.UUID()
	if preview != nil && preview.Type == "" {
		preview.Type = pltype.PresentationPreviewObj
	}
	return &Propose{
		Type:                 pltype.PresentProofPropose,
		ID:                   id,
		Comment:              comment,
		PresentationProposal: preview,
		Thread:               &decorator.Thread{ID: id},
	}
}

// NewRequest creates a proof request. An empty thid starts a new thread with
// the request's own id.
func NewRequest(thid, comment string, proofReq []byte) *Request {
	id := utils.UUID()
	if thid == "" {
		thid = id
	}
	return &Request{
		Type:    pltype.PresentProofRequest,
		ID:      id,
		Comment: comment,
		RequestPresentations: []decorator.Attachment{
			*decorator.NewAttachment(RequestAttachID, MimeTypeJSON, proofReq),
		},
		Thread: &decorator.Thread{ID: thid},
	}
}

func NewPresentation(thid string, proof []byte) *Presentation {
	return &Presentation{
		Type: pltype.PresentProofPresentation,
		ID:   utils.UUID(),
		PresentationAttaches: []decorator.Attachment{
			*decorator.NewAttachment(PresentationAttachID, MimeTypeJSON, proof),
		},
		Thread:    &decorator.Thread{ID: thid},
		PleaseAck: &decorator.PleaseAck{On: []string{"OUTCOME"}},
	}
}
