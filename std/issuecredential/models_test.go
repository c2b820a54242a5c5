package issuecredential

import (
	"encoding/json"
	"testing"

	"github.com/findy-network/findy-didcomm/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func TestNewOffer(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	preview := NewPreview([]Attribute{{Name: "email", Value: "alice@example.com"}})
	o := NewOffer("", "comment", preview, []byte(`{"cred_def_id":"x"}`))
	assert.Equal(o.Thread.ID, o.ID)
	assert.Equal(string(try.To1(decorator.FirstBytes(o.OffersAttach))), `{"cred_def_id":"x"}`)
	assert.Equal(o.OffersAttach[0].ID, OfferAttachID)

	var back Offer
	try.To(json.Unmarshal(try.To1(json.Marshal(o)), &back))
	assert.DeepEqual(back.CredentialPreview.Values(), map[string]string{"email": "alice@example.com"})

	o = NewOffer("proposal-thread", "", preview, nil)
	assert.Equal(o.Thread.ID, "proposal-thread")
}

func TestNewIssue(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	i := NewIssue("th", []byte("{}"))
	assert.Equal(i.Thread.ID, "th")
	assert.INotNil(i.PleaseAck)
	assert.Equal(i.CredentialsAttach[0].ID, CredentialAttachID)
}
