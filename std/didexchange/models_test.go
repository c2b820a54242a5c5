package didexchange

import (
	"encoding/json"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/wallet"
	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/stretchr/testify/require"
)

const verkey = wallet.Key("8QhFxKxyaFsJy4CyxeYX34dFH8oWqyBv1P4HLQCsoeLy")

func TestInvitation_Services(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	data := `{
		"@type": "https://didcomm.org/out-of-band/1.0/invitation",
		"@id": "inv-1",
		"handshake_protocols": ["https://didcomm.org/didexchange/1.0"],
		"services": [
			"did:sov:LjgpST2rjsoxYegQDRm7EL",
			{"id": "#inline", "type": "did-communication",
			 "recipientKeys": ["` + verkey.String() + `"], "serviceEndpoint": "http://x"}
		]
	}`
	var inv Invitation
	try.To(json.Unmarshal([]byte(data), &inv))
	assert.Equal(len(inv.Services), 2)
	assert.Equal(inv.Services[0].DID, "did:sov:LjgpST2rjsoxYegQDRm7EL")
	assert.INotNil(inv.Services[1].Inline)
	assert.Equal(inv.Services[1].Inline.ServiceEndpoint, "http://x")

	var back Invitation
	try.To(json.Unmarshal(try.To1(json.Marshal(&inv)), &back))
	assert.DeepEqual(back, inv)
}

func TestRequest_Thread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	doc := did.NewDoc("did:peer:1", verkey, "http://x")
	r := try.To1(NewRequest("bob", "inv-1", "did:peer:1", doc))
	assert.Equal(r.Thread.ID, r.ID)
	assert.Equal(r.Thread.PID, "inv-1")

	got := try.To1(AttachedDoc(r.DIDDoc))
	assert.DeepEqual(got, doc)

	none := try.To1(AttachedDoc(nil))
	assert.That(none == nil)
}

func TestFirstService(t *testing.T) {
	inv := NewPublicInvitation("faber", "did:sov:LjgpST2rjsoxYegQDRm7EL")
	s, err := inv.FirstService()
	require.NoError(t, err)
	require.Equal(t, "did:sov:LjgpST2rjsoxYegQDRm7EL", s.DID)

	_, err = (&Invitation{}).FirstService()
	require.ErrorIs(t, err, ErrNoService)
}
