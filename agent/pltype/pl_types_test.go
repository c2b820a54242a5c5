package pltype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		family  string
		kind    string
		problem bool
		wantErr bool
	}{
		{"didcomm.org", AriesConnectionRequest, ProtocolConnection, HandlerRequest, false, false},
		{"legacy sov", Aries + "/issue-credential/1.0/offer-credential", ProtocolIssueCredential, HandlerIssueCredentialOffer, false, false},
		{"problem report", PresentProofProblemReport, ProtocolPresentProof, HandlerProblemReport, true, false},
		{"notification", NotificationProblemReport, ProtocolNotification, HandlerProblemReport, true, false},
		{"unknown prefix", "https://example.com/x/1.0/y", "", "", false, true},
		{"too short", DIDOrgAries + "/connections/1.0", "", "", false, true},
		{"empty kind", DIDOrgAries + "/connections/1.0/", "", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownType)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.family, got.Family)
			require.Equal(t, tt.kind, got.Kind)
			require.Equal(t, "1.0", got.Version)
			require.Equal(t, tt.problem, got.IsProblemReport())
			require.Equal(t, tt.in, got.String())
		})
	}
}

func TestNormalized(t *testing.T) {
	got, err := ParseType(Aries + "/connections/1.0/response")
	require.NoError(t, err)
	require.Equal(t, AriesConnectionResponse, got.Normalized())
}
