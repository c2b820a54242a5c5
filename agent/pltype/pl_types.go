// Package pltype holds the message type URIs of the supported Aries
// protocols and the parsing of them.
package pltype

import (
	"errors"
	"fmt"
	"strings"
)

// Protocol prefixes. Both are accepted inbound, DIDOrgAries is used outbound.
const (
	Aries       = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec"
	DIDOrgAries = "https://didcomm.org"
)

// Common handler names which every protocol may use.
const (
	HandlerProblemReport = "problem-report"
	HandlerAck           = "ack"
)

const (
	ProtocolNotification      = "notification"
	Notification              = DIDOrgAries + "/" + ProtocolNotification
	NotificationProblemReport = Notification + "/1.0/" + HandlerProblemReport
	NotificationAck           = Notification + "/1.0/" + HandlerAck
)

// Connection protocol constants, Aries RFC 0160
const (
	ProtocolConnection        = "connections"
	HandlerInvitation         = "invitation"
	HandlerRequest            = "request"
	HandlerResponse           = "response"
	AriesConnection           = DIDOrgAries + "/" + ProtocolConnection
	AriesConnectionInvitation = AriesConnection + "/1.0/" + HandlerInvitation
	AriesConnectionRequest    = AriesConnection + "/1.0/" + HandlerRequest
	AriesConnectionResponse   = AriesConnection + "/1.0/" + HandlerResponse
	AriesConnectionAck        = AriesConnection + "/1.0/" + HandlerAck
	AriesConnectionProblemRpt = AriesConnection + "/1.0/" + HandlerProblemReport
	SignatureEd25519Sha512    = DIDOrgAries + "/signature/1.0/ed25519Sha512_single"
	SovSignatureEd25519Sha512 = Aries + "/signature/1.0/ed25519Sha512_single"
	ProtocolTrustPing         = "trust_ping"
	HandlerPing               = "ping"
	HandlerPingResponse       = "ping_response"
	TrustPing                 = DIDOrgAries + "/" + ProtocolTrustPing
	TrustPingPing             = TrustPing + "/1.0/" + HandlerPing
	TrustPingResponse         = TrustPing + "/1.0/" + HandlerPingResponse
)

// DID Exchange protocol constants, Aries RFC 0023 and out-of-band RFC 0434
const (
	ProtocolDIDExchange        = "didexchange"
	HandlerComplete            = "complete"
	DIDExchange                = DIDOrgAries + "/" + ProtocolDIDExchange
	DIDExchangeRequest         = DIDExchange + "/1.0/" + HandlerRequest
	DIDExchangeResponse        = DIDExchange + "/1.0/" + HandlerResponse
	DIDExchangeComplete        = DIDExchange + "/1.0/" + HandlerComplete
	DIDExchangeProblemReport   = DIDExchange + "/1.0/" + HandlerProblemReport
	ProtocolOutOfBand          = "out-of-band"
	OutOfBand                  = DIDOrgAries + "/" + ProtocolOutOfBand
	OutOfBandInvitation        = OutOfBand + "/1.0/" + HandlerInvitation
	DIDExchangeHandshakeTarget = DIDExchange + "/1.0"
)

// Issue Credential protocol constants, Aries RFC 0036
const (
	ProtocolIssueCredential          = "issue-credential"
	HandlerIssueCredentialPropose    = "propose-credential"
	HandlerIssueCredentialOffer      = "offer-credential"
	HandlerIssueCredentialRequest    = "request-credential"
	HandlerIssueCredentialIssue      = "issue-credential"
	ObjectTypeCredentialPreview      = "credential-preview"
	IssueCredential                  = DIDOrgAries + "/" + ProtocolIssueCredential
	IssueCredentialPropose           = IssueCredential + "/1.0/" + HandlerIssueCredentialPropose
	IssueCredentialOffer             = IssueCredential + "/1.0/" + HandlerIssueCredentialOffer
	IssueCredentialRequest           = IssueCredential + "/1.0/" + HandlerIssueCredentialRequest
	IssueCredentialIssue             = IssueCredential + "/1.0/" + HandlerIssueCredentialIssue
	IssueCredentialACK               = IssueCredential + "/1.0/" + HandlerAck
	IssueCredentialProblemReport     = IssueCredential + "/1.0/" + HandlerProblemReport
	IssueCredentialCredentialPreview = IssueCredential + "/1.0/" + ObjectTypeCredentialPreview
)

// Present Proof protocol constants, Aries RFC 0037
const (
	ProtocolPresentProof            = "present-proof"
	HandlerPresentProofPropose      = "propose-presentation"
	HandlerPresentProofRequest      = "request-presentation"
	HandlerPresentProofPresentation = "presentation"
	ObjectTypePresentationPreview   = "presentation-preview"
	PresentProof                    = DIDOrgAries + "/" + ProtocolPresentProof
	PresentProofPropose             = PresentProof + "/1.0/" + HandlerPresentProofPropose
	PresentProofRequest             = PresentProof + "/1.0/" + HandlerPresentProofRequest
	PresentProofPresentation        = PresentProof + "/1.0/" + HandlerPresentProofPresentation
	PresentProofACK                 = PresentProof + "/1.0/" + HandlerAck
	PresentProofProblemReport       = PresentProof + "/1.0/" + HandlerProblemReport
	PresentationPreviewObj          = PresentProof + "/1.0/" + ObjectTypePresentationPreview
)

var ErrUnknownType = errors.New("unknown message type")

// Type is a parsed message type URI: <prefix>/<family>/<version>/<kind>.
type Type struct {
	Prefix  string
	Family  string
	Version string
	Kind    string
}

func (t Type) String() string {
	return t.Prefix + "/" + t.Family + "/" + t.Version + "/" + t.Kind
}

// Normalized returns the type string with the https://didcomm.org prefix.
func (t Type) Normalized() string {
	t.Prefix = DIDOrgAries
	return t.String()
}

// IsProblemReport tells if the type is a problem report of any protocol
// family.
func (t Type) IsProblemReport() bool {
	return t.Kind == HandlerProblemReport
}

// ParseType parses both the legacy did:sov and the https://didcomm.org
// form.
func ParseType(s string) (t Type, err error) {
	var rest string
	switch {
	case strings.HasPrefix(s, DIDOrgAries+"/"):
		t.Prefix, rest = DIDOrgAries, s[len(DIDOrgAries)+1:]
	case strings.HasPrefix(s, Aries+"/"):
		t.Prefix, rest = Aries, s[len(Aries)+1:]
	default:
		return t, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return t, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	t.Family, t.Version, t.Kind = parts[0], parts[1], parts[2]
	return t, nil
}
