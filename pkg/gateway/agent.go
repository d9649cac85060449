/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/issuecredential"

	"github.com/caduceus-vc/caduceus/pkg/schema"
)

// Agent is the set of admin API operations the coordinator depends on.
type Agent interface {
	AcceptConnection(ctx context.Context, connectionID string) error
	CreateInvitation(ctx context.Context, alias string) (*Invitation, error)
	ReceiveInvitation(ctx context.Context, invitation json.RawMessage) (*ConnectionRecord, error)

	CreateLocalDID(ctx context.Context, seed string) (*DIDInfo, error)
	SetPublicDID(ctx context.Context, did string) error
	ListCredentials(ctx context.Context) ([]schema.IndyCredInfo, error)

	SendMessage(ctx context.Context, connectionID, content string) error

	SendCredentialRequest(ctx context.Context, credExID string) error
	GetCredentialRecord(ctx context.Context, credExID string) (map[string]interface{}, error)
	SendOffer(ctx context.Context, offer *Offer) (string, error)
	IssueCredential(ctx context.Context, credExID string) error
	StoreCredential(ctx context.Context, credExID string) error
	CredentialProblemReport(ctx context.Context, credExID, description string) error
	DeleteCredentialRecord(ctx context.Context, credExID string) error

	GetProofCredentials(ctx context.Context, presExID string) ([]schema.CredentialCandidate, error)
	SendPresentation(ctx context.Context, presExID string, spec *schema.IndyPresentationSpec) error
	SendProofRequest(ctx context.Context, connectionID string, req *schema.IndyProofRequest) (string, error)
	VerifyPresentation(ctx context.Context, presExID string) (map[string]interface{}, error)
	GetProofRecord(ctx context.Context, presExID string) (map[string]interface{}, error)
	ProofProblemReport(ctx context.Context, presExID, description string) error
	DeleteProofRecord(ctx context.Context, presExID string) error

	SchemasCreated(ctx context.Context, name string) ([]string, error)
	CreateSchema(ctx context.Context, name, version string, attributes []string) (string, error)
	CredDefsCreated(ctx context.Context, schemaID string) ([]string, error)
	CreateCredDef(ctx context.Context, schemaID, tag string) (string, error)
	RegisterNym(ctx context.Context, nym *Nym) error
	EndorseTransaction(ctx context.Context, transactionID string) error
}

var _ Agent = (*Client)(nil)

type Invitation struct {
	ID           string                 `json:"invi_msg_id,omitempty"`
	OOBID        string                 `json:"oob_id,omitempty"`
	ConnectionID string                 `json:"connection_id,omitempty"`
	URL          string                 `json:"invitation_url"`
	State        string                 `json:"state,omitempty"`
	Invitation   map[string]interface{} `json:"invitation"`
}

type ConnectionRecord struct {
	ConnectionID string `json:"connection_id"`
	State        string `json:"state"`
	TheirLabel   string `json:"their_label,omitempty"`
	TheirDID     string `json:"their_did,omitempty"`
}

type DIDInfo struct {
	DID    string `json:"did"`
	Verkey string `json:"verkey"`
}

// Offer is an issue-credential v2 offer over an indy credential definition.
type Offer struct {
	ConnectionID string
	CredDefID    string
	Comment      string
	Preview      issuecredential.PreviewCredential
}

type Nym struct {
	DID    string
	Verkey string
	Alias  string
	Role   string
}

// PreviewType is the v2 credential preview message type.
const PreviewType = "issue-credential/2.0/credential-preview"

// NewPreview builds a credential preview from name/value pairs, sorted by name.
func NewPreview(values map[string]string) issuecredential.PreviewCredential {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	p := issuecredential.PreviewCredential{Type: PreviewType}
	for _, n := range names {
		p.Attributes = append(p.Attributes, issuecredential.Attribute{Name: n, Value: values[n]})
	}
	return p
}
