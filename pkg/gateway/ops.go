/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/schema"
)

func (r *Client) AcceptConnection(ctx context.Context, connectionID string) error {
	return r.do(ctx, call{name: AcceptConnection, params: map[string]string{"conn_id": connectionID}, body: struct{}{}})
}

func (r *Client) CreateInvitation(ctx context.Context, alias string) (*Invitation, error) {
	body := map[string]interface{}{
		"alias":               alias,
		"use_did_method":      r.didMethod,
		"handshake_protocols": []string{r.handshake},
	}

	out := &Invitation{}
	err := r.do(ctx, call{name: CreateInvitation, query: url.Values{"auto_accept": {"true"}}, body: body, out: out})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Client) ReceiveInvitation(ctx context.Context, invitation json.RawMessage) (*ConnectionRecord, error) {
	if len(invitation) == 0 || !json.Valid(invitation) {
		return nil, errs.New(errs.ValidationError, "invitation must be a JSON object")
	}

	out := &ConnectionRecord{}
	err := r.do(ctx, call{name: ReceiveInvitation, query: url.Values{"auto_accept": {"true"}}, body: invitation, out: out})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Client) CreateLocalDID(ctx context.Context, seed string) (*DIDInfo, error) {
	body := map[string]interface{}{
		"method":  "sov",
		"options": map[string]string{"key_type": "ed25519"},
	}
	if seed != "" {
		body["seed"] = seed
	}

	var out map[string]interface{}
	if err := r.do(ctx, call{name: CreateLocalDID, body: body, out: &out}); err != nil {
		return nil, err
	}

	info := &DIDInfo{
		DID:    ProbeString(out, "$.result.did", "$.did"),
		Verkey: ProbeString(out, "$.result.verkey", "$.verkey"),
	}
	if info.DID == "" {
		return nil, errs.New(errs.TransientAgentFailure, "agent created DID without returning it")
	}

	return info, nil
}

func (r *Client) SetPublicDID(ctx context.Context, did string) error {
	return r.do(ctx, call{name: SetPublicDID, query: url.Values{"did": {did}}})
}

func (r *Client) ListCredentials(ctx context.Context) ([]schema.IndyCredInfo, error) {
	out := struct {
		Results []schema.IndyCredInfo `json:"results"`
	}{}

	if err := r.do(ctx, call{name: ListCredentials, out: &out}); err != nil {
		return nil, err
	}

	return out.Results, nil
}

func (r *Client) SendMessage(ctx context.Context, connectionID, content string) error {
	return r.do(ctx, call{
		name:   SendMessage,
		params: map[string]string{"conn_id": connectionID},
		body:   map[string]string{"content": content},
	})
}

func (r *Client) SendCredentialRequest(ctx context.Context, credExID string) error {
	return r.credAction(ctx, SendCredentialRequest, credExID, struct{}{})
}

func (r *Client) GetCredentialRecord(ctx context.Context, credExID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := r.do(ctx, call{name: GetCredentialRecord, params: map[string]string{"cred_ex_id": credExID}, out: &out})
	return out, err
}

func (r *Client) SendOffer(ctx context.Context, offer *Offer) (string, error) {
	if offer.ConnectionID == "" || offer.CredDefID == "" {
		return "", errs.New(errs.ValidationError, "offer requires a connection and a credential definition")
	}

	preview := offer.Preview
	if preview.Type == "" {
		preview.Type = PreviewType
	}

	body := map[string]interface{}{
		"connection_id":      offer.ConnectionID,
		"comment":            offer.Comment,
		"auto_remove":        false,
		"credential_preview": preview,
		"filter": map[string]interface{}{
			"indy": map[string]string{"cred_def_id": offer.CredDefID},
		},
	}

	var out map[string]interface{}
	if err := r.do(ctx, call{name: SendOffer, body: body, out: &out}); err != nil {
		return "", err
	}

	return ProbeString(out, CredExIDPaths...), nil
}

func (r *Client) IssueCredential(ctx context.Context, credExID string) error {
	return r.credAction(ctx, IssueCredential, credExID, map[string]string{"comment": "issued"})
}

func (r *Client) StoreCredential(ctx context.Context, credExID string) error {
	return r.credAction(ctx, StoreCredential, credExID, struct{}{})
}

func (r *Client) CredentialProblemReport(ctx context.Context, credExID, description string) error {
	return r.credAction(ctx, CredentialProblemReport, credExID, map[string]string{"description": description})
}

func (r *Client) DeleteCredentialRecord(ctx context.Context, credExID string) error {
	return r.credAction(ctx, DeleteCredentialRecord, credExID, nil)
}

func (r *Client) credAction(ctx context.Context, name, credExID string, body interface{}) error {
	return r.do(ctx, call{name: name, params: map[string]string{"cred_ex_id": credExID}, body: body})
}

func (r *Client) GetProofCredentials(ctx context.Context, presExID string) ([]schema.CredentialCandidate, error) {
	var out []schema.CredentialCandidate
	err := r.do(ctx, call{name: GetProofCredentials, params: map[string]string{"pres_ex_id": presExID}, out: &out})
	return out, err
}

func (r *Client) SendPresentation(ctx context.Context, presExID string, spec *schema.IndyPresentationSpec) error {
	body := map[string]interface{}{
		"comment": "presentation",
		"indy":    spec,
	}
	return r.proofAction(ctx, SendPresentation, presExID, body)
}

func (r *Client) SendProofRequest(ctx context.Context, connectionID string, req *schema.IndyProofRequest) (string, error) {
	body := map[string]interface{}{
		"connection_id": connectionID,
		"comment":       req.Name,
		"presentation_request": map[string]interface{}{
			"indy": req,
		},
	}

	var out map[string]interface{}
	if err := r.do(ctx, call{name: SendProofRequest, body: body, out: &out}); err != nil {
		return "", err
	}

	return ProbeString(out, PresExIDPaths...), nil
}

func (r *Client) VerifyPresentation(ctx context.Context, presExID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := r.do(ctx, call{
		name:   VerifyPresentation,
		params: map[string]string{"pres_ex_id": presExID},
		body:   struct{}{},
		out:    &out,
	})
	return out, err
}

func (r *Client) GetProofRecord(ctx context.Context, presExID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := r.do(ctx, call{name: GetProofRecord, params: map[string]string{"pres_ex_id": presExID}, out: &out})
	return out, err
}

func (r *Client) ProofProblemReport(ctx context.Context, presExID, description string) error {
	return r.proofAction(ctx, ProofProblemReport, presExID, map[string]string{"description": description})
}

func (r *Client) DeleteProofRecord(ctx context.Context, presExID string) error {
	return r.proofAction(ctx, DeleteProofRecord, presExID, nil)
}

func (r *Client) proofAction(ctx context.Context, name, presExID string, body interface{}) error {
	return r.do(ctx, call{name: name, params: map[string]string{"pres_ex_id": presExID}, body: body})
}

func (r *Client) SchemasCreated(ctx context.Context, name string) ([]string, error) {
	out := struct {
		IDs []string `json:"schema_ids"`
	}{}
	err := r.do(ctx, call{name: SchemasCreated, query: url.Values{"schema_name": {name}}, out: &out})
	return out.IDs, err
}

func (r *Client) CreateSchema(ctx context.Context, name, version string, attributes []string) (string, error) {
	body := map[string]interface{}{
		"schema_name":    name,
		"schema_version": version,
		"attributes":     attributes,
	}

	var out map[string]interface{}
	if err := r.do(ctx, call{name: CreateSchema, body: body, out: &out}); err != nil {
		return "", err
	}

	id := ProbeString(out, "$.schema_id", "$.sent.schema_id")
	if id == "" {
		return "", errs.New(errs.TransientAgentFailure, "agent did not return a schema id for %s", name)
	}
	return id, nil
}

func (r *Client) CredDefsCreated(ctx context.Context, schemaID string) ([]string, error) {
	out := struct {
		IDs []string `json:"credential_definition_ids"`
	}{}
	err := r.do(ctx, call{name: CredDefsCreated, query: url.Values{"schema_id": {schemaID}}, out: &out})
	return out.IDs, err
}

func (r *Client) CreateCredDef(ctx context.Context, schemaID, tag string) (string, error) {
	body := map[string]interface{}{
		"schema_id":          schemaID,
		"tag":                tag,
		"support_revocation": false,
	}

	var out map[string]interface{}
	if err := r.do(ctx, call{name: CreateCredDef, body: body, out: &out}); err != nil {
		return "", err
	}

	id := ProbeString(out, "$.credential_definition_id", "$.sent.credential_definition_id")
	if id == "" {
		return "", errs.New(errs.TransientAgentFailure, "agent did not return a credential definition id for %s", schemaID)
	}
	return id, nil
}

func (r *Client) RegisterNym(ctx context.Context, nym *Nym) error {
	q := url.Values{"did": {nym.DID}, "verkey": {nym.Verkey}}
	if nym.Alias != "" {
		q.Set("alias", nym.Alias)
	}
	if nym.Role != "" {
		q.Set("role", nym.Role)
	}

	return r.do(ctx, call{name: RegisterNym, query: q})
}

func (r *Client) EndorseTransaction(ctx context.Context, transactionID string) error {
	return r.do(ctx, call{name: EndorseTransaction, params: map[string]string{"tran_id": transactionID}})
}
