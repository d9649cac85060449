/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Endpoint names. Each one can be overridden in configuration under
// agent.endpoints.<name> so that other admin API versions can be targeted.
const (
	AcceptConnection        = "AcceptConnection"
	CreateInvitation        = "CreateInvitation"
	ReceiveInvitation       = "ReceiveInvitation"
	CreateLocalDID          = "CreateLocalDID"
	SetPublicDID            = "SetPublicDID"
	ListCredentials         = "ListCredentials"
	SendMessage             = "SendMessage"
	SendCredentialRequest   = "SendCredentialRequest"
	GetCredentialRecord     = "GetCredentialRecord"
	SendOffer               = "SendOffer"
	IssueCredential         = "IssueCredential"
	StoreCredential         = "StoreCredential"
	CredentialProblemReport = "CredentialProblemReport"
	DeleteCredentialRecord  = "DeleteCredentialRecord"
	GetProofCredentials     = "GetProofCredentials"
	SendPresentation        = "SendPresentation"
	SendProofRequest        = "SendProofRequest"
	VerifyPresentation      = "VerifyPresentation"
	GetProofRecord          = "GetProofRecord"
	ProofProblemReport      = "ProofProblemReport"
	DeleteProofRecord       = "DeleteProofRecord"
	SchemasCreated          = "SchemasCreated"
	CreateSchema            = "CreateSchema"
	CredDefsCreated         = "CredDefsCreated"
	CreateCredDef           = "CreateCredDef"
	RegisterNym             = "RegisterNym"
	EndorseTransaction      = "EndorseTransaction"
)

type Endpoint struct {
	Method string `mapstructure:"method"`
	Path   string `mapstructure:"path"`
}

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Expand substitutes {name} placeholders with escaped values from params.
func (r Endpoint) Expand(params map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(r.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})

	if len(missing) > 0 {
		return "", errors.Errorf("missing path parameters %s for %s", strings.Join(missing, ","), r.Path)
	}

	return out, nil
}

const (
	credV2  = "/issue-credential-2.0/records/{cred_ex_id}"
	proofV2 = "/present-proof-2.0/records/{pres_ex_id}"
)

// DefaultEndpoints targets the ACA-Py 0.8+ admin API.
func DefaultEndpoints() map[string]Endpoint {
	post := func(p string) Endpoint { return Endpoint{Method: http.MethodPost, Path: p} }
	get := func(p string) Endpoint { return Endpoint{Method: http.MethodGet, Path: p} }
	del := func(p string) Endpoint { return Endpoint{Method: http.MethodDelete, Path: p} }

	return map[string]Endpoint{
		AcceptConnection:        post("/connections/{conn_id}/accept-request"),
		CreateInvitation:        post("/out-of-band/create-invitation"),
		ReceiveInvitation:       post("/out-of-band/receive-invitation"),
		CreateLocalDID:          post("/wallet/did/create"),
		SetPublicDID:            post("/wallet/did/public"),
		ListCredentials:         get("/credentials"),
		SendMessage:             post("/connections/{conn_id}/send-message"),
		SendCredentialRequest:   post(credV2 + "/send-request"),
		GetCredentialRecord:     get(credV2),
		SendOffer:               post("/issue-credential-2.0/send-offer"),
		IssueCredential:         post(credV2 + "/issue"),
		StoreCredential:         post(credV2 + "/store"),
		CredentialProblemReport: post(credV2 + "/problem-report"),
		DeleteCredentialRecord:  del(credV2),
		GetProofCredentials:     get(proofV2 + "/credentials"),
		SendPresentation:        post(proofV2 + "/send-presentation"),
		SendProofRequest:        post("/present-proof-2.0/send-request"),
		VerifyPresentation:      post(proofV2 + "/verify-presentation"),
		GetProofRecord:          get(proofV2),
		ProofProblemReport:      post(proofV2 + "/problem-report"),
		DeleteProofRecord:       del(proofV2),
		SchemasCreated:          get("/schemas/created"),
		CreateSchema:            post("/schemas"),
		CredDefsCreated:         get("/credential-definitions/created"),
		CreateCredDef:           post("/credential-definitions"),
		RegisterNym:             post("/ledger/register-nym"),
		EndorseTransaction:      post("/transactions/{tran_id}/endorse"),
	}
}

// mergeEndpoints overlays configured overrides on the defaults. Config keys
// arrive lower cased from viper so names are matched case-insensitively, and
// an override may change only the method or only the path.
func mergeEndpoints(overrides map[string]Endpoint) map[string]Endpoint {
	out := DefaultEndpoints()
	if len(overrides) == 0 {
		return out
	}

	byLower := make(map[string]string, len(out))
	for name := range out {
		byLower[strings.ToLower(name)] = name
	}

	for key, ep := range overrides {
		name, ok := byLower[strings.ToLower(key)]
		if !ok {
			logger.Warnf("ignoring override for unknown agent endpoint %s", key)
			continue
		}

		cur := out[name]
		if ep.Path != "" {
			cur.Path = ep.Path
		}
		if ep.Method != "" {
			cur.Method = strings.ToUpper(ep.Method)
		}
		out[name] = cur
	}

	return out
}
