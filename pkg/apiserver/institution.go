/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package apiserver

import (
	"encoding/base64"
	"net/http"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/schema"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

const qrSize = 256

type InvitationResponse struct {
	Invitation    map[string]interface{} `json:"invitation"`
	InvitationURL string                 `json:"invitation_url"`
	ConnectionID  string                 `json:"connection_id,omitempty"`
	QRPNG         string                 `json:"qr_png"`
}

func (r *APIServer) createInvitation(w http.ResponseWriter, req *http.Request) {
	body := struct {
		Alias string `json:"alias"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	inv, err := r.agent.CreateInvitation(req.Context(), body.Alias)
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := qrcode.Encode(inv.URL, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, errors.Wrap(err, "unable to render invitation QR code"))
		return
	}

	util.WriteJSON(w, http.StatusOK, &InvitationResponse{
		Invitation:    inv.Invitation,
		InvitationURL: inv.URL,
		ConnectionID:  inv.ConnectionID,
		QRPNG:         base64.StdEncoding.EncodeToString(png),
	})
}

func (r *APIServer) setRegulatorConnection(w http.ResponseWriter, req *http.Request) {
	body := struct {
		ConnectionID string `json:"connection_id"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := r.conns.SetAlias(connection.RegulatorAlias, body.ConnectionID); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"alias": connection.RegulatorAlias, "connection_id": body.ConnectionID})
}

func (r *APIServer) registerDID(w http.ResponseWriter, req *http.Request) {
	body := struct {
		Alias string `json:"alias"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	reg, err := r.permissions.RegisterInstitutionDID(req.Context(), body.Alias)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, reg)
}

func (r *APIServer) requestPermission(w http.ResponseWriter, req *http.Request) {
	body := struct {
		VCType string `json:"vc_type"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	res, err := r.permissions.RequestPermission(req.Context(), body.VCType)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, res)
}

func (r *APIServer) listPermissions(w http.ResponseWriter, _ *http.Request) {
	perms, err := r.permissions.ListPermissions()
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"permissions": perms, "suspended": r.permissions.Suspended()})
}

func (r *APIServer) listPermissionRequests(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": r.permissions.ListRequests()})
}

func (r *APIServer) createSchema(w http.ResponseWriter, req *http.Request) {
	body := struct {
		VCType     string   `json:"vc_type"`
		Name       string   `json:"schema_name"`
		Version    string   `json:"schema_version"`
		Attributes []string `json:"attributes"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	if body.VCType == "" || body.Name == "" || len(body.Attributes) == 0 {
		writeError(w, errs.New(errs.ValidationError, "vc_type, schema_name and attributes are required"))
		return
	}

	res, err := r.permissions.CreateSchemaAndCredDef(req.Context(), body.VCType, body.Name, body.Version, body.Attributes)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, res)
}

func (r *APIServer) offerCredential(w http.ResponseWriter, req *http.Request) {
	body := struct {
		ConnectionID string            `json:"connection_id"`
		VCType       string            `json:"vc_type"`
		CredDefID    string            `json:"cred_def_id"`
		Attributes   map[string]string `json:"attributes"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	iss, err := r.issuer.OfferCredential(req.Context(), body.ConnectionID, body.VCType, body.CredDefID, body.Attributes)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, iss)
}

func (r *APIServer) listIssuances(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"issuances": r.issuer.Issuances()})
}

func (r *APIServer) requestProof(w http.ResponseWriter, req *http.Request) {
	body := struct {
		ConnectionID string                   `json:"connection_id"`
		ProofRequest *schema.IndyProofRequest `json:"proof_request"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	x, err := r.verifier.RequestProof(req.Context(), body.ConnectionID, body.ProofRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, x)
}

func (r *APIServer) listProofs(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"exchanges": r.verifier.Exchanges()})
}

func (r *APIServer) getProof(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")

	x, ok := r.verifier.Get(id)
	if !ok {
		writeError(w, errs.New(errs.NotFound, "no presentation exchange %s", id))
		return
	}

	util.WriteJSON(w, http.StatusOK, x)
}
