/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package apiserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

type reasonBody struct {
	Reason string `json:"reason"`
}

// invitationFrom accepts a bare invitation, {"invitation": {...}} or
// {"invitation_url": "...?oob=..."}.
func invitationFrom(body []byte) (json.RawMessage, error) {
	wrapper := struct {
		Invitation json.RawMessage `json:"invitation"`
		URL        string          `json:"invitation_url"`
	}{}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, errs.Wrap(errs.ValidationError, err, "invitation is not JSON")
	}

	switch {
	case len(wrapper.Invitation) > 0:
		return wrapper.Invitation, nil
	case wrapper.URL != "":
		return decodeInvitationURL(wrapper.URL)
	default:
		return body, nil
	}
}

func decodeInvitationURL(raw string) (json.RawMessage, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ValidationError, err, "invalid invitation_url")
	}

	for _, k := range []string{"oob", "c_i"} {
		v := u.Query().Get(k)
		if v == "" {
			continue
		}

		v = strings.TrimRight(v, "=")
		d, err := base64.RawURLEncoding.DecodeString(v)
		if err != nil {
			if d, err = base64.RawStdEncoding.DecodeString(v); err != nil {
				return nil, errs.Wrap(errs.ValidationError, err, "invitation_url payload is not base64")
			}
		}
		return d, nil
	}

	return nil, errs.New(errs.ValidationError, "invitation_url carries no oob or c_i parameter")
}

func (r *APIServer) listInvitations(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"invitations": r.gate.Invitations()})
}

func (r *APIServer) stageInvitation(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeError(w, errs.Wrap(errs.ValidationError, err, "unable to read invitation"))
		return
	}

	raw, err := invitationFrom(body)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := r.gate.StageInvitation(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, entry)
}

func (r *APIServer) acceptInvitation(w http.ResponseWriter, req *http.Request) {
	rec, err := r.gate.AcceptInvitation(req.Context(), pat.Param(req, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, rec)
}

func (r *APIServer) rejectInvitation(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")
	if err := r.gate.RejectInvitation(id); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "rejected"})
}

func (r *APIServer) listOffers(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"offers": r.gate.Offers()})
}

func (r *APIServer) acceptOffer(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")
	if err := r.gate.AcceptOffer(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "accepted"})
}

func (r *APIServer) rejectOffer(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")

	body := reasonBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := r.gate.RejectOffer(req.Context(), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "rejected"})
}

func (r *APIServer) listProofRequests(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"proofs": r.gate.Proofs()})
}

func (r *APIServer) acceptProof(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")
	if err := r.gate.AcceptProof(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "presented"})
}

func (r *APIServer) rejectProof(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")

	body := reasonBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := r.gate.RejectProof(req.Context(), id, body.Reason); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "rejected"})
}

func (r *APIServer) listCredentials(w http.ResponseWriter, req *http.Request) {
	creds, err := r.gate.ListCredentials(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"results": creds})
}

func (r *APIServer) emergency(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, r.gate.Emergency())
}

func (r *APIServer) enableEmergency(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, r.gate.EnableEmergency())
}

func (r *APIServer) disableEmergency(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, r.gate.DisableEmergency())
}
