package apiserver

import (
	"net/http"
	"strconv"

	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/regulator"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

type decisionBody struct {
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approved_by"`
}

func (r *APIServer) registerEntity(w http.ResponseWriter, req *http.Request) {
	body := &regulator.EntityRegistration{}
	if err := decode(req, body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.RegisterEntity(req.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) listEntities(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	start, _ := strconv.Atoi(q.Get("start"))
	size, _ := strconv.Atoi(q.Get("pageSize"))

	list, err := r.regulator.ListEntities(&datastore.EntityCriteria{
		Start:    start,
		PageSize: size,
		Name:     q.Get("name"),
		Status:   datastore.EntityStatus(q.Get("status")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, list)
}

func (r *APIServer) getEntity(w http.ResponseWriter, req *http.Request) {
	ent, err := r.regulator.GetEntity(pat.Param(req, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, ent)
}

func (r *APIServer) setEntityStatus(w http.ResponseWriter, req *http.Request) {
	body := struct {
		Status datastore.EntityStatus `json:"status"`
		Reason string                 `json:"reason"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	ent, err := r.regulator.SetEntityStatus(req.Context(), pat.Param(req, "id"), body.Status, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, ent)
}

func (r *APIServer) listIssuanceRequests(w http.ResponseWriter, req *http.Request) {
	list, err := r.regulator.ListIssuanceRequests(req.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": list})
}

func (r *APIServer) approveIssuance(w http.ResponseWriter, req *http.Request) {
	body := decisionBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	d, err := r.regulator.ApproveIssuance(req.Context(), pat.Param(req, "id"), body.Reason, body.ApprovedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, d)
}

func (r *APIServer) rejectIssuance(w http.ResponseWriter, req *http.Request) {
	body := decisionBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	d, err := r.regulator.RejectIssuance(req.Context(), pat.Param(req, "id"), body.Reason, body.ApprovedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, d)
}

func (r *APIServer) listModificationRequests(w http.ResponseWriter, req *http.Request) {
	list, err := r.regulator.ListModificationRequests(req.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": list})
}

func (r *APIServer) submitModification(w http.ResponseWriter, req *http.Request) {
	body := struct {
		InstitutionDID string                   `json:"hospital_did"`
		Changes        []datastore.SchemaChange `json:"changes"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.SubmitModification(body.InstitutionDID, body.Changes)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) approveModification(w http.ResponseWriter, req *http.Request) {
	body := decisionBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.ApproveModification(req.Context(), pat.Param(req, "id"), body.Reason, body.ApprovedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) rejectModification(w http.ResponseWriter, req *http.Request) {
	body := decisionBody{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.RejectModification(req.Context(), pat.Param(req, "id"), body.Reason, body.ApprovedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) verifyInstitutionPermission(w http.ResponseWriter, req *http.Request) {
	body := struct {
		InstitutionDID string `json:"hospital_did"`
		VCType         string `json:"credential_type"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.VerifyInstitutionPermission(body.InstitutionDID, body.VCType)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) verifyCredentialDefinition(w http.ResponseWriter, req *http.Request) {
	body := struct {
		IssuerDID string `json:"issuer_did"`
		CredDefID string `json:"cred_def_id"`
	}{}
	if err := decode(req, &body); err != nil {
		writeError(w, err)
		return
	}

	out, err := r.regulator.VerifyCredentialDefinition(body.IssuerDID, body.CredDefID)
	if err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, out)
}

func (r *APIServer) endorse(w http.ResponseWriter, req *http.Request) {
	id := pat.Param(req, "id")
	if err := r.regulator.Endorse(req.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]string{"transaction_id": id, "status": "endorsed"})
}
