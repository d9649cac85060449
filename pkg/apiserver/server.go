/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package apiserver exposes the coordinator's webhook receiver and the
// operator routes of each role over HTTP.
package apiserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"
	goji "goji.io"
	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/consent"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/issuer"
	"github.com/caduceus-vc/caduceus/pkg/permission"
	"github.com/caduceus-vc/caduceus/pkg/regulator"
	"github.com/caduceus-vc/caduceus/pkg/util"
	"github.com/caduceus-vc/caduceus/pkg/verifier"
	"github.com/caduceus-vc/caduceus/pkg/webhook"
)

var logger = log.New("caduceus/apiserver")

type Role string

const (
	Institution Role = "institution"
	Holder      Role = "holder"
	Regulator   Role = "regulator"
)

func (r Role) Valid() bool {
	switch r {
	case Institution, Holder, Regulator:
		return true
	}
	return false
}

type APIServer struct {
	role        Role
	agent       gateway.Agent
	dispatcher  *webhook.Dispatcher
	conns       *connection.Tracker
	permissions *permission.Workflow
	issuer      *issuer.Issuer
	verifier    *verifier.Verifier
	gate        *consent.Gate
	regulator   *regulator.Regulator
}

type provider interface {
	Role() Role
	Agent() gateway.Agent
	Dispatcher() *webhook.Dispatcher
	Connections() *connection.Tracker
	Permissions() (*permission.Workflow, error)
	Issuer() (*issuer.Issuer, error)
	Verifier() (*verifier.Verifier, error)
	ConsentGate() (*consent.Gate, error)
	Regulator() (*regulator.Regulator, error)
}

func New(ctx provider) (*APIServer, error) {
	r := &APIServer{
		role:       ctx.Role(),
		agent:      ctx.Agent(),
		dispatcher: ctx.Dispatcher(),
		conns:      ctx.Connections(),
	}

	if !r.role.Valid() {
		return nil, errors.Errorf("unknown role %q", r.role)
	}

	var err error
	switch r.role {
	case Institution:
		if r.permissions, err = ctx.Permissions(); err != nil {
			return nil, errors.Wrap(err, "unable to get permission workflow")
		}
		if r.issuer, err = ctx.Issuer(); err != nil {
			return nil, errors.Wrap(err, "unable to get issuer")
		}
		if r.verifier, err = ctx.Verifier(); err != nil {
			return nil, errors.Wrap(err, "unable to get verifier")
		}
	case Holder:
		if r.gate, err = ctx.ConsentGate(); err != nil {
			return nil, errors.Wrap(err, "unable to get consent gate")
		}
	case Regulator:
		if r.regulator, err = ctx.Regulator(); err != nil {
			return nil, errors.Wrap(err, "unable to get regulator")
		}
	}

	return r, nil
}

// WebhookHandler receives agent webhooks. It is never behind the API key.
func (r *APIServer) WebhookHandler() http.Handler {
	return http.HandlerFunc(r.webhook)
}

func (r *APIServer) webhook(w http.ResponseWriter, req *http.Request) {
	topic := pat.Param(req, "topic")

	body, err := io.ReadAll(req.Body)
	if err != nil {
		util.WriteJSON(w, http.StatusInternalServerError, map[string]string{"status": webhook.Failed.String()})
		return
	}

	outcome := r.dispatcher.Handle(req.Context(), topic, body)
	status := http.StatusOK
	if outcome == webhook.Failed {
		status = http.StatusInternalServerError
	}

	util.WriteJSON(w, status, map[string]string{"status": outcome.String()})
}

// RegisterRoutes mounts the operator routes of the server's role on mux.
func (r *APIServer) RegisterRoutes(mux *goji.Mux) {
	mux.HandleFunc(pat.Get("/connections"), r.listConnections)

	switch r.role {
	case Institution:
		mux.HandleFunc(pat.Post("/invitations"), r.createInvitation)
		mux.HandleFunc(pat.Post("/regulator/connection"), r.setRegulatorConnection)
		mux.HandleFunc(pat.Post("/did/register"), r.registerDID)
		mux.HandleFunc(pat.Post("/permissions/request"), r.requestPermission)
		mux.HandleFunc(pat.Get("/permissions"), r.listPermissions)
		mux.HandleFunc(pat.Get("/permissions/requests"), r.listPermissionRequests)
		mux.HandleFunc(pat.Post("/schemas"), r.createSchema)
		mux.HandleFunc(pat.Post("/credentials/offer"), r.offerCredential)
		mux.HandleFunc(pat.Get("/credentials/issued"), r.listIssuances)
		mux.HandleFunc(pat.Post("/proofs/request"), r.requestProof)
		mux.HandleFunc(pat.Get("/proofs"), r.listProofs)
		mux.HandleFunc(pat.Get("/proofs/:id"), r.getProof)
	case Holder:
		mux.HandleFunc(pat.Get("/pending/invitations"), r.listInvitations)
		mux.HandleFunc(pat.Post("/pending/invitations"), r.stageInvitation)
		mux.HandleFunc(pat.Post("/pending/invitations/:id/accept"), r.acceptInvitation)
		mux.HandleFunc(pat.Post("/pending/invitations/:id/reject"), r.rejectInvitation)
		mux.HandleFunc(pat.Get("/pending/offers"), r.listOffers)
		mux.HandleFunc(pat.Post("/pending/offers/:id/accept"), r.acceptOffer)
		mux.HandleFunc(pat.Post("/pending/offers/:id/reject"), r.rejectOffer)
		mux.HandleFunc(pat.Get("/pending/proofs"), r.listProofRequests)
		mux.HandleFunc(pat.Post("/pending/proofs/:id/accept"), r.acceptProof)
		mux.HandleFunc(pat.Post("/pending/proofs/:id/reject"), r.rejectProof)
		mux.HandleFunc(pat.Get("/credentials"), r.listCredentials)
		mux.HandleFunc(pat.Get("/emergency"), r.emergency)
		mux.HandleFunc(pat.Post("/emergency/enable"), r.enableEmergency)
		mux.HandleFunc(pat.Post("/emergency/disable"), r.disableEmergency)
	case Regulator:
		mux.HandleFunc(pat.Post("/invitations"), r.createInvitation)
		mux.HandleFunc(pat.Post("/entities"), r.registerEntity)
		mux.HandleFunc(pat.Get("/entities"), r.listEntities)
		mux.HandleFunc(pat.Get("/entities/:id"), r.getEntity)
		mux.HandleFunc(pat.Put("/entities/:id/status"), r.setEntityStatus)
		mux.HandleFunc(pat.Get("/issuance-requests"), r.listIssuanceRequests)
		mux.HandleFunc(pat.Post("/issuance-requests/:id/approve"), r.approveIssuance)
		mux.HandleFunc(pat.Post("/issuance-requests/:id/reject"), r.rejectIssuance)
		mux.HandleFunc(pat.Get("/modification-requests"), r.listModificationRequests)
		mux.HandleFunc(pat.Post("/modification-requests"), r.submitModification)
		mux.HandleFunc(pat.Post("/modification-requests/:id/approve"), r.approveModification)
		mux.HandleFunc(pat.Post("/modification-requests/:id/reject"), r.rejectModification)
		mux.HandleFunc(pat.Post("/verify-institution-permission"), r.verifyInstitutionPermission)
		mux.HandleFunc(pat.Post("/verify-credential-definition"), r.verifyCredentialDefinition)
		mux.HandleFunc(pat.Post("/endorsements/:id/endorse"), r.endorse)
	}
}

// StatusFor maps an error kind to the HTTP status returned to operators.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ValidationError:
		return http.StatusBadRequest
	case errs.NotAuthorized:
		return http.StatusForbidden
	case errs.NotFound:
		return http.StatusNotFound
	case errs.PartialDisclosureImpossible:
		return http.StatusConflict
	case errs.TransientAgentFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("operator request failed: %v", err)
	}
	util.WriteError(w, status, err.Error())
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(req *http.Request, v interface{}) error {
	err := json.NewDecoder(req.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errs.Wrap(errs.ValidationError, err, "invalid request body")
}

func (r *APIServer) listConnections(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"connections": r.conns.List(),
		"aliases":     r.conns.Aliases(),
	})
}
