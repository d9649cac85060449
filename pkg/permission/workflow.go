/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package permission runs the institution side of the regulator handshake:
// public DID registration, credential type permission requests, and the
// permission-gated creation of schemas and credential definitions.
package permission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/message"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
)

var logger = log.New("caduceus/permission")

const DefaultSchemaVersion = "1.0"

// Preview attribute names that carry the granted credential type.
var vcTypeNames = []string{"vc_type", "credential_type", "type"}

type Status string

const (
	Sent          Status = "Sent"
	PendingReview Status = "PendingReview"
	Approved      Status = "Approved"
	Rejected      Status = "Rejected"
	FailedToSend  Status = "FailedToSend"
)

// Request is a permission request sent to the regulator by this process.
type Request struct {
	RequestID string    `json:"request_id"`
	VCType    string    `json:"vc_type"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Registration struct {
	DID    string `json:"did"`
	Verkey string `json:"verkey"`
}

type RequestResult struct {
	RequestID         string `json:"request_id,omitempty"`
	AlreadyAuthorized bool   `json:"already_authorized"`
}

type SchemaResult struct {
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
}

// Regulator resolves the regulator connection.
type Regulator interface {
	Regulator() (string, error)
	IsRegulator(connectionID string) bool
}

type Config struct {
	// DIDSeed is passed to the agent when the local DID is created.
	DIDSeed string
}

type Workflow struct {
	agent     gateway.Agent
	store     datastore.Store
	regulator Regulator
	events    notifier.Publisher
	cfg       Config
	now       func() time.Time

	lock      sync.RWMutex
	requests  map[string]*Request
	suspended bool
}

func New(agent gateway.Agent, store datastore.Store, regulator Regulator, events notifier.Publisher, cfg Config) *Workflow {
	return &Workflow{
		agent:     agent,
		store:     store,
		regulator: regulator,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
		requests:  map[string]*Request{},
	}
}

// RegisterInstitutionDID creates a local DID and asks the regulator to write
// it to the ledger. The DID stays provisional until the approval arrives.
func (r *Workflow) RegisterInstitutionDID(ctx context.Context, alias string) (*Registration, error) {
	connID, err := r.regulator.Regulator()
	if err != nil {
		return nil, err
	}

	info, err := r.agent.CreateLocalDID(ctx, r.cfg.DIDSeed)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create local DID")
	}

	err = r.store.UpsertInstitution(&datastore.Institution{
		DID:       info.DID,
		Verkey:    info.Verkey,
		Alias:     alias,
		CreatedAt: r.now(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to save institution DID %s", info.DID)
	}

	err = r.send(ctx, connID, message.New(message.DIDRegistrationRequest, map[string]interface{}{
		"hospital_did": info.DID,
		"verkey":       info.Verkey,
		"alias":        alias,
	}))
	if err != nil {
		return nil, err
	}

	logger.Infof("requested registration of %s (%s)", info.DID, alias)
	return &Registration{DID: info.DID, Verkey: info.Verkey}, nil
}

// RequestPermission asks the regulator for permission to use vcType, unless a
// grant is already on record.
func (r *Workflow) RequestPermission(ctx context.Context, vcType string) (*RequestResult, error) {
	if vcType == "" {
		return nil, errs.New(errs.ValidationError, "credential_type is required")
	}

	ok, err := r.store.HasPermission(vcType)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to check permission for %s", vcType)
	}
	if ok {
		return &RequestResult{AlreadyAuthorized: true}, nil
	}

	connID, err := r.regulator.Regulator()
	if err != nil {
		return nil, err
	}

	var did string
	inst, err := r.store.GetPublicInstitution()
	switch {
	case err == nil:
		did = inst.DID
	case errs.Is(err, errs.NotFound):
		logger.Warnf("requesting %s before the institution DID is public", vcType)
	default:
		return nil, errors.Wrap(err, "unable to load institution DID")
	}

	req := &Request{
		RequestID: uuid.New().String(),
		VCType:    vcType,
		Status:    Sent,
		CreatedAt: r.now(),
		UpdatedAt: r.now(),
	}

	r.lock.Lock()
	r.requests[req.RequestID] = req
	r.lock.Unlock()

	err = r.send(ctx, connID, message.New(message.PermissionRequest, map[string]interface{}{
		"request_id":      req.RequestID,
		"credential_type": vcType,
		"hospital_did":    did,
	}))
	if err != nil {
		r.mark(req.RequestID, FailedToSend, err.Error())
		return nil, errs.Wrap(errs.TransientAgentFailure, err, "permission request not delivered")
	}

	return &RequestResult{RequestID: req.RequestID}, nil
}

// HandleMessage applies a structured message received on connectionID.
// Only the regulator connection is trusted.
func (r *Workflow) HandleMessage(ctx context.Context, connectionID string, env *message.Envelope) error {
	if !r.regulator.IsRegulator(connectionID) {
		logger.Warnf("ignoring %s from non-regulator connection %s", env.Type, connectionID)
		return nil
	}

	switch env.Type {
	case message.DIDRegistrationApproved:
		return r.publishDID(ctx, env)
	case message.DIDRegistrationRejected:
		logger.Warnf("DID registration rejected: %s", reason(env))
	case message.PermissionRequestReceived, message.IssuanceRequestReceived:
		r.mark(env.String("request_id"), PendingReview, "")
	case message.PermissionRejected, message.IssuanceRejected:
		r.mark(env.String("request_id"), Rejected, reason(env))
		notifier.Emit(r.events, notifier.TopicPermissions, "rejected", map[string]string{
			"request_id": env.String("request_id"),
			"reason":     reason(env),
		})
	case message.IssuanceApproved:
		r.mark(env.String("request_id"), Approved, "")
	case message.InstitutionSuspended:
		r.setSuspended(true, reason(env))
	case message.InstitutionActivated:
		r.setSuspended(false, reason(env))
	case message.ModificationApproved, message.ModificationRejected:
		logger.Infof("modification request %s: %s", env.String("request_id"), env.Type)
		notifier.Emit(r.events, notifier.TopicRegistry, string(env.Type), env.Fields)
	case message.Error:
		logger.Warnf("regulator reported an error: %s", reason(env))
	case message.DIDRegistrationRequest, message.PermissionRequest, message.IssuanceRequest, message.ModificationRequest:
		logger.Debugf("institution does not serve %s", env.Type)
	}

	return nil
}

func (r *Workflow) publishDID(ctx context.Context, env *message.Envelope) error {
	did := env.String("did")
	if did == "" {
		return errs.New(errs.ValidationError, "%s without did", env.Type)
	}

	inst, err := r.store.GetInstitution(did)
	switch {
	case err == nil && inst.Public:
		logger.Debugf("institution DID %s already public", did)
		return nil
	case err == nil:
	case errs.Is(err, errs.NotFound):
		return errs.New(errs.ValidationError, "approval for %s, which was never requested here", did)
	default:
		return errors.Wrapf(err, "unable to load institution %s", did)
	}

	if vk := env.String("verkey"); vk != "" {
		inst.Verkey = vk
	}
	if err := r.store.UpsertInstitution(inst); err != nil {
		return errors.Wrapf(err, "unable to save institution %s", did)
	}

	if err := r.agent.SetPublicDID(ctx, did); err != nil {
		return errors.Wrapf(err, "unable to set public DID %s", did)
	}

	if err := r.store.SetInstitutionPublic(did); err != nil {
		return errors.Wrapf(err, "unable to mark %s public", did)
	}

	logger.Infof("institution DID %s is public", did)
	notifier.Emit(r.events, notifier.TopicRegistry, "did-public", map[string]string{"did": did})
	return nil
}

// HandleCredentialEvent accepts permission credentials from the regulator
// and records the grant once the credential lands in the wallet.
func (r *Workflow) HandleCredentialEvent(ctx context.Context, e *gateway.Event) error {
	if gateway.ProbeString(e.Payload, "$.role") == "issuer" {
		return nil
	}

	switch e.State {
	case "offer-received":
		if !r.regulator.IsRegulator(e.ConnectionID) {
			logger.Infof("ignoring credential offer %s from connection %s", e.ExchangeID, e.ConnectionID)
			return nil
		}

		if r.granted(e.ExchangeID) {
			return nil
		}
		return errors.Wrapf(r.agent.SendCredentialRequest(ctx, e.ExchangeID), "unable to request permission credential %s", e.ExchangeID)
	case "credential-received":
		if !r.regulator.IsRegulator(e.ConnectionID) {
			return nil
		}
		if err := r.agent.StoreCredential(ctx, e.ExchangeID); err != nil {
			return errors.Wrapf(err, "unable to store permission credential %s", e.ExchangeID)
		}
		return r.grant(ctx, e)
	case "done", "credential-acked":
		if !r.regulator.IsRegulator(e.ConnectionID) {
			return nil
		}
		return r.grant(ctx, e)
	default:
		logger.Debugf("credential exchange %s in state %s", e.ExchangeID, e.State)
	}

	return nil
}

func (r *Workflow) granted(credExID string) bool {
	perms, err := r.store.ListPermissions()
	if err != nil {
		return false
	}
	for _, p := range perms {
		if p.CredExID == credExID {
			return true
		}
	}
	return false
}

func (r *Workflow) grant(ctx context.Context, e *gateway.Event) error {
	record, err := r.agent.GetCredentialRecord(ctx, e.ExchangeID)
	if err != nil {
		if !errs.Is(err, errs.NotFound) {
			return errors.Wrapf(err, "unable to load credential record %s", e.ExchangeID)
		}
		// auto-removed records leave only the webhook payload
		record = e.Payload
	}

	vcType := gateway.PreviewValue(record, vcTypeNames...)
	if vcType == "" {
		vcType = gateway.PreviewValue(e.Payload, vcTypeNames...)
	}
	if vcType == "" {
		logger.Warnf("permission credential %s carries no credential type", e.ExchangeID)
		vcType = datastore.UnknownVCType
	}

	p := &datastore.Permission{
		VCType:       vcType,
		CredExID:     e.ExchangeID,
		CredentialID: gateway.ProbeString(record, "$.indy.cred_id_stored", "$.credential_id", "$.cred_ex_record.credential_id"),
		RawRecord:    record,
		IssuedAt:     r.now(),
	}
	if err := r.store.UpsertPermission(p); err != nil {
		return errors.Wrapf(err, "unable to save permission %s", vcType)
	}

	r.lock.Lock()
	for _, req := range r.requests {
		if req.VCType == vcType && req.Status != Approved {
			req.Status = Approved
			req.UpdatedAt = r.now()
		}
	}
	r.lock.Unlock()

	logger.Infof("permission granted for %s", vcType)
	notifier.Emit(r.events, notifier.TopicPermissions, "granted", p)
	return nil
}

// Authorize fails with NotAuthorized unless vcType was granted and the
// institution is not suspended.
func (r *Workflow) Authorize(vcType string) error {
	if r.Suspended() {
		return errs.New(errs.NotAuthorized, "institution is suspended by the regulator")
	}
	if vcType == datastore.UnknownVCType {
		return errs.New(errs.NotAuthorized, "no regulator permission for %s", vcType)
	}

	ok, err := r.store.HasPermission(vcType)
	if err != nil {
		return errors.Wrapf(err, "unable to check permission for %s", vcType)
	}
	if !ok {
		return errs.New(errs.NotAuthorized, "no regulator permission for %s", vcType)
	}
	return nil
}

// CreateSchemaAndCredDef registers a schema and a credential definition
// tagged vcType. Both are reused when they already exist.
func (r *Workflow) CreateSchemaAndCredDef(ctx context.Context, vcType, name, version string, attributes []string) (*SchemaResult, error) {
	if vcType == "" || name == "" || len(attributes) == 0 {
		return nil, errs.New(errs.ValidationError, "vc_type, schema_name and at least one attribute are required")
	}
	if version == "" {
		version = DefaultSchemaVersion
	}

	if err := r.Authorize(vcType); err != nil {
		return nil, err
	}

	schemaID, err := r.findOrCreateSchema(ctx, name, version, attributes)
	if err != nil {
		return nil, err
	}

	credDefs, err := r.agent.CredDefsCreated(ctx, schemaID)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list credential definitions of %s", schemaID)
	}

	credDefID := ""
	if len(credDefs) > 0 {
		credDefID = credDefs[0]
	} else {
		credDefID, err = r.agent.CreateCredDef(ctx, schemaID, vcType)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to create credential definition for %s", schemaID)
		}
	}

	logger.Infof("%s backed by schema %s and credential definition %s", vcType, schemaID, credDefID)
	return &SchemaResult{SchemaID: schemaID, CredDefID: credDefID}, nil
}

func (r *Workflow) findOrCreateSchema(ctx context.Context, name, version string, attributes []string) (string, error) {
	ids, err := r.agent.SchemasCreated(ctx, name)
	if err != nil {
		return "", errors.Wrapf(err, "unable to list schemas named %s", name)
	}
	if len(ids) > 0 {
		return ids[0], nil
	}

	id, err := r.agent.CreateSchema(ctx, name, version, attributes)
	return id, errors.Wrapf(err, "unable to create schema %s", name)
}

func (r *Workflow) ListPermissions() ([]*datastore.Permission, error) {
	return r.store.ListPermissions()
}

func (r *Workflow) ListRequests() []*Request {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*Request, 0, len(r.requests))
	for _, req := range r.requests {
		cp := *req
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].RequestID < out[j].RequestID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Workflow) Suspended() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.suspended
}

func (r *Workflow) setSuspended(suspended bool, why string) {
	r.lock.Lock()
	r.suspended = suspended
	r.lock.Unlock()

	event := "activated"
	if suspended {
		event = "suspended"
	}
	logger.Warnf("institution %s by the regulator: %s", event, why)
	notifier.Emit(r.events, notifier.TopicRegistry, event, map[string]string{"reason": why})
}

func (r *Workflow) mark(requestID string, status Status, why string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	req, ok := r.requests[requestID]
	if !ok {
		logger.Debugf("status %s for unknown request %q", status, requestID)
		return
	}

	// a granted permission is final
	if req.Status == Approved && status != Approved {
		return
	}

	req.Status = status
	req.Reason = why
	req.UpdatedAt = r.now()
}

func (r *Workflow) send(ctx context.Context, connectionID string, env *message.Envelope) error {
	content, err := env.Content()
	if err != nil {
		return err
	}
	return errors.Wrapf(r.agent.SendMessage(ctx, connectionID, content), "unable to send %s", env.Type)
}

func reason(env *message.Envelope) string {
	for _, k := range []string{"reason", "message", "error"} {
		if s := env.String(k); s != "" {
			return s
		}
	}
	return ""
}
