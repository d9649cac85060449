/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package regulator keeps the registry of medical institutions, writes their
// nyms, and reviews their credential type and schema requests.
package regulator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/did"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/issuer"
	"github.com/caduceus-vc/caduceus/pkg/message"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

var logger = log.New("caduceus/regulator")

// MedicalRoles maps institution types to the ledger role written with their nym.
var MedicalRoles = map[datastore.EntityType]string{
	datastore.Hospital: "ENDORSER",
	datastore.Clinic:   "TRUST_ANCHOR",
	datastore.Lab:      "NETWORK_MONITOR",
	datastore.Pharmacy: "USER",
}

const DefaultReviewTime = "3 business days"

type Config struct {
	PermissionCredDefID string
	AutoEndorse         bool
	ReviewTime          string
}

// Connections resolves an institution DID to its connection.
type Connections interface {
	Lookup(key string) (string, bool)
}

type Regulator struct {
	agent  gateway.Agent
	store  datastore.Store
	conns  Connections
	issuer *issuer.Issuer
	events notifier.Publisher
	cfg    Config
	now    func() time.Time
	locks  *util.KeyedMutex
}

func New(agent gateway.Agent, store datastore.Store, conns Connections, iss *issuer.Issuer, events notifier.Publisher, cfg Config) *Regulator {
	if cfg.ReviewTime == "" {
		cfg.ReviewTime = DefaultReviewTime
	}

	return &Regulator{
		agent:  agent,
		store:  store,
		conns:  conns,
		issuer: iss,
		events: events,
		cfg:    cfg,
		now:    time.Now,
		locks:  util.NewKeyedMutex(),
	}
}

type EntityRegistration struct {
	Name    string               `json:"institution_name"`
	License string               `json:"license_number"`
	Type    datastore.EntityType `json:"institution_type"`
	Email   string               `json:"contact_email"`
}

type RegisteredEntity struct {
	ID     string `json:"institution_id"`
	DID    string `json:"did"`
	Verkey string `json:"verkey"`
	Seed   string `json:"seed"`
	Role   string `json:"role"`
}

// RegisterEntity derives a DID for a new institution, writes its nym with the
// role of its type and records it as ACTIVE.
func (r *Regulator) RegisterEntity(ctx context.Context, reg *EntityRegistration) (*RegisteredEntity, error) {
	if reg == nil || reg.Name == "" || reg.License == "" || reg.Type == "" {
		return nil, errs.New(errs.ValidationError, "institution_name, license_number and institution_type are required")
	}

	reg.Type = datastore.EntityType(strings.ToUpper(string(reg.Type)))
	role, ok := MedicalRoles[reg.Type]
	if !ok {
		return nil, errs.New(errs.ValidationError, "unknown institution_type %s", reg.Type)
	}

	_, err := r.store.GetEntityByLicense(reg.License)
	switch {
	case err == nil:
		return nil, errs.New(errs.ValidationError, "license %s is already registered", reg.License)
	case !errs.Is(err, errs.NotFound):
		return nil, errors.Wrap(err, "unable to check license")
	}

	now := r.now()
	seed := did.SeedFor(reg.License, reg.Name, strconv.FormatInt(now.Unix(), 10))

	d, _, err := did.CreateMyDid(&did.MyDIDInfo{Seed: seed, Cid: true})
	if err != nil {
		return nil, errors.Wrap(err, "unable to derive institution DID")
	}

	err = r.agent.RegisterNym(ctx, &gateway.Nym{
		DID:    d.DIDVal.DID,
		Verkey: d.Verkey,
		Alias:  reg.Name,
		Role:   role,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to register nym for %s", reg.Name)
	}

	ent := &datastore.Entity{
		ID:                 uuid.New().String(),
		Name:               reg.Name,
		DID:                d.DIDVal.DID,
		Verkey:             d.Verkey,
		Role:               role,
		Type:               reg.Type,
		License:            reg.License,
		Email:              reg.Email,
		Status:             datastore.EntityActive,
		AllowedCredentials: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := r.store.InsertEntity(ent); err != nil {
		return nil, errors.Wrapf(err, "unable to save institution %s", reg.Name)
	}

	logger.Infof("registered %s %s as %s with role %s", reg.Type, reg.Name, ent.DID, role)
	notifier.Emit(r.events, notifier.TopicRegistry, "entity-registered", ent)

	return &RegisteredEntity{ID: ent.ID, DID: ent.DID, Verkey: ent.Verkey, Seed: seed, Role: role}, nil
}

func (r *Regulator) ListEntities(c *datastore.EntityCriteria) (*datastore.EntityList, error) {
	return r.store.ListEntities(c)
}

func (r *Regulator) GetEntity(id string) (*datastore.Entity, error) {
	return r.store.GetEntity(id)
}

// SetEntityStatus changes an institution's standing and tells it so.
func (r *Regulator) SetEntityStatus(ctx context.Context, id string, status datastore.EntityStatus, reason string) (*datastore.Entity, error) {
	status = datastore.EntityStatus(strings.ToUpper(string(status)))
	if !status.Valid() {
		return nil, errs.New(errs.ValidationError, "invalid status %s", status)
	}

	ent, err := r.store.GetEntity(id)
	if err != nil {
		return nil, err
	}

	if ent.Status == status {
		return ent, nil
	}

	ent.Status = status
	ent.StatusReason = reason
	ent.UpdatedAt = r.now()
	if err := r.store.UpdateEntity(ent); err != nil {
		return nil, errors.Wrapf(err, "unable to update institution %s", id)
	}

	switch status {
	case datastore.EntitySuspended:
		r.notify(ctx, ent, message.InstitutionSuspended, map[string]interface{}{"reason": reason})
	case datastore.EntityActive:
		r.notify(ctx, ent, message.InstitutionActivated, map[string]interface{}{"reason": reason})
	case datastore.EntityRevoked:
		logger.Warnf("institution %s revoked: %s", ent.DID, reason)
	}

	notifier.Emit(r.events, notifier.TopicRegistry, "entity-"+strings.ToLower(string(status)), ent)
	return ent, nil
}

// BindConnection links an active connection to the institution owning its
// peer DID. It runs for every Active notification.
func (r *Regulator) BindConnection(_ context.Context, c *connection.Connection) error {
	if c.PeerDID == "" {
		return nil
	}

	ent, err := r.store.GetEntityByDID(did.Normalize(c.PeerDID))
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil
		}
		return errors.Wrapf(err, "unable to look up institution %s", c.PeerDID)
	}

	return r.bind(ent, c.ID)
}

func (r *Regulator) bind(ent *datastore.Entity, connectionID string) error {
	if connectionID == "" || ent.ConnectionID == connectionID {
		return nil
	}

	ent.ConnectionID = connectionID
	ent.UpdatedAt = r.now()
	if err := r.store.UpdateEntity(ent); err != nil {
		return errors.Wrapf(err, "unable to bind connection %s to %s", connectionID, ent.DID)
	}

	logger.Infof("institution %s reachable on connection %s", ent.DID, connectionID)
	return nil
}

type PermissionCheck struct {
	Authorized bool   `json:"authorized"`
	VCType     string `json:"vc_type"`
	Reason     string `json:"reason"`
}

// VerifyInstitutionPermission reports whether institutionDID may issue vcType.
func (r *Regulator) VerifyInstitutionPermission(institutionDID, vcType string) (*PermissionCheck, error) {
	if institutionDID == "" || vcType == "" {
		return nil, errs.New(errs.ValidationError, "hospital_did and credential_type are required")
	}

	out := &PermissionCheck{VCType: vcType}

	ent, err := r.store.GetEntityByDID(did.Normalize(institutionDID))
	switch {
	case errs.Is(err, errs.NotFound):
		out.Reason = "institution is not registered"
		return out, nil
	case err != nil:
		return nil, errors.Wrapf(err, "unable to look up institution %s", institutionDID)
	}

	switch {
	case ent.Status != datastore.EntityActive:
		out.Reason = "institution is " + strings.ToLower(string(ent.Status))
	case !ent.CanIssue(vcType):
		out.Reason = "institution has no permission for this credential type"
	default:
		out.Authorized = true
		out.Reason = "institution may issue this credential type"
	}

	return out, nil
}

// notify sends a regulator notification and reports whether it went out.
// Delivery problems never fail the decision that triggered them.
func (r *Regulator) notify(ctx context.Context, ent *datastore.Entity, t message.Type, data map[string]interface{}) bool {
	connID := ent.ConnectionID
	if connID == "" {
		var ok bool
		if connID, ok = r.conns.Lookup(ent.DID); !ok {
			logger.Warnf("no connection to %s, %s not delivered", ent.DID, t)
			return false
		}
	}

	if err := r.send(ctx, connID, message.Notification(t, data)); err != nil {
		logger.Errorf("unable to notify %s of %s: %v", ent.DID, t, err)
		return false
	}

	logger.Infof("notified %s: %s", ent.DID, t)
	return true
}

func (r *Regulator) send(ctx context.Context, connectionID string, env *message.Envelope) error {
	content, err := env.Content()
	if err != nil {
		return err
	}
	return errors.Wrapf(r.agent.SendMessage(ctx, connectionID, content), "unable to send %s", env.Type)
}

type CredDefCheck struct {
	Verified  bool   `json:"verified"`
	CredDefID string `json:"cred_def_id"`
	IssuerDID string `json:"issuer_did"`
	Reason    string `json:"reason,omitempty"`
}

// VerifyCredentialDefinition confirms credDefID was published by an active
// registered institution. Indy cred def ids lead with the issuer's nym.
func (r *Regulator) VerifyCredentialDefinition(issuerDID, credDefID string) (*CredDefCheck, error) {
	if issuerDID == "" || credDefID == "" {
		return nil, errs.New(errs.ValidationError, "issuer_did and cred_def_id are required")
	}

	nym := did.Normalize(issuerDID)
	out := &CredDefCheck{CredDefID: credDefID, IssuerDID: nym}

	ent, err := r.store.GetEntityByDID(nym)
	switch {
	case errs.Is(err, errs.NotFound):
		out.Reason = "institution is not registered"
		return out, nil
	case err != nil:
		return nil, errors.Wrapf(err, "unable to look up institution %s", issuerDID)
	}

	switch {
	case ent.Status != datastore.EntityActive:
		out.Reason = "institution is " + strings.ToLower(string(ent.Status))
	case !strings.HasPrefix(credDefID, nym+":3:CL:"):
		out.Reason = "credential definition was not published by this institution"
	default:
		out.Verified = true
	}

	return out, nil
}
