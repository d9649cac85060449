package regulator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/did"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/message"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
)

// Decision is the outcome of an operator review.
type Decision struct {
	RequestID        string `json:"request_id"`
	VCType           string `json:"credential_type,omitempty"`
	Status           string `json:"status"`
	CredExID         string `json:"cred_ex_id,omitempty"`
	NotificationSent bool   `json:"notification_sent"`
}

// ReceiveIssuanceRequest records a pending request from a registered
// institution. Redelivered requests keep their original state.
func (r *Regulator) ReceiveIssuanceRequest(requestID, institutionDID, vcType, connectionID string) (*datastore.IssuanceRequest, error) {
	if institutionDID == "" || vcType == "" {
		return nil, errs.New(errs.ValidationError, "hospital_did and credential_type are required")
	}

	ent, err := r.store.GetEntityByDID(did.Normalize(institutionDID))
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotFound, "institution %s is not registered", institutionDID)
		}
		return nil, errors.Wrapf(err, "unable to look up institution %s", institutionDID)
	}

	if requestID == "" {
		requestID = uuid.New().String()
	}

	existing, err := r.store.GetIssuanceRequest(requestID)
	switch {
	case err == nil:
		return existing, nil
	case !errs.Is(err, errs.NotFound):
		return nil, errors.Wrapf(err, "unable to load issuance request %s", requestID)
	}

	if err := r.bind(ent, connectionID); err != nil {
		logger.Warnf("%v", err)
	}

	req := &datastore.IssuanceRequest{
		ID:             requestID,
		InstitutionDID: ent.DID,
		VCType:         vcType,
		ConnectionID:   connectionID,
		Status:         datastore.RequestPending,
		CreatedAt:      r.now(),
	}
	if err := r.store.UpsertIssuanceRequest(req); err != nil {
		return nil, errors.Wrapf(err, "unable to save issuance request %s", requestID)
	}

	logger.Infof("issuance request %s from %s for %s", requestID, ent.Name, vcType)
	notifier.Emit(r.events, notifier.TopicPermissions, "request-received", req)
	return req, nil
}

func (r *Regulator) ListIssuanceRequests(status string) ([]*datastore.IssuanceRequest, error) {
	return r.store.ListIssuanceRequests(status)
}

func (r *Regulator) pendingIssuance(id string) (*datastore.IssuanceRequest, error) {
	req, err := r.store.GetIssuanceRequest(id)
	if err != nil {
		return nil, err
	}

	if req.Status != datastore.RequestPending {
		return nil, errs.New(errs.ValidationError, "issuance request %s already processed", id)
	}
	return req, nil
}

// ApproveIssuance grants the requested credential type and issues the
// permission credential to the institution. The request stays pending when
// the offer cannot be sent.
func (r *Regulator) ApproveIssuance(ctx context.Context, id, reason, by string) (*Decision, error) {
	unlock := r.locks.Lock("issuance:" + id)
	defer unlock()

	req, err := r.pendingIssuance(id)
	if err != nil {
		return nil, err
	}

	ent, err := r.store.GetEntityByDID(req.InstitutionDID)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load institution %s", req.InstitutionDID)
	}

	if ent.Status != datastore.EntityActive {
		return nil, errs.New(errs.NotAuthorized, "institution %s is %s", ent.DID, strings.ToLower(string(ent.Status)))
	}

	if r.cfg.PermissionCredDefID == "" {
		return nil, errs.New(errs.ValidationError, "no permission credential definition configured")
	}

	connID := req.ConnectionID
	if connID == "" {
		connID = ent.ConnectionID
	}
	if connID == "" {
		if c, ok := r.conns.Lookup(ent.DID); ok {
			connID = c
		}
	}
	if connID == "" {
		return nil, errs.New(errs.ValidationError, "no connection to institution %s", ent.DID)
	}

	now := r.now()
	iss, err := r.issuer.OfferCredential(ctx, connID, req.VCType, r.cfg.PermissionCredDefID, map[string]string{
		"vc_type":         req.VCType,
		"institution_did": ent.DID,
		"granted_at":      now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to issue permission for request %s", id)
	}

	if ent.Allow(req.VCType) {
		ent.UpdatedAt = now
		if err := r.store.UpdateEntity(ent); err != nil {
			return nil, errors.Wrapf(err, "unable to update institution %s", ent.DID)
		}
	}

	req.Status = datastore.RequestApproved
	req.DecisionReason = reason
	req.DecisionBy = by
	req.CredExID = iss.CredExID
	req.DecidedAt = now
	if err := r.store.UpsertIssuanceRequest(req); err != nil {
		return nil, errors.Wrapf(err, "unable to save issuance request %s", id)
	}

	sent := r.notify(ctx, ent, message.IssuanceApproved, map[string]interface{}{
		"request_id":      id,
		"credential_type": req.VCType,
		"cred_ex_id":      iss.CredExID,
	})

	notifier.Emit(r.events, notifier.TopicPermissions, "approved", req)
	return &Decision{RequestID: id, VCType: req.VCType, Status: req.Status, CredExID: iss.CredExID, NotificationSent: sent}, nil
}

func (r *Regulator) RejectIssuance(ctx context.Context, id, reason, by string) (*Decision, error) {
	unlock := r.locks.Lock("issuance:" + id)
	defer unlock()

	req, err := r.pendingIssuance(id)
	if err != nil {
		return nil, err
	}

	req.Status = datastore.RequestRejected
	req.DecisionReason = reason
	req.DecisionBy = by
	req.DecidedAt = r.now()
	if err := r.store.UpsertIssuanceRequest(req); err != nil {
		return nil, errors.Wrapf(err, "unable to save issuance request %s", id)
	}

	sent := false
	ent, err := r.store.GetEntityByDID(req.InstitutionDID)
	if err == nil {
		sent = r.notify(ctx, ent, message.PermissionRejected, map[string]interface{}{
			"request_id":      id,
			"credential_type": req.VCType,
			"reason":          reason,
		})
	} else {
		logger.Warnf("rejected request %s for unknown institution %s", id, req.InstitutionDID)
	}

	notifier.Emit(r.events, notifier.TopicPermissions, "rejected", req)
	return &Decision{RequestID: id, VCType: req.VCType, Status: req.Status, NotificationSent: sent}, nil
}

var patientIdentifiers = []string{"patient_id", "full_name", "date_of_birth"}

// ValidateSchema checks a proposed schema against the regulator's minimum
// standards.
func ValidateSchema(c datastore.SchemaChange) error {
	if c.SchemaName == "" || len(c.Attributes) == 0 {
		return errs.New(errs.ValidationError, "schema name and attributes are required")
	}

	if len(c.Attributes) < 2 {
		return errs.New(errs.ValidationError, "schema %s needs at least 2 attributes", c.SchemaName)
	}

	if !strings.Contains(strings.ToLower(c.SchemaName), "medical") {
		return nil
	}

	for _, a := range c.Attributes {
		for _, id := range patientIdentifiers {
			if a == id {
				return nil
			}
		}
	}

	return errs.New(errs.ValidationError, "medical schema %s must carry one of %s", c.SchemaName, strings.Join(patientIdentifiers, ", "))
}

// SubmitModification stores a schema change request from an institution
// allowed to define its own schemas.
func (r *Regulator) SubmitModification(institutionDID string, changes []datastore.SchemaChange) (*datastore.ModificationRequest, error) {
	if len(changes) == 0 {
		return nil, errs.New(errs.ValidationError, "no schema changes requested")
	}

	ent, err := r.store.GetEntityByDID(did.Normalize(institutionDID))
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return nil, errs.New(errs.NotAuthorized, "institution %s is not registered", institutionDID)
		}
		return nil, errors.Wrapf(err, "unable to look up institution %s", institutionDID)
	}

	if ent.Status != datastore.EntityActive || (ent.Type != datastore.Hospital && ent.Type != datastore.Clinic) {
		return nil, errs.New(errs.NotAuthorized, "institution %s may not modify schemas", ent.DID)
	}

	for _, c := range changes {
		if err := ValidateSchema(c); err != nil {
			return nil, err
		}
	}

	req := &datastore.ModificationRequest{
		ID:             uuid.New().String(),
		InstitutionDID: ent.DID,
		Changes:        changes,
		Status:         datastore.RequestPending,
		CreatedAt:      r.now(),
	}
	if err := r.store.UpsertModificationRequest(req); err != nil {
		return nil, errors.Wrap(err, "unable to save modification request")
	}

	logger.Infof("modification request %s from %s with %d changes", req.ID, ent.Name, len(changes))
	return req, nil
}

func (r *Regulator) ListModificationRequests(status string) ([]*datastore.ModificationRequest, error) {
	return r.store.ListModificationRequests(status)
}

func (r *Regulator) ApproveModification(ctx context.Context, id, reason, by string) (*datastore.ModificationRequest, error) {
	return r.decideModification(ctx, id, datastore.RequestApproved, reason, by)
}

func (r *Regulator) RejectModification(ctx context.Context, id, reason, by string) (*datastore.ModificationRequest, error) {
	return r.decideModification(ctx, id, datastore.RequestRejected, reason, by)
}

func (r *Regulator) decideModification(ctx context.Context, id, status, reason, by string) (*datastore.ModificationRequest, error) {
	unlock := r.locks.Lock("modification:" + id)
	defer unlock()

	req, err := r.store.GetModificationRequest(id)
	if err != nil {
		return nil, err
	}

	if req.Status != datastore.RequestPending {
		return nil, errs.New(errs.ValidationError, "modification request %s already processed", id)
	}

	req.Status = status
	req.DecisionReason = reason
	req.DecisionBy = by
	req.DecidedAt = r.now()

	t := message.ModificationApproved
	if status == datastore.RequestApproved {
		req.Approved = req.Changes
	} else {
		t = message.ModificationRejected
		for _, c := range req.Changes {
			req.Rejected = append(req.Rejected, datastore.RejectedChange{Change: c, Reason: reason})
		}
	}

	if err := r.store.UpsertModificationRequest(req); err != nil {
		return nil, errors.Wrapf(err, "unable to save modification request %s", id)
	}

	if ent, err := r.store.GetEntityByDID(req.InstitutionDID); err == nil {
		r.notify(ctx, ent, t, map[string]interface{}{
			"request_id": id,
			"approved":   req.Approved,
			"rejected":   req.Rejected,
			"reason":     reason,
		})
	}

	return req, nil
}
