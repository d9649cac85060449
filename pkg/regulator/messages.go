/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package regulator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/did"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/message"
)

// HandleMessage processes a structured basic message from an institution.
func (r *Regulator) HandleMessage(ctx context.Context, connectionID string, env *message.Envelope) error {
	switch env.Type {
	case message.DIDRegistrationRequest:
		return r.registerDID(ctx, connectionID, env)
	case message.PermissionRequest, message.IssuanceRequest:
		return r.receiveIssuanceRequest(ctx, connectionID, env)
	case message.ModificationRequest:
		return r.receiveModification(ctx, connectionID, env)
	default:
		logger.Infof("message %s from connection %s needs no action", env.Type, connectionID)
	}

	return nil
}

func institutionDID(env *message.Envelope) string {
	for _, k := range []string{"hospital_did", "institution_did", "did"} {
		if s := env.String(k); s != "" {
			return did.Normalize(s)
		}
	}
	return ""
}

// registerDID writes the nym an institution asked for when the DID belongs
// to an active registered institution or is at least well formed.
func (r *Regulator) registerDID(ctx context.Context, connectionID string, env *message.Envelope) error {
	nym := institutionDID(env)
	verkey := env.String("verkey")

	ent, err := r.store.GetEntityByDID(nym)
	switch {
	case err == nil:
		if ent.Status != datastore.EntityActive {
			return r.rejectDID(ctx, connectionID, nym, "institution is "+string(ent.Status))
		}
		if verkey == "" {
			verkey = ent.Verkey
		}
	case errs.Is(err, errs.NotFound):
		ent = nil
	default:
		return errors.Wrapf(err, "unable to look up institution %s", nym)
	}

	if err := did.ValidateNym(nym); err != nil {
		return r.rejectDID(ctx, connectionID, nym, err.Error())
	}
	if err := did.ValidateVerkey(verkey); err != nil {
		return r.rejectDID(ctx, connectionID, nym, err.Error())
	}

	n := &gateway.Nym{DID: nym, Verkey: verkey, Alias: env.String("alias")}
	if ent != nil {
		n.Role = ent.Role
		if n.Alias == "" {
			n.Alias = ent.Name
		}
	}

	if err := r.agent.RegisterNym(ctx, n); err != nil {
		return errors.Wrapf(err, "unable to register nym %s", nym)
	}

	if ent != nil {
		if err := r.bind(ent, connectionID); err != nil {
			return err
		}
	}

	logger.Infof("registered nym %s for connection %s", nym, connectionID)
	return r.send(ctx, connectionID, message.New(message.DIDRegistrationApproved, map[string]interface{}{
		"did":    nym,
		"verkey": verkey,
	}))
}

func (r *Regulator) rejectDID(ctx context.Context, connectionID, nym, reason string) error {
	logger.Warnf("refusing nym %s from connection %s: %s", nym, connectionID, reason)
	return r.send(ctx, connectionID, message.New(message.DIDRegistrationRejected, map[string]interface{}{
		"did":    nym,
		"reason": reason,
	}))
}

func (r *Regulator) receiveIssuanceRequest(ctx context.Context, connectionID string, env *message.Envelope) error {
	vcType := env.String("credential_type")
	if vcType == "" {
		vcType = env.String("vc_type")
	}
	nym := institutionDID(env)

	req, err := r.ReceiveIssuanceRequest(env.String("request_id"), nym, vcType, connectionID)
	switch {
	case errs.Is(err, errs.NotFound):
		return r.replyError(ctx, connectionID, nym, "institution is not registered")
	case errs.Is(err, errs.ValidationError):
		return r.replyError(ctx, connectionID, nym, err.Error())
	case err != nil:
		return err
	}

	return r.send(ctx, connectionID, message.New(message.IssuanceRequestReceived, map[string]interface{}{
		"request_id":            req.ID,
		"status":                req.Status,
		"message":               "request accepted for review",
		"estimated_review_time": r.cfg.ReviewTime,
	}))
}

func (r *Regulator) receiveModification(ctx context.Context, connectionID string, env *message.Envelope) error {
	nym := institutionDID(env)

	var changes []datastore.SchemaChange
	if err := env.Decode("changes", &changes); err != nil {
		return r.replyError(ctx, connectionID, nym, err.Error())
	}

	_, err := r.SubmitModification(nym, changes)
	switch {
	case errs.Is(err, errs.NotAuthorized), errs.Is(err, errs.ValidationError):
		return r.replyError(ctx, connectionID, nym, err.Error())
	case err != nil:
		return err
	}

	return nil
}

func (r *Regulator) replyError(ctx context.Context, connectionID, nym, msg string) error {
	return r.send(ctx, connectionID, message.New(message.Error, map[string]interface{}{
		"message":      msg,
		"hospital_did": nym,
	}))
}

// HandleEndorsementEvent endorses transactions institutions submit for
// ledger writes.
func (r *Regulator) HandleEndorsementEvent(ctx context.Context, e *gateway.Event) error {
	if e.State != "request-received" {
		logger.Debugf("endorsement %s in state %s", e.ExchangeID, e.State)
		return nil
	}

	if !r.cfg.AutoEndorse {
		logger.Infof("endorsement %s left for the operator", e.ExchangeID)
		return nil
	}

	return r.Endorse(ctx, e.ExchangeID)
}

func (r *Regulator) Endorse(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return errs.New(errs.ValidationError, "endorsement without transaction_id")
	}

	if err := r.agent.EndorseTransaction(ctx, transactionID); err != nil {
		return errors.Wrapf(err, "unable to endorse transaction %s", transactionID)
	}

	logger.Infof("endorsed transaction %s", transactionID)
	return nil
}
