/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package consent holds inbound invitations, credential offers and proof
// requests until the holder decides on them. Emergency proof requests for
// whitelisted attributes are the only thing answered without a decision.
package consent

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/issuecredential"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/schema"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

var logger = log.New("caduceus/consent")

const DefaultEmergencyWindow = 24 * time.Hour

var DefaultEmergencyAttributes = []string{"blood_group_rh"}

type Config struct {
	TTL                 time.Duration
	EmergencyAttributes []string
	EmergencyDisabled   bool
	EmergencyWindow     time.Duration
}

type Invitation struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Services []interface{}   `json:"services"`
	Raw      json.RawMessage `json:"invitation"`
}

type Offer struct {
	CredExID     string                      `json:"cred_ex_id"`
	ConnectionID string                      `json:"connection_id"`
	CredDefID    string                      `json:"cred_def_id,omitempty"`
	Comment      string                      `json:"comment,omitempty"`
	Attributes   []issuecredential.Attribute `json:"attributes"`
}

type ProofRequest struct {
	PresExID     string                   `json:"pres_ex_id"`
	ConnectionID string                   `json:"connection_id"`
	Request      *schema.IndyProofRequest `json:"proof_request"`
	// Emergency is set when the request asked for emergency access but did
	// not qualify for automatic disclosure.
	Emergency bool `json:"emergency"`
}

type EmergencyStatus struct {
	Enabled   bool       `json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Scope     []string   `json:"scope"`
}

type Gate struct {
	agent  gateway.Agent
	events notifier.Publisher
	cfg    Config
	now    func() time.Time
	locks  *util.KeyedMutex

	invitations *Store[*Invitation]
	offers      *Store[*Offer]
	proofs      *Store[*ProofRequest]

	emLock    sync.RWMutex
	emergency EmergencyStatus
}

func New(agent gateway.Agent, events notifier.Publisher, cfg Config) *Gate {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if len(cfg.EmergencyAttributes) == 0 {
		cfg.EmergencyAttributes = DefaultEmergencyAttributes
	}
	if cfg.EmergencyWindow <= 0 {
		cfg.EmergencyWindow = DefaultEmergencyWindow
	}

	return &Gate{
		agent:       agent,
		events:      events,
		cfg:         cfg,
		now:         time.Now,
		locks:       util.NewKeyedMutex(),
		invitations: NewStore[*Invitation](cfg.TTL),
		offers:      NewStore[*Offer](cfg.TTL),
		proofs:      NewStore[*ProofRequest](cfg.TTL),
		emergency: EmergencyStatus{
			Enabled: !cfg.EmergencyDisabled,
			Scope:   cfg.EmergencyAttributes,
		},
	}
}

// StageInvitation holds an out-of-band invitation until the holder accepts it.
func (r *Gate) StageInvitation(raw json.RawMessage) (*Entry[*Invitation], error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.Wrap(errs.ValidationError, err, "invitation is not a JSON object")
	}

	inv := &Invitation{
		ID:    gateway.ProbeString(m, `$["@id"]`, "$.id"),
		Label: gateway.ProbeString(m, "$.label"),
		Raw:   raw,
	}
	if services, ok := gateway.Probe(m, "$.services").([]interface{}); ok {
		inv.Services = services
	}

	id, added := r.invitations.Add(inv.ID, inv, map[string]interface{}{
		"label":    inv.Label,
		"services": inv.Services,
	})
	if added {
		notifier.Emit(r.events, notifier.TopicConsent, "invitation-staged", map[string]string{"id": id, "label": inv.Label})
	}

	e, ok := r.invitations.Get(id)
	if !ok {
		return nil, errs.New(errs.NotFound, "invitation %s expired", id)
	}
	return e, nil
}

func (r *Gate) Invitations() []*Entry[*Invitation] {
	return r.invitations.List()
}

func (r *Gate) AcceptInvitation(ctx context.Context, id string) (*gateway.ConnectionRecord, error) {
	unlock := r.locks.Lock("invitation:" + id)
	defer unlock()

	e, ok := r.invitations.Get(id)
	if !ok {
		return nil, errs.New(errs.NotFound, "pending invitation %s not found", id)
	}

	rec, err := r.agent.ReceiveInvitation(ctx, e.Payload.Raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to receive invitation %s", id)
	}

	r.invitations.Take(id)
	return rec, nil
}

func (r *Gate) RejectInvitation(id string) error {
	if _, ok := r.invitations.Take(id); !ok {
		return errs.New(errs.NotFound, "pending invitation %s not found", id)
	}
	return nil
}

// HandleCredentialEvent applies an issue_credential webhook on the holder.
func (r *Gate) HandleCredentialEvent(ctx context.Context, e *gateway.Event) error {
	if e.ExchangeID == "" {
		return errs.New(errs.ValidationError, "credential webhook without exchange id")
	}

	switch e.State {
	case "offer-received":
		return r.stageOffer(e)
	case "credential-received":
		return errors.Wrapf(r.agent.StoreCredential(ctx, e.ExchangeID), "unable to store credential %s", e.ExchangeID)
	case "done", "credential-acked":
		notifier.Emit(r.events, notifier.TopicCredentials, "stored", map[string]string{
			"cred_ex_id":    e.ExchangeID,
			"connection_id": e.ConnectionID,
		})
	case "abandoned", "declined":
		if _, ok := r.offers.Take(e.ExchangeID); ok {
			logger.Infof("pending offer %s dropped, exchange %s", e.ExchangeID, e.State)
		}
	default:
		logger.Debugf("credential exchange %s in state %s", e.ExchangeID, e.State)
	}

	return nil
}

func (r *Gate) stageOffer(e *gateway.Event) error {
	offer := &Offer{
		CredExID:     e.ExchangeID,
		ConnectionID: e.ConnectionID,
		CredDefID: gateway.ProbeString(e.Payload,
			"$.by_format.cred_offer.indy.cred_def_id",
			"$.credential_offer.cred_def_id",
			"$.credential_definition_id"),
		Comment:    gateway.ProbeString(e.Payload, "$.cred_offer.comment", "$.credential_offer_dict.comment"),
		Attributes: gateway.PreviewAttributes(e.Payload),
	}

	values := map[string]string{}
	for _, a := range offer.Attributes {
		values[a.Name] = a.Value
	}

	_, added := r.offers.Add(offer.CredExID, offer, map[string]interface{}{
		"connection_id": offer.ConnectionID,
		"cred_def_id":   offer.CredDefID,
		"attributes":    values,
	})
	if !added {
		logger.Debugf("offer %s already pending", offer.CredExID)
		return nil
	}

	logger.Infof("credential offer %s from %s awaiting consent", offer.CredExID, offer.ConnectionID)
	notifier.Emit(r.events, notifier.TopicConsent, "offer-staged", map[string]string{"id": offer.CredExID})
	return nil
}

func (r *Gate) Offers() []*Entry[*Offer] {
	return r.offers.List()
}

func (r *Gate) AcceptOffer(ctx context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, ok := r.offers.Get(id); !ok {
		return errs.New(errs.NotFound, "pending offer %s not found", id)
	}

	if err := r.agent.SendCredentialRequest(ctx, id); err != nil {
		return errors.Wrapf(err, "unable to request credential for offer %s", id)
	}

	r.offers.Take(id)
	return nil
}

func (r *Gate) RejectOffer(ctx context.Context, id, reason string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, ok := r.offers.Get(id); !ok {
		return errs.New(errs.NotFound, "pending offer %s not found", id)
	}

	if reason == "" {
		reason = "offer declined by holder"
	}

	if err := ignoreNotFound(r.agent.CredentialProblemReport(ctx, id, reason)); err != nil {
		return errors.Wrapf(err, "unable to decline offer %s", id)
	}
	if err := ignoreNotFound(r.agent.DeleteCredentialRecord(ctx, id)); err != nil {
		return errors.Wrapf(err, "unable to delete offer %s", id)
	}

	r.offers.Take(id)
	return nil
}

// HandleProofEvent applies a present_proof webhook on the holder.
func (r *Gate) HandleProofEvent(ctx context.Context, e *gateway.Event) error {
	if e.ExchangeID == "" {
		return errs.New(errs.ValidationError, "proof webhook without exchange id")
	}

	switch e.State {
	case "request-received":
		return r.receiveProofRequest(ctx, e)
	case "abandoned", "declined":
		if _, ok := r.proofs.Take(e.ExchangeID); ok {
			logger.Infof("pending proof request %s dropped, exchange %s", e.ExchangeID, e.State)
		}
	default:
		logger.Debugf("presentation exchange %s in state %s", e.ExchangeID, e.State)
	}

	return nil
}

func (r *Gate) receiveProofRequest(ctx context.Context, e *gateway.Event) error {
	if _, ok := r.proofs.Get(e.ExchangeID); ok {
		logger.Debugf("proof request %s already pending", e.ExchangeID)
		return nil
	}

	req, err := gateway.LoadProofRequest(ctx, r.agent, e)
	if err != nil {
		return err
	}

	pr := &ProofRequest{PresExID: e.ExchangeID, ConnectionID: e.ConnectionID, Request: req}

	if req.IsEmergency() {
		disclosed, err := r.discloseEmergency(ctx, pr)
		if err != nil {
			return err
		}
		if disclosed {
			return nil
		}
		pr.Emergency = true
	}

	_, added := r.proofs.Add(pr.PresExID, pr, proofSummary(pr))
	if added {
		logger.Infof("proof request %s (%s) awaiting consent", pr.PresExID, req.Name)
		notifier.Emit(r.events, notifier.TopicConsent, "proof-staged", map[string]string{"id": pr.PresExID, "name": req.Name})
	}
	return nil
}

// discloseEmergency answers the request without consent when it qualifies.
// It reports false when the request has to go through consent instead.
func (r *Gate) discloseEmergency(ctx context.Context, pr *ProofRequest) (bool, error) {
	if !r.emergencyActive() {
		logger.Infof("emergency request %s staged, emergency mode is off", pr.PresExID)
		return false, nil
	}

	if !r.whitelisted(pr.Request) {
		logger.Warnf("emergency request %s asks for more than the emergency scope, staged for consent", pr.PresExID)
		return false, nil
	}

	candidates, err := r.agent.GetProofCredentials(ctx, pr.PresExID)
	if err != nil {
		return false, errors.Wrapf(err, "unable to load credentials for %s", pr.PresExID)
	}

	spec, unresolved := schema.ResolveAll(pr.Request, candidates)
	if len(unresolved) > 0 {
		logger.Warnf("emergency request %s has no credential for %v, staged for consent", pr.PresExID, unresolved)
		return false, nil
	}

	if err := r.agent.SendPresentation(ctx, pr.PresExID, spec); err != nil {
		return false, errors.Wrapf(err, "unable to send emergency presentation %s", pr.PresExID)
	}

	logger.Warnf("emergency disclosure for %s to connection %s", pr.PresExID, pr.ConnectionID)
	notifier.Emit(r.events, notifier.TopicProofs, "emergency-disclosed", map[string]interface{}{
		"pres_ex_id":    pr.PresExID,
		"connection_id": pr.ConnectionID,
		"attributes":    requestedNames(pr.Request),
	})
	return true, nil
}

// whitelisted requires at least one attribute, no predicates and every
// requested name inside the emergency scope.
func (r *Gate) whitelisted(req *schema.IndyProofRequest) bool {
	if len(req.RequestedAttributes) == 0 || len(req.RequestedPredicates) > 0 {
		return false
	}

	allowed := map[string]bool{}
	for _, a := range r.cfg.EmergencyAttributes {
		allowed[a] = true
	}

	for _, attr := range req.RequestedAttributes {
		names := attr.AttrNames()
		if len(names) == 0 {
			return false
		}
		for _, n := range names {
			if !allowed[n] {
				return false
			}
		}
	}
	return true
}

func (r *Gate) Proofs() []*Entry[*ProofRequest] {
	return r.proofs.List()
}

// AcceptProof discloses exactly what was requested or nothing at all.
func (r *Gate) AcceptProof(ctx context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	e, ok := r.proofs.Get(id)
	if !ok {
		return errs.New(errs.NotFound, "pending proof request %s not found", id)
	}

	candidates, err := r.agent.GetProofCredentials(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "unable to load credentials for %s", id)
	}

	spec, unresolved := schema.ResolveAll(e.Payload.Request, candidates)
	if len(unresolved) > 0 {
		return errs.New(errs.PartialDisclosureImpossible, "no credential satisfies referents %s", strings.Join(unresolved, ", "))
	}

	if err := r.agent.SendPresentation(ctx, id, spec); err != nil {
		return errors.Wrapf(err, "unable to send presentation %s", id)
	}

	r.proofs.Take(id)
	notifier.Emit(r.events, notifier.TopicProofs, "presented", map[string]string{
		"pres_ex_id":    id,
		"connection_id": e.Payload.ConnectionID,
	})
	return nil
}

func (r *Gate) RejectProof(ctx context.Context, id, reason string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, ok := r.proofs.Get(id); !ok {
		return errs.New(errs.NotFound, "pending proof request %s not found", id)
	}

	if reason == "" {
		reason = "proof request declined by holder"
	}

	if err := ignoreNotFound(r.agent.ProofProblemReport(ctx, id, reason)); err != nil {
		return errors.Wrapf(err, "unable to decline proof request %s", id)
	}
	if err := ignoreNotFound(r.agent.DeleteProofRecord(ctx, id)); err != nil {
		return errors.Wrapf(err, "unable to delete proof request %s", id)
	}

	r.proofs.Take(id)
	return nil
}

func (r *Gate) ListCredentials(ctx context.Context) ([]schema.IndyCredInfo, error) {
	creds, err := r.agent.ListCredentials(ctx)
	return creds, errors.Wrap(err, "unable to list wallet credentials")
}

// EnableEmergency turns on emergency disclosure for the configured window.
func (r *Gate) EnableEmergency() EmergencyStatus {
	r.emLock.Lock()
	defer r.emLock.Unlock()

	exp := r.now().Add(r.cfg.EmergencyWindow)
	r.emergency.Enabled = true
	r.emergency.ExpiresAt = &exp

	logger.Infof("emergency mode enabled until %s", exp.Format(time.RFC3339))
	return r.emergency
}

func (r *Gate) DisableEmergency() EmergencyStatus {
	r.emLock.Lock()
	defer r.emLock.Unlock()

	r.emergency.Enabled = false
	r.emergency.ExpiresAt = nil

	logger.Infof("emergency mode disabled")
	return r.emergency
}

func (r *Gate) Emergency() EmergencyStatus {
	r.emLock.RLock()
	defer r.emLock.RUnlock()

	st := r.emergency
	st.Enabled = r.activeLocked()
	return st
}

func (r *Gate) emergencyActive() bool {
	r.emLock.RLock()
	defer r.emLock.RUnlock()
	return r.activeLocked()
}

func (r *Gate) activeLocked() bool {
	if !r.emergency.Enabled {
		return false
	}
	return r.emergency.ExpiresAt == nil || r.now().Before(*r.emergency.ExpiresAt)
}

func proofSummary(pr *ProofRequest) map[string]interface{} {
	var preds []string
	for _, ref := range pr.Request.PredicateReferents() {
		p := pr.Request.RequestedPredicates[ref]
		preds = append(preds, p.Name+" "+p.PType+" "+strconv.Itoa(int(p.PValue)))
	}

	return map[string]interface{}{
		"name":          pr.Request.Name,
		"connection_id": pr.ConnectionID,
		"attributes":    requestedNames(pr.Request),
		"predicates":    preds,
		"emergency":     pr.Emergency,
	}
}

func requestedNames(req *schema.IndyProofRequest) []string {
	var out []string
	for _, ref := range req.AttributeReferents() {
		out = append(out, req.RequestedAttributes[ref].AttrNames()...)
	}
	return out
}

func ignoreNotFound(err error) error {
	if errs.Is(err, errs.NotFound) {
		logger.Debugf("exchange already gone: %v", err)
		return nil
	}
	return err
}
