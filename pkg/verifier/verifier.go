/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifier requests and verifies presentations, and answers proof
// requests from trusted connections on behalf of the institution.
package verifier

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/schema"
)

var logger = log.New("caduceus/verifier")

// Requested proof locations in v2 and v1 records.
var proofPaths = []string{
	"$.by_format.pres.indy.requested_proof",
	"$.pres_ex_record.by_format.pres.indy.requested_proof",
	"$.presentation.requested_proof",
}

type Exchange struct {
	PresExID     string            `json:"pres_ex_id"`
	ConnectionID string            `json:"connection_id"`
	Name         string            `json:"name"`
	State        string            `json:"state"`
	Verified     bool              `json:"verified"`
	Revealed     map[string]string `json:"revealed,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type Verifier struct {
	agent  gateway.Agent
	events notifier.Publisher
	now    func() time.Time

	lock      sync.RWMutex
	exchanges map[string]*Exchange
}

func New(agent gateway.Agent, events notifier.Publisher) *Verifier {
	return &Verifier{
		agent:     agent,
		events:    events,
		now:       time.Now,
		exchanges: map[string]*Exchange{},
	}
}

// RequestProof sends an indy proof request to connectionID.
func (r *Verifier) RequestProof(ctx context.Context, connectionID string, req *schema.IndyProofRequest) (*Exchange, error) {
	if connectionID == "" || req == nil {
		return nil, errs.New(errs.ValidationError, "connection_id and proof_request are required")
	}
	if len(req.RequestedAttributes) == 0 && len(req.RequestedPredicates) == 0 {
		return nil, errs.New(errs.ValidationError, "proof request asks for nothing")
	}
	if req.Name == "" {
		req.Name = "Proof request"
	}
	if req.Version == "" {
		req.Version = "1.0"
	}

	presExID, err := r.agent.SendProofRequest(ctx, connectionID, req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to request proof from %s", connectionID)
	}

	x := &Exchange{
		PresExID:     presExID,
		ConnectionID: connectionID,
		Name:         req.Name,
		State:        "request-sent",
		UpdatedAt:    r.now(),
	}

	r.lock.Lock()
	r.exchanges[presExID] = x
	r.lock.Unlock()

	cp := *x
	return &cp, nil
}

// HandleProofEvent drives the verifier side of a presentation exchange.
func (r *Verifier) HandleProofEvent(ctx context.Context, e *gateway.Event) error {
	role := gateway.ProbeString(e.Payload, "$.role")
	if role == "prover" {
		return nil
	}

	r.lock.RLock()
	_, tracked := r.exchanges[e.ExchangeID]
	r.lock.RUnlock()

	if !tracked && role != "verifier" {
		return nil
	}

	switch e.State {
	case "presentation-received":
		if _, err := r.agent.VerifyPresentation(ctx, e.ExchangeID); err != nil {
			return errors.Wrapf(err, "unable to verify presentation %s", e.ExchangeID)
		}
		r.update(e, "presentation-received", false, nil)
	case "done", "verified":
		return r.complete(ctx, e)
	case "abandoned":
		r.update(e, "abandoned", false, nil)
	default:
		logger.Debugf("presentation exchange %s in state %s", e.ExchangeID, e.State)
	}

	return nil
}

func (r *Verifier) complete(ctx context.Context, e *gateway.Event) error {
	record := e.Payload
	if gateway.ProbeMap(record, proofPaths...) == nil {
		rec, err := r.agent.GetProofRecord(ctx, e.ExchangeID)
		switch {
		case err == nil:
			record = rec
		case errs.Is(err, errs.NotFound):
			logger.Debugf("presentation %s already removed", e.ExchangeID)
		default:
			return errors.Wrapf(err, "unable to load presentation %s", e.ExchangeID)
		}
	}

	verified := gateway.ProbeString(record, "$.verified", "$.pres_ex_record.verified") == "true"

	revealed := map[string]string{}
	if raw := gateway.ProbeMap(record, proofPaths...); raw != nil {
		proof := &schema.IndyRequestedProof{}
		if err := gateway.Decode(raw, proof); err != nil {
			logger.Warnf("presentation %s carries an unreadable proof: %v", e.ExchangeID, err)
		} else {
			revealed = proof.RevealedValues()
		}
	}

	r.update(e, "done", verified, revealed)

	notifier.Emit(r.events, notifier.TopicProofs, "verified", map[string]interface{}{
		"pres_ex_id":    e.ExchangeID,
		"connection_id": e.ConnectionID,
		"verified":      verified,
		"revealed":      revealed,
	})
	return nil
}

func (r *Verifier) update(e *gateway.Event, state string, verified bool, revealed map[string]string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	x, ok := r.exchanges[e.ExchangeID]
	if !ok {
		x = &Exchange{PresExID: e.ExchangeID, ConnectionID: e.ConnectionID}
		r.exchanges[e.ExchangeID] = x
	}

	x.State = state
	x.Verified = verified
	if revealed != nil {
		x.Revealed = revealed
	}
	x.UpdatedAt = r.now()
}

func (r *Verifier) Get(presExID string) (*Exchange, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	x, ok := r.exchanges[presExID]
	if !ok {
		return nil, false
	}
	cp := *x
	return &cp, true
}

func (r *Verifier) Exchanges() []*Exchange {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*Exchange, 0, len(r.exchanges))
	for _, x := range r.exchanges {
		cp := *x
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PresExID < out[j].PresExID
	})
	return out
}
