/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

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
)

var logger = log.New("caduceus/issuer")

// Authorizer gates offers on a regulator grant for the credential type.
type Authorizer interface {
	Authorize(vcType string) error
}

type Issuance struct {
	CredExID     string            `json:"cred_ex_id"`
	ConnectionID string            `json:"connection_id"`
	VCType       string            `json:"vc_type"`
	CredDefID    string            `json:"cred_def_id"`
	Attributes   map[string]string `json:"attributes"`
	State        string            `json:"state"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type Issuer struct {
	agent  gateway.Agent
	auth   Authorizer
	events notifier.Publisher
	now    func() time.Time

	lock    sync.RWMutex
	offered map[string]*Issuance
}

// New returns an issuer. A nil auth offers without a permission check, which
// is what the regulator itself does.
func New(agent gateway.Agent, auth Authorizer, events notifier.Publisher) *Issuer {
	return &Issuer{
		agent:   agent,
		auth:    auth,
		events:  events,
		now:     time.Now,
		offered: map[string]*Issuance{},
	}
}

// OfferCredential sends a credential offer over credDefID with the given
// attribute values.
func (r *Issuer) OfferCredential(ctx context.Context, connectionID, vcType, credDefID string, attributes map[string]string) (*Issuance, error) {
	if connectionID == "" || credDefID == "" || len(attributes) == 0 {
		return nil, errs.New(errs.ValidationError, "connection_id, cred_def_id and attributes are required")
	}

	if r.auth != nil {
		if err := r.auth.Authorize(vcType); err != nil {
			return nil, err
		}
	}

	credExID, err := r.agent.SendOffer(ctx, &gateway.Offer{
		ConnectionID: connectionID,
		CredDefID:    credDefID,
		Comment:      vcType,
		Preview:      gateway.NewPreview(attributes),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to offer %s to %s", vcType, connectionID)
	}

	iss := &Issuance{
		CredExID:     credExID,
		ConnectionID: connectionID,
		VCType:       vcType,
		CredDefID:    credDefID,
		Attributes:   attributes,
		State:        "offer-sent",
		UpdatedAt:    r.now(),
	}

	if credExID != "" {
		r.lock.Lock()
		r.offered[credExID] = iss
		r.lock.Unlock()
	}

	logger.Infof("offered %s to %s as %s", vcType, connectionID, credExID)
	cp := *iss
	return &cp, nil
}

// HandleCredentialEvent drives the issuer side of an exchange: requests are
// answered with the credential, completion is announced.
func (r *Issuer) HandleCredentialEvent(ctx context.Context, e *gateway.Event) error {
	role := gateway.ProbeString(e.Payload, "$.role")
	if role == "holder" {
		return nil
	}

	r.lock.RLock()
	iss, tracked := r.offered[e.ExchangeID]
	r.lock.RUnlock()

	if !tracked && role != "issuer" {
		return nil
	}

	switch e.State {
	case "request-received":
		if err := r.authorizeIssue(e.ExchangeID, iss, tracked); err != nil {
			logger.Warnf("refusing to issue %s: %v", e.ExchangeID, err)
			if perr := r.agent.CredentialProblemReport(ctx, e.ExchangeID, err.Error()); perr != nil {
				logger.Warnf("unable to report problem on %s: %v", e.ExchangeID, perr)
			}
			r.record(e.ExchangeID, "refused")
			return err
		}

		if err := r.agent.IssueCredential(ctx, e.ExchangeID); err != nil {
			return errors.Wrapf(err, "unable to issue credential %s", e.ExchangeID)
		}
		r.record(e.ExchangeID, "credential-issued")
	case "done", "credential-acked":
		r.record(e.ExchangeID, "done")

		data := map[string]string{"cred_ex_id": e.ExchangeID, "connection_id": e.ConnectionID}
		if tracked {
			data["vc_type"] = iss.VCType
		}
		notifier.Emit(r.events, notifier.TopicCredentials, "issued", data)
	case "abandoned", "declined":
		logger.Warnf("credential exchange %s %s by the holder", e.ExchangeID, e.State)
		r.record(e.ExchangeID, e.State)
	default:
		logger.Debugf("credential exchange %s in state %s", e.ExchangeID, e.State)
	}

	return nil
}

// authorizeIssue re-checks the grant at issue time. Without an Authorizer any
// exchange is answered; with one, only offers made here are.
func (r *Issuer) authorizeIssue(credExID string, iss *Issuance, tracked bool) error {
	if r.auth == nil {
		return nil
	}

	if !tracked {
		return errs.New(errs.NotAuthorized, "credential exchange %s was not offered by this controller", credExID)
	}
	return r.auth.Authorize(iss.VCType)
}

func (r *Issuer) record(credExID, state string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if iss, ok := r.offered[credExID]; ok {
		iss.State = state
		iss.UpdatedAt = r.now()
	}
}

func (r *Issuer) Issuances() []*Issuance {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*Issuance, 0, len(r.offered))
	for _, iss := range r.offered {
		cp := *iss
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CredExID < out[j].CredExID
	})
	return out
}
