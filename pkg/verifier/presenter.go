/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/schema"
)

// Presenter answers proof requests from a trusted connection without operator
// involvement. Requests from anyone else are left alone.
type Presenter struct {
	agent   gateway.Agent
	events  notifier.Publisher
	trusted func(connectionID string) bool
}

func NewPresenter(agent gateway.Agent, events notifier.Publisher, trusted func(connectionID string) bool) *Presenter {
	return &Presenter{agent: agent, events: events, trusted: trusted}
}

func (r *Presenter) HandleProofEvent(ctx context.Context, e *gateway.Event) error {
	if e.State != "request-received" {
		return nil
	}

	if r.trusted == nil || !r.trusted(e.ConnectionID) {
		logger.Infof("proof request %s from connection %s left for the operator", e.ExchangeID, e.ConnectionID)
		return nil
	}

	req, err := gateway.LoadProofRequest(ctx, r.agent, e)
	if err != nil {
		return err
	}

	candidates, err := r.agent.GetProofCredentials(ctx, e.ExchangeID)
	if err != nil {
		return errors.Wrapf(err, "unable to load credentials for %s", e.ExchangeID)
	}

	spec, unresolved := schema.ResolveAll(req, candidates)
	if len(unresolved) > 0 {
		return errs.New(errs.PartialDisclosureImpossible, "proof request %s: no credential for %s", e.ExchangeID, strings.Join(unresolved, ", "))
	}

	if err := r.agent.SendPresentation(ctx, e.ExchangeID, spec); err != nil {
		return errors.Wrapf(err, "unable to present %s", e.ExchangeID)
	}

	logger.Infof("presented %s to trusted connection %s", req.Name, e.ConnectionID)
	notifier.Emit(r.events, notifier.TopicProofs, "presented", map[string]string{
		"pres_ex_id":    e.ExchangeID,
		"connection_id": e.ConnectionID,
	})
	return nil
}
