/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"io"

	"github.com/cenkalti/backoff"
	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/amqp/rabbitmq"
	"github.com/caduceus-vc/caduceus/pkg/apiserver"
	"github.com/caduceus-vc/caduceus/pkg/config"
	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/consent"
	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/datastore/manager"
	"github.com/caduceus-vc/caduceus/pkg/framework"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/issuer"
	"github.com/caduceus-vc/caduceus/pkg/notifier"
	"github.com/caduceus-vc/caduceus/pkg/permission"
	"github.com/caduceus-vc/caduceus/pkg/regulator"
	"github.com/caduceus-vc/caduceus/pkg/util"
	"github.com/caduceus-vc/caduceus/pkg/verifier"
	"github.com/caduceus-vc/caduceus/pkg/webhook"
)

var logger = log.New("caduceus/cmd")

// Provider builds and wires the components of one role.
type Provider struct {
	conf config.Config
	role apiserver.Role

	agent      gateway.Agent
	dispatcher *webhook.Dispatcher
	conns      *connection.Tracker
	events     notifier.Publisher
	store      datastore.Store
	closers    []io.Closer

	permissions *permission.Workflow
	issuer      *issuer.Issuer
	verifier    *verifier.Verifier
	gate        *consent.Gate
	regulator   *regulator.Regulator
}

func NewProvider(conf config.Config, role apiserver.Role) (*Provider, error) {
	if !role.Valid() {
		return nil, errors.Errorf("unknown role %q", role)
	}

	ac, err := conf.Agent()
	if err != nil {
		return nil, err
	}

	rc, err := conf.Regulator()
	if err != nil {
		return nil, err
	}

	wc, err := conf.Webhook()
	if err != nil {
		return nil, err
	}

	r := &Provider{
		conf:  conf,
		role:  role,
		agent: gateway.New(*ac),
		dispatcher: webhook.New(webhook.Config{
			LedgerSize: wc.DedupSize,
			LedgerTTL:  wc.DedupTTL,
		}),
	}

	r.conns = connection.New(r.agent, connection.Config{
		CounterpartDID:   rc.DID,
		CounterpartLabel: rc.Label,
		Alias:            rc.Alias,
		AutoAccept:       role != apiserver.Holder,
	})
	r.dispatcher.Register(gateway.TopicConnections, r.conns.HandleEvent)

	if err := r.openEvents(); err != nil {
		r.Close()
		return nil, err
	}

	switch role {
	case apiserver.Institution:
		err = r.wireInstitution(ac)
	case apiserver.Holder:
		err = r.wireHolder()
	case apiserver.Regulator:
		err = r.wireRegulator(rc)
	}
	if err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func (r *Provider) wireInstitution(ac *gateway.Config) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.permissions = permission.New(r.agent, r.store, r.conns, r.events, permission.Config{DIDSeed: ac.DIDSeed})
	r.issuer = issuer.New(r.agent, r.permissions, r.events)
	r.verifier = verifier.New(r.agent, r.events)
	presenter := verifier.NewPresenter(r.agent, r.events, r.conns.IsRegulator)

	r.dispatcher.Register(gateway.TopicBasicMessages, webhook.Messages(r.permissions.HandleMessage))
	r.dispatcher.Register(gateway.TopicIssueCredential, r.permissions.HandleCredentialEvent, r.issuer.HandleCredentialEvent)
	r.dispatcher.Register(gateway.TopicPresentProof, r.verifier.HandleProofEvent, presenter.HandleProofEvent)
	return nil
}

func (r *Provider) wireHolder() error {
	cc, err := r.conf.Consent()
	if err != nil {
		return err
	}

	r.gate = consent.New(r.agent, r.events, consent.Config{
		TTL:                 cc.TTL,
		EmergencyAttributes: cc.Emergency.Attributes,
		EmergencyDisabled:   cc.Emergency.Disabled,
		EmergencyWindow:     cc.Emergency.Window,
	})

	r.dispatcher.Register(gateway.TopicIssueCredential, r.gate.HandleCredentialEvent)
	r.dispatcher.Register(gateway.TopicPresentProof, r.gate.HandleProofEvent)
	return nil
}

func (r *Provider) wireRegulator(rc *framework.RegulatorConfig) error {
	if err := r.openStore(); err != nil {
		return err
	}

	iss := issuer.New(r.agent, nil, r.events)
	r.regulator = regulator.New(r.agent, r.store, r.conns, iss, r.events, regulator.Config{
		PermissionCredDefID: rc.PermissionCredDefID,
		AutoEndorse:         rc.AutoEndorse,
		ReviewTime:          rc.ReviewTime,
	})
	if rc.PermissionCredDefID == "" {
		logger.Warnf("regulator.permissionCredDefID is not set, issuance approvals will fail")
	}

	r.conns.OnActive(r.regulator.BindConnection)
	r.dispatcher.Register(gateway.TopicBasicMessages, webhook.Messages(r.regulator.HandleMessage))
	r.dispatcher.Register(gateway.TopicIssueCredential, iss.HandleCredentialEvent)
	r.dispatcher.Register(gateway.TopicEndorsements, r.regulator.HandleEndorsementEvent)
	return nil
}

// openEvents dials the notification queue, falling back to the log when no
// broker is configured.
func (r *Provider) openEvents() error {
	ac, err := r.conf.AMQPConfig()
	if err != nil {
		return err
	}

	if !ac.Configured() {
		logger.Infof("no amqp broker configured, events are only logged")
		r.events = notifier.LogPublisher{}
		return nil
	}

	var pub *rabbitmq.Publisher
	op := func() error {
		var err error
		pub, err = rabbitmq.NewPublisher(ac.Endpoint(), notifier.QueueName)
		return err
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.RetryNotify(op, bo, util.Logger); err != nil {
		return errors.Wrap(err, "unable to connect to the notification queue")
	}

	r.closers = append(r.closers, pub)
	r.events = notifier.NewQueuePublisher(pub)
	return nil
}

func (r *Provider) openStore() error {
	dc, err := r.conf.DataStore()
	if err != nil {
		return err
	}

	sp, err := manager.NewDataProviderManager(dc).DefaultStoreProvider()
	if err != nil {
		return err
	}
	r.closers = append(r.closers, closerFunc(sp.Close))

	r.store, err = sp.OpenStore(string(r.role))
	return errors.Wrapf(err, "unable to open %s store", r.role)
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func (r *Provider) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			logger.Warnf("error during shutdown: %v", err)
		}
	}
	r.closers = nil
}

func (r *Provider) Role() apiserver.Role {
	return r.role
}

func (r *Provider) Agent() gateway.Agent {
	return r.agent
}

func (r *Provider) Dispatcher() *webhook.Dispatcher {
	return r.dispatcher
}

func (r *Provider) Connections() *connection.Tracker {
	return r.conns
}

func (r *Provider) Permissions() (*permission.Workflow, error) {
	if r.permissions == nil {
		return nil, errors.Errorf("permission workflow is not available to the %s role", r.role)
	}
	return r.permissions, nil
}

func (r *Provider) Issuer() (*issuer.Issuer, error) {
	if r.issuer == nil {
		return nil, errors.Errorf("issuer is not available to the %s role", r.role)
	}
	return r.issuer, nil
}

func (r *Provider) Verifier() (*verifier.Verifier, error) {
	if r.verifier == nil {
		return nil, errors.Errorf("verifier is not available to the %s role", r.role)
	}
	return r.verifier, nil
}

func (r *Provider) ConsentGate() (*consent.Gate, error) {
	if r.gate == nil {
		return nil, errors.Errorf("consent gate is not available to the %s role", r.role)
	}
	return r.gate, nil
}

func (r *Provider) Regulator() (*regulator.Regulator, error) {
	if r.regulator == nil {
		return nil, errors.Errorf("regulator is not available to the %s role", r.role)
	}
	return r.regulator, nil
}

func (r *Provider) GetAPIEndpoint() (*framework.Endpoint, error) {
	return r.conf.API()
}
