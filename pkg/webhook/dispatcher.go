/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package webhook routes agent webhooks to the components that own each
// topic, serializing work per exchange and absorbing redelivery.
package webhook

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/pkg/common/log"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

var logger = log.New("caduceus/webhook")

type Outcome int

const (
	Processed Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Processed {
		return "processed"
	}
	return "failed"
}

type Handler func(ctx context.Context, e *gateway.Event) error

const (
	DefaultLedgerSize = 4096
	DefaultLedgerTTL  = 24 * time.Hour
)

type Config struct {
	LedgerSize int
	LedgerTTL  time.Duration
}

type Dispatcher struct {
	lock     sync.RWMutex
	handlers map[string][]Handler

	exchanges *util.KeyedMutex
	ledger    gcache.Cache
}

func New(cfg Config) *Dispatcher {
	if cfg.LedgerSize <= 0 {
		cfg.LedgerSize = DefaultLedgerSize
	}
	if cfg.LedgerTTL <= 0 {
		cfg.LedgerTTL = DefaultLedgerTTL
	}

	return &Dispatcher{
		handlers:  map[string][]Handler{},
		exchanges: util.NewKeyedMutex(),
		ledger:    gcache.New(cfg.LedgerSize).LRU().Expiration(cfg.LedgerTTL).Build(),
	}
}

// Register adds handlers for topic. A topic also matches its versioned
// variants, so issue_credential covers issue_credential_v2_0.
func (r *Dispatcher) Register(topic string, h ...Handler) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers[topic] = append(r.handlers[topic], h...)
}

func (r *Dispatcher) lookup(topic string) []Handler {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if h, ok := r.handlers[topic]; ok {
		return h
	}

	for t, h := range r.handlers {
		if strings.HasPrefix(topic, t+"_") {
			return h
		}
	}

	return nil
}

// Handle runs the handlers registered for topic against payload.
func (r *Dispatcher) Handle(ctx context.Context, topic string, payload []byte) Outcome {
	handlers := r.lookup(topic)
	if len(handlers) == 0 {
		logger.Debugf("no handler for webhook topic %s", topic)
		return Processed
	}

	e, err := gateway.ParseEvent(topic, payload)
	if err != nil {
		logger.Errorf("dropping webhook: %v", err)
		return Processed
	}

	key := ""
	if e.ExchangeID != "" {
		key = e.Family + "|" + e.ExchangeID + "|" + e.State

		unlock := r.exchanges.Lock(e.Family + "|" + e.ExchangeID)
		defer unlock()

		if r.ledger.Has(key) {
			logger.Debugf("%s %s already handled in state %s", topic, e.ExchangeID, e.State)
			return Processed
		}
	}

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			if !errs.Retryable(err) {
				logger.Warnf("%s %s (%s) not processed: %v", topic, e.ExchangeID, e.State, err)
				return Processed
			}

			logger.Errorf("%s %s (%s) failed: %v", topic, e.ExchangeID, e.State, err)
			return Failed
		}
	}

	if key != "" {
		_ = r.ledger.Set(key, time.Now())
	}

	return Processed
}
