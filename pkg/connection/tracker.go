/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package connection tracks peer connection lifecycle from agent webhooks and
// resolves well-known aliases such as the regulator connection.
package connection

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/did"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
)

var logger = log.New("caduceus/connection")

// RegulatorAlias is the reserved alias for the regulator connection.
const RegulatorAlias = "REGULATOR"

type State string

const (
	Requested State = "Requested"
	Responded State = "Responded"
	Active    State = "Active"
	Completed State = "Completed"
	Abandoned State = "Abandoned"
	Error     State = "Error"
)

var agentStates = map[string]State{
	"invitation": Requested,
	"request":    Requested,
	"response":   Responded,
	"active":     Active,
	"completed":  Completed,
	"abandoned":  Abandoned,
	"error":      Error,
}

// FromAgent maps an agent connection state to a tracker state.
func FromAgent(s string) (State, bool) {
	st, ok := agentStates[strings.ToLower(s)]
	return st, ok
}

var rank = map[State]int{Requested: 1, Responded: 2, Completed: 3, Active: 4}

func (s State) Terminal() bool {
	return s == Abandoned || s == Error
}

type Connection struct {
	ID        string    `json:"connection_id"`
	PeerDID   string    `json:"peer_did,omitempty"`
	PeerLabel string    `json:"peer_label,omitempty"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Config struct {
	// CounterpartDID and CounterpartLabel identify the peer that gets Alias.
	CounterpartDID   string
	CounterpartLabel string
	Alias            string
	AutoAccept       bool
}

type acceptor interface {
	AcceptConnection(ctx context.Context, connectionID string) error
}

// Hook runs for every Active notification and must be idempotent.
type Hook func(ctx context.Context, c *Connection) error

type Tracker struct {
	agent acceptor
	cfg   Config
	now   func() time.Time

	lock    sync.RWMutex
	conns   map[string]*Connection
	aliases map[string]string
	byDID   map[string]string
	byLabel map[string]string
	hooks   []Hook
}

func New(agent acceptor, cfg Config) *Tracker {
	if cfg.Alias == "" {
		cfg.Alias = RegulatorAlias
	}

	return &Tracker{
		agent:   agent,
		cfg:     cfg,
		now:     time.Now,
		conns:   map[string]*Connection{},
		aliases: map[string]string{},
		byDID:   map[string]string{},
		byLabel: map[string]string{},
	}
}

func (r *Tracker) OnActive(h Hook) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.hooks = append(r.hooks, h)
}

// HandleEvent applies a connections webhook.
func (r *Tracker) HandleEvent(ctx context.Context, e *gateway.Event) error {
	id := e.ConnectionID
	if id == "" {
		return errs.New(errs.ValidationError, "connection webhook without connection_id")
	}

	state, ok := FromAgent(e.State)
	if !ok {
		logger.Debugf("ignoring connection %s in agent state %s", id, e.State)
		return nil
	}

	r.lock.RLock()
	cur, known := r.conns[id]
	terminal := known && cur.State.Terminal()
	r.lock.RUnlock()

	if terminal {
		logger.Debugf("connection %s already %s, ignoring %s", id, cur.State, e.State)
		return nil
	}

	if strings.EqualFold(e.State, "request") && r.cfg.AutoAccept {
		if err := r.agent.AcceptConnection(ctx, id); err != nil {
			return errors.Wrapf(err, "unable to accept connection %s", id)
		}
	}

	peerDID := gateway.ProbeString(e.Payload, "$.their_did")
	label := gateway.ProbeString(e.Payload, "$.their_label")

	c := r.record(id, state, peerDID, label)
	if c.State != Active {
		return nil
	}

	r.lock.RLock()
	hooks := append([]Hook{}, r.hooks...)
	r.lock.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, c); err != nil {
			return errors.Wrapf(err, "active hook failed for connection %s", id)
		}
	}

	return nil
}

// record stores the new state and returns a copy of the connection.
func (r *Tracker) record(id string, state State, peerDID, label string) *Connection {
	r.lock.Lock()
	defer r.lock.Unlock()

	c, ok := r.conns[id]
	if !ok {
		c = &Connection{ID: id}
		r.conns[id] = c
	}

	// late deliveries never move a connection backwards
	if state.Terminal() || rank[state] >= rank[c.State] {
		c.State = state
	}
	c.UpdatedAt = r.now()
	if peerDID != "" {
		c.PeerDID = peerDID
	}
	if label != "" {
		c.PeerLabel = label
	}

	if c.State.Terminal() {
		r.forget(id)
		logger.Infof("connection %s is %s", id, c.State)
	} else if c.State != Requested {
		r.register(c)
	}

	cp := *c
	return &cp
}

func (r *Tracker) register(c *Connection) {
	if c.PeerDID != "" {
		r.byDID[did.Normalize(c.PeerDID)] = c.ID
	}
	if c.PeerLabel != "" {
		r.byLabel[c.PeerLabel] = c.ID
	}

	if did.Equal(c.PeerDID, r.cfg.CounterpartDID) ||
		(r.cfg.CounterpartLabel != "" && c.PeerLabel == r.cfg.CounterpartLabel) {
		if r.aliases[r.cfg.Alias] != c.ID {
			logger.Infof("connection %s registered as %s", c.ID, r.cfg.Alias)
		}
		r.aliases[r.cfg.Alias] = c.ID
	}
}

func (r *Tracker) forget(id string) {
	for _, m := range []map[string]string{r.aliases, r.byDID, r.byLabel} {
		for k, v := range m {
			if v == id {
				delete(m, k)
			}
		}
	}
}

// SetAlias points alias at a connection chosen by the operator.
func (r *Tracker) SetAlias(alias, connectionID string) error {
	if alias == "" || connectionID == "" {
		return errs.New(errs.ValidationError, "alias and connection_id are required")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if c, ok := r.conns[connectionID]; ok && c.State.Terminal() {
		return errs.New(errs.ValidationError, "connection %s is %s", connectionID, c.State)
	}

	r.aliases[alias] = connectionID
	return nil
}

// Lookup resolves an alias, peer DID or peer label to a connection id.
func (r *Tracker) Lookup(key string) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if id, ok := r.aliases[key]; ok {
		return id, true
	}
	if id, ok := r.byDID[did.Normalize(key)]; ok {
		return id, true
	}
	id, ok := r.byLabel[key]
	return id, ok
}

// Regulator returns the regulator connection id.
func (r *Tracker) Regulator() (string, error) {
	id, ok := r.Lookup(r.cfg.Alias)
	if !ok {
		return "", errs.New(errs.NotFound, "no active %s connection", r.cfg.Alias)
	}
	return id, nil
}

// IsRegulator reports whether connectionID is the regulator connection.
func (r *Tracker) IsRegulator(connectionID string) bool {
	id, err := r.Regulator()
	return err == nil && connectionID != "" && id == connectionID
}

func (r *Tracker) Get(id string) (*Connection, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

func (r *Tracker) List() []*Connection {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		cp := *c
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Aliases returns a copy of the alias table.
func (r *Tracker) Aliases() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}
