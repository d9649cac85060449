/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notifier

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/amqp"
)

// Server drains the notification queue and fans events out to the configured
// webhooks and to websocket subscribers.
type Server struct {
	listener amqp.Listener
	hooks    []Webhook
	hub      *Hub
	client   *http.Client
	errors   chan error
}

type provider interface {
	GetAMQPListener(queue string) amqp.Listener
	Webhooks() []Webhook
	Hub() *Hub
}

func New(prov provider) (*Server, error) {
	srv := &Server{
		listener: prov.GetAMQPListener(QueueName),
		hooks:    prov.Webhooks(),
		hub:      prov.Hub(),
		client:   &http.Client{Timeout: 10 * time.Second},
	}

	if srv.listener == nil {
		return nil, errors.New("notifier requires an AMQP listener")
	}

	return srv, nil
}

func (r *Server) Start() error {
	return r.listenAndServe()
}

func (r *Server) listenAndServe() error {
	msgs, err := r.listener.Listen()
	if err != nil {
		return errors.Wrap(err, "unable to consume")
	}

	for d := range msgs {
		note := &Notification{}
		err := json.Unmarshal(d.Body, note)
		if err != nil {
			r.Error(errors.Wrap(err, "bad notification message"))
			continue
		}

		event := &EventMessage{
			Topic:     note.Topic,
			Event:     note.Event,
			Timestamp: time.Now().Unix(),
			EventData: note.EventData,
		}

		if r.hub != nil {
			r.hub.Broadcast(event)
		}

		r.deliver(event)
	}

	return errors.New("notification messages closed")
}

func (r *Server) deliver(event *EventMessage) {
	data, _ := json.Marshal(event)

	for _, hook := range r.hooks {
		if !hook.Matches(event.Topic) {
			continue
		}

		resp, err := r.client.Post(hook.URL, "application/json", bytes.NewBuffer(data))
		if err != nil {
			r.Error(errors.Wrapf(err, "unable to post event to hook %s", hook.URL))
			continue
		}

		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			r.Error(errors.Errorf("error response from hook. code: (%d): %s", resp.StatusCode, string(b)))
		}
	}
}

func (r *Server) Error(err error) {
	if r.errors == nil {
		logger.Errorf("%v", err)
		return
	}

	r.errors <- err
}

func (r *Server) Errors() (chan error, error) {
	if r.errors != nil {
		return nil, errors.New("error listener already registered")
	}

	r.errors = make(chan error, 1)
	return r.errors, nil
}
