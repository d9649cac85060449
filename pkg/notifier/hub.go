/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notifier

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// Hub streams events to websocket subscribers. Slow subscribers lose events
// rather than stall the queue.
type Hub struct {
	lock    sync.RWMutex
	clients map[*subscriber]struct{}
}

type subscriber struct {
	topic string
	send  chan *EventMessage
}

func NewHub() *Hub {
	return &Hub{clients: map[*subscriber]struct{}{}}
}

// ServeHTTP upgrades the request. An optional ?topic= limits the stream.
func (r *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Warnf("websocket accept failed: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "closing")

	sub := &subscriber{topic: req.URL.Query().Get("topic"), send: make(chan *EventMessage, clientBuffer)}
	r.add(sub)
	defer r.remove(sub)

	ctx := c.CloseRead(req.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sub.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c, ev)
			cancel()
			if err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					logger.Debugf("websocket write failed: %v", err)
				}
				return
			}
		}
	}
}

func (r *Hub) Broadcast(ev *EventMessage) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for sub := range r.clients {
		if sub.topic != "" && sub.topic != ev.Topic {
			continue
		}

		select {
		case sub.send <- ev:
		default:
			logger.Warnf("websocket subscriber is behind, dropping %s/%s", ev.Topic, ev.Event)
		}
	}
}

// Len reports the number of connected subscribers.
func (r *Hub) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.clients)
}

func (r *Hub) add(s *subscriber) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.clients[s] = struct{}{}
}

func (r *Hub) remove(s *subscriber) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.clients, s)
}
