/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notifier

import (
	"encoding/json"

	"github.com/hyperledger/aries-framework-go/pkg/common/log"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/amqp"
)

var logger = log.New("caduceus/notifier")

//go:generate mockery -name=Publisher
type Publisher interface {
	Publish(topic, event string, data interface{}) error
}

// QueuePublisher hands notifications to the notifier daemon over AMQP.
type QueuePublisher struct {
	queue amqp.Publisher
}

func NewQueuePublisher(queue amqp.Publisher) *QueuePublisher {
	return &QueuePublisher{queue: queue}
}

func (r *QueuePublisher) Publish(topic, event string, data interface{}) error {
	d, err := json.Marshal(&Notification{
		Topic:     topic,
		Event:     event,
		EventData: data,
	})
	if err != nil {
		return errors.Wrapf(err, "unable to marshal %s/%s notification", topic, event)
	}

	return errors.Wrapf(r.queue.Publish(d, "application/json"), "unable to publish %s/%s notification", topic, event)
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(topic, event string, _ interface{}) error {
	logger.Infof("event %s/%s", topic, event)
	return nil
}

// Emit publishes and logs failures, events never fail the caller.
func Emit(p Publisher, topic, event string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(topic, event, data); err != nil {
		logger.Warnf("dropping %s/%s event: %v", topic, event, err)
	}
}
