/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rabbitmq

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

type Publisher struct {
	lock  sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(addr, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to dial AMQP")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "unable to create an AMQP channel")
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "unable to declare AMQP queue")
	}

	return &Publisher{
		conn:  conn,
		ch:    ch,
		queue: queue,
	}, nil
}

func (r *Publisher) Publish(body []byte, contentType string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	err := r.ch.Publish(
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})

	return errors.Wrap(err, "rabbitMQ publish failed")
}

func (r *Publisher) Close() error {
	return r.conn.Close()
}
