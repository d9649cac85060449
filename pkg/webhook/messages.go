/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"

	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/message"
)

type MessageHandler func(ctx context.Context, connectionID string, env *message.Envelope) error

// Messages adapts a structured message handler to the basicmessages topic.
// Free text and unknown message types are acknowledged without action.
func Messages(h MessageHandler) Handler {
	return func(ctx context.Context, e *gateway.Event) error {
		content := gateway.ProbeString(e.Payload, "$.content")

		env, err := message.Parse(content)
		switch {
		case errors.Is(err, message.ErrNotStructured):
			logger.Infof("text message on connection %s", e.ConnectionID)
			return nil
		case errors.Is(err, message.ErrUnknownType):
			logger.Warnf("connection %s sent an unsupported message: %v", e.ConnectionID, err)
			return nil
		case err != nil:
			return err
		}

		return h(ctx, e.ConnectionID, env)
	}
}
