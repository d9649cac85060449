/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errs classifies coordinator failures so callers can decide between
// retry signaling, client errors and hard refusals.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	TransientAgentFailure
	NotAuthorized
	NotFound
	ValidationError
	PartialDisclosureImpossible
)

var kindNames = map[Kind]string{
	Unknown:                     "Unknown",
	TransientAgentFailure:       "TransientAgentFailure",
	NotAuthorized:               "NotAuthorized",
	NotFound:                    "NotFound",
	ValidationError:             "ValidationError",
	PartialDisclosureImpossible: "PartialDisclosureImpossible",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error carries a Kind along with a human readable reason.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the outermost Kind found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether redelivery of the triggering webhook may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case NotFound, ValidationError, NotAuthorized, PartialDisclosureImpossible:
		return false
	default:
		return true
	}
}
