/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message defines the structured basic-message envelope exchanged
// between institutions and the regulator.
package message

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Type string

const (
	DIDRegistrationRequest  Type = "DID_REGISTRATION_REQUEST"
	DIDRegistrationApproved Type = "DID_REGISTRATION_APPROVED"
	DIDRegistrationRejected Type = "DID_REGISTRATION_REJECTED"

	PermissionRequest         Type = "CREDENTIAL_TYPE_PERMISSION_REQUEST"
	PermissionRequestReceived Type = "CREDENTIAL_TYPE_PERMISSION_REQUEST_RECEIVED"
	PermissionRejected        Type = "CREDENTIAL_TYPE_PERMISSION_REJECTED"

	IssuanceRequest         Type = "CREDENTIAL_ISSUANCE_REQUEST"
	IssuanceRequestReceived Type = "CREDENTIAL_ISSUANCE_REQUEST_RECEIVED"
	IssuanceApproved        Type = "CREDENTIAL_ISSUANCE_APPROVED"
	IssuanceRejected        Type = "CREDENTIAL_ISSUANCE_REJECTED"

	ModificationRequest  Type = "CREDENTIAL_MODIFICATION_REQUEST"
	ModificationApproved Type = "CREDENTIAL_MODIFICATION_APPROVED"
	ModificationRejected Type = "CREDENTIAL_MODIFICATION_REJECTED"

	InstitutionSuspended Type = "INSTITUTION_SUSPENDED"
	InstitutionActivated Type = "INSTITUTION_ACTIVATED"

	Error Type = "ERROR"
)

var (
	ErrNotStructured = errors.New("message content is not a structured envelope")
	ErrUnknownType   = errors.New("unknown message type")
)

var known = map[Type]struct{}{
	DIDRegistrationRequest:    {},
	DIDRegistrationApproved:   {},
	DIDRegistrationRejected:   {},
	PermissionRequest:         {},
	PermissionRequestReceived: {},
	PermissionRejected:        {},
	IssuanceRequest:           {},
	IssuanceRequestReceived:   {},
	IssuanceApproved:          {},
	IssuanceRejected:          {},
	ModificationRequest:       {},
	ModificationApproved:      {},
	ModificationRejected:      {},
	InstitutionSuspended:      {},
	InstitutionActivated:      {},
	Error:                     {},
}

func (t Type) Valid() bool {
	_, ok := known[t]
	return ok
}

// From is the sender tag the regulator stamps on its notifications.
const FromRegulator = "REGULATOR"

var now = time.Now

// Envelope is {type, timestamp, ...fields}. Regulator notifications nest
// their payload under "data"; accessors look in both places.
type Envelope struct {
	Type      Type
	Timestamp string
	From      string
	Fields    map[string]interface{}
}

func New(t Type, fields map[string]interface{}) *Envelope {
	if fields == nil {
		fields = map[string]interface{}{}
	}

	return &Envelope{
		Type:      t,
		Timestamp: now().UTC().Format(time.RFC3339),
		Fields:    fields,
	}
}

// Notification builds the regulator's {type, from, timestamp, data} shape.
func Notification(t Type, data map[string]interface{}) *Envelope {
	e := New(t, map[string]interface{}{"data": data})
	e.From = FromRegulator
	return e
}

// Parse decodes basic message content. Non-JSON content yields ErrNotStructured,
// a type outside the closed set yields ErrUnknownType along with the envelope.
func Parse(content string) (*Envelope, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "{") {
		return nil, ErrNotStructured
	}

	raw := map[string]interface{}{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, ErrNotStructured
	}

	e := &Envelope{Fields: map[string]interface{}{}}
	for k, v := range raw {
		switch k {
		case "type":
			s, _ := v.(string)
			e.Type = Type(s)
		case "timestamp":
			e.Timestamp = stringify(v)
		case "from":
			e.From, _ = v.(string)
		default:
			e.Fields[k] = v
		}
	}

	if e.Type == "" {
		return nil, ErrNotStructured
	}

	if !e.Type.Valid() {
		return e, errors.Wrapf(ErrUnknownType, "type %q", e.Type)
	}

	return e, nil
}

func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+3)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["type"] = e.Type
	out["timestamp"] = e.Timestamp
	if e.From != "" {
		out["from"] = e.From
	}

	return json.Marshal(out)
}

// Content renders the envelope as the string carried in a basic message.
func (e *Envelope) Content() (string, error) {
	d, err := json.Marshal(e)
	if err != nil {
		return "", errors.Wrap(err, "unable to marshal message envelope")
	}
	return string(d), nil
}

func (e *Envelope) Get(key string) (interface{}, bool) {
	if v, ok := e.Fields[key]; ok {
		return v, true
	}

	if data, ok := e.Fields["data"].(map[string]interface{}); ok {
		v, ok := data[key]
		return v, ok
	}

	return nil, false
}

func (e *Envelope) String(key string) string {
	v, ok := e.Get(key)
	if !ok {
		return ""
	}
	return stringify(v)
}

// Strings reads a JSON array of strings, skipping anything else.
func (e *Envelope) Strings(key string) []string {
	v, ok := e.Get(key)
	if !ok {
		return nil
	}

	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Decode copies a nested field into out.
func (e *Envelope) Decode(key string, out interface{}) error {
	v, ok := e.Get(key)
	if !ok {
		return errors.Errorf("field %s missing", key)
	}

	d, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "unable to re-marshal field %s", key)
	}

	return errors.Wrapf(json.Unmarshal(d, out), "unable to decode field %s", key)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		d, _ := json.Marshal(t)
		return string(d)
	}
}
