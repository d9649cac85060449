/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/issuecredential"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/schema"
)

// Webhook topic families.
const (
	TopicConnections     = "connections"
	TopicBasicMessages   = "basicmessages"
	TopicIssueCredential = "issue_credential"
	TopicPresentProof    = "present_proof"
	TopicEndorsements    = "endorsements"
)

// v2 field names come first and win over v1.
var (
	CredExIDPaths = []string{"$.cred_ex_id", "$.credential_exchange_id"}
	PresExIDPaths = []string{"$.pres_ex_id", "$.presentation_exchange_id"}
)

// PreviewPaths locate credential preview attributes in v2 and v1 records.
var PreviewPaths = []string{
	"$.cred_preview.attributes",
	"$.credential_preview.attributes",
	"$.cred_ex_record.cred_preview.attributes",
	"$.cred_offer.credential_preview.attributes",
	"$.by_format.cred_offer.credential_preview.attributes",
	"$.credential_offer_dict.credential_preview.attributes",
	"$.credential_proposal_dict.credential_proposal.attributes",
}

var idPaths = map[string][]string{
	TopicConnections:     {"$.connection_id"},
	TopicBasicMessages:   {"$.message_id"},
	TopicIssueCredential: CredExIDPaths,
	TopicPresentProof:    PresExIDPaths,
	TopicEndorsements:    {"$.transaction_id", "$._id"},
}

// Event is the normalized view of a webhook delivery.
type Event struct {
	Topic        string
	Family       string
	ExchangeID   string
	State        string
	ConnectionID string
	Payload      map[string]interface{}
}

// Family maps a versioned topic such as issue_credential_v2_0 to its family.
func Family(topic string) string {
	for fam := range idPaths {
		if topic == fam || strings.HasPrefix(topic, fam+"_") {
			return fam
		}
	}
	return topic
}

// ParseEvent decodes a webhook payload and extracts the exchange id and state.
func ParseEvent(topic string, payload []byte) (*Event, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, errors.Wrapf(err, "malformed %s webhook payload", topic)
	}

	fam := Family(topic)
	paths, ok := idPaths[fam]
	if !ok {
		paths = append(append(append([]string{}, CredExIDPaths...), PresExIDPaths...), "$.connection_id")
	}

	return &Event{
		Topic:        topic,
		Family:       fam,
		ExchangeID:   ProbeString(m, paths...),
		State:        NormalizeState(ProbeString(m, "$.state")),
		ConnectionID: ProbeString(m, "$.connection_id"),
		Payload:      m,
	}, nil
}

// NormalizeState folds v1 underscore states (offer_received) into the v2
// hyphenated form (offer-received).
func NormalizeState(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}

// Probe returns the first non-nil value found at any of the JSONPath expressions.
func Probe(v interface{}, paths ...string) interface{} {
	for _, p := range paths {
		out, err := jsonpath.Get(p, v)
		if err != nil || out == nil {
			continue
		}
		return out
	}
	return nil
}

// ProbeString is Probe restricted to non-empty strings.
func ProbeString(v interface{}, paths ...string) string {
	for _, p := range paths {
		out, err := jsonpath.Get(p, v)
		if err != nil {
			continue
		}
		if s, ok := out.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ProbeMap is Probe restricted to JSON objects.
func ProbeMap(v interface{}, paths ...string) map[string]interface{} {
	for _, p := range paths {
		out, err := jsonpath.Get(p, v)
		if err != nil {
			continue
		}
		if m, ok := out.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// Decode converts a probed value into out through a JSON round trip.
func Decode(v interface{}, out interface{}) error {
	d, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "unable to marshal probed value")
	}
	return errors.Wrap(json.Unmarshal(d, out), "unable to decode probed value")
}

// PreviewAttributes reads the credential preview of an exchange record. The
// first path holding a non-empty preview wins.
func PreviewAttributes(record interface{}) []issuecredential.Attribute {
	for _, p := range PreviewPaths {
		v := Probe(record, p)
		if v == nil {
			continue
		}

		var attrs []issuecredential.Attribute
		if err := Decode(v, &attrs); err != nil || len(attrs) == 0 {
			continue
		}
		return attrs
	}
	return nil
}

// PreviewValue returns the value of the first preview attribute whose name
// matches one of names.
func PreviewValue(record interface{}, names ...string) string {
	attrs := PreviewAttributes(record)
	for _, n := range names {
		for _, a := range attrs {
			if a.Name == n && a.Value != "" {
				return a.Value
			}
		}
	}
	return ""
}

// ProofRequestPaths locate the indy proof request in v2 and v1 records.
var ProofRequestPaths = []string{
	"$.by_format.pres_request.indy",
	"$.pres_ex_record.by_format.pres_request.indy",
	"$.presentation_request",
	"$.pres_request.indy",
}

// LoadProofRequest returns the indy proof request of a present_proof event,
// reading the exchange record from the agent when the payload omits it.
func LoadProofRequest(ctx context.Context, agent Agent, e *Event) (*schema.IndyProofRequest, error) {
	raw := ProbeMap(e.Payload, ProofRequestPaths...)
	if raw == nil {
		record, err := agent.GetProofRecord(ctx, e.ExchangeID)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load proof record %s", e.ExchangeID)
		}
		raw = ProbeMap(record, ProofRequestPaths...)
	}

	if raw == nil {
		return nil, errs.New(errs.ValidationError, "proof record %s carries no indy proof request", e.ExchangeID)
	}

	req := &schema.IndyProofRequest{}
	if err := Decode(raw, req); err != nil {
		return nil, errs.Wrap(errs.ValidationError, err, "invalid indy proof request")
	}
	return req, nil
}
