package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	t.Run("v2 id wins over v1", func(t *testing.T) {
		e, err := ParseEvent("issue_credential_v2_0", []byte(`{"cred_ex_id":"v2","credential_exchange_id":"v1","state":"offer-received","connection_id":"c1"}`))
		require.NoError(t, err)
		require.Equal(t, TopicIssueCredential, e.Family)
		require.Equal(t, "v2", e.ExchangeID)
		require.Equal(t, "offer-received", e.State)
		require.Equal(t, "c1", e.ConnectionID)
	})

	t.Run("v1 accepted", func(t *testing.T) {
		e, err := ParseEvent("present_proof", []byte(`{"presentation_exchange_id":"p1","state":"request_received"}`))
		require.NoError(t, err)
		require.Equal(t, "p1", e.ExchangeID)
		require.Equal(t, TopicPresentProof, e.Family)
		require.Equal(t, "request-received", e.State)
	})

	t.Run("per family ids", func(t *testing.T) {
		e, err := ParseEvent("basicmessages", []byte(`{"connection_id":"c1","message_id":"m1","content":"hi"}`))
		require.NoError(t, err)
		require.Equal(t, "m1", e.ExchangeID)

		e, err = ParseEvent("connections", []byte(`{"connection_id":"c1","state":"active"}`))
		require.NoError(t, err)
		require.Equal(t, "c1", e.ExchangeID)

		e, err = ParseEvent("endorsements", []byte(`{"transaction_id":"t1","state":"request-received"}`))
		require.NoError(t, err)
		require.Equal(t, "t1", e.ExchangeID)
	})

	t.Run("unknown topic", func(t *testing.T) {
		e, err := ParseEvent("revocation_registry", []byte(`{"state":"x"}`))
		require.NoError(t, err)
		require.Equal(t, "revocation_registry", e.Family)
		require.Equal(t, "", e.ExchangeID)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseEvent("connections", []byte(`{not json`))
		require.Error(t, err)
	})
}

func TestProbe(t *testing.T) {
	e, err := ParseEvent("present_proof_v2_0", []byte(`{"pres_ex_id":"p","by_format":{"pres_request":{"indy":{"name":"Emergency Access","requested_attributes":{}}}}}`))
	require.NoError(t, err)

	req := ProbeMap(e.Payload, "$.presentation_request", "$.by_format.pres_request.indy")
	require.NotNil(t, req)
	require.Equal(t, "Emergency Access", req["name"])

	require.Nil(t, Probe(e.Payload, "$.nothing", "$.by_format.nothing"))
	require.Equal(t, "", ProbeString(e.Payload, "$.by_format"))

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, Decode(req, &out))
	require.Equal(t, "Emergency Access", out.Name)
}

func TestPreviewAttributes(t *testing.T) {
	t.Run("v2 record", func(t *testing.T) {
		record := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(`{
			"cred_ex_id": "x",
			"cred_preview": {"attributes": [
				{"name": "institution_did", "value": "WgWxqztrNooG92RXvxSTWv"},
				{"name": "vc_type", "value": "MedicalLicense"}
			]}
		}`), &record))

		attrs := PreviewAttributes(record)
		require.Len(t, attrs, 2)
		require.Equal(t, "MedicalLicense", PreviewValue(record, "vc_type", "credential_type", "type"))
	})

	t.Run("v1 proposal", func(t *testing.T) {
		record := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(`{
			"credential_proposal_dict": {"credential_proposal": {"attributes": [{"name": "credential_type", "value": "Prescription"}]}}
		}`), &record))

		require.Equal(t, "Prescription", PreviewValue(record, "vc_type", "credential_type", "type"))
	})

	t.Run("no preview", func(t *testing.T) {
		require.Nil(t, PreviewAttributes(map[string]interface{}{"state": "done"}))
		require.Equal(t, "", PreviewValue(map[string]interface{}{}, "vc_type"))
	})
}
