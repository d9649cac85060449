package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("permission request", func(t *testing.T) {
		content := `{"type":"CREDENTIAL_TYPE_PERMISSION_REQUEST","request_id":"r-1","credential_type":"MedicalLicense","hospital_did":"WgWxqztrNooG92RXvxSTWv","timestamp":"2024-01-01T00:00:00"}`

		e, err := Parse(content)
		require.NoError(t, err)
		require.Equal(t, PermissionRequest, e.Type)
		require.Equal(t, "r-1", e.String("request_id"))
		require.Equal(t, "MedicalLicense", e.String("credential_type"))
		require.Equal(t, "2024-01-01T00:00:00", e.Timestamp)
	})

	t.Run("regulator notification nests data", func(t *testing.T) {
		content := `{"type":"CREDENTIAL_ISSUANCE_APPROVED","from":"REGULATOR","timestamp":"t","data":{"request_id":"r-2"}}`

		e, err := Parse(content)
		require.NoError(t, err)
		require.Equal(t, FromRegulator, e.From)
		require.Equal(t, "r-2", e.String("request_id"))
	})

	t.Run("unknown type", func(t *testing.T) {
		e, err := Parse(`{"type":"STATUS_UPDATE"}`)
		require.Error(t, err)
		require.Equal(t, ErrUnknownType, errors.Cause(err))
		require.NotNil(t, e)
		require.False(t, e.Type.Valid())
	})

	t.Run("plain text", func(t *testing.T) {
		_, err := Parse("hello there")
		require.Equal(t, ErrNotStructured, err)

		_, err = Parse(`{"no":"type"}`)
		require.Equal(t, ErrNotStructured, err)

		_, err = Parse(`{broken`)
		require.Equal(t, ErrNotStructured, err)
	})
}

func TestEnvelope_Content(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	e := New(DIDRegistrationRequest, map[string]interface{}{
		"hospital_did": "WgWxqztrNooG92RXvxSTWv",
		"verkey":       "GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL",
		"alias":        "City Hospital",
	})

	content, err := e.Content()
	require.NoError(t, err)

	m := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(content), &m))
	require.Equal(t, "DID_REGISTRATION_REQUEST", m["type"])
	require.Equal(t, "2024-03-01T12:00:00Z", m["timestamp"])
	require.Equal(t, "City Hospital", m["alias"])
	require.NotContains(t, m, "from")

	back, err := Parse(content)
	require.NoError(t, err)
	require.Equal(t, "WgWxqztrNooG92RXvxSTWv", back.String("hospital_did"))
}

func TestNotification(t *testing.T) {
	e := Notification(InstitutionSuspended, map[string]interface{}{"reason": "audit"})
	require.Equal(t, FromRegulator, e.From)
	require.Equal(t, "audit", e.String("reason"))
}

func TestEnvelope_Accessors(t *testing.T) {
	e, err := Parse(`{"type":"CREDENTIAL_MODIFICATION_REQUEST","hospital_did":"did:sov:abc","requested_changes":[{"schema_name":"Medical Record","attributes":["patient_id","diagnosis"]}],"tags":["a",1,"b"]}`)
	require.NoError(t, err)

	var changes []struct {
		SchemaName string   `json:"schema_name"`
		Attributes []string `json:"attributes"`
	}
	require.NoError(t, e.Decode("requested_changes", &changes))
	require.Len(t, changes, 1)
	require.Equal(t, "Medical Record", changes[0].SchemaName)

	require.Equal(t, []string{"a", "b"}, e.Strings("tags"))
	require.Error(t, e.Decode("missing", &changes))
	require.Equal(t, "", e.String("missing"))
}
