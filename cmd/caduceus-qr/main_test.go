package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/require"
)

const invitationURL = "http://acapy.example:8020?oob=eyJAaWQiOiJpbnYtMSJ9"

func TestDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		png, err := qrcode.Encode(invitationURL, qrcode.Medium, 256)
		require.NoError(t, err)

		u, err := decode(bytes.NewReader(png))
		require.NoError(t, err)
		require.Equal(t, invitationURL, u)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := decode(bytes.NewBufferString("not a png"))
		require.Error(t, err)
	})
}

func TestCreateAndStage(t *testing.T) {
	var staged map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-API-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch req.URL.Path {
		case "/invitations":
			_ = json.NewEncoder(w).Encode(map[string]string{"invitation_url": invitationURL})
		case "/pending/invitations":
			_ = json.NewDecoder(req.Body).Decode(&staged)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	u, err := createInvitation(srv.Client(), srv.URL+"/", "k", "patient-1")
	require.NoError(t, err)
	require.Equal(t, invitationURL, u)

	require.NoError(t, stageInvitation(srv.Client(), srv.URL, "k", u))
	require.Equal(t, invitationURL, staged["invitation_url"])

	_, err = createInvitation(srv.Client(), srv.URL, "wrong", "patient-1")
	require.Error(t, err)
}
