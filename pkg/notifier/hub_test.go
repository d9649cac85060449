package notifier

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	c, _, err := websocket.Dial(context.Background(), u, nil) //nolint:bodyclose
	require.NoError(t, err)
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	all := dialHub(t, srv, "/")
	defer all.Close(websocket.StatusNormalClosure, "")
	proofs := dialHub(t, srv, "/?topic=proofs")
	defer proofs.Close(websocket.StatusNormalClosure, "")

	waitFor(t, func() bool { return hub.Len() == 2 })

	hub.Broadcast(&EventMessage{Topic: TopicPermissions, Event: "granted"})
	hub.Broadcast(&EventMessage{Topic: TopicProofs, Event: "verified"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got := &EventMessage{}
	require.NoError(t, wsjson.Read(ctx, all, got))
	require.Equal(t, "granted", got.Event)
	require.NoError(t, wsjson.Read(ctx, all, got))
	require.Equal(t, "verified", got.Event)

	require.NoError(t, wsjson.Read(ctx, proofs, got))
	require.Equal(t, TopicProofs, got.Topic)

	require.NoError(t, proofs.Close(websocket.StatusNormalClosure, "bye"))
	waitFor(t, func() bool { return hub.Len() == 1 })
}
