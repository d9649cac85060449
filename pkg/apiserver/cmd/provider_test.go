package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caduceus-vc/caduceus/pkg/apiserver"
	"github.com/caduceus-vc/caduceus/pkg/config"
	"github.com/caduceus-vc/caduceus/pkg/webhook"
)

func load(t *testing.T, file string) config.Config {
	vp := &config.ViperConfigProvider{}
	return vp.Load(file)
}

func TestNewProvider(t *testing.T) {
	t.Run("holder", func(t *testing.T) {
		prov, err := NewProvider(load(t, "./testdata/holder.yaml"), apiserver.Holder)
		require.NoError(t, err)
		defer prov.Close()

		gate, err := prov.ConsentGate()
		require.NoError(t, err)
		require.Equal(t, []string{"blood_group_rh"}, gate.Emergency().Scope)

		_, err = prov.Permissions()
		require.Error(t, err)
		_, err = prov.Regulator()
		require.Error(t, err)

		ep, err := prov.GetAPIEndpoint()
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:7781", ep.Address())

		srv, err := apiserver.New(prov)
		require.NoError(t, err)
		require.NotNil(t, srv)

		out := prov.Dispatcher().Handle(context.Background(), "connections", []byte(`{"connection_id":"c-1","state":"active"}`))
		require.Equal(t, webhook.Processed, out)

		c, ok := prov.Connections().Get("c-1")
		require.True(t, ok)
		require.EqualValues(t, "Active", c.State)
	})

	t.Run("institution needs a datastore", func(t *testing.T) {
		_, err := NewProvider(load(t, "./testdata/institution.yaml"), apiserver.Institution)
		require.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := NewProvider(load(t, "./testdata/holder.yaml"), apiserver.Role("pharmacy"))
		require.Error(t, err)
	})
}
