package regulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/datastore"
	dsmocks "github.com/caduceus-vc/caduceus/pkg/datastore/mocks"
	"github.com/caduceus-vc/caduceus/pkg/did"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/gateway/mocks"
	"github.com/caduceus-vc/caduceus/pkg/issuer"
	"github.com/caduceus-vc/caduceus/pkg/message"
	nmocks "github.com/caduceus-vc/caduceus/pkg/notifier/mocks"
)

const (
	hospitalDID  = "WgWxqztrNooG92RXvxSTWv"
	hospitalVK   = "GJ1SzoWzavQYfNL9XkaJdrQejfztN4XqdsiV4ct3LXKL"
	hospitalConn = "c-hospital"
	permCredDef  = "Rg8zvDSBo2VmR8TnPXTTrW:3:CL:14:permission"
)

type connStub map[string]string

func (r connStub) Lookup(key string) (string, bool) {
	id, ok := r[key]
	return id, ok
}

type suite struct {
	reg    *Regulator
	agent  *mocks.Agent
	store  *dsmocks.Store
	events *nmocks.Publisher
	conns  connStub
}

func setup(t *testing.T) (*suite, func()) {
	agent := &mocks.Agent{}
	store := &dsmocks.Store{}
	events := &nmocks.Publisher{}
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	conns := connStub{}

	r := New(agent, store, conns, issuer.New(agent, nil, events), events, Config{
		PermissionCredDefID: permCredDef,
		AutoEndorse:         true,
	})
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	return &suite{reg: r, agent: agent, store: store, events: events, conns: conns}, func() {
		agent.AssertExpectations(t)
		store.AssertExpectations(t)
	}
}

func hospital() *datastore.Entity {
	return &datastore.Entity{
		ID:                 "e-1",
		Name:               "City Hospital",
		DID:                hospitalDID,
		Verkey:             hospitalVK,
		Role:               "ENDORSER",
		Type:               datastore.Hospital,
		License:            "LIC-001",
		Status:             datastore.EntityActive,
		ConnectionID:       hospitalConn,
		AllowedCredentials: []string{},
	}
}

func sentEnvelope(t message.Type, check func(*message.Envelope) bool) interface{} {
	return mock.MatchedBy(func(content string) bool {
		env, err := message.Parse(content)
		if err != nil || env.Type != t {
			return false
		}
		return check == nil || check(env)
	})
}

func TestRegulator_RegisterEntity(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		_, err := s.reg.RegisterEntity(ctx, &EntityRegistration{Name: "City Hospital"})
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("unknown type", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		_, err := s.reg.RegisterEntity(ctx, &EntityRegistration{Name: "Spa", License: "L-9", Type: "SPA"})
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("duplicate license", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntityByLicense", "LIC-001").Return(hospital(), nil).Once()

		_, err := s.reg.RegisterEntity(ctx, &EntityRegistration{Name: "City Hospital", License: "LIC-001", Type: "HOSPITAL"})
		require.True(t, errs.Is(err, errs.ValidationError))
		s.agent.AssertNotCalled(t, "RegisterNym", mock.Anything, mock.Anything)
	})

	t.Run("registers with the role of its type", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		seed := did.SeedFor("LIC-002", "North Clinic", "1772355600")
		want, _, err := did.CreateMyDid(&did.MyDIDInfo{Seed: seed, Cid: true})
		require.NoError(t, err)

		s.store.On("GetEntityByLicense", "LIC-002").Return(nil, datastore.ErrNotFound).Once()
		s.agent.On("RegisterNym", mock.Anything, &gateway.Nym{
			DID: want.DIDVal.DID, Verkey: want.Verkey, Alias: "North Clinic", Role: "TRUST_ANCHOR",
		}).Return(nil).Once()
		s.store.On("InsertEntity", mock.MatchedBy(func(e *datastore.Entity) bool {
			return e.Status == datastore.EntityActive && e.Type == datastore.Clinic && e.DID == want.DIDVal.DID
		})).Return(nil).Once()

		out, err := s.reg.RegisterEntity(ctx, &EntityRegistration{Name: "North Clinic", License: "LIC-002", Type: "clinic"})
		require.NoError(t, err)
		require.Equal(t, seed, out.Seed)
		require.Len(t, out.Seed, 32)
		require.Equal(t, "TRUST_ANCHOR", out.Role)
		require.Equal(t, want.DIDVal.DID, out.DID)
	})

	t.Run("ledger failure", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntityByLicense", "LIC-003").Return(nil, datastore.ErrNotFound).Once()
		s.agent.On("RegisterNym", mock.Anything, mock.Anything).Return(errs.New(errs.TransientAgentFailure, "ledger down")).Once()

		_, err := s.reg.RegisterEntity(ctx, &EntityRegistration{Name: "Lab", License: "LIC-003", Type: "LAB"})
		require.True(t, errs.Is(err, errs.TransientAgentFailure))
		s.store.AssertNotCalled(t, "InsertEntity", mock.Anything)
	})
}

func TestRegulator_SetEntityStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		_, err := s.reg.SetEntityStatus(ctx, "e-1", "PAUSED", "")
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("not found", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntity", "e-9").Return(nil, datastore.ErrNotFound).Once()

		_, err := s.reg.SetEntityStatus(ctx, "e-9", "SUSPENDED", "")
		require.True(t, errs.Is(err, errs.NotFound))
	})

	t.Run("suspension is announced", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntity", "e-1").Return(hospital(), nil).Once()
		s.store.On("UpdateEntity", mock.MatchedBy(func(e *datastore.Entity) bool {
			return e.Status == datastore.EntitySuspended && e.StatusReason == "audit"
		})).Return(nil).Once()
		s.agent.On("SendMessage", mock.Anything, hospitalConn, sentEnvelope(message.InstitutionSuspended, func(env *message.Envelope) bool {
			return env.String("reason") == "audit" && env.From == message.FromRegulator
		})).Return(nil).Once()

		ent, err := s.reg.SetEntityStatus(ctx, "e-1", "suspended", "audit")
		require.NoError(t, err)
		require.Equal(t, datastore.EntitySuspended, ent.Status)
	})

	t.Run("notification falls back to tracked connection", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.ConnectionID = ""
		ent.Status = datastore.EntitySuspended
		s.conns[hospitalDID] = "c-other"

		s.store.On("GetEntity", "e-1").Return(ent, nil).Once()
		s.store.On("UpdateEntity", mock.Anything).Return(nil).Once()
		s.agent.On("SendMessage", mock.Anything, "c-other", sentEnvelope(message.InstitutionActivated, nil)).Return(nil).Once()

		_, err := s.reg.SetEntityStatus(ctx, "e-1", "ACTIVE", "cleared")
		require.NoError(t, err)
	})

	t.Run("unchanged status is a no-op", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntity", "e-1").Return(hospital(), nil).Once()

		_, err := s.reg.SetEntityStatus(ctx, "e-1", "ACTIVE", "")
		require.NoError(t, err)
	})
}

func TestRegulator_BindConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("binds by peer DID", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.ConnectionID = ""
		s.store.On("GetEntityByDID", hospitalDID).Return(ent, nil).Once()
		s.store.On("UpdateEntity", mock.MatchedBy(func(e *datastore.Entity) bool {
			return e.ConnectionID == "c-new"
		})).Return(nil).Once()

		require.NoError(t, s.reg.BindConnection(ctx, &connection.Connection{ID: "c-new", PeerDID: "did:sov:" + hospitalDID}))
	})

	t.Run("stranger", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntityByDID", "Th7MpTaRZVRYnPiabds81Y").Return(nil, datastore.ErrNotFound).Once()
		require.NoError(t, s.reg.BindConnection(ctx, &connection.Connection{ID: "c-x", PeerDID: "Th7MpTaRZVRYnPiabds81Y"}))
	})
}

func TestRegulator_VerifyInstitutionPermission(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.Allow("MedicalRecord")
		s.store.On("GetEntityByDID", hospitalDID).Return(ent, nil).Once()

		out, err := s.reg.VerifyInstitutionPermission(hospitalDID, "MedicalRecord")
		require.NoError(t, err)
		require.True(t, out.Authorized)
	})

	t.Run("suspended", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.Allow("MedicalRecord")
		ent.Status = datastore.EntitySuspended
		s.store.On("GetEntityByDID", hospitalDID).Return(ent, nil).Once()

		out, err := s.reg.VerifyInstitutionPermission(hospitalDID, "MedicalRecord")
		require.NoError(t, err)
		require.False(t, out.Authorized)
		require.Equal(t, "institution is suspended", out.Reason)
	})

	t.Run("unregistered", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetEntityByDID", hospitalDID).Return(nil, datastore.ErrNotFound).Once()

		out, err := s.reg.VerifyInstitutionPermission("did:sov:"+hospitalDID, "MedicalRecord")
		require.NoError(t, err)
		require.False(t, out.Authorized)
	})

	t.Run("missing input", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		_, err := s.reg.VerifyInstitutionPermission("", "MedicalRecord")
		require.True(t, errs.Is(err, errs.ValidationError))
	})
}

func TestRegulator_VerifyCredentialDefinition(t *testing.T) {
	s, finish := setup(t)
	defer finish()

	s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil).Twice()

	out, err := s.reg.VerifyCredentialDefinition(hospitalDID, hospitalDID+":3:CL:20:MedicalRecord")
	require.NoError(t, err)
	require.True(t, out.Verified)

	out, err = s.reg.VerifyCredentialDefinition(hospitalDID, "Th7MpTaRZVRYnPiabds81Y:3:CL:20:MedicalRecord")
	require.NoError(t, err)
	require.False(t, out.Verified)
}
