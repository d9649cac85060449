package apiserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/makiuchi-d/gozxing"
	qr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	goji "goji.io"
	"goji.io/pat"

	"github.com/caduceus-vc/caduceus/pkg/connection"
	"github.com/caduceus-vc/caduceus/pkg/consent"
	dsmocks "github.com/caduceus-vc/caduceus/pkg/datastore/mocks"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/gateway/mocks"
	"github.com/caduceus-vc/caduceus/pkg/issuer"
	nmocks "github.com/caduceus-vc/caduceus/pkg/notifier/mocks"
	"github.com/caduceus-vc/caduceus/pkg/permission"
	"github.com/caduceus-vc/caduceus/pkg/regulator"
	"github.com/caduceus-vc/caduceus/pkg/schema"
	"github.com/caduceus-vc/caduceus/pkg/verifier"
	"github.com/caduceus-vc/caduceus/pkg/webhook"
)

type stubProvider struct {
	role   Role
	agent  gateway.Agent
	disp   *webhook.Dispatcher
	conns  *connection.Tracker
	perms  *permission.Workflow
	iss    *issuer.Issuer
	ver    *verifier.Verifier
	gate   *consent.Gate
	reg    *regulator.Regulator
	failed error
}

func (p *stubProvider) Role() Role { return p.role }
func (p *stubProvider) Agent() gateway.Agent { return p.agent }
func (p *stubProvider) Dispatcher() *webhook.Dispatcher { return p.disp }
func (p *stubProvider) Connections() *connection.Tracker { return p.conns }
func (p *stubProvider) Permissions() (*permission.Workflow, error) { return p.perms, p.failed }
func (p *stubProvider) Issuer() (*issuer.Issuer, error) { return p.iss, nil }
func (p *stubProvider) Verifier() (*verifier.Verifier, error) { return p.ver, nil }
func (p *stubProvider) ConsentGate() (*consent.Gate, error) { return p.gate, p.failed }
func (p *stubProvider) Regulator() (*regulator.Regulator, error) { return p.reg, p.failed }

type suite struct {
	server *APIServer
	mux    *goji.Mux
	agent  *mocks.Agent
	store  *dsmocks.Store
}

func setup(t *testing.T, role Role) (*suite, func()) {
	agent := &mocks.Agent{}
	store := &dsmocks.Store{}
	events := &nmocks.Publisher{}
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	conns := connection.New(agent, connection.Config{AutoAccept: true})
	disp := webhook.New(webhook.Config{})
	disp.Register(gateway.TopicConnections, conns.HandleEvent)

	p := &stubProvider{role: role, agent: agent, disp: disp, conns: conns}
	switch role {
	case Institution:
		p.perms = permission.New(agent, store, conns, events, permission.Config{})
		p.iss = issuer.New(agent, p.perms, events)
		p.ver = verifier.New(agent, events)
	case Holder:
		p.gate = consent.New(agent, events, consent.Config{})
	case Regulator:
		p.reg = regulator.New(agent, store, conns, issuer.New(agent, nil, events), events, regulator.Config{})
	}

	srv, err := New(p)
	require.NoError(t, err)

	mux := goji.NewMux()
	mux.Handle(pat.Post("/webhooks/topic/:topic"), srv.WebhookHandler())
	srv.RegisterRoutes(mux)

	return &suite{server: srv, mux: mux, agent: agent, store: store}, func() {
		agent.AssertExpectations(t)
		store.AssertExpectations(t)
	}
}

func (s *suite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func TestNew(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		_, err := New(&stubProvider{role: "pharmacist"})
		require.Error(t, err)
	})

	t.Run("missing component", func(t *testing.T) {
		_, err := New(&stubProvider{role: Holder, failed: errors.New("boom")})
		require.Error(t, err)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.New(errs.ValidationError, "x"), http.StatusBadRequest},
		{errs.New(errs.NotAuthorized, "x"), http.StatusForbidden},
		{errors.Wrap(errs.New(errs.NotFound, "x"), "wrapped"), http.StatusNotFound},
		{errs.New(errs.PartialDisclosureImpossible, "x"), http.StatusConflict},
		{errs.New(errs.TransientAgentFailure, "x"), http.StatusBadGateway},
		{errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWebhook(t *testing.T) {
	t.Run("processed", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		w := s.do(http.MethodPost, "/webhooks/topic/connections", `{"connection_id":"c-1","state":"active","their_label":"City Hospital"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"status":"processed"}`, w.Body.String())
	})

	t.Run("failed", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		s.agent.On("AcceptConnection", mock.Anything, "c-2").Return(errs.New(errs.TransientAgentFailure, "down")).Once()

		w := s.do(http.MethodPost, "/webhooks/topic/connections", `{"connection_id":"c-2","state":"request"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.JSONEq(t, `{"status":"failed"}`, w.Body.String())
	})

	t.Run("unknown topic", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		w := s.do(http.MethodPost, "/webhooks/topic/problem_report", `{}`)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestInvitationQR(t *testing.T) {
	s, finish := setup(t, Institution)
	defer finish()

	url := "http://agent.example:8020?oob=eyJAdHlwZSI6ICJodHRwczovL2RpZGNvbW0ub3JnL291dC1vZi1iYW5kLzEuMS9pbnZpdGF0aW9uIn0"
	s.agent.On("CreateInvitation", mock.Anything, "patient-1").Return(&gateway.Invitation{
		URL:          url,
		ConnectionID: "c-9",
		Invitation:   map[string]interface{}{"@type": "https://didcomm.org/out-of-band/1.1/invitation"},
	}, nil).Once()

	w := s.do(http.MethodPost, "/invitations", `{"alias":"patient-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := &InvitationResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	require.Equal(t, url, out.InvitationURL)
	require.Equal(t, "c-9", out.ConnectionID)

	raw, err := base64.StdEncoding.DecodeString(out.QRPNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)

	result, err := qr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	require.Equal(t, url, result.GetText())
}

func TestInstitutionRoutes(t *testing.T) {
	t.Run("permission request without regulator", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		s.store.On("HasPermission", "MedicalRecord").Return(false, nil).Once()

		w := s.do(http.MethodPost, "/permissions/request", `{"vc_type":"MedicalRecord"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("already authorized", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		s.store.On("HasPermission", "MedicalRecord").Return(true, nil).Once()

		w := s.do(http.MethodPost, "/permissions/request", `{"vc_type":"MedicalRecord"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"already_authorized":true`)
	})

	t.Run("offer without permission", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		s.store.On("HasPermission", "MedicalRecord").Return(false, nil).Once()

		w := s.do(http.MethodPost, "/credentials/offer", `{
			"connection_id":"c-patient","vc_type":"MedicalRecord","cred_def_id":"X:3:CL:1:default",
			"attributes":{"full_name":"Ann Lee"}
		}`)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("schema fields are required", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		w := s.do(http.MethodPost, "/schemas", `{"vc_type":"MedicalRecord"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		w := s.do(http.MethodPost, "/did/register", `{"alias":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("regulator connection", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		w := s.do(http.MethodPost, "/regulator/connection", `{"connection_id":"c-reg"}`)
		require.Equal(t, http.StatusOK, w.Code)

		id, ok := s.server.conns.Lookup(connection.RegulatorAlias)
		require.True(t, ok)
		require.Equal(t, "c-reg", id)
	})

	t.Run("unknown proof", func(t *testing.T) {
		s, finish := setup(t, Institution)
		defer finish()

		w := s.do(http.MethodGet, "/proofs/px-404", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHolderRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("staged invitation is accepted", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		w := s.do(http.MethodPost, "/pending/invitations", `{"invitation":{"@id":"inv-1","label":"City Hospital","services":["did:peer:2.xyz"]}}`)
		require.Equal(t, http.StatusOK, w.Code)

		s.agent.On("ReceiveInvitation", mock.Anything, mock.Anything).Return(&gateway.ConnectionRecord{ConnectionID: "c-5", State: "request"}, nil).Once()

		w = s.do(http.MethodPost, "/pending/invitations/inv-1/accept", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "c-5")

		w = s.do(http.MethodPost, "/pending/invitations/inv-1/reject", "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invitation url", func(t *testing.T) {
		raw, err := invitationFrom([]byte(`{"invitation_url":"https://agent.example?oob=eyJAaWQiOiJpbnYtMiJ9"}`))
		require.NoError(t, err)
		require.JSONEq(t, `{"@id":"inv-2"}`, string(raw))

		_, err = invitationFrom([]byte(`{"invitation_url":"https://agent.example?x=1"}`))
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("partial disclosure conflicts", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		e, err := gateway.ParseEvent("present_proof_v2_0", []byte(`{"pres_ex_id":"px-1","connection_id":"c-5","state":"request-received",
			"by_format":{"pres_request":{"indy":{"name":"Checkup","version":"1.0",
			"requested_attributes":{"a1":{"name":"full_name"}},"requested_predicates":{}}}}}`))
		require.NoError(t, err)
		require.NoError(t, s.server.gate.HandleProofEvent(ctx, e))

		s.agent.On("GetProofCredentials", mock.Anything, "px-1").Return([]schema.CredentialCandidate{}, nil).Once()

		w := s.do(http.MethodPost, "/pending/proofs/px-1/accept", "")
		require.Equal(t, http.StatusConflict, w.Code)
		require.Len(t, s.server.gate.Proofs(), 1)
	})

	t.Run("emergency toggles", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		w := s.do(http.MethodPost, "/emergency/disable", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.False(t, s.server.gate.Emergency().Enabled)

		w = s.do(http.MethodPost, "/emergency/enable", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, s.server.gate.Emergency().Enabled)
	})

	t.Run("institution routes are not mounted", func(t *testing.T) {
		s, finish := setup(t, Holder)
		defer finish()

		w := s.do(http.MethodPost, "/permissions/request", `{"vc_type":"MedicalRecord"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRegulatorRoutes(t *testing.T) {
	t.Run("registration needs fields", func(t *testing.T) {
		s, finish := setup(t, Regulator)
		defer finish()

		w := s.do(http.MethodPost, "/entities", `{"institution_name":"City Hospital"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("approve unknown request", func(t *testing.T) {
		s, finish := setup(t, Regulator)
		defer finish()

		s.store.On("GetIssuanceRequest", "req-9").Return(nil, errs.New(errs.NotFound, "record not found")).Once()

		w := s.do(http.MethodPost, "/issuance-requests/req-9/approve", `{"approved_by":"op"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":"record not found"}`, w.Body.String())
	})

	t.Run("verify permission", func(t *testing.T) {
		s, finish := setup(t, Regulator)
		defer finish()

		s.store.On("GetEntityByDID", "WgWxqztrNooG92RXvxSTWv").Return(nil, errs.New(errs.NotFound, "record not found")).Once()

		w := s.do(http.MethodPost, "/verify-institution-permission", `{"hospital_did":"did:sov:WgWxqztrNooG92RXvxSTWv","credential_type":"MedicalRecord"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"authorized":false`)
	})

	t.Run("bad status", func(t *testing.T) {
		s, finish := setup(t, Regulator)
		defer finish()

		w := s.do(http.MethodPut, "/entities/e-1/status", `{"status":"PAUSED"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
