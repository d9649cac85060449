package issuer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/gateway/mocks"
	nmocks "github.com/caduceus-vc/caduceus/pkg/notifier/mocks"
)

type authStub map[string]bool

func (r authStub) Authorize(vcType string) error {
	if !r[vcType] {
		return errs.New(errs.NotAuthorized, "no regulator permission for %s", vcType)
	}
	return nil
}

type suite struct {
	issuer *Issuer
	agent  *mocks.Agent
	events *nmocks.Publisher
}

func setup(t *testing.T, auth Authorizer) (*suite, func()) {
	agent := &mocks.Agent{}
	events := &nmocks.Publisher{}
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return &suite{issuer: New(agent, auth, events), agent: agent, events: events}, func() {
		agent.AssertExpectations(t)
	}
}

func credEvent(t *testing.T, payload string) *gateway.Event {
	e, err := gateway.ParseEvent("issue_credential_v2_0", []byte(payload))
	require.NoError(t, err)
	return e
}

func TestIssuer_OfferCredential(t *testing.T) {
	ctx := context.Background()
	attrs := map[string]string{"patient_id": "p-77", "blood_group_rh": "0-", "full_name": "Ann Lee"}

	t.Run("gated by permission", func(t *testing.T) {
		s, finish := setup(t, authStub{})
		defer finish()

		_, err := s.issuer.OfferCredential(ctx, "c-patient", "MedicalRecord", "S1:3:CL:12:MedicalRecord", attrs)
		require.True(t, errs.Is(err, errs.NotAuthorized))
		s.agent.AssertNotCalled(t, "SendOffer", mock.Anything, mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		s, finish := setup(t, authStub{"MedicalRecord": true})
		defer finish()

		_, err := s.issuer.OfferCredential(ctx, "", "MedicalRecord", "S1:3:CL:12:MedicalRecord", attrs)
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("offer then issue on request", func(t *testing.T) {
		s, finish := setup(t, authStub{"MedicalRecord": true})
		defer finish()

		s.agent.On("SendOffer", mock.Anything, mock.MatchedBy(func(o *gateway.Offer) bool {
			return o.ConnectionID == "c-patient" && len(o.Preview.Attributes) == 3 &&
				o.Preview.Attributes[0].Name == "blood_group_rh"
		})).Return("cx-5", nil).Once()
		s.agent.On("IssueCredential", mock.Anything, "cx-5").Return(nil).Once()

		iss, err := s.issuer.OfferCredential(ctx, "c-patient", "MedicalRecord", "S1:3:CL:12:MedicalRecord", attrs)
		require.NoError(t, err)
		require.Equal(t, "cx-5", iss.CredExID)

		require.NoError(t, s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-5","connection_id":"c-patient","state":"request-received"}`)))
		require.NoError(t, s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-5","connection_id":"c-patient","state":"done"}`)))

		list := s.issuer.Issuances()
		require.Len(t, list, 1)
		require.Equal(t, "done", list[0].State)
		s.events.AssertCalled(t, "Publish", "credentials", "issued", map[string]string{
			"cred_ex_id": "cx-5", "connection_id": "c-patient", "vc_type": "MedicalRecord",
		})
	})
}

func TestIssuer_HandleCredentialEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("holder side is ignored", func(t *testing.T) {
		s, finish := setup(t, nil)
		defer finish()

		require.NoError(t, s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-1","state":"request-received","role":"holder"}`)))
	})

	t.Run("untracked exchange with issuer role", func(t *testing.T) {
		s, finish := setup(t, nil)
		defer finish()

		s.agent.On("IssueCredential", mock.Anything, "cx-2").Return(errs.New(errs.TransientAgentFailure, "timeout")).Once()

		err := s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-2","state":"request-received","role":"issuer"}`))
		require.True(t, errs.Is(err, errs.TransientAgentFailure))
	})

	t.Run("untracked exchange is refused when permissions apply", func(t *testing.T) {
		s, finish := setup(t, authStub{"MedicalRecord": true})
		defer finish()

		s.agent.On("CredentialProblemReport", mock.Anything, "cx-untracked", mock.Anything).Return(nil).Once()

		err := s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-untracked","state":"request-received","role":"issuer"}`))
		require.True(t, errs.Is(err, errs.NotAuthorized))
		s.agent.AssertNotCalled(t, "IssueCredential", mock.Anything, mock.Anything)
	})

	t.Run("permission revoked after the offer", func(t *testing.T) {
		auth := authStub{"MedicalRecord": true}
		s, finish := setup(t, auth)
		defer finish()

		s.agent.On("SendOffer", mock.Anything, mock.Anything).Return("cx-6", nil).Once()
		s.agent.On("CredentialProblemReport", mock.Anything, "cx-6", mock.Anything).Return(nil).Once()

		_, err := s.issuer.OfferCredential(ctx, "c-patient", "MedicalRecord", "S1:3:CL:12:MedicalRecord", map[string]string{"patient_id": "p-77"})
		require.NoError(t, err)

		delete(auth, "MedicalRecord")

		err = s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-6","connection_id":"c-patient","state":"request-received"}`))
		require.True(t, errs.Is(err, errs.NotAuthorized))
		s.agent.AssertNotCalled(t, "IssueCredential", mock.Anything, mock.Anything)

		list := s.issuer.Issuances()
		require.Len(t, list, 1)
		require.Equal(t, "refused", list[0].State)
	})

	t.Run("unknown exchange without role", func(t *testing.T) {
		s, finish := setup(t, nil)
		defer finish()

		require.NoError(t, s.issuer.HandleCredentialEvent(ctx, credEvent(t, `{"cred_ex_id":"cx-3","state":"request-received"}`)))
	})
}
