package regulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/errs"
	"github.com/caduceus-vc/caduceus/pkg/gateway"
	"github.com/caduceus-vc/caduceus/pkg/message"
)

func pendingRequest() *datastore.IssuanceRequest {
	return &datastore.IssuanceRequest{
		ID:             "req-1",
		InstitutionDID: hospitalDID,
		VCType:         "MedicalRecord",
		ConnectionID:   hospitalConn,
		Status:         datastore.RequestPending,
	}
}

func TestRegulator_ApproveIssuance(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetIssuanceRequest", "req-9").Return(nil, datastore.ErrNotFound).Once()

		_, err := s.reg.ApproveIssuance(ctx, "req-9", "", "op")
		require.True(t, errs.Is(err, errs.NotFound))
	})

	t.Run("already processed", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		req := pendingRequest()
		req.Status = datastore.RequestRejected
		s.store.On("GetIssuanceRequest", "req-1").Return(req, nil).Once()

		_, err := s.reg.ApproveIssuance(ctx, "req-1", "", "op")
		require.True(t, errs.Is(err, errs.ValidationError))
	})

	t.Run("grants and issues the permission credential", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetIssuanceRequest", "req-1").Return(pendingRequest(), nil).Once()
		s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil).Once()
		s.agent.On("SendOffer", mock.Anything, mock.MatchedBy(func(o *gateway.Offer) bool {
			if o.ConnectionID != hospitalConn || o.CredDefID != permCredDef || len(o.Preview.Attributes) != 3 {
				return false
			}
			return o.Preview.Attributes[0].Name == "granted_at" &&
				o.Preview.Attributes[1].Value == hospitalDID &&
				o.Preview.Attributes[2].Value == "MedicalRecord"
		})).Return("cx-perm", nil).Once()
		s.store.On("UpdateEntity", mock.MatchedBy(func(e *datastore.Entity) bool {
			return e.CanIssue("MedicalRecord")
		})).Return(nil).Once()
		s.store.On("UpsertIssuanceRequest", mock.MatchedBy(func(r *datastore.IssuanceRequest) bool {
			return r.Status == datastore.RequestApproved && r.CredExID == "cx-perm" && r.DecisionBy == "op"
		})).Return(nil).Once()
		s.agent.On("SendMessage", mock.Anything, hospitalConn, sentEnvelope(message.IssuanceApproved, func(env *message.Envelope) bool {
			return env.String("request_id") == "req-1"
		})).Return(nil).Once()

		d, err := s.reg.ApproveIssuance(ctx, "req-1", "ok", "op")
		require.NoError(t, err)
		require.Equal(t, datastore.RequestApproved, d.Status)
		require.True(t, d.NotificationSent)
		require.Equal(t, "cx-perm", d.CredExID)
	})

	t.Run("offer failure leaves the request pending", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		s.store.On("GetIssuanceRequest", "req-1").Return(pendingRequest(), nil).Once()
		s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil).Once()
		s.agent.On("SendOffer", mock.Anything, mock.Anything).Return("", errs.New(errs.TransientAgentFailure, "timeout")).Once()

		_, err := s.reg.ApproveIssuance(ctx, "req-1", "", "op")
		require.True(t, errs.Is(err, errs.TransientAgentFailure))
		s.store.AssertNotCalled(t, "UpsertIssuanceRequest", mock.Anything)
	})

	t.Run("concurrent approvals offer once", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		req := pendingRequest()
		s.store.On("GetIssuanceRequest", "req-1").Return(req, nil).Twice()
		s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil).Once()
		s.agent.On("SendOffer", mock.Anything, mock.Anything).After(20*time.Millisecond).Return("cx-perm", nil).Once()
		s.store.On("UpdateEntity", mock.Anything).Return(nil).Once()
		s.store.On("UpsertIssuanceRequest", mock.Anything).Return(nil).Once()
		s.agent.On("SendMessage", mock.Anything, hospitalConn, mock.Anything).Return(nil).Once()

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.reg.ApproveIssuance(ctx, "req-1", "ok", "op")
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var approved, refused int
		for err := range results {
			if err == nil {
				approved++
				continue
			}
			require.True(t, errs.Is(err, errs.ValidationError))
			refused++
		}
		require.Equal(t, 1, approved)
		require.Equal(t, 1, refused)
		s.agent.AssertNumberOfCalls(t, "SendOffer", 1)
	})

	t.Run("suspended institution", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.Status = datastore.EntitySuspended
		s.store.On("GetIssuanceRequest", "req-1").Return(pendingRequest(), nil).Once()
		s.store.On("GetEntityByDID", hospitalDID).Return(ent, nil).Once()

		_, err := s.reg.ApproveIssuance(ctx, "req-1", "", "op")
		require.True(t, errs.Is(err, errs.NotAuthorized))
	})
}

func TestRegulator_RejectIssuance(t *testing.T) {
	s, finish := setup(t)
	defer finish()

	s.store.On("GetIssuanceRequest", "req-1").Return(pendingRequest(), nil).Once()
	s.store.On("UpsertIssuanceRequest", mock.MatchedBy(func(r *datastore.IssuanceRequest) bool {
		return r.Status == datastore.RequestRejected && r.DecisionReason == "incomplete license"
	})).Return(nil).Once()
	s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil).Once()
	s.agent.On("SendMessage", mock.Anything, hospitalConn, sentEnvelope(message.PermissionRejected, func(env *message.Envelope) bool {
		return env.String("reason") == "incomplete license"
	})).Return(nil).Once()

	d, err := s.reg.RejectIssuance(context.Background(), "req-1", "incomplete license", "op")
	require.NoError(t, err)
	require.Equal(t, datastore.RequestRejected, d.Status)
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name   string
		change datastore.SchemaChange
		valid  bool
	}{
		{"empty", datastore.SchemaChange{}, false},
		{"one attribute", datastore.SchemaChange{SchemaName: "Allergy", Attributes: []string{"allergens"}}, false},
		{"plain", datastore.SchemaChange{SchemaName: "Allergy", Attributes: []string{"allergens", "severity"}}, true},
		{"medical without patient id", datastore.SchemaChange{SchemaName: "MedicalNote", Attributes: []string{"text", "author"}}, false},
		{"medical with patient id", datastore.SchemaChange{SchemaName: "BasicMedicalRecord", Attributes: []string{"full_name", "blood_group_rh"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema(tt.change)
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.True(t, errs.Is(err, errs.ValidationError))
		})
	}
}

func TestRegulator_Modifications(t *testing.T) {
	ctx := context.Background()
	changes := []datastore.SchemaChange{{SchemaName: "AllergyRecord", Attributes: []string{"patient_id", "allergens"}}}

	t.Run("lab may not modify", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		ent := hospital()
		ent.Type = datastore.Lab
		s.store.On("GetEntityByDID", hospitalDID).Return(ent, nil).Once()

		_, err := s.reg.SubmitModification(hospitalDID, changes)
		require.True(t, errs.Is(err, errs.NotAuthorized))
	})

	t.Run("submit and approve", func(t *testing.T) {
		s, finish := setup(t)
		defer finish()

		var stored *datastore.ModificationRequest
		s.store.On("GetEntityByDID", hospitalDID).Return(hospital(), nil)
		s.store.On("UpsertModificationRequest", mock.Anything).Run(func(args mock.Arguments) {
			stored = args.Get(0).(*datastore.ModificationRequest)
		}).Return(nil).Twice()

		req, err := s.reg.SubmitModification(hospitalDID, changes)
		require.NoError(t, err)
		require.Equal(t, datastore.RequestPending, req.Status)

		s.store.On("GetModificationRequest", req.ID).Return(stored, nil).Once()
		s.agent.On("SendMessage", mock.Anything, hospitalConn, sentEnvelope(message.ModificationApproved, nil)).Return(nil).Once()

		out, err := s.reg.ApproveModification(ctx, req.ID, "fits standards", "op")
		require.NoError(t, err)
		require.Equal(t, datastore.RequestApproved, out.Status)
		require.Len(t, out.Approved, 1)

		s.store.On("GetModificationRequest", req.ID).Return(out, nil).Once()
		_, err = s.reg.RejectModification(ctx, req.ID, "", "op")
		require.True(t, errs.Is(err, errs.ValidationError))
	})
}
