/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/errs"
)

const (
	mongoStoreURL = "mongodb://localhost:27017"
)

// For these unit tests to run, you must ensure you have a Mongo DB instance running at the URL specified in
// mongoStoreURL.
// To run the tests manually, start an instance by running the following command in the terminal
// docker run -p 27017:27017 --name MongoStoreTest -d mongo:4.2.8
// delete using
//   docker kill MongoStoreTest
//   docker rm MongoStoreTest
func TestMain(m *testing.M) {
	err := waitForMongoToStart()
	if err != nil {
		fmt.Printf(err.Error() +
			". Make sure you start a mongo instance using" +
			" 'docker run -p 27017:27017 mongo:4.2.8' before running the unit tests")
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func waitForMongoToStart() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoStoreURL).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	return client.Ping(ctx, nil)
}

func openStore(t *testing.T) datastore.Store {
	prov, err := NewProvider(&Config{URL: mongoStoreURL, Database: "caduceus_test"})
	require.NoError(t, err)

	store, err := prov.OpenStore("t" + uuid.New().String()[:8])
	require.NoError(t, err)

	return store
}

func TestMongoDBStore_Institution(t *testing.T) {
	store := openStore(t)

	_, err := store.GetPublicInstitution()
	require.True(t, errs.Is(err, errs.NotFound))

	err = store.UpsertInstitution(&datastore.Institution{DID: "did1", Verkey: "vk1", Alias: "City Hospital"})
	require.NoError(t, err)
	err = store.UpsertInstitution(&datastore.Institution{DID: "did1", Verkey: "vk1", Alias: "City Hospital East"})
	require.NoError(t, err)

	inst, err := store.GetInstitution("did1")
	require.NoError(t, err)
	require.Equal(t, "City Hospital East", inst.Alias)
	require.False(t, inst.Public)

	require.NoError(t, store.SetInstitutionPublic("did1"))
	pub, err := store.GetPublicInstitution()
	require.NoError(t, err)
	require.Equal(t, "did1", pub.DID)

	err = store.SetInstitutionPublic("missing")
	require.True(t, errs.Is(err, errs.NotFound))
}

func TestMongoDBStore_Permission(t *testing.T) {
	store := openStore(t)

	ok, err := store.HasPermission("MedicalRecord")
	require.NoError(t, err)
	require.False(t, ok)

	p := &datastore.Permission{VCType: "MedicalRecord", CredExID: "cx-1", IssuedAt: time.Now().UTC()}
	require.NoError(t, store.UpsertPermission(p))
	require.NoError(t, store.UpsertPermission(p))

	ok, err = store.HasPermission("MedicalRecord")
	require.NoError(t, err)
	require.True(t, ok)

	perms, err := store.ListPermissions()
	require.NoError(t, err)
	require.Len(t, perms, 1)
}

func TestMongoDBStore_Entity(t *testing.T) {
	store := openStore(t)

	e := &datastore.Entity{ID: "e1", Name: "City Hospital", DID: "did1", License: "LIC-1", Status: datastore.EntityActive, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.InsertEntity(e))

	got, err := store.GetEntityByLicense("LIC-1")
	require.NoError(t, err)
	require.Equal(t, "e1", got.ID)

	got.Status = datastore.EntitySuspended
	require.NoError(t, store.UpdateEntity(got))

	got, err = store.GetEntityByDID("did1")
	require.NoError(t, err)
	require.Equal(t, datastore.EntitySuspended, got.Status)

	list, err := store.ListEntities(&datastore.EntityCriteria{Name: "city", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)

	_, err = store.GetEntity("nope")
	require.True(t, errs.Is(err, errs.NotFound))
	require.True(t, errs.Is(store.UpdateEntity(&datastore.Entity{ID: "nope"}), errs.NotFound))
}

func TestMongoDBStore_Requests(t *testing.T) {
	store := openStore(t)

	req := &datastore.IssuanceRequest{ID: "r1", InstitutionDID: "did1", VCType: "MedicalRecord", Status: datastore.RequestPending}
	require.NoError(t, store.UpsertIssuanceRequest(req))
	require.NoError(t, store.UpsertIssuanceRequest(req))

	pending, err := store.ListIssuanceRequests(datastore.RequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mod := &datastore.ModificationRequest{ID: "m1", InstitutionDID: "did1", Status: datastore.RequestPending,
		Changes: []datastore.SchemaChange{{SchemaName: "Medical Record", Attributes: []string{"patient_id", "diagnosis"}}}}
	require.NoError(t, store.UpsertModificationRequest(mod))

	got, err := store.GetModificationRequest("m1")
	require.NoError(t, err)
	require.Equal(t, []string{"patient_id", "diagnosis"}, got.Changes[0].Attributes)

	all, err := store.ListModificationRequests("")
	require.NoError(t, err)
	require.Len(t, all, 1)
}
