/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
)

type Config struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// Provider represents a Mongo DB implementation of the storage.Provider interface
type Provider struct {
	db     *mongo.Database
	stores map[string]*mongoDBStore
	sync.RWMutex
}

type mongoDBStore struct {
	institutions  *mongo.Collection
	permissions   *mongo.Collection
	entities      *mongo.Collection
	issuance      *mongo.Collection
	modifications *mongo.Collection
}

// NewProvider instantiates Provider
func NewProvider(config *Config) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config missing")
	}

	tM := reflect.TypeOf(bson.M{})
	reg := bson.NewRegistryBuilder().RegisterTypeMapEntry(bsontype.EmbeddedDocument, tM).Build()
	clientOpts := options.Client().SetRegistry(reg).ApplyURI(config.URL)

	mongoClient, err := mongo.NewClient(clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "error creating mongo client")
	}

	err = mongoClient.Connect(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo")
	}

	err = mongoClient.Ping(context.Background(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "error pinging mongo")
	}

	p := &Provider{
		db:     mongoClient.Database(config.Database),
		stores: map[string]*mongoDBStore{},
	}

	return p, nil
}

// OpenStore opens and returns the collections for given name space.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	if store, ok := p.stores[name]; ok {
		return store, nil
	}

	c := func(kind string) *mongo.Collection {
		return p.db.Collection(fmt.Sprintf("%s_%s", name, kind))
	}

	store := &mongoDBStore{
		institutions:  c(datastore.InstitutionC),
		permissions:   c(datastore.PermissionC),
		entities:      c(datastore.EntityC),
		issuance:      c(datastore.IssuanceC),
		modifications: c(datastore.ModificationC),
	}

	p.stores[name] = store

	return store, nil
}

// Close closes the provider.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = make(map[string]*mongoDBStore)

	return p.db.Client().Disconnect(context.Background())
}

// CloseStore closes a previously opened stores
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, name)

	return nil
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(datastore.ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}

func (r *mongoDBStore) UpsertInstitution(i *datastore.Institution) error {
	_, err := r.institutions.UpdateOne(context.Background(), bson.M{"did": i.DID}, bson.M{"$set": i}, upsert())
	if err != nil {
		return errors.Wrap(err, "unable to upsert institution")
	}

	return nil
}

func (r *mongoDBStore) GetInstitution(did string) (*datastore.Institution, error) {
	out := &datastore.Institution{}
	err := r.institutions.FindOne(context.Background(), bson.M{"did": did}).Decode(out)
	if err != nil {
		return nil, notFound(err, "unable to load institution %s", did)
	}

	return out, nil
}

func (r *mongoDBStore) SetInstitutionPublic(did string) error {
	ctx := context.Background()
	_, err := r.institutions.UpdateMany(ctx, bson.M{"did": bson.M{"$ne": did}}, bson.M{"$set": bson.M{"public": false}})
	if err != nil {
		return errors.Wrap(err, "unable to unset public institution DID")
	}

	res, err := r.institutions.UpdateOne(ctx, bson.M{"did": did}, bson.M{"$set": bson.M{"public": true}})
	if err != nil {
		return errors.Wrap(err, "unable to set public institution DID")
	}

	if res.MatchedCount == 0 {
		return errors.Wrapf(datastore.ErrNotFound, "institution %s", did)
	}

	return nil
}

func (r *mongoDBStore) GetPublicInstitution() (*datastore.Institution, error) {
	out := &datastore.Institution{}
	err := r.institutions.FindOne(context.Background(), bson.M{"public": true}).Decode(out)
	if err != nil {
		return nil, notFound(err, "unable to find public institution DID")
	}

	return out, nil
}

func (r *mongoDBStore) UpsertPermission(p *datastore.Permission) error {
	_, err := r.permissions.UpdateOne(context.Background(), bson.M{"cred_ex_id": p.CredExID}, bson.M{"$set": p}, upsert())
	if err != nil {
		return errors.Wrap(err, "unable to upsert permission")
	}

	return nil
}

func (r *mongoDBStore) HasPermission(vcType string) (bool, error) {
	count, err := r.permissions.CountDocuments(context.Background(), bson.M{"vc_type": vcType})
	if err != nil {
		return false, errors.Wrap(err, "unable to count permissions")
	}

	return count > 0, nil
}

func (r *mongoDBStore) ListPermissions() ([]*datastore.Permission, error) {
	ctx := context.Background()
	opts := options.Find().SetSort(bson.M{"issued_at": 1})
	results, err := r.permissions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find permissions")
	}

	out := []*datastore.Permission{}
	err = results.All(ctx, &out)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode permissions")
	}

	return out, nil
}

func (r *mongoDBStore) InsertEntity(e *datastore.Entity) error {
	_, err := r.entities.InsertOne(context.Background(), e)
	if err != nil {
		return errors.Wrap(err, "unable to insert entity")
	}

	return nil
}

func (r *mongoDBStore) UpdateEntity(e *datastore.Entity) error {
	res, err := r.entities.UpdateOne(context.Background(), bson.M{"id": e.ID}, bson.M{"$set": e})
	if err != nil {
		return errors.Wrap(err, "unable to update entity")
	}

	if res.MatchedCount == 0 {
		return errors.Wrapf(datastore.ErrNotFound, "entity %s", e.ID)
	}

	return nil
}

func (r *mongoDBStore) findEntity(filter bson.M, what string) (*datastore.Entity, error) {
	out := &datastore.Entity{}
	err := r.entities.FindOne(context.Background(), filter).Decode(out)
	if err != nil {
		return nil, notFound(err, "unable to load entity by %s", what)
	}

	return out, nil
}

func (r *mongoDBStore) GetEntity(id string) (*datastore.Entity, error) {
	return r.findEntity(bson.M{"id": id}, "id")
}

func (r *mongoDBStore) GetEntityByDID(did string) (*datastore.Entity, error) {
	return r.findEntity(bson.M{"did": did}, "did")
}

func (r *mongoDBStore) GetEntityByLicense(license string) (*datastore.Entity, error) {
	return r.findEntity(bson.M{"license": license}, "license")
}

func (r *mongoDBStore) ListEntities(c *datastore.EntityCriteria) (*datastore.EntityList, error) {
	if c == nil {
		c = &datastore.EntityCriteria{
			Start:    0,
			PageSize: 10,
		}
	}

	bc := bson.M{}
	if c.Name != "" {
		bc["name"] = primitive.Regex{Pattern: fmt.Sprintf(".*%s.*", regexp.QuoteMeta(c.Name)), Options: "i"}
	}
	if c.Status != "" {
		bc["status"] = c.Status
	}

	opts := options.Find().SetSort(bson.M{"created_at": 1}).SetSkip(int64(c.Start))
	if c.PageSize > 0 {
		opts = opts.SetLimit(int64(c.PageSize))
	}

	ctx := context.Background()
	count, err := r.entities.CountDocuments(ctx, bc)
	if err != nil {
		return nil, errors.Wrap(err, "error trying to count entities")
	}

	results, err := r.entities.Find(ctx, bc, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find entities")
	}

	out := datastore.EntityList{
		Count:    int(count),
		Entities: []*datastore.Entity{},
	}

	err = results.All(ctx, &out.Entities)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode entities")
	}

	return &out, nil
}

func (r *mongoDBStore) UpsertIssuanceRequest(req *datastore.IssuanceRequest) error {
	_, err := r.issuance.UpdateOne(context.Background(), bson.M{"id": req.ID}, bson.M{"$set": req}, upsert())
	if err != nil {
		return errors.Wrap(err, "unable to upsert issuance request")
	}

	return nil
}

func (r *mongoDBStore) GetIssuanceRequest(id string) (*datastore.IssuanceRequest, error) {
	out := &datastore.IssuanceRequest{}
	err := r.issuance.FindOne(context.Background(), bson.M{"id": id}).Decode(out)
	if err != nil {
		return nil, notFound(err, "unable to load issuance request %s", id)
	}

	return out, nil
}

func statusFilter(status string) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func (r *mongoDBStore) ListIssuanceRequests(status string) ([]*datastore.IssuanceRequest, error) {
	ctx := context.Background()
	results, err := r.issuance.Find(ctx, statusFilter(status), options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find issuance requests")
	}

	out := []*datastore.IssuanceRequest{}
	err = results.All(ctx, &out)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode issuance requests")
	}

	return out, nil
}

func (r *mongoDBStore) UpsertModificationRequest(req *datastore.ModificationRequest) error {
	_, err := r.modifications.UpdateOne(context.Background(), bson.M{"id": req.ID}, bson.M{"$set": req}, upsert())
	if err != nil {
		return errors.Wrap(err, "unable to upsert modification request")
	}

	return nil
}

func (r *mongoDBStore) GetModificationRequest(id string) (*datastore.ModificationRequest, error) {
	out := &datastore.ModificationRequest{}
	err := r.modifications.FindOne(context.Background(), bson.M{"id": id}).Decode(out)
	if err != nil {
		return nil, notFound(err, "unable to load modification request %s", id)
	}

	return out, nil
}

func (r *mongoDBStore) ListModificationRequests(status string) ([]*datastore.ModificationRequest, error) {
	ctx := context.Background()
	results, err := r.modifications.Find(ctx, statusFilter(status), options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find modification requests")
	}

	out := []*datastore.ModificationRequest{}
	err = results.All(ctx, &out)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode modification requests")
	}

	return out, nil
}
