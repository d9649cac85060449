/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
)

const (
	tablePrefix = "t_"
)

var validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Provider represents a Postgres DB implementation of the storage.Provider interface.
// Every record kind is a (id, data JSONB) table.
type Provider struct {
	pool   *pgxpool.Pool
	stores map[string]*sqlDBStore
	sync.RWMutex
}

type sqlDBStore struct {
	pool   *pgxpool.Pool
	tables map[string]string
}

// NewProvider instantiates Provider
func NewProvider(config *Config) (*Provider, error) {
	if config == nil {
		return nil, errors.New("info for new postgres DB provider can't be empty")
	}

	pool, err := pgxpool.Connect(context.Background(), config.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open connection pool")
	}

	p := &Provider{
		pool:   pool,
		stores: map[string]*sqlDBStore{},
	}

	return p, nil
}

// OpenStore creates, if needed, and returns the tables for given name space.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	name = strings.ToLower(name)
	if !validName.MatchString(name) {
		return nil, errors.Errorf("invalid store name %s", name)
	}

	if store, ok := p.stores[name]; ok {
		return store, nil
	}

	store := &sqlDBStore{pool: p.pool, tables: map[string]string{}}
	for _, kind := range []string{datastore.InstitutionC, datastore.PermissionC, datastore.EntityC,
		datastore.IssuanceC, datastore.ModificationC} {

		tableName := tablePrefix + name + "_" + kind
		createTableStmt := `CREATE TABLE IF NOT EXISTS ` + tableName +
			` (id TEXT NOT NULL, data JSONB NOT NULL, PRIMARY KEY (id));`

		_, err := p.pool.Exec(context.Background(), createTableStmt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create table %s", tableName)
		}

		store.tables[kind] = tableName
	}

	p.stores[name] = store

	return store, nil
}

// Close closes the provider.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = make(map[string]*sqlDBStore)
	p.pool.Close()

	return nil
}

// CloseStore forgets a previously opened store. The pool is shared.
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, strings.ToLower(name))

	return nil
}

func (r *sqlDBStore) upsert(kind, id string, v interface{}) error {
	d, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "unable to marshal %s", kind)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, r.tables[kind])

	_, err = r.pool.Exec(context.Background(), stmt, id, d)
	return errors.Wrapf(err, "unable to upsert %s", kind)
}

func (r *sqlDBStore) insert(kind, id string, v interface{}) error {
	d, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "unable to marshal %s", kind)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2)`, r.tables[kind])
	_, err = r.pool.Exec(context.Background(), stmt, id, d)
	return errors.Wrapf(err, "unable to insert %s", kind)
}

// findOne decodes the first row whose data->>field equals value.
func (r *sqlDBStore) findOne(kind, field, value string, out interface{}) error {
	stmt := fmt.Sprintf(`SELECT data FROM %s WHERE data ->> '%s' = $1 LIMIT 1`, r.tables[kind], field)

	var d []byte
	err := r.pool.QueryRow(context.Background(), stmt, value).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(datastore.ErrNotFound, "%s with %s %s", kind, field, value)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to load %s", kind)
	}

	return errors.Wrapf(json.Unmarshal(d, out), "unable to decode %s", kind)
}

// query runs stmt and hands each data column to fn.
func (r *sqlDBStore) query(stmt string, fn func([]byte) error, args ...interface{}) error {
	rows, err := r.pool.Query(context.Background(), stmt, args...)
	if err != nil {
		return errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	for rows.Next() {
		var d []byte
		if err := rows.Scan(&d); err != nil {
			return errors.Wrap(err, "scanning rows")
		}
		if err := fn(d); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (r *sqlDBStore) UpsertInstitution(i *datastore.Institution) error {
	return r.upsert(datastore.InstitutionC, i.DID, i)
}

func (r *sqlDBStore) GetInstitution(did string) (*datastore.Institution, error) {
	out := &datastore.Institution{}
	if err := r.findOne(datastore.InstitutionC, "did", did, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlDBStore) SetInstitutionPublic(did string) error {
	ctx := context.Background()
	table := r.tables[datastore.InstitutionC]

	_, err := r.pool.Exec(ctx, `UPDATE `+table+` SET data = jsonb_set(data, '{public}', 'false', true) WHERE id <> $1`, did)
	if err != nil {
		return errors.Wrap(err, "unable to unset public institution DID")
	}

	tag, err := r.pool.Exec(ctx, `UPDATE `+table+` SET data = jsonb_set(data, '{public}', 'true', true) WHERE id = $1`, did)
	if err != nil {
		return errors.Wrap(err, "unable to set public institution DID")
	}

	if tag.RowsAffected() == 0 {
		return errors.Wrapf(datastore.ErrNotFound, "institution %s", did)
	}

	return nil
}

func (r *sqlDBStore) GetPublicInstitution() (*datastore.Institution, error) {
	out := &datastore.Institution{}
	if err := r.findOne(datastore.InstitutionC, "public", "true", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlDBStore) UpsertPermission(p *datastore.Permission) error {
	return r.upsert(datastore.PermissionC, p.CredExID, p)
}

func (r *sqlDBStore) HasPermission(vcType string) (bool, error) {
	stmt := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE data ->> 'vc_type' = $1)`, r.tables[datastore.PermissionC])

	var exists bool
	err := r.pool.QueryRow(context.Background(), stmt, vcType).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "unable to check permission")
	}

	return exists, nil
}

func (r *sqlDBStore) ListPermissions() ([]*datastore.Permission, error) {
	out := []*datastore.Permission{}
	stmt := fmt.Sprintf(`SELECT data FROM %s ORDER BY data ->> 'issued_at'`, r.tables[datastore.PermissionC])

	err := r.query(stmt, func(d []byte) error {
		p := &datastore.Permission{}
		if err := json.Unmarshal(d, p); err != nil {
			return errors.Wrap(err, "unable to decode permission")
		}
		out = append(out, p)
		return nil
	})

	return out, err
}

func (r *sqlDBStore) InsertEntity(e *datastore.Entity) error {
	return r.insert(datastore.EntityC, e.ID, e)
}

func (r *sqlDBStore) UpdateEntity(e *datastore.Entity) error {
	d, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "unable to marshal entity")
	}

	stmt := fmt.Sprintf(`UPDATE %s SET data = $2 WHERE id = $1`, r.tables[datastore.EntityC])
	tag, err := r.pool.Exec(context.Background(), stmt, e.ID, d)
	if err != nil {
		return errors.Wrap(err, "unable to update entity")
	}

	if tag.RowsAffected() == 0 {
		return errors.Wrapf(datastore.ErrNotFound, "entity %s", e.ID)
	}

	return nil
}

func (r *sqlDBStore) getEntity(field, value string) (*datastore.Entity, error) {
	out := &datastore.Entity{}
	if err := r.findOne(datastore.EntityC, field, value, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlDBStore) GetEntity(id string) (*datastore.Entity, error) {
	return r.getEntity("id", id)
}

func (r *sqlDBStore) GetEntityByDID(did string) (*datastore.Entity, error) {
	return r.getEntity("did", did)
}

func (r *sqlDBStore) GetEntityByLicense(license string) (*datastore.Entity, error) {
	return r.getEntity("license", license)
}

func (r *sqlDBStore) ListEntities(c *datastore.EntityCriteria) (*datastore.EntityList, error) {
	if c == nil {
		c = &datastore.EntityCriteria{
			Start:    0,
			PageSize: 10,
		}
	}

	var where []string
	var args []interface{}
	if c.Name != "" {
		args = append(args, "%"+c.Name+"%")
		where = append(where, fmt.Sprintf("data ->> 'name' ILIKE $%d", len(args)))
	}
	if c.Status != "" {
		args = append(args, string(c.Status))
		where = append(where, fmt.Sprintf("data ->> 'status' = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	table := r.tables[datastore.EntityC]
	out := &datastore.EntityList{Entities: []*datastore.Entity{}}

	err := r.pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM `+table+clause, args...).Scan(&out.Count)
	if err != nil {
		return nil, errors.Wrap(err, "unable to count entities")
	}

	stmt := `SELECT data FROM ` + table + clause + fmt.Sprintf(` ORDER BY data ->> 'created_at' OFFSET %d`, c.Start)
	if c.PageSize > 0 {
		stmt += fmt.Sprintf(` LIMIT %d`, c.PageSize)
	}

	err = r.query(stmt, func(d []byte) error {
		e := &datastore.Entity{}
		if err := json.Unmarshal(d, e); err != nil {
			return errors.Wrap(err, "unable to decode entity")
		}
		out.Entities = append(out.Entities, e)
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *sqlDBStore) UpsertIssuanceRequest(req *datastore.IssuanceRequest) error {
	return r.upsert(datastore.IssuanceC, req.ID, req)
}

func (r *sqlDBStore) GetIssuanceRequest(id string) (*datastore.IssuanceRequest, error) {
	out := &datastore.IssuanceRequest{}
	if err := r.findOne(datastore.IssuanceC, "id", id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlDBStore) listByStatus(kind, status string, fn func([]byte) error) error {
	stmt := `SELECT data FROM ` + r.tables[kind]
	var args []interface{}
	if status != "" {
		stmt += ` WHERE data ->> 'status' = $1`
		args = append(args, status)
	}
	stmt += ` ORDER BY data ->> 'created_at'`

	return r.query(stmt, fn, args...)
}

func (r *sqlDBStore) ListIssuanceRequests(status string) ([]*datastore.IssuanceRequest, error) {
	out := []*datastore.IssuanceRequest{}
	err := r.listByStatus(datastore.IssuanceC, status, func(d []byte) error {
		req := &datastore.IssuanceRequest{}
		if err := json.Unmarshal(d, req); err != nil {
			return errors.Wrap(err, "unable to decode issuance request")
		}
		out = append(out, req)
		return nil
	})

	return out, err
}

func (r *sqlDBStore) UpsertModificationRequest(req *datastore.ModificationRequest) error {
	return r.upsert(datastore.ModificationC, req.ID, req)
}

func (r *sqlDBStore) GetModificationRequest(id string) (*datastore.ModificationRequest, error) {
	out := &datastore.ModificationRequest{}
	if err := r.findOne(datastore.ModificationC, "id", id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlDBStore) ListModificationRequests(status string) ([]*datastore.ModificationRequest, error) {
	out := []*datastore.ModificationRequest{}
	err := r.listByStatus(datastore.ModificationC, status, func(d []byte) error {
		req := &datastore.ModificationRequest{}
		if err := json.Unmarshal(d, req); err != nil {
			return errors.Wrap(err, "unable to decode modification request")
		}
		out = append(out, req)
		return nil
	})

	return out, err
}
