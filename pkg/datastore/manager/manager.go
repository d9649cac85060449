/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"fmt"
	"sync"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.com/caduceus-vc/caduceus/pkg/datastore"
	"github.com/caduceus-vc/caduceus/pkg/datastore/mongodb"
	"github.com/caduceus-vc/caduceus/pkg/datastore/postgres"
	"github.com/caduceus-vc/caduceus/pkg/framework"
	"github.com/caduceus-vc/caduceus/pkg/util"
)

type DataProviderManager struct {
	lock sync.Mutex
	dc   *framework.DatastoreConfig
	ds   map[string]datastore.Provider
	dial func(dc *framework.DatastoreConfig) (datastore.Provider, error)
	bo   func() backoff.BackOff
}

func NewDataProviderManager(dc *framework.DatastoreConfig) *DataProviderManager {
	return &DataProviderManager{
		dc:   dc,
		ds:   map[string]datastore.Provider{},
		dial: dial,
		bo: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
		},
	}
}

func (r *DataProviderManager) Config() *framework.DatastoreConfig {
	return r.dc
}

func (r *DataProviderManager) DefaultStoreProvider() (datastore.Provider, error) {
	return r.StorageProvider(r.dc)
}

// StorageProvider returns a cached provider for dc, dialing it with retries
// the first time since the database may still be starting.
func (r *DataProviderManager) StorageProvider(dc *framework.DatastoreConfig) (datastore.Provider, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if dc == nil {
		return nil, errors.New("no datastore configuration was provided")
	}

	key := fmt.Sprintf("%s:%s", dc.Database, dc.Name())
	ds, ok := r.ds[key]
	if ok {
		return ds, nil
	}

	op := func() error {
		var err error
		ds, err = r.dial(dc)
		if errors.Cause(err) == errNoConfig {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.RetryNotify(op, r.bo(), util.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create datastore based on config")
	}

	r.ds[key] = ds

	return ds, nil
}

var errNoConfig = errors.New("no datastore configuration was provided")

func dial(dc *framework.DatastoreConfig) (datastore.Provider, error) {
	switch dc.Database {
	case "mongo":
		if dc.Mongo == nil {
			return nil, errNoConfig
		}
		return mongodb.NewProvider(dc.Mongo)
	case "postgres":
		if dc.Postgres == nil {
			return nil, errNoConfig
		}
		return postgres.NewProvider(dc.Postgres)
	default:
		return nil, errNoConfig
	}
}
