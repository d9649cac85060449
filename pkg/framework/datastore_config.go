/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"github.com/caduceus-vc/caduceus/pkg/datastore/mongodb"
	"github.com/caduceus-vc/caduceus/pkg/datastore/postgres"
)

type DatastoreConfig struct {
	Database string           `mapstructure:"database"`
	Mongo    *mongodb.Config  `mapstructure:"mongo"`
	Postgres *postgres.Config `mapstructure:"postgres"`
}

// Name identifies the configured database for provider caching.
func (r *DatastoreConfig) Name() string {
	switch r.Database {
	case "mongo":
		if r.Mongo != nil {
			return r.Mongo.Database
		}
	case "postgres":
		if r.Postgres != nil {
			return r.Postgres.Database
		}
	}
	return ""
}
