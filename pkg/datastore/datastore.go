/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"github.com/caduceus-vc/caduceus/pkg/errs"
)

// Record kinds. Each kind lives in its own collection or table, prefixed by
// the store name.
const (
	InstitutionC  = "institution"
	PermissionC   = "permission"
	EntityC       = "entity"
	IssuanceC     = "issuance_request"
	ModificationC = "modification_request"
)

// ErrNotFound is returned, possibly wrapped, when a lookup matches nothing.
var ErrNotFound = errs.New(errs.NotFound, "record not found")

// Provider storage provider interface
type Provider interface {
	// OpenStore opens a store with given name space and returns the handle
	OpenStore(name string) (Store, error)

	// CloseStore closes store of given name space
	CloseStore(name string) error

	// Close closes all stores created under this store provider
	Close() error
}

//go:generate mockery -name=Store
type Store interface {
	UpsertInstitution(i *Institution) error
	GetInstitution(did string) (*Institution, error)
	SetInstitutionPublic(did string) error
	GetPublicInstitution() (*Institution, error)

	UpsertPermission(p *Permission) error
	HasPermission(vcType string) (bool, error)
	ListPermissions() ([]*Permission, error)

	InsertEntity(e *Entity) error
	UpdateEntity(e *Entity) error
	GetEntity(id string) (*Entity, error)
	GetEntityByDID(did string) (*Entity, error)
	GetEntityByLicense(license string) (*Entity, error)
	ListEntities(c *EntityCriteria) (*EntityList, error)

	UpsertIssuanceRequest(r *IssuanceRequest) error
	GetIssuanceRequest(id string) (*IssuanceRequest, error)
	ListIssuanceRequests(status string) ([]*IssuanceRequest, error)

	UpsertModificationRequest(r *ModificationRequest) error
	GetModificationRequest(id string) (*ModificationRequest, error)
	ListModificationRequests(status string) ([]*ModificationRequest, error)
}
