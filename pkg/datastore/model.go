/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"time"
)

// Institution is this agent's own DID. It is provisional until the regulator
// writes the nym and the agent confirms it as the public DID.
type Institution struct {
	DID       string    `json:"did" bson:"did"`
	Verkey    string    `json:"verkey" bson:"verkey"`
	Alias     string    `json:"alias" bson:"alias"`
	Public    bool      `json:"public" bson:"public"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Permission is a regulator-issued grant to register or issue a vc type.
type Permission struct {
	VCType       string                 `json:"vc_type" bson:"vc_type"`
	CredExID     string                 `json:"cred_ex_id" bson:"cred_ex_id"`
	CredentialID string                 `json:"credential_id,omitempty" bson:"credential_id,omitempty"`
	RawRecord    map[string]interface{} `json:"raw_record,omitempty" bson:"raw_record,omitempty"`
	IssuedAt     time.Time              `json:"issued_at" bson:"issued_at"`
}

// UnknownVCType marks a grant whose credential carried no recognizable type.
const UnknownVCType = "unknown"

type EntityType string

const (
	Hospital EntityType = "HOSPITAL"
	Clinic   EntityType = "CLINIC"
	Lab      EntityType = "LAB"
	Pharmacy EntityType = "PHARMACY"
)

type EntityStatus string

const (
	EntityActive    EntityStatus = "ACTIVE"
	EntitySuspended EntityStatus = "SUSPENDED"
	EntityRevoked   EntityStatus = "REVOKED"
)

func (r EntityStatus) Valid() bool {
	switch r {
	case EntityActive, EntitySuspended, EntityRevoked:
		return true
	}
	return false
}

// Entity is a medical institution registered by the regulator.
type Entity struct {
	ID                 string       `json:"id" bson:"id"`
	Name               string       `json:"name" bson:"name"`
	DID                string       `json:"did" bson:"did"`
	Verkey             string       `json:"verkey" bson:"verkey"`
	Role               string       `json:"role" bson:"role"`
	Type               EntityType   `json:"type" bson:"type"`
	License            string       `json:"license" bson:"license"`
	Email              string       `json:"email,omitempty" bson:"email,omitempty"`
	Status             EntityStatus `json:"status" bson:"status"`
	StatusReason       string       `json:"status_reason,omitempty" bson:"status_reason,omitempty"`
	ConnectionID       string       `json:"connection_id,omitempty" bson:"connection_id,omitempty"`
	AllowedCredentials []string     `json:"allowed_credentials" bson:"allowed_credentials"`
	CreatedAt          time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" bson:"updated_at"`
}

func (r *Entity) CanIssue(vcType string) bool {
	for _, t := range r.AllowedCredentials {
		if t == vcType {
			return true
		}
	}
	return false
}

// Allow adds vcType to the allowed credentials, reporting whether it was new.
func (r *Entity) Allow(vcType string) bool {
	if r.CanIssue(vcType) {
		return false
	}
	r.AllowedCredentials = append(r.AllowedCredentials, vcType)
	return true
}

type EntityCriteria struct {
	Start, PageSize int
	Name            string
	Status          EntityStatus
}

type EntityList struct {
	Count    int       `json:"count"`
	Entities []*Entity `json:"entities"`
}

// Review states shared by issuance and modification requests.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type IssuanceRequest struct {
	ID             string    `json:"id" bson:"id"`
	InstitutionDID string    `json:"institution_did" bson:"institution_did"`
	VCType         string    `json:"vc_type" bson:"vc_type"`
	ConnectionID   string    `json:"connection_id" bson:"connection_id"`
	Status         string    `json:"status" bson:"status"`
	DecisionReason string    `json:"decision_reason,omitempty" bson:"decision_reason,omitempty"`
	DecisionBy     string    `json:"decision_by,omitempty" bson:"decision_by,omitempty"`
	CredExID       string    `json:"cred_ex_id,omitempty" bson:"cred_ex_id,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	DecidedAt      time.Time `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

type SchemaChange struct {
	SchemaName    string   `json:"schema_name" bson:"schema_name"`
	SchemaVersion string   `json:"schema_version,omitempty" bson:"schema_version,omitempty"`
	Attributes    []string `json:"attributes" bson:"attributes"`
}

type RejectedChange struct {
	Change SchemaChange `json:"change" bson:"change"`
	Reason string       `json:"reason" bson:"reason"`
}

type ModificationRequest struct {
	ID             string           `json:"id" bson:"id"`
	InstitutionDID string           `json:"institution_did" bson:"institution_did"`
	Changes        []SchemaChange   `json:"changes" bson:"changes"`
	Status         string           `json:"status" bson:"status"`
	Approved       []SchemaChange   `json:"approved,omitempty" bson:"approved,omitempty"`
	Rejected       []RejectedChange `json:"rejected,omitempty" bson:"rejected,omitempty"`
	DecisionReason string           `json:"decision_reason,omitempty" bson:"decision_reason,omitempty"`
	DecisionBy     string           `json:"decision_by,omitempty" bson:"decision_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at"`
	DecidedAt      time.Time        `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}
