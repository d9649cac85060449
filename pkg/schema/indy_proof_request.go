/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"sort"
	"strings"
)

type ProofRequestWebRequest struct {
	ConnectionID string            `json:"connection_id"`
	ProofRequest *IndyProofRequest `json:"proof_request"`
}

type IndyProofRequest struct {
	Name                string                               `json:"name"`
	Version             string                               `json:"version"`
	Nonce               string                               `json:"nonce,omitempty"`
	RequestedAttributes map[string]IndyProofRequestAttr      `json:"requested_attributes"`
	RequestedPredicates map[string]IndyProofRequestPredicate `json:"requested_predicates"`
}

type IndyProofRequestAttr struct {
	Name         string      `json:"name,omitempty"`
	Names        []string    `json:"names,omitempty"`
	Restrictions interface{} `json:"restrictions,omitempty"`
}

// AttrNames returns the attribute names a referent asks for, whether given as
// a single name or a names group.
func (r IndyProofRequestAttr) AttrNames() []string {
	if r.Name != "" {
		return []string{r.Name}
	}
	return r.Names
}

type IndyProofRequestPredicate struct {
	Name         string      `json:"name"`
	PType        string      `json:"p_type"`
	PValue       int32       `json:"p_value"`
	Restrictions interface{} `json:"restrictions,omitempty"`
}

// IsEmergency reports whether the request name marks it as an emergency request.
func (r *IndyProofRequest) IsEmergency() bool {
	return strings.Contains(strings.ToLower(r.Name), "emergency")
}

// AttributeReferents lists requested attribute referents in stable order.
func (r *IndyProofRequest) AttributeReferents() []string {
	out := make([]string, 0, len(r.RequestedAttributes))
	for ref := range r.RequestedAttributes {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// PredicateReferents lists requested predicate referents in stable order.
func (r *IndyProofRequest) PredicateReferents() []string {
	out := make([]string, 0, len(r.RequestedPredicates))
	for ref := range r.RequestedPredicates {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}
