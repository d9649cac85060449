/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

type IndyCredInfo struct {
	Referent  string            `json:"referent"`
	Attrs     map[string]string `json:"attrs"`
	SchemaID  string            `json:"schema_id"`
	CredDefID string            `json:"cred_def_id"`
	RevRegID  string            `json:"rev_reg_id,omitempty"`
	CredRevID string            `json:"cred_rev_id,omitempty"`
}

// CredentialCandidate is one wallet credential the agent offers for a set of
// presentation referents.
type CredentialCandidate struct {
	CredInfo              IndyCredInfo `json:"cred_info"`
	PresentationReferents []string     `json:"presentation_referents"`
}

type IndyRequestedAttr struct {
	CredID   string `json:"cred_id"`
	Revealed bool   `json:"revealed"`
}

type IndyRequestedPred struct {
	CredID string `json:"cred_id"`
}

// IndyPresentationSpec is the indy body of a send-presentation call.
type IndyPresentationSpec struct {
	RequestedAttributes    map[string]IndyRequestedAttr `json:"requested_attributes"`
	RequestedPredicates    map[string]IndyRequestedPred `json:"requested_predicates"`
	SelfAttestedAttributes map[string]string            `json:"self_attested_attributes"`
}

func NewIndyPresentationSpec() *IndyPresentationSpec {
	return &IndyPresentationSpec{
		RequestedAttributes:    map[string]IndyRequestedAttr{},
		RequestedPredicates:    map[string]IndyRequestedPred{},
		SelfAttestedAttributes: map[string]string{},
	}
}

func candidateFor(referent string, candidates []CredentialCandidate) (string, bool) {
	for _, c := range candidates {
		for _, ref := range c.PresentationReferents {
			if ref == referent && c.CredInfo.Referent != "" {
				return c.CredInfo.Referent, true
			}
		}
	}
	return "", false
}

// Resolve maps the given attribute and predicate referents to the first
// candidate credential offered for each. Every referent without a candidate is
// returned in unresolved; callers must not send a partial spec.
func Resolve(attrRefs, predRefs []string, candidates []CredentialCandidate) (*IndyPresentationSpec, []string) {
	spec := NewIndyPresentationSpec()
	var unresolved []string

	for _, ref := range attrRefs {
		credID, ok := candidateFor(ref, candidates)
		if !ok {
			unresolved = append(unresolved, ref)
			continue
		}
		spec.RequestedAttributes[ref] = IndyRequestedAttr{CredID: credID, Revealed: true}
	}

	for _, ref := range predRefs {
		credID, ok := candidateFor(ref, candidates)
		if !ok {
			unresolved = append(unresolved, ref)
			continue
		}
		spec.RequestedPredicates[ref] = IndyRequestedPred{CredID: credID}
	}

	return spec, unresolved
}

// ResolveAll resolves every referent of the request.
func ResolveAll(req *IndyProofRequest, candidates []CredentialCandidate) (*IndyPresentationSpec, []string) {
	return Resolve(req.AttributeReferents(), req.PredicateReferents(), candidates)
}
