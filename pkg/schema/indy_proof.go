package schema

import (
	"encoding/json"
)

type IndyProof struct {
	Proof          json.RawMessage     `json:"proof"`
	RequestedProof *IndyRequestedProof `json:"requested_proof"`
	Identifiers    []*Identifier       `json:"identifiers"`
}

type IndyRequestedProof struct {
	RevealedAttrs      map[string]*RevealedAttributeInfo      `json:"revealed_attrs"`
	RevealedAttrGroups map[string]*RevealedAttributeGroupInfo `json:"revealed_attr_groups"`
	SelfAttestedAttrs  map[string]string                      `json:"self_attested_attrs"`
	UnrevealedAttrs    map[string]*SubProofReferent           `json:"unrevealed_attrs"`
	Predicates         map[string]*SubProofReferent           `json:"predicates"`
}

type Identifier struct {
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
	RevRegID  string `json:"rev_reg_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type SubProofReferent struct {
	SubProofIndex int32 `json:"sub_proof_index"`
}

type RevealedAttributeInfo struct {
	SubProofIndex int32  `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

type RevealedAttributeGroupInfo struct {
	SubProofIndex int32 `json:"sub_proof_index"`
	Values        map[string]*IndyAttributeValue `json:"values"`
}

type IndyAttributeValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// RevealedValues flattens revealed attributes and attribute groups into
// referent -> raw value.
func (r *IndyRequestedProof) RevealedValues() map[string]string {
	out := map[string]string{}
	if r == nil {
		return out
	}

	for ref, attr := range r.RevealedAttrs {
		if attr != nil {
			out[ref] = attr.Raw
		}
	}

	for ref, group := range r.RevealedAttrGroups {
		if group == nil {
			continue
		}
		for name, v := range group.Values {
			if v != nil {
				out[ref+"."+name] = v.Raw
			}
		}
	}

	return out
}
