/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did derives indy style DIDs from seeds and normalizes the qualified
// and unqualified forms peers send us.
package did

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	ariesdid "github.com/hyperledger/aries-framework-go/pkg/doc/did"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

type KeyPair struct {
	vk, sk string
}

type MyDIDInfo struct {
	DID        string
	Seed       string
	Cid        bool
	MethodName string
}

func (r *KeyPair) Verkey() string {
	return r.vk
}

func (r *KeyPair) Priv() ed25519.PrivateKey {
	pk, _ := base58.Decode(r.sk)
	return pk
}

type DIDValue struct {
	DID    string
	Method string
}

func (r *DIDValue) String() string {
	if r.Method == "" {
		return fmt.Sprintf("did:%s", r.DID)
	}
	return fmt.Sprintf("did:%s:%s", r.Method, r.DID)
}

type DID struct {
	DIDVal DIDValue
	Verkey string
}

func (r *DID) String() string {
	return r.DIDVal.String()
}

func CreateMyDid(info *MyDIDInfo) (*DID, *KeyPair, error) {

	edseed, err := convertSeed(info.Seed)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to get seed")
	}

	var pubkey ed25519.PublicKey
	var privkey ed25519.PrivateKey
	if len(edseed) == 0 {
		pubkey, privkey, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, errors.Wrap(err, "error generating keypair")
		}
	} else {
		privkey = ed25519.NewKeyFromSeed(edseed)
		pubkey = privkey.Public().(ed25519.PublicKey)
	}

	var did string
	if info.DID != "" {
		did = info.DID
	} else if info.Cid {
		did = base58.Encode(pubkey[0:16])
	} else {
		did = base58.Encode(pubkey)
	}

	out := &DID{
		DIDVal: DIDValue{
			DID:    did,
			Method: info.MethodName,
		},
		Verkey: base58.Encode(pubkey),
	}

	return out, &KeyPair{vk: base58.Encode(pubkey), sk: base58.Encode(privkey)}, nil

}

func convertSeed(seed string) ([]byte, error) {
	if seed == "" {
		return []byte{}, nil
	}

	if len(seed) == ed25519.SeedSize {
		return []byte(seed), nil
	}

	if strings.HasSuffix(seed, "=") {
		var out = make([]byte, ed25519.SeedSize)
		c, err := base64.StdEncoding.Decode(out, []byte(seed))
		if err != nil || c != ed25519.SeedSize {
			return nil, errors.New("invalid base64 seed value")
		}
		return out, nil
	}

	if len(seed) == 2*ed25519.SeedSize {
		var out = make([]byte, ed25519.SeedSize)
		c, err := hex.Decode(out, []byte(seed))
		if err != nil || c != ed25519.SeedSize {
			return nil, errors.New("invalid hex seed value")
		}
		return out, nil
	}

	return []byte{}, nil
}

// Normalize reduces did:sov:X to X so that ledger nyms compare equal
// regardless of how the agent qualified them. Other methods are left intact.
func Normalize(d string) string {
	d = strings.TrimSpace(d)
	if !strings.HasPrefix(d, "did:") {
		return d
	}

	parsed, err := ariesdid.Parse(d)
	if err != nil {
		return d
	}

	if parsed.Method == "sov" {
		return parsed.MethodSpecificID
	}

	return d
}

// Equal compares two DIDs after normalization. Empty never matches.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Normalize(a) == Normalize(b)
}

// ValidateNym checks an indy nym: base58 of 16 (or 32) key bytes.
func ValidateNym(d string) error {
	nym := Normalize(d)
	if strings.HasPrefix(nym, "did:") {
		return errors.Errorf("unsupported DID method in %s", d)
	}

	raw, err := base58.Decode(nym)
	if err != nil {
		return errors.Wrapf(err, "nym %s is not base58", nym)
	}

	if len(raw) != 16 && len(raw) != ed25519.PublicKeySize {
		return errors.Errorf("nym %s decodes to %d bytes", nym, len(raw))
	}

	return nil
}

// ValidateVerkey accepts a full base58 ed25519 key or the abbreviated ~ form.
func ValidateVerkey(vk string) error {
	want := ed25519.PublicKeySize
	if strings.HasPrefix(vk, "~") {
		vk = vk[1:]
		want = 16
	}

	raw, err := base58.Decode(vk)
	if err != nil {
		return errors.Wrap(err, "verkey is not base58")
	}

	if len(raw) != want {
		return errors.Errorf("verkey decodes to %d bytes, want %d", len(raw), want)
	}

	return nil
}

// SeedFor derives a deterministic 32 character wallet seed from parts.
func SeedFor(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])[:ed25519.SeedSize]
}
