/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"sort"

	"github.com/pkg/errors"
)

// ClaimType identifies how a claim value is encoded before signing
type ClaimType int

const (
	Hashed ClaimType = iota
	Number
	Scalar
	Revocation
	Enumeration
)

var claimTypeNames = map[ClaimType]string{
	Hashed:      "hashed",
	Number:      "number",
	Scalar:      "scalar",
	Revocation:  "revocation",
	Enumeration: "enumeration",
}

func (t ClaimType) String() string {
	if n, ok := claimTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseClaimType is the inverse of ClaimType.String
func ParseClaimType(s string) (ClaimType, error) {
	for t, n := range claimTypeNames {
		if n == s {
			return t, nil
		}
	}
	return 0, errors.Errorf("invalid claim type [%s]", s)
}

// ClaimSchema describes one slot of a credential
type ClaimSchema struct {
	ClaimType     ClaimType
	Label         string
	PrintFriendly bool
}

// CredentialSchema fixes the total order of the claims of every credential
// an issuer signs and which of them a holder may supply blind.
// A CredentialSchema is immutable once built; it is shared by pointer
// between issuer information, blind bundles and final bundles.
type CredentialSchema struct {
	ID          string
	Label       string
	Description string

	claims       []ClaimSchema
	claimIndices map[string]int
	blindClaims  map[string]struct{}
}

// New builds a schema whose canonical order is the order of claims.
// Every blind claim label must name one of the claims.
func New(id, label, description string, claims []ClaimSchema, blindClaims []string) (*CredentialSchema, error) {
	if len(claims) == 0 {
		return nil, errors.New("schema must contain at least one claim")
	}

	s := &CredentialSchema{
		ID:           id,
		Label:        label,
		Description:  description,
		claims:       make([]ClaimSchema, len(claims)),
		claimIndices: make(map[string]int, len(claims)),
		blindClaims:  make(map[string]struct{}, len(blindClaims)),
	}
	copy(s.claims, claims)

	for i, c := range claims {
		if c.Label == "" {
			return nil, errors.Errorf("claim at position [%d] has an empty label", i)
		}
		if _, ok := s.claimIndices[c.Label]; ok {
			return nil, errors.Errorf("duplicate claim label [%s]", c.Label)
		}
		s.claimIndices[c.Label] = i
	}

	for _, l := range blindClaims {
		if _, ok := s.claimIndices[l]; !ok {
			return nil, errors.Errorf("blind claim [%s] is not a schema claim", l)
		}
		s.blindClaims[l] = struct{}{}
	}

	return s, nil
}

// IsBlindEligible returns true if label may be supplied blind by the holder
func (s *CredentialSchema) IsBlindEligible(label string) bool {
	_, ok := s.blindClaims[label]
	return ok
}

// CanonicalIndexOf returns the position of label in the schema order
func (s *CredentialSchema) CanonicalIndexOf(label string) (int, bool) {
	i, ok := s.claimIndices[label]
	return i, ok
}

// ClaimCount returns the number of claims every credential carries
func (s *CredentialSchema) ClaimCount() int {
	return len(s.claims)
}

// Claim returns the claim schema at position i
func (s *CredentialSchema) Claim(i int) ClaimSchema {
	return s.claims[i]
}

// Labels returns the claim labels in canonical order
func (s *CredentialSchema) Labels() []string {
	labels := make([]string, len(s.claims))
	for i, c := range s.claims {
		labels[i] = c.Label
	}
	return labels
}

// BlindClaims returns the blind-eligible labels, sorted
func (s *CredentialSchema) BlindClaims() []string {
	labels := make([]string, 0, len(s.blindClaims))
	for l := range s.blindClaims {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
