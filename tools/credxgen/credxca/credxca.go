/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credxca

import (
	"sort"

	"github.com/IBM/credx/blind"
	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/credential"
	"github.com/IBM/credx/internal/bbs"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/schema"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// GenerateIssuerKey generates an issuer signing key for the claims of s.
// The secret key is returned serialized; the public half is published
// together with the schema.
func GenerateIssuerKey(scheme *bbs.Scheme, id string, s *schema.CredentialSchema) ([]byte, *issuer.Public, error) {
	if id == "" {
		return nil, nil, errors.Errorf("the issuer id is empty")
	}

	if s == nil {
		return nil, nil, errors.Errorf("the issuer schema is missing")
	}

	key, err := scheme.NewKey(s.ClaimCount())
	if err != nil {
		return nil, nil, errors.WithMessage(err, "cannot generate issuer key")
	}

	isk, err := key.Bytes()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "isk byte conversion error")
	}

	ipk, err := key.PublicKey.Bytes()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "ipk byte conversion error")
	}

	return isk, &issuer.Public{
		ID:           id,
		Schema:       s,
		VerifyingKey: ipk,
	}, nil
}

func sortedLabels(claims map[string]claim.Data) []string {
	labels := make([]string, 0, len(claims))
	for l := range claims {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// indexed maps labelled claims to schema positions
func indexed(curve *math.Curve, s *schema.CredentialSchema, claims map[string]claim.Data) (map[int]*math.Zr, error) {
	out := make(map[int]*math.Zr, len(claims))
	for _, l := range sortedLabels(claims) {
		i, ok := s.CanonicalIndexOf(l)
		if !ok {
			return nil, errors.Errorf("claim [%s] is not in schema [%s]", l, s.ID)
		}
		out[i] = claims[l].ToZr(curve)
	}

	return out, nil
}

// IssueBlind runs both halves of a blind issuance. The holder commits to
// blindClaims under a fresh issuer nonce; the issuer checks the commitment
// proof and signs the commitment together with known.
// It returns the issuer's response and the holder's blinding factor.
func IssueBlind(
	scheme *bbs.Scheme,
	isk []byte,
	pub *issuer.Public,
	known, blindClaims map[string]claim.Data,
	revocationLabel string,
	revocationHandle []byte,
) (*blind.Bundle, *math.Zr, error) {
	s := pub.Schema

	for _, l := range sortedLabels(blindClaims) {
		if !s.IsBlindEligible(l) {
			return nil, nil, errors.Errorf("claim [%s] cannot be blinded", l)
		}
	}

	key, err := scheme.NewKeyFromBytes(isk, s.ClaimCount())
	if err != nil {
		return nil, nil, errors.WithMessage(err, "invalid issuer secret key")
	}

	hidden, err := indexed(scheme.Curve, s, blindClaims)
	if err != nil {
		return nil, nil, err
	}

	nonce := scheme.NewNonce()

	req, blinder, err := scheme.Commit(&key.PublicKey, hidden, nonce)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to commit to blind claims")
	}

	msgs, err := indexed(scheme.Curve, s, known)
	if err != nil {
		return nil, nil, err
	}

	sig, err := scheme.BlindSign(key, req, msgs, nonce)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to sign")
	}

	claims := make(map[string]claim.Data, len(known))
	for l, d := range known {
		claims[l] = d
	}

	return &blind.Bundle{
		Issuer: pub,
		Credential: blind.Credential{
			Claims:           claims,
			Signature:        sig,
			RevocationHandle: revocationHandle,
			RevocationLabel:  revocationLabel,
		},
	}, blinder, nil
}

// Verify checks the signature of b against the verifying key of its issuer
func Verify(scheme *bbs.Scheme, b *credential.Bundle) error {
	pk, err := scheme.NewPublicKeyFromBytes(b.Issuer.VerifyingKey, b.Issuer.Schema.ClaimCount())
	if err != nil {
		return errors.WithMessagef(err, "invalid verifying key for issuer [%s]", b.Issuer.ID)
	}

	return scheme.Verify(pk, b.Credential.Signature, b.Credential.Messages(scheme.Curve))
}
