/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package blind turns a credential issued over blinded claims into a
// regular credential.
//
// The holder must pass exactly the blind claims and blinding factor it
// committed to in its issuance request. That binding is not checked here:
// the original commitment is not available to this package, and a mismatch
// only surfaces when the resulting signature fails verification.
package blind

import (
	"sort"

	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/common/flogging"
	"github.com/IBM/credx/credential"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/signature"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("credx.blind")

// Credential is a credential signed over the claims the issuer saw and a
// commitment to the claims the holder kept blind
type Credential struct {
	// Claims holds only the issuer observed claims
	Claims           map[string]claim.Data
	Signature        *signature.BlindSignature
	RevocationHandle []byte
	RevocationLabel  string
}

// Bundle is a blind credential together with the issuer that signed it
type Bundle struct {
	Issuer     *issuer.Public
	Credential Credential
}

// Reconciler merges blind claims into blind credentials and removes the
// signature blinding. The zero value de-blinds BBS+ signatures on BLS12-381.
// A Reconciler holds no mutable state and may be shared between goroutines.
type Reconciler struct {
	Unblinder signature.Unblinder
}

// NewReconciler returns a Reconciler de-blinding BBS+ signatures on curve
func NewReconciler(curve *math.Curve) *Reconciler {
	return &Reconciler{Unblinder: &signature.BBSUnblinder{Curve: curve}}
}

var defaultReconciler = NewReconciler(math.Curves[math.BLS12_381_BBS])

// ToUnblinded reconciles the bundle with the default Reconciler
func (b Bundle) ToUnblinded(blindClaims map[string]claim.Data, blinder *math.Zr) (*credential.Bundle, error) {
	return defaultReconciler.Reconcile(b, blindClaims, blinder)
}

// Reconcile produces the final credential bundle from a blind bundle, the
// claims the holder kept blind and the blinding factor of its request.
// Neither bundle nor blindClaims is modified; on error nothing is returned.
func (r *Reconciler) Reconcile(bundle Bundle, blindClaims map[string]claim.Data, blinder *math.Zr) (*credential.Bundle, error) {
	cb, err := r.reconcile(bundle, blindClaims, blinder)
	if err != nil {
		logger.Debugf("reconciliation failed: %s", err)
		return nil, err
	}

	logger.Debugw("credential reconciled",
		"issuer", cb.Issuer.ID,
		"claims", len(cb.Credential.Claims),
		"blind_claims", len(blindClaims),
		"revocation_index", cb.Credential.RevocationIndex,
	)

	return cb, nil
}

func (r *Reconciler) reconcile(bundle Bundle, blindClaims map[string]claim.Data, blinder *math.Zr) (*credential.Bundle, error) {
	if bundle.Issuer == nil || bundle.Issuer.Schema == nil {
		return nil, errors.WithMessage(ErrInvalidBundle, "no issuer schema")
	}
	if bundle.Credential.Signature == nil {
		return nil, errors.WithMessage(ErrInvalidBundle, "no signature")
	}
	if !bundle.Credential.Signature.Complete() {
		return nil, errors.WithMessage(ErrInvalidBundle, "incomplete signature")
	}
	if blinder == nil {
		return nil, errors.WithMessage(ErrInvalidBundle, "no blinding factor")
	}

	s := bundle.Issuer.Schema
	cred := &bundle.Credential

	labels := sortedLabels(blindClaims)
	for _, label := range labels {
		if !s.IsBlindEligible(label) {
			return nil, errors.WithMessagef(ErrIneligibleClaim, "claim [%s]", label)
		}
	}
	for _, label := range labels {
		if _, ok := cred.Claims[label]; ok {
			return nil, errors.WithMessagef(ErrDuplicateClaim, "claim [%s]", label)
		}
	}

	merged := make(map[string]claim.Data, len(cred.Claims)+len(blindClaims))
	for label, d := range cred.Claims {
		merged[label] = d
	}
	for label, d := range blindClaims {
		merged[label] = d
	}

	ordering := make([]string, s.ClaimCount())
	for _, label := range sortedLabels(merged) {
		i, ok := s.CanonicalIndexOf(label)
		if !ok {
			return nil, errors.WithMessagef(ErrUnknownClaimLabel, "claim [%s]", label)
		}
		ordering[i] = label
	}

	// labels map to distinct indices, so filling every slot consumes every claim
	claims := make([]claim.Data, 0, s.ClaimCount())
	for i, label := range ordering {
		if label == "" {
			return nil, errors.WithMessagef(ErrMissingClaim, "claim [%s]", s.Claim(i).Label)
		}
		claims = append(claims, merged[label])
	}

	revocationIndex, ok := s.CanonicalIndexOf(cred.RevocationLabel)
	if !ok {
		return nil, errors.WithMessagef(ErrRevocationLabelNotFound, "label [%s]", cred.RevocationLabel)
	}

	unblinder := r.Unblinder
	if unblinder == nil {
		unblinder = defaultReconciler.Unblinder
	}

	sig, err := unblinder.Unblind(cred.Signature, blinder)
	if err != nil {
		return nil, errors.WithMessage(err, "unblinding failed")
	}

	return &credential.Bundle{
		Issuer: bundle.Issuer,
		Credential: credential.Credential{
			Claims:           claims,
			Signature:        sig,
			RevocationHandle: cred.RevocationHandle,
			RevocationIndex:  revocationIndex,
		},
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
