/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blind_test

import (
	"sync"
	"testing"

	"github.com/IBM/credx/blind"
	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/schema"
	"github.com/IBM/credx/signature"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUnblinder records its inputs and returns a fixed signature
type stubUnblinder struct {
	mutex   sync.Mutex
	calls   int
	blinder *math.Zr
	result  *signature.Signature
	err     error
}

func (s *stubUnblinder) Unblind(sig *signature.BlindSignature, blinder *math.Zr) (*signature.Signature, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.calls++
	s.blinder = blinder
	return s.result, s.err
}

func personSchema(t *testing.T) *schema.CredentialSchema {
	s, err := schema.New("person-v1", "Person", "", []schema.ClaimSchema{
		{ClaimType: schema.Hashed, Label: "name"},
		{ClaimType: schema.Revocation, Label: "id"},
		{ClaimType: schema.Number, Label: "age"},
	}, []string{"id"})
	require.NoError(t, err)
	return s
}

func randomBlindSignature(t *testing.T, curve *math.Curve) *signature.BlindSignature {
	rng, err := curve.Rand()
	require.NoError(t, err)
	return &signature.BlindSignature{
		A: curve.GenG1.Mul(curve.NewRandomZr(rng)),
		E: curve.NewRandomZr(rng),
		S: curve.NewRandomZr(rng),
	}
}

func newBundle(t *testing.T, s *schema.CredentialSchema) blind.Bundle {
	return blind.Bundle{
		Issuer: &issuer.Public{ID: "issuer-1", Schema: s, VerifyingKey: []byte{1}},
		Credential: blind.Credential{
			Claims: map[string]claim.Data{
				"name": claim.NewHashed("Alice"),
				"age":  claim.NumberClaim{Value: 30},
			},
			Signature:        randomBlindSignature(t, math.Curves[math.BLS12_381_BBS]),
			RevocationHandle: []byte("handle"),
			RevocationLabel:  "id",
		},
	}
}

func TestReconcile(t *testing.T) {
	curve := math.Curves[math.BLS12_381_BBS]
	s := personSchema(t)
	bundle := newBundle(t, s)

	stub := &stubUnblinder{result: &signature.Signature{A: curve.GenG1, E: curve.NewZrFromInt(1), S: curve.NewZrFromInt(2)}}
	r := &blind.Reconciler{Unblinder: stub}
	blinder := curve.NewZrFromInt(42)

	cb, err := r.Reconcile(bundle, map[string]claim.Data{"id": claim.RevocationClaim{Value: "secret-42"}}, blinder)
	require.NoError(t, err)

	assert.Equal(t, []claim.Data{
		claim.NewHashed("Alice"),
		claim.RevocationClaim{Value: "secret-42"},
		claim.NumberClaim{Value: 30},
	}, cb.Credential.Claims)
	assert.Equal(t, 1, cb.Credential.RevocationIndex)
	assert.Equal(t, []byte("handle"), cb.Credential.RevocationHandle)
	assert.Same(t, bundle.Issuer, cb.Issuer)
	assert.Same(t, s, cb.Issuer.Schema)
	assert.Same(t, stub.result, cb.Credential.Signature)
	assert.Equal(t, 1, stub.calls)
	assert.Same(t, blinder, stub.blinder)

	// inputs are untouched
	assert.Len(t, bundle.Credential.Claims, 2)
	_, ok := bundle.Credential.Claims["id"]
	assert.False(t, ok)
}

func TestReconcileFailures(t *testing.T) {
	curve := math.Curves[math.BLS12_381_BBS]
	blinder := curve.NewZrFromInt(7)

	s := personSchema(t)
	wide, err := schema.New("wide", "Wide", "", []schema.ClaimSchema{
		{Label: "name"}, {Label: "id"}, {Label: "age"}, {Label: "email"},
	}, []string{"id", "email"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		schema *schema.CredentialSchema
		mutate func(b *blind.Bundle)
		blind  map[string]claim.Data
		target error
		err    string
	}{
		{
			name:   "ineligible claim",
			schema: s,
			blind:  map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}, "age": claim.NumberClaim{Value: 31}},
			target: blind.ErrIneligibleClaim,
			err:    "claim [age]: claim is not blindable",
		},
		{
			name:   "claim unknown to the schema is ineligible",
			schema: s,
			blind:  map[string]claim.Data{"email": claim.NewHashed("a@b.c")},
			target: blind.ErrIneligibleClaim,
			err:    "claim [email]: claim is not blindable",
		},
		{
			name:   "duplicate claim",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Claims["id"] = claim.RevocationClaim{Value: "issuer"} },
			blind:  map[string]claim.Data{"id": claim.RevocationClaim{Value: "secret-42"}},
			target: blind.ErrDuplicateClaim,
			err:    "claim [id]: duplicate claim detected",
		},
		{
			name:   "missing blind claim",
			schema: s,
			blind:  map[string]claim.Data{},
			target: blind.ErrMissingClaim,
			err:    "claim [id]: claim missing",
		},
		{
			name:   "missing one of two blind claims",
			schema: wide,
			blind:  map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}},
			target: blind.ErrMissingClaim,
			err:    "claim [email]: claim missing",
		},
		{
			name:   "unknown issuer observed claim",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Claims["nickname"] = claim.NewHashed("Al") },
			blind:  map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}},
			target: blind.ErrUnknownClaimLabel,
			err:    "claim [nickname]: claim label not found in schema",
		},
		{
			name:   "revocation label not in schema",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.RevocationLabel = "serial" },
			blind:  map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}},
			target: blind.ErrRevocationLabelNotFound,
			err:    "label [serial]: revocation label not found in claims",
		},
		{
			name:   "no signature",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Signature = nil },
			target: blind.ErrInvalidBundle,
			err:    "no signature: invalid blind credential bundle",
		},
		{
			name:   "signature without A",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Signature.A = nil },
			target: blind.ErrInvalidBundle,
			err:    "incomplete signature: invalid blind credential bundle",
		},
		{
			name:   "signature without e",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Signature.E = nil },
			target: blind.ErrInvalidBundle,
			err:    "incomplete signature: invalid blind credential bundle",
		},
		{
			name:   "signature without s",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Credential.Signature.S = nil },
			target: blind.ErrInvalidBundle,
			err:    "incomplete signature: invalid blind credential bundle",
		},
		{
			name:   "no issuer",
			schema: s,
			mutate: func(b *blind.Bundle) { b.Issuer = nil },
			target: blind.ErrInvalidBundle,
			err:    "no issuer schema: invalid blind credential bundle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := newBundle(t, tt.schema)
			if tt.mutate != nil {
				tt.mutate(&bundle)
			}

			stub := &stubUnblinder{}
			cb, err := (&blind.Reconciler{Unblinder: stub}).Reconcile(bundle, tt.blind, blinder)
			require.Nil(t, cb)
			require.EqualError(t, err, tt.err)
			assert.True(t, errors.Is(err, tt.target))
			assert.Equal(t, 0, stub.calls)
		})
	}
}

func TestReconcileUnblindFailure(t *testing.T) {
	bundle := newBundle(t, personSchema(t))
	stub := &stubUnblinder{err: errors.New("bad point")}

	cb, err := (&blind.Reconciler{Unblinder: stub}).Reconcile(bundle, map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}}, math.Curves[math.BLS12_381_BBS].NewZrFromInt(1))
	require.Nil(t, cb)
	require.EqualError(t, err, "unblinding failed: bad point")
	assert.Equal(t, 1, stub.calls)
}

func TestReconcileNilBlinder(t *testing.T) {
	bundle := newBundle(t, personSchema(t))
	_, err := bundle.ToUnblinded(map[string]claim.Data{"id": claim.RevocationClaim{Value: "x"}}, nil)
	require.EqualError(t, err, "no blinding factor: invalid blind credential bundle")
	assert.True(t, errors.Is(err, blind.ErrInvalidBundle))
}

func TestReconcileIsDeterministic(t *testing.T) {
	curve := math.Curves[math.BLS12_381_BBS]
	bundle := newBundle(t, personSchema(t))
	blindClaims := map[string]claim.Data{"id": claim.RevocationClaim{Value: "secret-42"}}
	blinder := curve.NewZrFromInt(99)

	cb1, err := bundle.ToUnblinded(blindClaims, blinder)
	require.NoError(t, err)
	cb2, err := bundle.ToUnblinded(blindClaims, blinder)
	require.NoError(t, err)

	assert.Equal(t, cb1.Credential.Claims, cb2.Credential.Claims)
	assert.Equal(t, cb1.Credential.RevocationIndex, cb2.Credential.RevocationIndex)
	assert.True(t, cb1.Credential.Signature.Equals(cb2.Credential.Signature))

	// the zero value Reconciler de-blinds like the default one
	cb3, err := (&blind.Reconciler{}).Reconcile(bundle, blindClaims, blinder)
	require.NoError(t, err)
	assert.True(t, cb1.Credential.Signature.Equals(cb3.Credential.Signature))
	assert.True(t, cb3.Credential.Signature.S.Equals(curve.ModAdd(bundle.Credential.Signature.S, blinder, curve.GroupOrder)))
}

func TestReconcileConcurrently(t *testing.T) {
	curve := math.Curves[math.BLS12_381_BBS]
	s := personSchema(t)
	r := blind.NewReconciler(curve)

	const n = 16
	bundles := make([]blind.Bundle, n)
	for i := range bundles {
		bundles[i] = newBundle(t, s)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cb, err := r.Reconcile(bundles[i], map[string]claim.Data{"id": claim.NumberClaim{Value: int64(i)}}, curve.NewZrFromInt(int64(i)))
			if err == nil && cb.Credential.Claims[1] != (claim.NumberClaim{Value: int64(i)}) {
				err = errors.Errorf("bundle [%d] got the wrong claim", i)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
