/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package claim holds the attribute values carried by credentials.
// A value is opaque to reconciliation: it is only moved into its schema slot.
// ToZr gives the scalar a value is signed as.
package claim

import (
	"strconv"

	"github.com/IBM/credx/schema"
	math "github.com/IBM/mathlib"
)

// Data is a single credential attribute value. It is implemented only by
// the claim types of this package.
type Data interface {
	Type() schema.ClaimType
	ToZr(curve *math.Curve) *math.Zr
	claim()
}

func (HashedClaim) claim() {}
func (NumberClaim) claim() {}
func (ScalarClaim) claim() {}
func (RevocationClaim) claim() {}
func (EnumerationClaim) claim() {}

// Value returns the claim value d refers to, dereferencing pointers.
// A nil pointer yields the zero value of its type.
func Value(d Data) Data {
	switch c := d.(type) {
	case *HashedClaim:
		if c == nil {
			return HashedClaim{}
		}
		return *c
	case *NumberClaim:
		if c == nil {
			return NumberClaim{}
		}
		return *c
	case *ScalarClaim:
		if c == nil {
			return ScalarClaim{}
		}
		return *c
	case *RevocationClaim:
		if c == nil {
			return RevocationClaim{}
		}
		return *c
	case *EnumerationClaim:
		if c == nil {
			return EnumerationClaim{}
		}
		return *c
	}
	return d
}

// HashedClaim is an arbitrary byte string signed as its hash
type HashedClaim struct {
	Value         []byte
	PrintFriendly bool
}

// NewHashed returns a print friendly hashed claim of v
func NewHashed(v string) HashedClaim {
	return HashedClaim{Value: []byte(v), PrintFriendly: true}
}

func (c HashedClaim) Type() schema.ClaimType { return schema.Hashed }

func (c HashedClaim) ToZr(curve *math.Curve) *math.Zr {
	return curve.HashToZr(c.Value)
}

func (c HashedClaim) String() string {
	if c.PrintFriendly {
		return string(c.Value)
	}
	return "0x" + hexEncode(c.Value)
}

// NumberClaim is a signed integer embedded in the scalar field
type NumberClaim struct {
	Value int64
}

func (c NumberClaim) Type() schema.ClaimType { return schema.Number }

// ToZr maps non negative values to themselves and negative values to r - |v|
func (c NumberClaim) ToZr(curve *math.Curve) *math.Zr {
	if c.Value >= 0 {
		return curve.NewZrFromInt(c.Value)
	}

	// -(v+1) never overflows, add the missing one back
	abs := curve.ModAdd(curve.NewZrFromInt(-(c.Value + 1)), curve.NewZrFromInt(1), curve.GroupOrder)
	return curve.ModSub(curve.NewZrFromInt(0), abs, curve.GroupOrder)
}

func (c NumberClaim) String() string { return strconv.FormatInt(c.Value, 10) }

// ScalarClaim is a raw field element, for example a holder secret
type ScalarClaim struct {
	Value []byte
}

func (c ScalarClaim) Type() schema.ClaimType { return schema.Scalar }

func (c ScalarClaim) ToZr(curve *math.Curve) *math.Zr {
	return curve.NewZrFromBytes(c.Value)
}

func (c ScalarClaim) String() string { return "0x" + hexEncode(c.Value) }

// RevocationClaim is the identifier a revocation registry tracks
type RevocationClaim struct {
	Value string
}

func (c RevocationClaim) Type() schema.ClaimType { return schema.Revocation }

func (c RevocationClaim) ToZr(curve *math.Curve) *math.Zr {
	return curve.HashToZr([]byte(c.Value))
}

func (c RevocationClaim) String() string { return c.Value }

// EnumerationClaim is one member of a small issuer defined enumeration
type EnumerationClaim struct {
	DType uint8
	Value uint8
}

func (c EnumerationClaim) Type() schema.ClaimType { return schema.Enumeration }

func (c EnumerationClaim) ToZr(curve *math.Curve) *math.Zr {
	return curve.NewZrFromInt(int64(c.DType)<<8 | int64(c.Value))
}

func (c EnumerationClaim) String() string {
	return strconv.Itoa(int(c.DType)) + ":" + strconv.Itoa(int(c.Value))
}
