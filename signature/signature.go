/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signature holds BBS+ signature material in blind and final form.
package signature

import (
	"encoding/hex"

	"github.com/IBM/idemix/bccsp/schemes/aries"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// BlindSignature is a BBS+ signature over a commitment that still carries
// the holder's blinding factor in S
type BlindSignature struct {
	A *math.G1
	E *math.Zr
	S *math.Zr
}

// Signature is a BBS+ signature (A, e, s) over the full ordered claim vector
type Signature struct {
	A *math.G1
	E *math.Zr
	S *math.Zr
}

// Unblinder converts a blind signature into its final form
type Unblinder interface {
	Unblind(sig *BlindSignature, blinder *math.Zr) (*Signature, error)
}

// BBSUnblinder removes the blinding of a BBS+ signature: s = s' + blinder mod r.
// A wrong blinder yields a signature that fails verification; it is not detected here.
// A nil Curve selects BLS12-381.
type BBSUnblinder struct {
	Curve *math.Curve
}

func (u *BBSUnblinder) Unblind(sig *BlindSignature, blinder *math.Zr) (*Signature, error) {
	if !sig.Complete() {
		return nil, errors.New("incomplete blind signature")
	}
	if blinder == nil {
		return nil, errors.New("no blinding factor")
	}

	curve := u.Curve
	if curve == nil {
		curve = math.Curves[math.BLS12_381_BBS]
	}

	raw, err := aries.UnblindSign(sig.Bytes(), blinder, curve)
	if err != nil {
		return nil, errors.Wrap(err, "aries.UnblindSign failed")
	}

	return ParseSignature(curve, raw)
}

// Size returns the length of the byte representation of a signature on curve
func Size(curve *math.Curve) int {
	return curve.CompressedG1ByteSize + 2*curve.ScalarByteSize
}

func toBytes(A *math.G1, E, S *math.Zr) []byte {
	bytes := make([]byte, 0, len(A.Compressed())+2*len(E.Bytes()))
	bytes = append(bytes, A.Compressed()...)
	bytes = append(bytes, E.Bytes()...)
	bytes = append(bytes, S.Bytes()...)
	return bytes
}

func parse(curve *math.Curve, raw []byte) (*math.G1, *math.Zr, *math.Zr, error) {
	if len(raw) != Size(curve) {
		return nil, nil, nil, errors.Errorf("invalid signature length, expected [%d], got [%d]", Size(curve), len(raw))
	}

	offset := curve.CompressedG1ByteSize
	A, err := curve.NewG1FromCompressed(raw[:offset])
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "parse G1 point (A)")
	}

	E := curve.NewZrFromBytes(raw[offset : offset+curve.ScalarByteSize])
	offset += curve.ScalarByteSize
	S := curve.NewZrFromBytes(raw[offset:])

	return A, E, S, nil
}

// Complete returns true if A, e and s are all set
func (s *BlindSignature) Complete() bool {
	return s != nil && s.A != nil && s.E != nil && s.S != nil
}

// Bytes returns compressed A || e || s
func (s *BlindSignature) Bytes() []byte {
	return toBytes(s.A, s.E, s.S)
}

// Bytes returns compressed A || e || s
func (s *Signature) Bytes() []byte {
	return toBytes(s.A, s.E, s.S)
}

// Equals returns true if both signatures carry the same (A, e, s)
func (s *Signature) Equals(o *Signature) bool {
	return s.A.Equals(o.A) && s.E.Equals(o.E) && s.S.Equals(o.S)
}

// ParseBlindSignature is the inverse of BlindSignature.Bytes
func ParseBlindSignature(curve *math.Curve, raw []byte) (*BlindSignature, error) {
	A, E, S, err := parse(curve, raw)
	if err != nil {
		return nil, err
	}
	return &BlindSignature{A: A, E: E, S: S}, nil
}

// ParseSignature is the inverse of Signature.Bytes
func ParseSignature(curve *math.Curve, raw []byte) (*Signature, error) {
	A, E, S, err := parse(curve, raw)
	if err != nil {
		return nil, err
	}
	return &Signature{A: A, E: E, S: S}, nil
}

// BlindToText hex encodes a blind signature
func BlindToText(s *BlindSignature) string {
	return hex.EncodeToString(s.Bytes())
}

// ToText hex encodes a signature
func ToText(s *Signature) string {
	return hex.EncodeToString(s.Bytes())
}

// BlindFromText parses a hex encoded blind signature
func BlindFromText(curve *math.Curve, text string) (*BlindSignature, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid blind signature encoding")
	}
	return ParseBlindSignature(curve, raw)
}

// FromText parses a hex encoded signature
func FromText(curve *math.Curve, text string) (*Signature, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid signature encoding")
	}
	return ParseSignature(curve, raw)
}

// BlinderFromText parses a hex encoded blinding factor
func BlinderFromText(curve *math.Curve, text string) (*math.Zr, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid blinding factor encoding")
	}
	if len(raw) != curve.ScalarByteSize {
		return nil, errors.Errorf("invalid blinding factor length, expected [%d], got [%d]", curve.ScalarByteSize, len(raw))
	}
	return curve.NewZrFromBytes(raw), nil
}
