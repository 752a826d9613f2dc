/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"encoding/hex"

	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/signature"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// Credential is a fully signed credential. Claims[i] holds the value of the
// schema label whose canonical index is i.
type Credential struct {
	Claims           []claim.Data
	Signature        *signature.Signature
	RevocationHandle []byte
	RevocationIndex  int
}

// Bundle is a credential together with the issuer information needed to verify it
type Bundle struct {
	Issuer     *issuer.Public
	Credential Credential
}

// Claim returns the value of the claim with the given label
func (b *Bundle) Claim(label string) (claim.Data, bool) {
	i, ok := b.Issuer.Schema.CanonicalIndexOf(label)
	if !ok || i >= len(b.Credential.Claims) {
		return nil, false
	}
	return b.Credential.Claims[i], true
}

// RevocationClaim returns the value of the slot designated for revocation
func (b *Bundle) RevocationClaim() claim.Data {
	return b.Credential.Claims[b.Credential.RevocationIndex]
}

// Messages returns the scalars the signature is computed over, in schema order
func (c *Credential) Messages(curve *math.Curve) []*math.Zr {
	msgs := make([]*math.Zr, len(c.Claims))
	for i, d := range c.Claims {
		msgs[i] = d.ToZr(curve)
	}
	return msgs
}

// CredentialText is the text friendly form of Credential
type CredentialText struct {
	Claims           []claim.Text `json:"claims"`
	Signature        string       `json:"signature"`
	RevocationHandle string       `json:"revocation_handle"`
	RevocationIndex  int          `json:"revocation_index"`
}

// BundleText is the text friendly form of Bundle
type BundleText struct {
	Issuer     *issuer.PublicText `json:"issuer"`
	Credential CredentialText     `json:"credential"`
}

// ToText converts the credential to its text friendly form
func (c *Credential) ToText() CredentialText {
	t := CredentialText{
		Claims:           make([]claim.Text, len(c.Claims)),
		Signature:        signature.ToText(c.Signature),
		RevocationHandle: hex.EncodeToString(c.RevocationHandle),
		RevocationIndex:  c.RevocationIndex,
	}
	for i, d := range c.Claims {
		t.Claims[i] = claim.ToText(d)
	}
	return t
}

// ToText converts the bundle to its text friendly form
func (b *Bundle) ToText() *BundleText {
	return &BundleText{
		Issuer:     b.Issuer.ToText(),
		Credential: b.Credential.ToText(),
	}
}

// ToCredential parses the text friendly form of a credential
func (t *CredentialText) ToCredential(curve *math.Curve) (*Credential, error) {
	claims := make([]claim.Data, len(t.Claims))
	for i, ct := range t.Claims {
		d, err := claim.FromText(ct)
		if err != nil {
			return nil, errors.WithMessagef(err, "claim at position [%d]", i)
		}
		claims[i] = d
	}

	if t.RevocationIndex < 0 || t.RevocationIndex >= len(claims) {
		return nil, errors.Errorf("revocation index [%d] out of range [0,%d)", t.RevocationIndex, len(claims))
	}

	sig, err := signature.FromText(curve, t.Signature)
	if err != nil {
		return nil, err
	}

	handle, err := hex.DecodeString(t.RevocationHandle)
	if err != nil {
		return nil, errors.Wrap(err, "invalid revocation handle")
	}

	return &Credential{
		Claims:           claims,
		Signature:        sig,
		RevocationHandle: handle,
		RevocationIndex:  t.RevocationIndex,
	}, nil
}

// ToBundle parses the text friendly form of a bundle
func (t *BundleText) ToBundle(curve *math.Curve) (*Bundle, error) {
	if t.Issuer == nil {
		return nil, errors.New("bundle has no issuer")
	}

	pub, err := t.Issuer.ToPublic()
	if err != nil {
		return nil, err
	}

	cred, err := t.Credential.ToCredential(curve)
	if err != nil {
		return nil, err
	}

	if len(cred.Claims) != pub.Schema.ClaimCount() {
		return nil, errors.Errorf("credential has [%d] claims, schema [%s] has [%d]", len(cred.Claims), pub.Schema.ID, pub.Schema.ClaimCount())
	}
	for i, d := range cred.Claims {
		if want := pub.Schema.Claim(i); d.Type() != want.ClaimType {
			return nil, errors.Errorf("claim [%s] has type [%s], expected [%s]", want.Label, d.Type(), want.ClaimType)
		}
	}

	return &Bundle{Issuer: pub, Credential: *cred}, nil
}
