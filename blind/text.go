/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blind

import (
	"encoding/hex"

	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/signature"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

// CredentialText is the text friendly form of Credential
type CredentialText struct {
	Claims           map[string]claim.Text `json:"claims"`
	Signature        string                `json:"signature"`
	RevocationHandle string                `json:"revocation_handle"`
	RevocationLabel  string                `json:"revocation_label"`
}

// BundleText is the text friendly form of Bundle
type BundleText struct {
	Issuer     *issuer.PublicText `json:"issuer"`
	Credential CredentialText     `json:"credential"`
}

// HolderSecretsText carries what the holder kept from its issuance request:
// the blind claims and the blinding factor
type HolderSecretsText struct {
	BlindClaims map[string]claim.Text `json:"blind_claims"`
	Blinder     string                `json:"blinder"`
}

// ToText converts the credential to its text friendly form
func (c *Credential) ToText() CredentialText {
	return CredentialText{
		Claims:           claim.MapToText(c.Claims),
		Signature:        signature.BlindToText(c.Signature),
		RevocationHandle: hex.EncodeToString(c.RevocationHandle),
		RevocationLabel:  c.RevocationLabel,
	}
}

// ToText converts the bundle to its text friendly form
func (b *Bundle) ToText() *BundleText {
	return &BundleText{
		Issuer:     b.Issuer.ToText(),
		Credential: b.Credential.ToText(),
	}
}

// ToCredential parses the text friendly form of a blind credential.
// Only structure is checked; claim validation happens on reconciliation.
func (t *CredentialText) ToCredential(curve *math.Curve) (*Credential, error) {
	claims, err := claim.MapFromText(t.Claims)
	if err != nil {
		return nil, err
	}

	sig, err := signature.BlindFromText(curve, t.Signature)
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
		RevocationLabel:  t.RevocationLabel,
	}, nil
}

// ToBundle parses the text friendly form of a blind bundle
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

	return &Bundle{Issuer: pub, Credential: *cred}, nil
}

// NewHolderSecretsText converts the holder's blind claims and blinder to text
func NewHolderSecretsText(blindClaims map[string]claim.Data, blinder *math.Zr) *HolderSecretsText {
	return &HolderSecretsText{
		BlindClaims: claim.MapToText(blindClaims),
		Blinder:     hex.EncodeToString(blinder.Bytes()),
	}
}

// ToSecrets parses the holder's blind claims and blinder
func (t *HolderSecretsText) ToSecrets(curve *math.Curve) (map[string]claim.Data, *math.Zr, error) {
	claims, err := claim.MapFromText(t.BlindClaims)
	if err != nil {
		return nil, nil, err
	}

	blinder, err := signature.BlinderFromText(curve, t.Blinder)
	if err != nil {
		return nil, nil, err
	}

	return claims, blinder, nil
}
