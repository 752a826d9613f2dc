/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import "github.com/pkg/errors"

// ClaimSchemaText is the text friendly form of ClaimSchema
type ClaimSchemaText struct {
	ClaimType     string `json:"claim_type"`
	Label         string `json:"label"`
	PrintFriendly bool   `json:"print_friendly"`
}

// CredentialSchemaText is the text friendly form of CredentialSchema
type CredentialSchemaText struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	BlindClaims []string          `json:"blind_claims"`
	Claims      []ClaimSchemaText `json:"claims"`
}

// ToText converts the schema to its text friendly form
func (s *CredentialSchema) ToText() *CredentialSchemaText {
	t := &CredentialSchemaText{
		ID:          s.ID,
		Label:       s.Label,
		Description: s.Description,
		BlindClaims: s.BlindClaims(),
		Claims:      make([]ClaimSchemaText, len(s.claims)),
	}
	for i, c := range s.claims {
		t.Claims[i] = ClaimSchemaText{
			ClaimType:     c.ClaimType.String(),
			Label:         c.Label,
			PrintFriendly: c.PrintFriendly,
		}
	}
	return t
}

// ToSchema rebuilds the schema from its text friendly form
func (t *CredentialSchemaText) ToSchema() (*CredentialSchema, error) {
	claims := make([]ClaimSchema, len(t.Claims))
	for i, c := range t.Claims {
		ct, err := ParseClaimType(c.ClaimType)
		if err != nil {
			return nil, errors.WithMessagef(err, "claim [%s]", c.Label)
		}
		claims[i] = ClaimSchema{ClaimType: ct, Label: c.Label, PrintFriendly: c.PrintFriendly}
	}

	return New(t.ID, t.Label, t.Description, claims, t.BlindClaims)
}
