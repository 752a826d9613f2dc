/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"encoding/hex"

	"github.com/IBM/credx/schema"
	"github.com/pkg/errors"
)

// Public is the information an issuer publishes alongside every credential.
// Schema is shared, never copied, by every bundle the issuer produces.
type Public struct {
	ID                     string
	Schema                 *schema.CredentialSchema
	VerifyingKey           []byte
	RevocationVerifyingKey []byte
}

// PublicText is the text friendly form of Public
type PublicText struct {
	ID                     string                       `json:"id"`
	Schema                 *schema.CredentialSchemaText `json:"schema"`
	VerifyingKey           string                       `json:"verifying_key"`
	RevocationVerifyingKey string                       `json:"revocation_verifying_key,omitempty"`
}

// ToText converts p to its text friendly form
func (p *Public) ToText() *PublicText {
	return &PublicText{
		ID:                     p.ID,
		Schema:                 p.Schema.ToText(),
		VerifyingKey:           hex.EncodeToString(p.VerifyingKey),
		RevocationVerifyingKey: hex.EncodeToString(p.RevocationVerifyingKey),
	}
}

// ToPublic parses the text friendly form of the issuer information
func (t *PublicText) ToPublic() (*Public, error) {
	if t.Schema == nil {
		return nil, errors.Errorf("issuer [%s] has no schema", t.ID)
	}

	s, err := t.Schema.ToSchema()
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid schema for issuer [%s]", t.ID)
	}

	vk, err := hex.DecodeString(t.VerifyingKey)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid verifying key for issuer [%s]", t.ID)
	}

	rvk, err := hex.DecodeString(t.RevocationVerifyingKey)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid revocation verifying key for issuer [%s]", t.ID)
	}

	return &Public{
		ID:                     t.ID,
		Schema:                 s,
		VerifyingKey:           vk,
		RevocationVerifyingKey: rvk,
	}, nil
}
