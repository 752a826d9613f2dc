/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package wallet keeps a holder's credential material in a key-value store.
package wallet

import (
	"github.com/IBM/credx/blind"
	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/credential"
	math "github.com/IBM/mathlib"
	"github.com/pkg/errors"
)

type KVS interface {
	Put(id string, entry interface{}) error
	Get(id string, entry interface{}) error
	List() ([]string, error)
}

type entry struct {
	Credential    *credential.BundleText   `json:",omitempty"`
	BlindBundle   *blind.BundleText        `json:",omitempty"`
	HolderSecrets *blind.HolderSecretsText `json:",omitempty"`
}

// Store reads and writes bundles through a KVS.
// Every stored item is addressed by id; storing under an existing id
// replaces the previous entry.
type Store struct {
	KVS   KVS
	Curve *math.Curve
}

func (s *Store) get(id string) (*entry, error) {
	e := &entry{}
	if err := s.KVS.Get(id, e); err != nil {
		return nil, errors.WithMessagef(err, "could not load entry [%s]", id)
	}

	return e, nil
}

// PutCredential stores a final credential bundle
func (s *Store) PutCredential(id string, b *credential.Bundle) error {
	return s.KVS.Put(id, &entry{Credential: b.ToText()})
}

// GetCredential loads a credential bundle stored with PutCredential
func (s *Store) GetCredential(id string) (*credential.Bundle, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if e.Credential == nil {
		return nil, errors.Errorf("entry [%s] is not a credential", id)
	}

	b, err := e.Credential.ToBundle(s.Curve)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid credential [%s]", id)
	}

	return b, nil
}

// PutBlindBundle stores a blind credential bundle received from an issuer
func (s *Store) PutBlindBundle(id string, b *blind.Bundle) error {
	return s.KVS.Put(id, &entry{BlindBundle: b.ToText()})
}

// GetBlindBundle loads a bundle stored with PutBlindBundle
func (s *Store) GetBlindBundle(id string) (*blind.Bundle, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if e.BlindBundle == nil {
		return nil, errors.Errorf("entry [%s] is not a blind credential bundle", id)
	}

	b, err := e.BlindBundle.ToBundle(s.Curve)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid blind credential bundle [%s]", id)
	}

	return b, nil
}

// PutHolderSecrets stores the claims and blinding factor kept back from an issuer
func (s *Store) PutHolderSecrets(id string, blindClaims map[string]claim.Data, blinder *math.Zr) error {
	return s.KVS.Put(id, &entry{HolderSecrets: blind.NewHolderSecretsText(blindClaims, blinder)})
}

// GetHolderSecrets loads secrets stored with PutHolderSecrets
func (s *Store) GetHolderSecrets(id string) (map[string]claim.Data, *math.Zr, error) {
	e, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}

	if e.HolderSecrets == nil {
		return nil, nil, errors.Errorf("entry [%s] is not a set of holder secrets", id)
	}

	claims, blinder, err := e.HolderSecrets.ToSecrets(s.Curve)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "invalid holder secrets [%s]", id)
	}

	return claims, blinder, nil
}

// Unblind reconciles the blind bundle stored under blindID with the secrets
// stored under secretsID and stores the result as credential id.
func (s *Store) Unblind(r *blind.Reconciler, id, blindID, secretsID string) (*credential.Bundle, error) {
	b, err := s.GetBlindBundle(blindID)
	if err != nil {
		return nil, err
	}

	claims, blinder, err := s.GetHolderSecrets(secretsID)
	if err != nil {
		return nil, err
	}

	cred, err := r.Reconcile(*b, claims, blinder)
	if err != nil {
		return nil, err
	}

	if err := s.PutCredential(id, cred); err != nil {
		return nil, err
	}

	return cred, nil
}

// List returns the ids of every stored item
func (s *Store) List() ([]string, error) {
	return s.KVS.List()
}
