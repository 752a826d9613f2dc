/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bbs runs the issuer and holder halves of BBS+ blind issuance on
// top of the aries scheme: key generation, the holder commitment with its
// proof of knowledge, blind signing and verification.
// It produces the material the blind package consumes.
package bbs

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"sort"

	"github.com/IBM/credx/signature"
	"github.com/IBM/idemix/bccsp/schemes/aries"
	math "github.com/IBM/mathlib"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/crypto/primitive/bbs12381g2pub"
	"github.com/pkg/errors"
)

// PublicKey is an issuer public key for N messages
type PublicKey struct {
	PK *bbs12381g2pub.PublicKey
	N  int
}

// SecretKey is an issuer secret key for N messages
type SecretKey struct {
	PublicKey
	SK *bbs12381g2pub.PrivateKey
}

// Bytes returns the byte representation of the public key
func (pk *PublicKey) Bytes() ([]byte, error) {
	return pk.PK.Marshal()
}

// Bytes returns the byte representation of the secret key
func (sk *SecretKey) Bytes() ([]byte, error) {
	return sk.SK.Marshal()
}

// Request is the holder's blind issuance request: the commitment to the
// blind messages and its proof of knowledge, serialized, plus the positions
// it commits to
type Request struct {
	BlindedMessages []byte
	Blinded         []bool
}

// Scheme binds the algebra to a curve and a randomness source
type Scheme struct {
	Curve *math.Curve
	Rng   io.Reader
}

// NewScheme returns a Scheme on curve using the curve's PRNG
func NewScheme(curve *math.Curve) (*Scheme, error) {
	rng, err := curve.Rand()
	if err != nil {
		return nil, errors.Wrap(err, "error getting PRNG")
	}
	return &Scheme{Curve: curve, Rng: rng}, nil
}

// NewNonce returns a fresh issuance nonce
func (s *Scheme) NewNonce() []byte {
	return s.Curve.NewRandomZr(s.Rng).Bytes()
}

// NewKey generates an issuer key able to sign n messages
func (s *Scheme) NewKey(n int) (*SecretKey, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid message count [%d]", n)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, errors.Wrap(err, "rand.Read failed")
	}

	PK, SK, err := bbs12381g2pub.GenerateKeyPair(sha256.New, seed)
	if err != nil {
		return nil, errors.Wrap(err, "GenerateKeyPair failed")
	}

	return &SecretKey{
		SK:        SK,
		PublicKey: PublicKey{PK: PK, N: n},
	}, nil
}

// NewKeyFromBytes rebuilds a secret key for n messages
func (s *Scheme) NewKeyFromBytes(raw []byte, n int) (*SecretKey, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid message count [%d]", n)
	}

	SK, err := bbs12381g2pub.UnmarshalPrivateKey(raw)
	if err != nil {
		return nil, errors.Wrap(err, "UnmarshalPrivateKey failed")
	}

	return &SecretKey{
		SK:        SK,
		PublicKey: PublicKey{PK: SK.PublicKey(), N: n},
	}, nil
}

// NewPublicKeyFromBytes rebuilds a public key for n messages
func (s *Scheme) NewPublicKeyFromBytes(raw []byte, n int) (*PublicKey, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid message count [%d]", n)
	}

	PK, err := bbs12381g2pub.UnmarshalPublicKey(raw)
	if err != nil {
		return nil, errors.Wrap(err, "UnmarshalPublicKey failed")
	}

	return &PublicKey{PK: PK, N: n}, nil
}

// Commit is run by the holder. It commits to the blind messages, keyed by
// message index, bound to the issuer's nonce, and returns the request and
// the blinding factor.
func (s *Scheme) Commit(pk *PublicKey, blind map[int]*math.Zr, nonce []byte) (*Request, *math.Zr, error) {
	zrs := make([]*math.Zr, pk.N)
	blinded := make([]bool, pk.N)
	for i, m := range blind {
		if i < 0 || i >= pk.N {
			return nil, nil, errors.Errorf("invalid message index [%d]", i)
		}
		zrs[i] = m
		blinded[i] = true
	}

	bm, err := aries.BlindMessagesZr(zrs, pk.PK, len(blind), nonce, s.Curve)
	if err != nil {
		return nil, nil, errors.Wrap(err, "aries.BlindMessagesZr failed")
	}

	return &Request{BlindedMessages: bm.Bytes(), Blinded: blinded}, bm.S, nil
}

// BlindSign is run by the issuer. It checks the holder's proof against the
// nonce and signs the commitment together with the messages it knows,
// keyed by message index.
func (s *Scheme) BlindSign(sk *SecretKey, req *Request, known map[int]*math.Zr, nonce []byte) (*signature.BlindSignature, error) {
	if len(req.Blinded) != sk.N {
		return nil, errors.Errorf("invalid request size, expected [%d], got [%d]", sk.N, len(req.Blinded))
	}

	bm, err := aries.ParseBlindedMessages(req.BlindedMessages, s.Curve)
	if err != nil {
		return nil, errors.Wrap(err, "aries.ParseBlindedMessages failed")
	}

	err = aries.VerifyBlinding(req.Blinded, bm.C, bm.PoK, sk.PK, nonce)
	if err != nil {
		return nil, errors.Wrap(err, "invalid blinding proof")
	}

	indices := make([]int, 0, len(known))
	for i := range known {
		if i < 0 || i >= sk.N {
			return nil, errors.Errorf("invalid message index [%d]", i)
		}
		if req.Blinded[i] {
			return nil, errors.Errorf("message index [%d] is blinded", i)
		}
		indices = append(indices, i)
	}
	sort.Ints(indices)

	msgs := make([]*bbs12381g2pub.SignatureMessage, 0, len(indices))
	for _, i := range indices {
		msgs = append(msgs, &bbs12381g2pub.SignatureMessage{FR: known[i], Idx: i})
	}

	skBytes, err := sk.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "secret key serialization failed")
	}

	raw, err := aries.BlindSign(msgs, sk.N, bm.C, skBytes)
	if err != nil {
		return nil, errors.Wrap(err, "aries.BlindSign failed")
	}

	return signature.ParseBlindSignature(s.Curve, raw)
}

// Verify checks sig over the full ordered message vector
func (s *Scheme) Verify(pk *PublicKey, sig *signature.Signature, messages []*math.Zr) error {
	if len(messages) != pk.N {
		return errors.Errorf("invalid message count, expected [%d], got [%d]", pk.N, len(messages))
	}

	bsig, err := bbs12381g2pub.ParseSignature(sig.Bytes())
	if err != nil {
		return errors.Wrap(err, "ParseSignature failed")
	}

	pkwg, err := pk.PK.ToPublicKeyWithGenerators(pk.N)
	if err != nil {
		return errors.Wrap(err, "ToPublicKeyWithGenerators failed")
	}

	msgs := make([]*bbs12381g2pub.SignatureMessage, len(messages))
	for i, m := range messages {
		msgs[i] = &bbs12381g2pub.SignatureMessage{FR: m, Idx: i}
	}

	if err := bsig.Verify(msgs, pkwg); err != nil {
		return errors.Wrap(err, "signature verification failed")
	}

	return nil
}
