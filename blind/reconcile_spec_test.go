/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package blind_test

import (
	"encoding/json"

	"github.com/IBM/credx/blind"
	"github.com/IBM/credx/claim"
	"github.com/IBM/credx/credential"
	"github.com/IBM/credx/internal/bbs"
	"github.com/IBM/credx/issuer"
	"github.com/IBM/credx/schema"
	math "github.com/IBM/mathlib"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Blind credential reconciliation", func() {
	var (
		curve       *math.Curve
		scheme      *bbs.Scheme
		isk         *bbs.SecretKey
		credSchema  *schema.CredentialSchema
		pub         *issuer.Public
		bundle      blind.Bundle
		blindClaims map[string]claim.Data
		blinder     *math.Zr
	)

	// issue runs the holder and issuer halves of a blind issuance of
	// Alice's credential, keeping "id" blind
	issue := func() {
		var err error

		blindClaims = map[string]claim.Data{"id": claim.RevocationClaim{Value: "secret-42"}}
		known := map[string]claim.Data{
			"name": claim.NewHashed("Alice"),
			"age":  claim.NumberClaim{Value: 30},
		}

		toIndexed := func(claims map[string]claim.Data) map[int]*math.Zr {
			out := map[int]*math.Zr{}
			for l, d := range claims {
				i, ok := credSchema.CanonicalIndexOf(l)
				Expect(ok).To(BeTrue())
				out[i] = d.ToZr(curve)
			}
			return out
		}

		nonce := scheme.NewNonce()

		var req *bbs.Request
		req, blinder, err = scheme.Commit(&isk.PublicKey, toIndexed(blindClaims), nonce)
		Expect(err).NotTo(HaveOccurred())

		sig, err := scheme.BlindSign(isk, req, toIndexed(known), nonce)
		Expect(err).NotTo(HaveOccurred())

		bundle = blind.Bundle{
			Issuer: pub,
			Credential: blind.Credential{
				Claims:           known,
				Signature:        sig,
				RevocationHandle: []byte{0x01, 0x02},
				RevocationLabel:  "id",
			},
		}
	}

	BeforeEach(func() {
		var err error

		curve = math.Curves[math.BLS12_381_BBS]
		scheme, err = bbs.NewScheme(curve)
		Expect(err).NotTo(HaveOccurred())

		credSchema, err = schema.New("person-v1", "Person", "", []schema.ClaimSchema{
			{ClaimType: schema.Hashed, Label: "name", PrintFriendly: true},
			{ClaimType: schema.Revocation, Label: "id"},
			{ClaimType: schema.Number, Label: "age", PrintFriendly: true},
		}, []string{"id"})
		Expect(err).NotTo(HaveOccurred())

		isk, err = scheme.NewKey(credSchema.ClaimCount())
		Expect(err).NotTo(HaveOccurred())

		vk, err := isk.PublicKey.Bytes()
		Expect(err).NotTo(HaveOccurred())
		pub = &issuer.Public{ID: "issuer-1", Schema: credSchema, VerifyingKey: vk}

		issue()
	})

	It("orders the claims by schema and resolves the revocation index", func() {
		cb, err := bundle.ToUnblinded(blindClaims, blinder)
		Expect(err).NotTo(HaveOccurred())

		Expect(cb.Credential.Claims).To(Equal([]claim.Data{
			claim.NewHashed("Alice"),
			claim.RevocationClaim{Value: "secret-42"},
			claim.NumberClaim{Value: 30},
		}))
		Expect(cb.Credential.Claims).To(HaveLen(credSchema.ClaimCount()))
		Expect(cb.Credential.RevocationIndex).To(Equal(1))
		Expect(cb.Issuer).To(BeIdenticalTo(pub))
	})

	It("produces a signature that verifies over the ordered claims", func() {
		cb, err := bundle.ToUnblinded(blindClaims, blinder)
		Expect(err).NotTo(HaveOccurred())

		ipk, err := scheme.NewPublicKeyFromBytes(cb.Issuer.VerifyingKey, cb.Issuer.Schema.ClaimCount())
		Expect(err).NotTo(HaveOccurred())

		err = scheme.Verify(ipk, cb.Credential.Signature, cb.Credential.Messages(curve))
		Expect(err).NotTo(HaveOccurred())
	})

	It("produces a signature that fails verification with the wrong blinder", func() {
		cb, err := bundle.ToUnblinded(blindClaims, curve.NewRandomZr(scheme.Rng))
		Expect(err).NotTo(HaveOccurred())

		err = scheme.Verify(&isk.PublicKey, cb.Credential.Signature, cb.Credential.Messages(curve))
		Expect(err).To(MatchError(ContainSubstring("signature verification failed")))
	})

	It("survives the text form", func() {
		raw, err := json.Marshal(bundle.ToText())
		Expect(err).NotTo(HaveOccurred())

		text := &blind.BundleText{}
		Expect(json.Unmarshal(raw, text)).To(Succeed())
		bundle1, err := text.ToBundle(curve)
		Expect(err).NotTo(HaveOccurred())

		raw, err = json.Marshal(blind.NewHolderSecretsText(blindClaims, blinder))
		Expect(err).NotTo(HaveOccurred())
		secrets := &blind.HolderSecretsText{}
		Expect(json.Unmarshal(raw, secrets)).To(Succeed())
		blindClaims1, blinder1, err := secrets.ToSecrets(curve)
		Expect(err).NotTo(HaveOccurred())

		cb, err := bundle1.ToUnblinded(blindClaims1, blinder1)
		Expect(err).NotTo(HaveOccurred())
		Expect(scheme.Verify(&isk.PublicKey, cb.Credential.Signature, cb.Credential.Messages(curve))).To(Succeed())

		raw, err = json.Marshal(cb.ToText())
		Expect(err).NotTo(HaveOccurred())
		ctext := &credential.BundleText{}
		Expect(json.Unmarshal(raw, ctext)).To(Succeed())
		cb1, err := ctext.ToBundle(curve)
		Expect(err).NotTo(HaveOccurred())
		Expect(cb1.Credential.Signature.Equals(cb.Credential.Signature)).To(BeTrue())
		Expect(cb1.Credential.Claims).To(Equal(cb.Credential.Claims))
	})

	It("rejects a blind claim the schema does not allow", func() {
		_, err := bundle.ToUnblinded(map[string]claim.Data{"age": claim.NumberClaim{Value: 31}}, blinder)
		Expect(errors.Is(err, blind.ErrIneligibleClaim)).To(BeTrue())
	})

	It("rejects a blind claim overriding an issuer observed claim", func() {
		credSchema, err := schema.New("person-v2", "Person", "", []schema.ClaimSchema{
			{ClaimType: schema.Hashed, Label: "name"},
			{ClaimType: schema.Revocation, Label: "id"},
			{ClaimType: schema.Number, Label: "age"},
		}, []string{"id", "name"})
		Expect(err).NotTo(HaveOccurred())
		bundle.Issuer = &issuer.Public{ID: "issuer-1", Schema: credSchema}

		_, err = bundle.ToUnblinded(map[string]claim.Data{"name": claim.NewHashed("Bob")}, blinder)
		Expect(errors.Is(err, blind.ErrDuplicateClaim)).To(BeTrue())
		Expect(err).To(MatchError("claim [name]: duplicate claim detected"))
	})

	It("rejects an incomplete credential", func() {
		_, err := bundle.ToUnblinded(nil, blinder)
		Expect(errors.Is(err, blind.ErrMissingClaim)).To(BeTrue())
	})
})
