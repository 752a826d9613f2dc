/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claim

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/IBM/credx/schema"
	"github.com/pkg/errors"
)

// EncodingHex marks a Text value holding hex encoded bytes
const EncodingHex = "hex"

// Text is the text friendly form of a claim value. Value is always a string
// so that the form survives any interchange envelope unchanged. Byte values
// that are not valid UTF-8 are hex encoded and flagged with Encoding.
type Text struct {
	Type          string `json:"type"`
	Value         string `json:"value"`
	Encoding      string `json:"encoding,omitempty"`
	PrintFriendly bool   `json:"print_friendly,omitempty"`
}

// bytesToText keeps valid UTF-8 readable and hex encodes anything else
func bytesToText(t *Text, b []byte) {
	if utf8.Valid(b) {
		t.Value = string(b)
		return
	}
	t.Value = hexEncode(b)
	t.Encoding = EncodingHex
}

func textToBytes(t Text) ([]byte, error) {
	switch t.Encoding {
	case "":
		return []byte(t.Value), nil
	case EncodingHex:
		return hex.DecodeString(t.Value)
	default:
		return nil, errors.Errorf("invalid encoding [%s]", t.Encoding)
	}
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// ToText converts d to its text friendly form
func ToText(d Data) Text {
	d = Value(d)
	t := Text{Type: d.Type().String()}

	switch c := d.(type) {
	case HashedClaim:
		t.PrintFriendly = c.PrintFriendly
		if c.PrintFriendly {
			bytesToText(&t, c.Value)
		} else {
			t.Value = hexEncode(c.Value)
		}
	case NumberClaim:
		t.Value = c.String()
	case ScalarClaim:
		t.Value = hexEncode(c.Value)
	case RevocationClaim:
		bytesToText(&t, []byte(c.Value))
	case EnumerationClaim:
		t.Value = c.String()
	}

	return t
}

// FromText parses the text friendly form of a claim value
func FromText(t Text) (Data, error) {
	ct, err := schema.ParseClaimType(t.Type)
	if err != nil {
		return nil, err
	}

	switch ct {
	case schema.Hashed:
		if t.PrintFriendly {
			v, err := textToBytes(t)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid hashed claim [%s]", t.Value)
			}
			return HashedClaim{Value: v, PrintFriendly: true}, nil
		}
		v, err := hex.DecodeString(t.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hashed claim [%s]", t.Value)
		}
		return HashedClaim{Value: v}, nil
	case schema.Number:
		v, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid number claim [%s]", t.Value)
		}
		return NumberClaim{Value: v}, nil
	case schema.Scalar:
		v, err := hex.DecodeString(t.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid scalar claim [%s]", t.Value)
		}
		return ScalarClaim{Value: v}, nil
	case schema.Revocation:
		v, err := textToBytes(t)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid revocation claim [%s]", t.Value)
		}
		return RevocationClaim{Value: string(v)}, nil
	default:
		parts := strings.Split(t.Value, ":")
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid enumeration claim [%s]", t.Value)
		}
		dtype, err := strconv.ParseUint(parts[0], 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid enumeration claim [%s]", t.Value)
		}
		v, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid enumeration claim [%s]", t.Value)
		}
		return EnumerationClaim{DType: uint8(dtype), Value: uint8(v)}, nil
	}
}

// MapToText converts a label keyed set of claims
func MapToText(claims map[string]Data) map[string]Text {
	out := make(map[string]Text, len(claims))
	for l, d := range claims {
		out[l] = ToText(d)
	}
	return out
}

// MapFromText parses a label keyed set of claims
func MapFromText(claims map[string]Text) (map[string]Data, error) {
	out := make(map[string]Data, len(claims))
	for l, t := range claims {
		d, err := FromText(t)
		if err != nil {
			return nil, errors.WithMessagef(err, "claim [%s]", l)
		}
		out[l] = d
	}
	return out, nil
}
