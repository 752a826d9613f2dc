/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package interchange wraps the text forms of bundles in a protobuf envelope
// for transport and storage. The envelope is a google.protobuf.Struct holding
// the JSON shape of the text form; it adds no semantics.
package interchange

import (
	"encoding/json"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a JSON object shaped value into a protobuf Struct
func ToStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "marshalling [%T] failed", v)
	}

	m := map[string]interface{}{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "[%T] is not an object", v)
	}

	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrapf(err, "converting [%T] to struct failed", v)
	}

	return s, nil
}

// FromStruct fills v from a protobuf Struct produced by ToStruct
func FromStruct(s *structpb.Struct, v interface{}) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return errors.Wrap(err, "marshalling struct failed")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "could not unmarshal struct into [%T]", v)
	}

	return nil
}

// Marshal encodes v as a protobuf Struct
func Marshal(v interface{}) ([]byte, error) {
	s, err := ToStruct(v)
	if err != nil {
		return nil, err
	}

	raw, err := proto.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "proto.Marshal failed")
	}

	return raw, nil
}

// Unmarshal decodes bytes produced by Marshal into v
func Unmarshal(raw []byte, v interface{}) error {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(raw, s); err != nil {
		return errors.Wrap(err, "proto.Unmarshal failed")
	}

	return FromStruct(s, v)
}

// ProtoCodec encodes values with Marshal and Unmarshal
type ProtoCodec struct{}

func (ProtoCodec) Marshal(v interface{}) ([]byte, error) { return Marshal(v) }
func (ProtoCodec) Unmarshal(raw []byte, v interface{}) error {
	return Unmarshal(raw, v)
}
