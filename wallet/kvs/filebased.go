/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kvs

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Codec turns entries into bytes and back
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(raw []byte, v interface{}) error
}

// JSONCodec is the default Codec
type JSONCodec struct{}

func (JSONCodec) Marshal(v interface{}) ([]byte, error)     { return json.Marshal(v) }
func (JSONCodec) Unmarshal(raw []byte, v interface{}) error { return json.Unmarshal(raw, v) }

type FileBasedKVS struct {
	path  string
	codec Codec
}

// NewFileBased returns a KVS storing one file per entry under path,
// encoded with codec. A nil codec selects JSONCodec.
func NewFileBased(path string, codec Codec) (*FileBasedKVS, error) {
	f, err := os.Stat(path)

	if !os.IsNotExist(err) && f.Mode().IsRegular() {
		return nil, errors.Errorf("invalid path [%s]: it's a file", path)
	}

	if os.IsNotExist(err) {
		err = os.MkdirAll(path, 0770)
		if err != nil {
			return nil, errors.Wrapf(err, "could not create path [%s]", path)
		}
	}

	if codec == nil {
		codec = JSONCodec{}
	}

	return &FileBasedKVS{
		path:  path,
		codec: codec,
	}, nil
}

func (f *FileBasedKVS) fileName(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", errors.Errorf("invalid id [%s]", id)
	}

	return path.Join(f.path, id), nil
}

func (f *FileBasedKVS) Put(id string, entry interface{}) error {
	fname, err := f.fileName(id)
	if err != nil {
		return err
	}

	bytes, err := f.codec.Marshal(entry)
	if err != nil {
		return errors.Wrapf(err, "marshalling entry [%s] failed", id)
	}

	err = ioutil.WriteFile(fname, bytes, 0660)
	if err != nil {
		return errors.Wrapf(err, "writing [%s] failed", fname)
	}

	return nil
}

func (f *FileBasedKVS) Get(id string, entry interface{}) error {
	fname, err := f.fileName(id)
	if err != nil {
		return err
	}

	bytes, err := ioutil.ReadFile(fname)
	if err != nil {
		return errors.Wrapf(err, "could not read file [%s]", fname)
	}

	err = f.codec.Unmarshal(bytes, entry)
	if err != nil {
		return errors.Wrapf(err, "could not unmarshal bytes for file [%s]", fname)
	}

	return nil
}

// List returns the ids of all stored entries, sorted
func (f *FileBasedKVS) List() ([]string, error) {
	infos, err := ioutil.ReadDir(f.path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list [%s]", f.path)
	}

	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() {
			ids = append(ids, info.Name())
		}
	}
	sort.Strings(ids)

	return ids, nil
}
