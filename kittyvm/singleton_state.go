// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	IsInitializedKey byte = iota
	KittiesCountKey
	EventCountKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}
	kittiesCountKey  = []byte{KittiesCountKey}
	eventCountKey    = []byte{EventCountKey}

	_ SingletonState = (*singletonState)(nil)
)

// SingletonState holds the chain-wide flags and counters, each stored under a
// one-byte key.
type SingletonState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	// KittiesCount is the next kitty index to allocate
	KittiesCount() (KittyIndex, error)
	SetKittiesCount(KittyIndex) error

	// EventCount is the number of events ever emitted
	EventCount() (uint64, error)
	SetEventCount(uint64) error
}

type singletonState struct {
	singletonDB database.Database
}

func NewSingletonState(db database.Database) SingletonState {
	return &singletonState{
		singletonDB: db,
	}
}

func (s *singletonState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *singletonState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *singletonState) KittiesCount() (KittyIndex, error) {
	count, err := s.getUint64(kittiesCountKey)
	return KittyIndex(count), err
}

func (s *singletonState) SetKittiesCount(count KittyIndex) error {
	return s.putUint64(kittiesCountKey, uint64(count))
}

func (s *singletonState) EventCount() (uint64, error) {
	return s.getUint64(eventCountKey)
}

func (s *singletonState) SetEventCount(count uint64) error {
	return s.putUint64(eventCountKey, count)
}

// getUint64 treats a missing key as zero
func (s *singletonState) getUint64(key []byte) (uint64, error) {
	valueBytes, err := s.singletonDB.Get(key)
	switch {
	case err == database.ErrNotFound:
		return 0, nil
	case err != nil:
		return 0, err
	case len(valueBytes) != wrappers.LongLen:
		return 0, fmt.Errorf("expected %d bytes for singleton %x, found %d", wrappers.LongLen, key, len(valueBytes))
	}
	return binary.BigEndian.Uint64(valueBytes), nil
}

func (s *singletonState) putUint64(key []byte, value uint64) error {
	valueBytes := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(valueBytes, value)
	return s.singletonDB.Put(key, valueBytes)
}
