// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	kittyStatePrefix     = []byte("kitty")
	ownerStatePrefix     = []byte("owner")
	priceStatePrefix     = []byte("price")
	accountStatePrefix   = []byte("account")
	eventStatePrefix     = []byte("event")
	receiptStatePrefix   = []byte("receipt")
	blockStatePrefix     = []byte("block")
	heightStatePrefix    = []byte("height")
	acceptedStatePrefix  = []byte("accepted")

	_ State = &state{}
)

// State gathers every sub state of the VM over a single versioned database,
// so all writes made while applying one tx land or vanish together.
type State interface {
	SingletonState
	KittyState
	AccountState
	EventState
	BlockState

	// Commit flushes pending writes to the underlying database
	Commit() error
	// Abort drops every write made since the last Commit
	Abort()
	Close() error
}

type state struct {
	SingletonState
	KittyState
	AccountState
	EventState
	BlockState

	baseDB *versiondb.Database
}

func NewState(db database.Database, kittyCacheSize int) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	// return state with created sub state components
	return &state{
		SingletonState: NewSingletonState(prefixdb.New(singletonStatePrefix, baseDB)),
		KittyState: NewKittyState(
			prefixdb.New(kittyStatePrefix, baseDB),
			prefixdb.New(ownerStatePrefix, baseDB),
			prefixdb.New(priceStatePrefix, baseDB),
			kittyCacheSize,
		),
		AccountState: NewAccountState(prefixdb.New(accountStatePrefix, baseDB)),
		EventState:   NewEventState(prefixdb.New(eventStatePrefix, baseDB)),
		BlockState: NewBlockState(
			prefixdb.New(blockStatePrefix, baseDB),
			prefixdb.New(heightStatePrefix, baseDB),
			prefixdb.New(acceptedStatePrefix, baseDB),
			prefixdb.New(receiptStatePrefix, baseDB),
		),
		baseDB: baseDB,
	}
}

// Commit commits pending operations to the underlying database
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort discards pending operations. Cached kitties may have been written by
// the discarded operations, so the cache goes too.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.ClearCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
