// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	defaultKittyCacheSize = 8192
)

var (
	errKittyWrongVersion   = errors.New("wrong kitty version")
	errListingWrongVersion = errors.New("wrong listing version")

	_ KittyState = &kittyState{}
)

// KittyState stores kitty records, their owners and their listing prices.
type KittyState interface {
	GetKitty(kittyID KittyIndex) (*Kitty, error)
	PutKitty(kittyID KittyIndex, kitty *Kitty) error

	GetOwner(kittyID KittyIndex) (ids.ShortID, error)
	PutOwner(kittyID KittyIndex, owner ids.ShortID) error

	// GetPrice returns the listing price and whether the kitty is listed
	GetPrice(kittyID KittyIndex) (uint64, bool, error)
	PutPrice(kittyID KittyIndex, price uint64) error
	DeletePrice(kittyID KittyIndex) error

	ClearCache()
}

// Listing is the stored form of a sale offer
type Listing struct {
	Price uint64 `serialize:"true"`
}

type kittyState struct {
	kittyCache cache.Cacher
	kittyDB    database.Database
	ownerDB    database.Database
	priceDB    database.Database
}

func NewKittyState(kittyDB, ownerDB, priceDB database.Database, cacheSize int) KittyState {
	if cacheSize <= 0 {
		cacheSize = defaultKittyCacheSize
	}
	return &kittyState{
		kittyCache: &cache.LRU{Size: cacheSize},
		kittyDB:    kittyDB,
		ownerDB:    ownerDB,
		priceDB:    priceDB,
	}
}

func kittyKey(kittyID KittyIndex) []byte {
	key := make([]byte, wrappers.IntLen)
	binary.BigEndian.PutUint32(key, uint32(kittyID))
	return key
}

func (s *kittyState) GetKitty(kittyID KittyIndex) (*Kitty, error) {
	if kittyIntf, ok := s.kittyCache.Get(kittyID); ok {
		return kittyIntf.(*Kitty), nil
	}

	kittyBytes, err := s.kittyDB.Get(kittyKey(kittyID))
	if err != nil {
		return nil, err
	}

	kitty := &Kitty{}
	parsedVersion, err := Codec.Unmarshal(kittyBytes, kitty)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errKittyWrongVersion
	}

	s.kittyCache.Put(kittyID, kitty)
	return kitty, nil
}

func (s *kittyState) PutKitty(kittyID KittyIndex, kitty *Kitty) error {
	bytes, err := Codec.Marshal(CodecVersion, kitty)
	if err != nil {
		return err
	}

	s.kittyCache.Put(kittyID, kitty)
	return s.kittyDB.Put(kittyKey(kittyID), bytes)
}

func (s *kittyState) GetOwner(kittyID KittyIndex) (ids.ShortID, error) {
	ownerBytes, err := s.ownerDB.Get(kittyKey(kittyID))
	if err != nil {
		return ids.ShortEmpty, err
	}
	return ids.ToShortID(ownerBytes)
}

func (s *kittyState) PutOwner(kittyID KittyIndex, owner ids.ShortID) error {
	return s.ownerDB.Put(kittyKey(kittyID), owner[:])
}

func (s *kittyState) GetPrice(kittyID KittyIndex) (uint64, bool, error) {
	listingBytes, err := s.priceDB.Get(kittyKey(kittyID))
	if err == database.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	listing := Listing{}
	parsedVersion, err := Codec.Unmarshal(listingBytes, &listing)
	if err != nil {
		return 0, false, err
	}
	if parsedVersion != CodecVersion {
		return 0, false, errListingWrongVersion
	}
	return listing.Price, true, nil
}

func (s *kittyState) PutPrice(kittyID KittyIndex, price uint64) error {
	bytes, err := Codec.Marshal(CodecVersion, &Listing{Price: price})
	if err != nil {
		return err
	}
	return s.priceDB.Put(kittyKey(kittyID), bytes)
}

func (s *kittyState) DeletePrice(kittyID KittyIndex) error {
	return s.priceDB.Delete(kittyKey(kittyID))
}

func (s *kittyState) ClearCache() {
	s.kittyCache.Flush()
}
