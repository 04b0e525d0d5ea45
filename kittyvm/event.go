// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// EventKind discriminates the ledger notifications
type EventKind uint8

const (
	KittyCreated EventKind = iota + 1
	KittyTransferred
	KittyListed
	KittyPurchased
)

func (k EventKind) String() string {
	switch k {
	case KittyCreated:
		return "KittyCreated"
	case KittyTransferred:
		return "KittyTransferred"
	case KittyListed:
		return "KittyListed"
	case KittyPurchased:
		return "KittyPurchased"
	default:
		return "Unknown"
	}
}

// Event is a notification emitted by a successful call.
//
//	KittyCreated:     Account created KittyID
//	KittyTransferred: Account (from) gave KittyID to Counterparty (to)
//	KittyListed:      Account listed KittyID at Price, or delisted it when !Listed
//	KittyPurchased:   Account (buyer) bought KittyID from Counterparty (seller) for Price
type Event struct {
	Kind         EventKind   `serialize:"true" json:"kind"`
	Account      ids.ShortID `serialize:"true" json:"account"`
	Counterparty ids.ShortID `serialize:"true" json:"counterparty"`
	KittyID      KittyIndex  `serialize:"true" json:"kittyID"`
	Price        uint64      `serialize:"true" json:"price"`
	Listed       bool        `serialize:"true" json:"listed"`
}

var (
	errEventWrongVersion = errors.New("wrong event version")

	_ EventState = &eventState{}
)

// EventState is the append-only notification log
type EventState interface {
	PutEvent(seq uint64, event *Event) error
	GetEvent(seq uint64) (*Event, error)
}

type eventState struct {
	eventDB database.Database
}

func NewEventState(db database.Database) EventState {
	return &eventState{eventDB: db}
}

func eventKey(seq uint64) []byte {
	key := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (s *eventState) PutEvent(seq uint64, event *Event) error {
	bytes, err := Codec.Marshal(CodecVersion, event)
	if err != nil {
		return err
	}
	return s.eventDB.Put(eventKey(seq), bytes)
}

func (s *eventState) GetEvent(seq uint64) (*Event, error) {
	eventBytes, err := s.eventDB.Get(eventKey(seq))
	if err != nil {
		return nil, err
	}
	event := &Event{}
	parsedVersion, err := Codec.Unmarshal(eventBytes, event)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errEventWrongVersion
	}
	return event, nil
}
