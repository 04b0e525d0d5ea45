// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

var (
	// Database markers
	acceptedKey = []byte("acceptedBlock")

	errReceiptWrongVersion = errors.New("wrong receipt version")

	_ BlockState = &blockState{}
)

// BlockState indexes accepted blocks by ID and by height, and keeps the
// receipt of every tx they carried.
type BlockState interface {
	GetBlock(blkID ids.ID) (*Block, error)
	PutBlock(blk *Block) error
	GetBlockIDAtHeight(height uint64) (ids.ID, error)

	GetLastAccepted() (ids.ID, error)
	SetLastAccepted(ids.ID) error

	GetReceipt(txID ids.ID) (*Receipt, error)
	PutReceipt(txID ids.ID, receipt *Receipt) error
}

type blockState struct {
	blockDB    database.Database
	heightDB   database.Database
	acceptedDB database.Database
	receiptDB  database.Database
}

func NewBlockState(blockDB, heightDB, acceptedDB, receiptDB database.Database) BlockState {
	return &blockState{
		blockDB:    blockDB,
		heightDB:   heightDB,
		acceptedDB: acceptedDB,
		receiptDB:  receiptDB,
	}
}

func heightKey(height uint64) []byte {
	key := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(key, height)
	return key
}

func (s *blockState) GetBlock(blkID ids.ID) (*Block, error) {
	blkBytes, err := s.blockDB.Get(blkID[:])
	if err != nil {
		return nil, err
	}

	blk, err := ParseBlock(blkBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block from disk %s: %w", blkID, err)
	}
	return blk, nil
}

func (s *blockState) PutBlock(blk *Block) error {
	blkID := blk.ID()
	if err := s.heightDB.Put(heightKey(blk.Height()), blkID[:]); err != nil {
		return fmt.Errorf("failed to put block %s into height index: %w", blkID, err)
	}
	if err := s.blockDB.Put(blkID[:], blk.Bytes()); err != nil {
		return fmt.Errorf("failed to put block %s into block index: %w", blkID, err)
	}
	return nil
}

func (s *blockState) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	blkIDBytes, err := s.heightDB.Get(heightKey(height))
	switch {
	case err == database.ErrNotFound:
		return ids.ID{}, err
	case err != nil:
		return ids.ID{}, fmt.Errorf("failed to get height index at %d: %w", height, err)
	}

	blkID, err := ids.ToID(blkIDBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to parse blkIDBytes at height %d: %w", height, err)
	}
	return blkID, nil
}

func (s *blockState) GetLastAccepted() (ids.ID, error) {
	blkIDBytes, err := s.acceptedDB.Get(acceptedKey)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to get last accepted blockID: %w", err)
	}

	blkID, err := ids.ToID(blkIDBytes)
	if err != nil {
		return ids.ID{}, fmt.Errorf("failed to parse last accepted blockID from disk: %w", err)
	}
	return blkID, nil
}

func (s *blockState) SetLastAccepted(blkID ids.ID) error {
	if err := s.acceptedDB.Put(acceptedKey, blkID[:]); err != nil {
		return fmt.Errorf("failed to update last accepted block to %s: %w", blkID, err)
	}
	return nil
}

func (s *blockState) GetReceipt(txID ids.ID) (*Receipt, error) {
	receiptBytes, err := s.receiptDB.Get(txID[:])
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{}
	parsedVersion, err := Codec.Unmarshal(receiptBytes, receipt)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errReceiptWrongVersion
	}
	return receipt, nil
}

func (s *blockState) PutReceipt(txID ids.ID, receipt *Receipt) error {
	bytes, err := Codec.Marshal(CodecVersion, receipt)
	if err != nil {
		return err
	}
	return s.receiptDB.Put(txID[:], bytes)
}
