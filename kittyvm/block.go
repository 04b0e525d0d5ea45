// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/consensus/snowman"
	"github.com/ava-labs/avalanchego/utils/hashing"

	log "github.com/inconshreveable/log15"
)

var (
	errDuplicateTx       = errors.New("tx appears more than once in block")
	errDecidedParent     = errors.New("block extends a decided block other than the last accepted")
	errBlockWrongVersion = errors.New("wrong block version")

	_ snowman.Block = &Block{}
	_ Host          = &blockHost{}
)

// Block is a block on the chain.
// Each block contains:
// 1) The ID of its parent and its height
// 2) A timestamp
// 3) The txs applied, in order, on top of its parent's state
type Block struct {
	PrntID ids.ID `serialize:"true" json:"parentID"`  // parent's ID
	Hght   uint64 `serialize:"true" json:"height"`    // This block's height. The genesis block is at height 0.
	Tmstmp int64  `serialize:"true" json:"timestamp"` // Time this block was proposed at
	Txs    []*Tx  `serialize:"true" json:"txs"`

	id     ids.ID         // hold this block's ID
	bytes  []byte         // this block's encoded bytes
	status choices.Status // block's status
	vm     *VM            // the underlying VM reference, mostly used for state

	// Set by Verify. [layers] starts with the database holding this block's
	// writes, followed by the layers of its processing ancestors.
	layers []*versiondb.Database
	state  State
	ledger *Ledger
}

// NewBlock returns a new initialized block
func NewBlock(parentID ids.ID, height uint64, timestamp time.Time, txs []*Tx) (*Block, error) {
	block := &Block{
		PrntID: parentID,
		Hght:   height,
		Tmstmp: timestamp.Unix(),
		Txs:    txs,
	}

	bytes, err := Codec.Marshal(CodecVersion, block)
	if err != nil {
		return nil, err
	}
	block.bytes = bytes
	block.id = hashing.ComputeHash256Array(bytes)
	return block, nil
}

// ParseBlock parses [bytes] to a Block
func ParseBlock(bytes []byte) (*Block, error) {
	// A new empty block
	block := &Block{}

	// Unmarshal the byte repr. of the block into our empty block
	parsedVersion, err := Codec.Unmarshal(bytes, block)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errBlockWrongVersion
	}

	for i, tx := range block.Txs {
		if err := tx.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize tx %d: %w", i, err)
		}
	}

	block.id = hashing.ComputeHash256Array(bytes)
	block.bytes = bytes
	return block, nil
}

// Verify returns nil iff this block is valid.
// To be valid, it must be that:
// b.parent.Timestamp <= b.Timestamp < [local time] + futureBlockLimit,
// no tx appears twice in b or in any of its ancestors.
// Verify runs b's txs on top of its parent's state; the result is kept
// until b is decided.
func (b *Block) Verify() error {
	blkID := b.ID()
	if b.status == choices.Accepted {
		return nil
	}
	if _, ok := b.vm.verifiedBlocks[blkID]; ok {
		return nil
	}

	parent, err := b.vm.getBlock(b.Parent())
	if err != nil {
		return fmt.Errorf("couldn't get parent block %s: %w", b.Parent(), err)
	}

	// Ensure [b]'s height comes right after its parent's height
	if expectedHeight := parent.Height() + 1; expectedHeight != b.Height() {
		return fmt.Errorf(
			"expected block to have height %d, but found %d",
			expectedHeight,
			b.Height(),
		)
	}

	// Ensure [b]'s timestamp is >= its parent's timestamp.
	if b.Timestamp().Unix() < parent.Timestamp().Unix() {
		return fmt.Errorf("block cannot have timestamp (%s) < parent timestamp (%s)", b.Timestamp(), parent.Timestamp())
	}

	// Ensure [b]'s timestamp is not too far ahead of this node's time
	if now := b.vm.clock.Time(); b.Timestamp().Unix() >= now.Add(futureBlockLimit).Unix() {
		return fmt.Errorf("block cannot have timestamp (%s) further than (%s) past current time (%s)", b.Timestamp(), futureBlockLimit, now)
	}

	// Processing parents hand their writes down; otherwise the parent must be
	// the tip of the accepted chain.
	var (
		underlying database.Database = b.vm.vDB
		ancestors  []*versiondb.Database
	)
	switch parent.Status() {
	case choices.Processing:
		underlying = parent.layers[0]
		ancestors = parent.layers
	case choices.Accepted:
		lastAccepted, err := b.vm.state.GetLastAccepted()
		if err != nil {
			return err
		}
		if parent.ID() != lastAccepted {
			return fmt.Errorf("%w: parent %s, last accepted %s", errDecidedParent, parent.ID(), lastAccepted)
		}
	default:
		return fmt.Errorf("%w: parent %s is %s", errDecidedParent, parent.ID(), parent.Status())
	}

	layer := versiondb.New(underlying)
	st := b.vm.newState(layer)
	if err := b.checkTxs(st); err != nil {
		return err
	}

	host := &blockHost{seed: parent.id}
	ledger := NewLedger(st, st, host, b.vm.ledger.StakeUnit(), b.vm.metrics)
	for i, tx := range b.Txs {
		host.index = uint32(i)

		receipt := &Receipt{
			BlockID: blkID,
			Index:   uint32(i),
			Success: true,
		}
		if err := ledger.Apply(tx.Caller(), tx.Call()); err != nil {
			log.Debug("tx failed", "txID", tx.ID(), "caller", tx.Caller(), "error", err)
			receipt.Success = false
			receipt.Error = err.Error()
		}

		if err := st.PutReceipt(tx.ID(), receipt); err != nil {
			return fmt.Errorf("failed to put receipt of tx %s: %w", tx.ID(), err)
		}
		if err := st.Commit(); err != nil {
			return fmt.Errorf("failed to commit receipt of tx %s: %w", tx.ID(), err)
		}
	}

	b.layers = append([]*versiondb.Database{layer}, ancestors...)
	b.state = st
	b.ledger = ledger
	b.vm.verifiedBlocks[blkID] = b
	return nil
}

// checkTxs rejects txs that are malformed, repeated within [b], or already
// carried by an ancestor of [b]
func (b *Block) checkTxs(st State) error {
	txIDs := ids.NewSet(len(b.Txs))
	for i, tx := range b.Txs {
		if err := tx.SyntacticVerify(); err != nil {
			return fmt.Errorf("tx %d of block %s is invalid: %w", i, b.ID(), err)
		}

		txID := tx.ID()
		if txIDs.Contains(txID) {
			return fmt.Errorf("%w: %s", errDuplicateTx, txID)
		}
		txIDs.Add(txID)

		_, err := st.GetReceipt(txID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", errTxAccepted, txID)
		case err != database.ErrNotFound:
			return err
		}
	}
	return nil
}

// Accept sets this block's status to Accepted and flushes the writes of its
// txs to the database
func (b *Block) Accept() error {
	if err := b.vm.accept(b); err != nil {
		return fmt.Errorf("failed to accept block %s: %w", b.ID(), err)
	}
	return nil
}

// Reject sets this block's status to Rejected, drops its writes and puts its
// txs back in the mempool
func (b *Block) Reject() error {
	b.vm.reject(b)
	return nil
}

// ID returns the ID of this block
func (b *Block) ID() ids.ID { return b.id }

// Parent returns [b]'s parent's ID
func (b *Block) Parent() ids.ID { return b.PrntID }

// Height returns this block's height. The genesis block has height 0.
func (b *Block) Height() uint64 { return b.Hght }

// Timestamp returns this block's time. The genesis block has time 0.
func (b *Block) Timestamp() time.Time { return time.Unix(b.Tmstmp, 0) }

// Status returns the status of this block
func (b *Block) Status() choices.Status { return b.status }

// Bytes returns the byte repr. of this block
func (b *Block) Bytes() []byte { return b.bytes }

// blockHost feeds the position of each tx and the parent's ID to the
// randomness source
type blockHost struct {
	seed  ids.ID
	index uint32
}

func (h *blockHost) RandomSeed() []byte { return h.seed[:] }

func (h *blockHost) ExtrinsicIndex() uint32 { return h.index }
