// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/manager"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/consensus/snowman"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/snow/engine/snowman/block"
	"github.com/ava-labs/avalanchego/utils"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/ava-labs/avalanchego/version"
	"github.com/gorilla/rpc/v2"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

const (
	Name = "kittyvm"

	futureBlockLimit = time.Minute // Maximum amount of time that a block can be in the future
)

var (
	Version = "v0.1.0"
	ID      = ids.ID{'k', 'i', 't', 't', 'y', 'v', 'm'}

	errNoPendingTxs   = errors.New("there is no tx to put in a block")
	errTxAccepted     = errors.New("tx was already accepted")
	errNotInitialized = errors.New("vm is not initialized")

	_ block.ChainVM = &VM{}
)

// VM hosts the kitty ledger.
// Txs are queued in the mempool and batched into blocks by BuildBlock. A
// block's txs run, in order, when it is verified; their writes reach the
// database when it is accepted.
type VM struct {
	// The context of this vm
	ctx       *snow.Context
	dbManager manager.Manager

	// Clock used for block building and verification
	clock mockable.Clock

	config  Config
	genesis *Genesis

	// vDB holds the accepted chain. Verified blocks stack versioned layers
	// on top of it.
	vDB     *versiondb.Database
	state   State
	ledger  *Ledger
	metrics *metrics

	// ID of the preferred block
	preferred ids.ID

	// channel to send messages to the consensus engine
	toEngine chan<- common.Message

	// Proposed txs that haven't been put into a block and proposed yet
	mempool *mempool

	// Block ID --> Block
	// Each element is a block that passed verification but
	// hasn't yet been accepted/rejected
	verifiedBlocks map[ids.ID]*Block

	// Indicates that this VM has finised bootstrapping for the chain
	bootstrapped utils.AtomicBool
}

// Initialize this vm
// [ctx] is this vm's context
// [dbManager] is the manager of this vm's database
// [toEngine] is used to notify the consensus engine that new blocks are
//
//	ready to be added to consensus
//
// The data in the genesis block is [genesisBytes]
func (vm *VM) Initialize(
	ctx *snow.Context,
	dbManager manager.Manager,
	genesisBytes []byte,
	upgradeBytes []byte,
	configBytes []byte,
	toEngine chan<- common.Message,
	_ []*common.Fx,
	_ common.AppSender,
) error {
	vmVersion, err := vm.Version()
	if err != nil {
		log.Error("error initializing Kitty VM", "error", err)
		return err
	}
	log.Info("Initializing Kitty VM", "Version", vmVersion)

	vm.ctx = ctx
	vm.dbManager = dbManager
	vm.toEngine = toEngine
	vm.verifiedBlocks = make(map[ids.ID]*Block)

	vm.config, err = ParseConfig(configBytes)
	if err != nil {
		return err
	}
	vm.genesis, err = ParseGenesis(genesisBytes)
	if err != nil {
		return err
	}

	registerer := prometheus.NewRegistry()
	vm.metrics, err = newMetrics(registerer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if ctx.Metrics != nil {
		if err := ctx.Metrics.Register(registerer); err != nil {
			return fmt.Errorf("failed to expose metrics: %w", err)
		}
	}

	vm.vDB = versiondb.New(dbManager.Current().Database)
	vm.state = vm.newState(vm.vDB)
	vm.ledger = NewLedger(vm.state, vm.state, &blockHost{}, uint64(vm.genesis.StakeUnit), vm.metrics)

	vm.mempool = newMempool(vm.config.MempoolSize, vm.NotifyBlockReady)

	initialized, err := vm.state.IsInitialized()
	if err != nil {
		return err
	}
	// If database is empty, create it using the provided genesis data
	if !initialized {
		if err := vm.initGenesis(); err != nil {
			vm.ledger.Discard()
			vm.state.Abort()
			vm.vDB.Abort()
			return err
		}
	}

	count, err := vm.state.KittiesCount()
	if err != nil {
		return err
	}
	vm.metrics.kitties.Set(float64(count))

	// Build off the most recently accepted block
	vm.preferred, err = vm.state.GetLastAccepted()
	return err
}

func (vm *VM) initGenesis() error {
	for _, alloc := range vm.genesis.Allocations {
		addr, err := ids.ShortFromString(alloc.Address)
		if err != nil {
			return err
		}
		if err := vm.state.Mint(addr, uint64(alloc.Balance)); err != nil {
			return fmt.Errorf("failed to mint genesis balance of %s: %w", addr, err)
		}
	}

	for i, genesisKitty := range vm.genesis.Kitties {
		owner, err := ids.ShortFromString(genesisKitty.Owner)
		if err != nil {
			return err
		}
		dnaBytes, err := decodeDNA(genesisKitty.DNA)
		if err != nil {
			return err
		}
		kittyID, err := vm.ledger.NextKittyID()
		if err != nil {
			return err
		}
		if err := vm.ledger.mint(owner, kittyID, BytesToDNA(dnaBytes)); err != nil {
			return fmt.Errorf("failed to create genesis kitty %d: %w", i, err)
		}
	}

	// Timestamp of genesis block is 0. It has no parent.
	genesisBlock, err := NewBlock(ids.Empty, 0, time.Unix(0, 0), nil)
	if err != nil {
		return fmt.Errorf("error while creating genesis block: %w", err)
	}
	if err := vm.state.PutBlock(genesisBlock); err != nil {
		return err
	}
	if err := vm.state.SetLastAccepted(genesisBlock.ID()); err != nil {
		return err
	}
	if err := vm.state.SetInitialized(); err != nil {
		return fmt.Errorf("error while setting db to initialized: %w", err)
	}

	if err := vm.state.Commit(); err != nil {
		return err
	}
	vm.ledger.settle()
	// Flush VM's database to underlying db
	if err := vm.vDB.Commit(); err != nil {
		return fmt.Errorf("error while committing db: %w", err)
	}
	vm.ledger.Publish()

	log.Info("Initialized genesis",
		"blkID", genesisBlock.ID(),
		"allocations", len(vm.genesis.Allocations),
		"kitties", len(vm.genesis.Kitties),
	)
	return nil
}

// NotifyBlockReady tells the consensus engine that a new block
// is ready to be created
func (vm *VM) NotifyBlockReady() {
	select {
	case vm.toEngine <- common.PendingTxs:
	default:
		log.Debug("dropping message to consensus engine")
	}
}

// IssueTx adds [tx] to the mempool
func (vm *VM) IssueTx(tx *Tx) (ids.ID, error) {
	if vm.state == nil {
		return ids.Empty, errNotInitialized
	}
	if err := tx.SyntacticVerify(); err != nil {
		return ids.Empty, err
	}

	_, err := vm.state.GetReceipt(tx.ID())
	switch {
	case err == nil:
		return ids.Empty, errTxAccepted
	case err != database.ErrNotFound:
		return ids.Empty, err
	}

	if err := vm.mempool.Add(tx); err != nil {
		return ids.Empty, err
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
	return tx.ID(), nil
}

// requeue puts the txs of a block that won't be accepted back in the
// mempool, skipping those another block already carried
func (vm *VM) requeue(txs []*Tx) {
	for _, tx := range txs {
		if _, err := vm.state.GetReceipt(tx.ID()); err != database.ErrNotFound {
			continue
		}
		if err := vm.mempool.Add(tx); err != nil {
			log.Warn("dropping tx", "txID", tx.ID(), "error", err)
		}
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))
}

// BuildBlock returns a block carrying pending txs on top of the preferred
// block. Txs the preferred chain already carries are dropped.
func (vm *VM) BuildBlock() (snowman.Block, error) {
	pending := vm.mempool.Next(vm.config.MaxBlockTxs)
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len()))

	// Notify consensus engine that there are more pending txs for blocks
	// (if that is the case) when done building this block
	if vm.mempool.Len() > 0 {
		defer vm.NotifyBlockReady()
	}

	parent, err := vm.getBlock(vm.preferred)
	if err != nil {
		vm.requeue(pending)
		return nil, fmt.Errorf("couldn't get preferred block: %w", err)
	}

	view := vm.state
	if parent.Status() == choices.Processing {
		view = vm.newState(parent.layers[0])
	}
	txs := make([]*Tx, 0, len(pending))
	txIDs := ids.NewSet(len(pending))
	for _, tx := range pending {
		if txIDs.Contains(tx.ID()) {
			continue
		}
		if _, err := view.GetReceipt(tx.ID()); err != database.ErrNotFound {
			continue
		}
		txIDs.Add(tx.ID())
		txs = append(txs, tx)
	}
	if len(txs) == 0 { // There is no block to be built
		return nil, errNoPendingTxs
	}

	timestamp := vm.clock.Time()
	if timestamp.Before(parent.Timestamp()) {
		timestamp = parent.Timestamp()
	}

	blk, err := vm.newBlock(parent.ID(), parent.Height()+1, timestamp, txs)
	if err != nil {
		vm.requeue(txs)
		return nil, fmt.Errorf("couldn't build block: %w", err)
	}

	// Verify the block and keep its txs around if it can't be proposed
	if err := blk.Verify(); err != nil {
		vm.requeue(txs)
		return nil, err
	}
	return blk, nil
}

// newState returns a State over [db] configured from genesis and config
func (vm *VM) newState(db database.Database) State {
	st := NewState(db, vm.config.KittyCacheSize)
	st.SetExistentialDeposit(uint64(vm.genesis.ExistentialDeposit))
	return st
}

// newBlock returns a processing block bound to this vm
func (vm *VM) newBlock(parentID ids.ID, height uint64, timestamp time.Time, txs []*Tx) (*Block, error) {
	blk, err := NewBlock(parentID, height, timestamp, txs)
	if err != nil {
		return nil, err
	}
	blk.vm = vm
	blk.status = choices.Processing
	return blk, nil
}

// accept persists [blk] and every write made by its txs
func (vm *VM) accept(blk *Block) error {
	if blk.status == choices.Accepted {
		return nil
	}
	if blk.state == nil {
		return fmt.Errorf("block %s was not verified", blk.ID())
	}

	blkID := blk.ID()
	if err := blk.state.PutBlock(blk); err != nil {
		return err
	}
	if err := blk.state.SetLastAccepted(blkID); err != nil {
		return err
	}
	if err := blk.state.Commit(); err != nil {
		return err
	}
	// Fold this block's layer, then those of its ancestors, down to vDB
	for _, layer := range blk.layers {
		if err := layer.Commit(); err != nil {
			return fmt.Errorf("failed to commit block layer: %w", err)
		}
	}
	if err := vm.vDB.Commit(); err != nil {
		return fmt.Errorf("failed to commit database: %w", err)
	}

	blk.status = choices.Accepted
	delete(vm.verifiedBlocks, blkID)
	blk.ledger.Publish()

	count, err := vm.state.KittiesCount()
	if err != nil {
		return err
	}
	vm.metrics.kitties.Set(float64(count))
	vm.metrics.blocksAccepted.Inc()
	vm.metrics.txsAccepted.Add(float64(len(blk.Txs)))
	log.Info("accepted block", "blkID", blkID, "height", blk.Height(), "txs", len(blk.Txs))
	return nil
}

// reject drops the writes of [blk] and returns its txs to the mempool
func (vm *VM) reject(blk *Block) {
	blk.status = choices.Rejected
	delete(vm.verifiedBlocks, blk.ID())
	if blk.ledger != nil {
		blk.ledger.Discard()
	}
	if len(blk.layers) > 0 {
		blk.layers[0].Abort()
	}
	blk.layers = nil
	blk.state = nil
	vm.requeue(blk.Txs)
	log.Info("rejected block", "blkID", blk.ID(), "height", blk.Height(), "txs", len(blk.Txs))
}

// ParseBlock parses [bytes] to a snowman.Block
// This function is used by the vm's state to unmarshal blocks saved in state
// and by the consensus layer when it receives the byte representation of a block
// from another node
func (vm *VM) ParseBlock(bytes []byte) (snowman.Block, error) {
	blk, err := ParseBlock(bytes)
	if err != nil {
		return nil, err
	}
	return vm.bind(blk)
}

// bind returns the known instance of [blk] if there is one, or [blk] with
// its status resolved
func (vm *VM) bind(blk *Block) (*Block, error) {
	blkID := blk.ID()
	if verified, ok := vm.verifiedBlocks[blkID]; ok {
		return verified, nil
	}

	blk.vm = vm
	_, err := vm.state.GetBlock(blkID)
	switch {
	case err == nil:
		blk.status = choices.Accepted
	case err == database.ErrNotFound:
		blk.status = choices.Processing
	default:
		return nil, err
	}
	return blk, nil
}

// GetBlock implements the block.ChainVM interface
func (vm *VM) GetBlock(blkID ids.ID) (snowman.Block, error) { return vm.getBlock(blkID) }

// getBlock returns the verified or accepted block with ID [blkID]
func (vm *VM) getBlock(blkID ids.ID) (*Block, error) {
	if blk, ok := vm.verifiedBlocks[blkID]; ok {
		return blk, nil
	}
	blk, err := vm.state.GetBlock(blkID)
	if err != nil {
		return nil, err
	}
	blk.vm = vm
	blk.status = choices.Accepted
	return blk, nil
}

// SetPreference sets the block with ID [blkID] as the preferred block
func (vm *VM) SetPreference(blkID ids.ID) error {
	vm.preferred = blkID
	return nil
}

// GetBlockIDAtHeight returns the ID of the accepted block at [height]
func (vm *VM) GetBlockIDAtHeight(height uint64) (ids.ID, error) {
	return vm.state.GetBlockIDAtHeight(height)
}

// LastAccepted returns the ID of the last accepted block
func (vm *VM) LastAccepted() (ids.ID, error) {
	return vm.state.GetLastAccepted()
}

// GetReceipt returns the outcome of an accepted tx
func (vm *VM) GetReceipt(txID ids.ID) (*Receipt, error) {
	return vm.state.GetReceipt(txID)
}

// GetKitty returns the kitty [kittyID] along with its owner and listing
func (vm *VM) GetKitty(kittyID KittyIndex) (*KittyInfo, error) {
	return vm.ledger.Kitty(kittyID)
}

// KittiesCount returns the number of kitties ever created
func (vm *VM) KittiesCount() (KittyIndex, error) {
	return vm.state.KittiesCount()
}

// GetAccount returns the balances of [addr]
func (vm *VM) GetAccount(addr ids.ShortID) (Account, error) {
	return vm.state.GetAccount(addr)
}

// Events returns up to [limit] events starting at sequence [start]
func (vm *VM) Events(start uint64, limit int) ([]*Event, error) {
	return vm.ledger.Events(start, limit)
}

// StakeUnit returns the amount reserved per held kitty
func (vm *VM) StakeUnit() uint64 { return vm.ledger.StakeUnit() }

// SetState sets this VM state according to given snow.State
func (vm *VM) SetState(state snow.State) error {
	switch state {
	// Engine reports it's bootstrapping
	case snow.Bootstrapping:
		vm.bootstrapped.SetValue(false)
		return nil
	case snow.NormalOp:
		vm.bootstrapped.SetValue(true)
		return nil
	default:
		return snow.ErrUnknownState
	}
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]*common.HTTPHandler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(cjson.NewCodec(), "application/json")
	server.RegisterCodec(cjson.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{vm: vm}, Name); err != nil {
		return nil, err
	}
	return map[string]*common.HTTPHandler{
		"": {
			LockOptions: common.WriteLock,
			Handler:     server,
		},
	}, nil
}

// CreateStaticHandlers returns a map where:
// Keys: The path extension for this VM's static API
// Values: The handler for that static API
func (vm *VM) CreateStaticHandlers() (map[string]*common.HTTPHandler, error) {
	server, err := newStaticServer()
	if err != nil {
		return nil, err
	}
	return map[string]*common.HTTPHandler{
		"": {
			LockOptions: common.NoLock,
			Handler:     server,
		},
	}, nil
}

// HealthCheck reports the last accepted block and the mempool backlog
func (vm *VM) HealthCheck() (interface{}, error) {
	lastAccepted, err := vm.LastAccepted()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"lastAccepted": lastAccepted,
		"mempool":      vm.mempool.Len(),
		"bootstrapped": vm.bootstrapped.GetValue(),
	}, nil
}

// Version returns this VM's version
func (vm *VM) Version() (string, error) {
	return Version, nil
}

// Shutdown closes the VM's databases
func (vm *VM) Shutdown() error {
	if vm.state == nil {
		return nil
	}
	if err := vm.state.Close(); err != nil {
		return err
	}
	return vm.vDB.Close()
}

// Connected is called when a node with the given ID connects
func (vm *VM) Connected(id ids.NodeID, nodeVersion version.Application) error {
	return nil // noop
}

// Disconnected is called when a node with the given ID disconnects
func (vm *VM) Disconnected(id ids.NodeID) error {
	return nil // noop
}

// This VM doesn't (currently) have any app-specific messages
func (vm *VM) AppGossip(nodeID ids.NodeID, msg []byte) error {
	return nil
}

// This VM doesn't (currently) have any app-specific messages
func (vm *VM) AppRequest(nodeID ids.NodeID, requestID uint32, deadline time.Time, request []byte) error {
	return nil
}

// This VM doesn't (currently) have any app-specific messages
func (vm *VM) AppResponse(nodeID ids.NodeID, requestID uint32, response []byte) error {
	return nil
}

// This VM doesn't (currently) have any app-specific messages
func (vm *VM) AppRequestFailed(nodeID ids.NodeID, requestID uint32) error {
	return nil
}
