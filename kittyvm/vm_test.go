// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/manager"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/snow/choices"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/version"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

var (
	genesisDNA = DNA{0xDE, 0xAD, 0xBE, 0xEF}

	testNonce uint64
)

func testGenesis(t *testing.T) *Genesis {
	dna, err := EncodeDNA(genesisDNA)
	require.NoError(t, err)

	return &Genesis{
		StakeUnit:          testStakeUnit,
		ExistentialDeposit: 1,
		Allocations: []Allocation{
			{Address: alice.String(), Balance: testBalance},
			{Address: bob.String(), Balance: testBalance},
			{Address: carol.String(), Balance: cjson.Uint64(testStakeUnit - 1)},
		},
		Kitties: []GenesisKitty{
			{Owner: alice.String(), DNA: dna},
		},
	}
}

func testGenesisBytes(t *testing.T) []byte {
	genesisBytes, err := testGenesis(t).Bytes()
	require.NoError(t, err)
	return genesisBytes
}

// initTestVM initializes a vm over [dbManager] and returns it along with the
// channel it notifies the engine on
func initTestVM(t *testing.T, dbManager manager.Manager, genesisBytes, configBytes []byte) (*VM, chan common.Message, error) {
	msgChan := make(chan common.Message, 1)
	vm := &VM{}
	ctx := snow.DefaultContextTest()
	ctx.Lock.Lock()
	defer ctx.Lock.Unlock()
	err := vm.Initialize(ctx, dbManager, genesisBytes, nil, configBytes, msgChan, nil, nil)
	return vm, msgChan, err
}

func newTestVMWithConfig(t *testing.T, configBytes []byte) (*VM, chan common.Message) {
	dbManager := manager.NewMemDB(version.DefaultVersion1_0_0)
	vm, msgChan, err := initTestVM(t, dbManager, testGenesisBytes(t), configBytes)
	require.NoError(t, err)
	return vm, msgChan
}

func newTestVM(t *testing.T) *VM {
	vm, _ := newTestVMWithConfig(t, nil)
	return vm
}

// newSignedTx returns a fresh tx carrying [call], signed by [key]
func newSignedTx(t *testing.T, key crypto.PrivateKey, call Call) *Tx {
	tx, err := NewTx(key, atomic.AddUint64(&testNonce, 1), call)
	require.NoError(t, err)
	return tx
}

// issue signs [call] with [key] and adds it to the mempool
func issue(t *testing.T, vm *VM, key crypto.PrivateKey, call Call) ids.ID {
	txID, err := vm.IssueTx(newSignedTx(t, key, call))
	require.NoError(t, err)
	return txID
}

// buildPending builds a verified block out of the mempool
func buildPending(t *testing.T, vm *VM) *Block {
	snowmanBlock, err := vm.BuildBlock()
	require.NoError(t, err)
	blk, ok := snowmanBlock.(*Block)
	require.True(t, ok)
	require.Equal(t, choices.Processing, blk.Status())
	return blk
}

// acceptPending builds a block out of the mempool, prefers it and accepts it
func acceptPending(t *testing.T, vm *VM) *Block {
	blk := buildPending(t, vm)
	require.NoError(t, vm.SetPreference(blk.ID()))
	require.NoError(t, blk.Accept())
	require.Equal(t, choices.Accepted, blk.Status())
	return blk
}

// Assert that after initialization, the vm has the state we expect
func TestGenesis(t *testing.T) {
	assert := assert.New(t)
	vm := newTestVM(t)

	// Verify that the db is initialized
	ok, err := vm.state.IsInitialized()
	assert.NoError(err)
	assert.True(ok)

	lastAccepted, err := vm.LastAccepted()
	assert.NoError(err)
	assert.NotEqual(ids.Empty, lastAccepted)

	genesisBlock, err := vm.getBlock(lastAccepted)
	assert.NoError(err)
	assert.Equal(ids.Empty, genesisBlock.Parent())
	assert.Zero(genesisBlock.Height())
	assert.Empty(genesisBlock.Txs)
	assert.Equal(choices.Accepted, genesisBlock.Status())

	atHeight, err := vm.GetBlockIDAtHeight(0)
	assert.NoError(err)
	assert.Equal(lastAccepted, atHeight)

	kitty, err := vm.GetKitty(0)
	assert.NoError(err)
	assert.Equal(alice, kitty.Owner)
	assert.Equal(genesisDNA, kitty.DNA)

	account, err := vm.GetAccount(alice)
	assert.NoError(err)
	assert.Equal(Account{Free: testBalance - testStakeUnit, Reserved: testStakeUnit}, account)

	count, err := vm.KittiesCount()
	assert.NoError(err)
	assert.Equal(KittyIndex(1), count)

	events, err := vm.Events(0, 10)
	assert.NoError(err)
	assert.Len(events, 1)
	assert.Equal(uint64(testStakeUnit), vm.StakeUnit())
	assert.Equal(1.0, testutil.ToFloat64(vm.metrics.kitties))
}

// A second Initialize over the same database keeps the existing chain
func TestReinitialize(t *testing.T) {
	require := require.New(t)

	dbManager := manager.NewMemDB(version.DefaultVersion1_0_0)
	genesisBytes := testGenesisBytes(t)
	vm, _, err := initTestVM(t, dbManager, genesisBytes, nil)
	require.NoError(err)

	issue(t, vm, bobKey, &CreateCall{})
	blk := acceptPending(t, vm)

	vm, _, err = initTestVM(t, dbManager, genesisBytes, nil)
	require.NoError(err)
	lastAccepted, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(blk.ID(), lastAccepted)
	require.Equal(blk.ID(), vm.preferred)

	count, err := vm.KittiesCount()
	require.NoError(err)
	require.Equal(KittyIndex(2), count)
}

func TestGenesisInvalid(t *testing.T) {
	for _, genesisBytes := range [][]byte{
		[]byte(`{"stakeUnit":"0"}`),
		[]byte(`not json`),
		[]byte(`{"stakeUnit":"1","allocations":[{"address":"nope","balance":"1"}]}`),
	} {
		dbManager := manager.NewMemDB(version.DefaultVersion1_0_0)
		_, _, err := initTestVM(t, dbManager, genesisBytes, nil)
		require.Error(t, err)
	}
}

// A genesis that fails halfway reports nothing and writes nothing
func TestGenesisFailureDiscardsEvents(t *testing.T) {
	require := require.New(t)

	genesis := testGenesis(t)
	// carol cannot stake for a kitty
	genesis.Kitties = append(genesis.Kitties, GenesisKitty{
		Owner: carol.String(),
		DNA:   genesis.Kitties[0].DNA,
	})
	genesisBytes, err := genesis.Bytes()
	require.NoError(err)

	dbManager := manager.NewMemDB(version.DefaultVersion1_0_0)
	vm, _, err := initTestVM(t, dbManager, genesisBytes, nil)
	require.ErrorIs(err, ErrNotEnoughForStaking)

	require.Empty(vm.ledger.pending)
	require.Empty(vm.ledger.committed)
	require.Zero(testutil.ToFloat64(vm.metrics.created))
	require.Zero(testutil.ToFloat64(vm.metrics.kitties))

	// The first kitty never reached the database
	initialized, err := NewState(dbManager.Current().Database, defaultKittyCacheSize).IsInitialized()
	require.NoError(err)
	require.False(initialized)
}

func TestHappyPath(t *testing.T) {
	require := require.New(t)
	vm, msgChan := newTestVMWithConfig(t, nil)

	genesisID, err := vm.LastAccepted()
	require.NoError(err)

	txID := issue(t, vm, bobKey, &CreateCall{})

	select { // assert there is a pending tx message to the engine
	case msg := <-msgChan:
		require.Equal(common.PendingTxs, msg)
	default:
		require.FailNow("should have been pendingTxs message on channel")
	}

	blk := acceptPending(t, vm)
	require.Equal(genesisID, blk.Parent())
	require.EqualValues(1, blk.Height())
	require.Len(blk.Txs, 1)

	lastAccepted, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(blk.ID(), lastAccepted)

	receipt, err := vm.GetReceipt(txID)
	require.NoError(err)
	require.Equal(&Receipt{BlockID: blk.ID(), Index: 0, Success: true}, receipt)

	kitty, err := vm.GetKitty(1)
	require.NoError(err)
	require.Equal(bob, kitty.Owner)

	// The DNA derives from the parent block and the tx position
	host := &testHost{seed: genesisID[:]}
	require.Equal(NewRandomness(host).Derive(bob), kitty.DNA)

	parsed, err := vm.ParseBlock(blk.Bytes())
	require.NoError(err)
	require.Equal(blk.ID(), parsed.ID())
	require.Equal(choices.Accepted, parsed.Status())
	require.Equal(txID, parsed.(*Block).Txs[0].ID())
	require.Equal(bob, parsed.(*Block).Txs[0].Caller())
}

// A failed tx gets a receipt and nothing else
func TestFailedTx(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	before, err := vm.GetAccount(bob)
	require.NoError(err)

	failedID := issue(t, vm, bobKey, &BuyCall{KittyID: 0})
	okID := issue(t, vm, bobKey, &CreateCall{})
	blk := acceptPending(t, vm)

	receipt, err := vm.GetReceipt(failedID)
	require.NoError(err)
	require.False(receipt.Success)
	require.Equal(ErrNotForSale.Error(), receipt.Error)

	receipt, err = vm.GetReceipt(okID)
	require.NoError(err)
	require.True(receipt.Success)
	require.EqualValues(1, receipt.Index)
	require.Equal(blk.ID(), receipt.BlockID)

	// Only the successful create touched bob
	after, err := vm.GetAccount(bob)
	require.NoError(err)
	require.Equal(before.Free-testStakeUnit, after.Free)

	events, err := vm.Events(0, 10)
	require.NoError(err)
	require.Len(events, 2)
	require.Equal(KittyCreated, events[1].Kind)
	require.Equal(bob, events[1].Account)
	require.Equal(1.0, testutil.ToFloat64(vm.metrics.failedCalls))
}

// Txs of one block see the writes of the txs before them
func TestBlockOrdering(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	issue(t, vm, aliceKey, &SellCall{KittyID: 0, Price: 100, Listed: true})
	buyID := issue(t, vm, bobKey, &BuyCall{KittyID: 0})
	createID1 := issue(t, vm, bobKey, &CreateCall{})
	createID2 := issue(t, vm, bobKey, &CreateCall{})
	acceptPending(t, vm)

	for _, txID := range []ids.ID{buyID, createID1, createID2} {
		receipt, err := vm.GetReceipt(txID)
		require.NoError(err)
		require.True(receipt.Success, receipt.Error)
	}

	kitty, err := vm.GetKitty(0)
	require.NoError(err)
	require.Equal(bob, kitty.Owner)

	// Same caller and seed, different positions
	k1, err := vm.GetKitty(1)
	require.NoError(err)
	k2, err := vm.GetKitty(2)
	require.NoError(err)
	require.NotEqual(k1.DNA, k2.DNA)
}

// Only the signer of a tx can act on its kitties; the caller is never taken
// from anything but the signature.
func TestSignedTxs(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	// bob signs a transfer of alice's kitty to himself
	stealID := issue(t, vm, bobKey, &TransferCall{To: bob, KittyID: 0})
	// bob signs a listing of alice's kitty
	listID := issue(t, vm, bobKey, &SellCall{KittyID: 0, Price: 1, Listed: true})
	acceptPending(t, vm)

	for _, txID := range []ids.ID{stealID, listID} {
		receipt, err := vm.GetReceipt(txID)
		require.NoError(err)
		require.False(receipt.Success)
		require.Equal(ErrNotOwner.Error(), receipt.Error)
	}
	kitty, err := vm.GetKitty(0)
	require.NoError(err)
	require.Equal(alice, kitty.Owner)
	require.False(kitty.Listed)

	// Rewriting the call after signing changes who the tx speaks for
	tx := newSignedTx(t, aliceKey, &TransferCall{To: carol, KittyID: 0})
	tx.Unsigned.Call = &TransferCall{To: bob, KittyID: 0}
	if err := tx.Initialize(); err == nil {
		require.NotEqual(alice, tx.Caller())
	}

	// A tx without a signature is not accepted
	unsigned := &Tx{Unsigned: &UnsignedTx{Nonce: 1, Call: &CreateCall{}}}
	require.ErrorIs(unsigned.Initialize(), errBadSignature)
	_, err = vm.IssueTx(unsigned)
	require.Equal(errNoCaller, err)

	// A block carrying one is not valid either
	lastAccepted, err := vm.LastAccepted()
	require.NoError(err)
	blk, err := vm.newBlock(lastAccepted, 2, time.Now(), []*Tx{unsigned})
	require.NoError(err)
	require.Error(blk.Verify())
	_, err = vm.ParseBlock(blk.Bytes())
	require.ErrorIs(err, errBadSignature)
}

// A tx is applied at most once, whether it is repeated inside a block or
// replayed in a later one
func TestDuplicateTxs(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	genesisID, err := vm.LastAccepted()
	require.NoError(err)
	tx := newSignedTx(t, bobKey, &CreateCall{})
	now := time.Now()

	twice, err := vm.newBlock(genesisID, 1, now, []*Tx{tx, tx})
	require.NoError(err)
	require.ErrorIs(twice.Verify(), errDuplicateTx)

	once, err := vm.newBlock(genesisID, 1, now, []*Tx{tx})
	require.NoError(err)
	require.NoError(once.Verify())

	// Replayed on top of the processing block that carries it
	onProcessing, err := vm.newBlock(once.ID(), 2, now, []*Tx{tx})
	require.NoError(err)
	require.ErrorIs(onProcessing.Verify(), errTxAccepted)

	require.NoError(once.Accept())

	// Replayed on top of the accepted block that carries it
	onAccepted, err := vm.newBlock(once.ID(), 2, now, []*Tx{tx})
	require.NoError(err)
	require.ErrorIs(onAccepted.Verify(), errTxAccepted)

	account, err := vm.GetAccount(bob)
	require.NoError(err)
	require.Equal(Account{Free: testBalance - testStakeUnit, Reserved: testStakeUnit}, account)
	count, err := vm.KittiesCount()
	require.NoError(err)
	require.Equal(KittyIndex(2), count)
}

// BuildBlock leaves out txs the mempool holds twice or that the preferred
// chain already carries
func TestBuildBlockSkipsDuplicates(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	tx := newSignedTx(t, bobKey, &CreateCall{})
	_, err := vm.IssueTx(tx)
	require.NoError(err)
	_, err = vm.IssueTx(tx)
	require.NoError(err)

	blk := buildPending(t, vm)
	require.Len(blk.Txs, 1)
	require.NoError(vm.SetPreference(blk.ID()))

	// Issued again while its block is processing
	_, err = vm.IssueTx(tx)
	require.NoError(err)
	_, err = vm.BuildBlock()
	require.Equal(errNoPendingTxs, err)
}

// Blocks may extend processing blocks; accepting them in order persists the
// writes of both
func TestProcessingChain(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	issue(t, vm, bobKey, &CreateCall{})
	first := buildPending(t, vm)
	require.NoError(vm.SetPreference(first.ID()))
	require.EqualValues(1, first.state.ExistentialDeposit())

	// Reads see accepted state only
	count, err := vm.KittiesCount()
	require.NoError(err)
	require.Equal(KittyIndex(1), count)

	issue(t, vm, bobKey, &TransferCall{To: alice, KittyID: 1})
	second := buildPending(t, vm)
	require.Equal(first.ID(), second.Parent())
	require.NoError(vm.SetPreference(second.ID()))

	require.NoError(first.Accept())
	require.NoError(second.Accept())

	kitty, err := vm.GetKitty(1)
	require.NoError(err)
	require.Equal(alice, kitty.Owner)
	lastAccepted, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(second.ID(), lastAccepted)
	require.Empty(vm.verifiedBlocks)

	// A block on a decided block other than the tip is invalid
	genesisID, err := vm.GetBlockIDAtHeight(0)
	require.NoError(err)
	stale, err := vm.newBlock(genesisID, 1, time.Now(), []*Tx{newSignedTx(t, bobKey, &CreateCall{})})
	require.NoError(err)
	require.ErrorIs(stale.Verify(), errDecidedParent)
}

// Verifying a block reports nothing; its events are published on accept and
// dropped on reject
func TestPublishOnAccept(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	issue(t, vm, bobKey, &CreateCall{})
	blk := buildPending(t, vm)
	require.Zero(testutil.ToFloat64(vm.metrics.created))
	require.Equal(1.0, testutil.ToFloat64(vm.metrics.kitties))

	require.NoError(blk.Reject())
	require.Zero(testutil.ToFloat64(vm.metrics.created))

	blk = acceptPending(t, vm)
	require.Equal(1.0, testutil.ToFloat64(vm.metrics.created))
	require.Equal(2.0, testutil.ToFloat64(vm.metrics.kitties))
	require.Equal(1.0, testutil.ToFloat64(vm.metrics.blocksAccepted))
	require.Equal(1.0, testutil.ToFloat64(vm.metrics.txsAccepted))
}

// Rejecting a block returns its txs to the mempool and discards its writes
func TestRejectRequeues(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	txID := issue(t, vm, bobKey, &CreateCall{})
	rejected := buildPending(t, vm)
	require.Zero(vm.mempool.Len())

	require.NoError(rejected.Reject())
	require.Equal(choices.Rejected, rejected.Status())
	require.Equal(1, vm.mempool.Len())
	_, err := vm.getBlock(rejected.ID())
	require.Error(err)

	accepted := acceptPending(t, vm)
	receipt, err := vm.GetReceipt(txID)
	require.NoError(err)
	require.Equal(accepted.ID(), receipt.BlockID)

	count, err := vm.KittiesCount()
	require.NoError(err)
	require.Equal(KittyIndex(2), count)
}

// Txs another block already carried are not requeued
func TestRejectSkipsAcceptedTxs(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	genesisID, err := vm.LastAccepted()
	require.NoError(err)
	tx := newSignedTx(t, bobKey, &CreateCall{})
	now := time.Now()

	blk1, err := vm.newBlock(genesisID, 1, now, []*Tx{tx})
	require.NoError(err)
	blk2, err := vm.newBlock(genesisID, 1, now.Add(time.Second), []*Tx{tx})
	require.NoError(err)
	require.NoError(blk1.Verify())
	require.NoError(blk2.Verify())

	require.NoError(blk1.Accept())
	require.NoError(blk2.Reject())
	require.Zero(vm.mempool.Len())
}

func TestBuildBlockEmpty(t *testing.T) {
	vm := newTestVM(t)
	_, err := vm.BuildBlock()
	require.Equal(t, errNoPendingTxs, err)
}

func TestBuildBlockMaxTxs(t *testing.T) {
	require := require.New(t)
	vm, msgChan := newTestVMWithConfig(t, []byte(`{"maxBlockTxs":2}`))

	for i := 0; i < 3; i++ {
		issue(t, vm, bobKey, &CreateCall{})
	}
	require.Equal(common.PendingTxs, <-msgChan)

	blk := acceptPending(t, vm)
	require.Len(blk.Txs, 2)

	// The engine is notified of the leftover tx
	select {
	case msg := <-msgChan:
		require.Equal(common.PendingTxs, msg)
	default:
		require.FailNow("should have been pendingTxs message on channel")
	}
	blk = acceptPending(t, vm)
	require.Len(blk.Txs, 1)
}

func TestRejectInvalidBlocks(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	genesisID, err := vm.LastAccepted()
	require.NoError(err)
	tx := newSignedTx(t, bobKey, &CreateCall{})
	now := time.Now()

	wrongParent, err := vm.newBlock(ids.ID{9, 9, 9}, 1, now, []*Tx{tx})
	require.NoError(err)
	require.Error(wrongParent.Verify())

	wrongHeight, err := vm.newBlock(genesisID, 2, now, []*Tx{tx})
	require.NoError(err)
	require.Error(wrongHeight.Verify())

	future, err := vm.newBlock(genesisID, 1, now.Add(time.Hour), []*Tx{tx})
	require.NoError(err)
	require.Error(future.Verify())

	unsigned, err := vm.newBlock(genesisID, 1, now, []*Tx{{Unsigned: &UnsignedTx{Call: &CreateCall{}}}})
	require.NoError(err)
	require.Error(unsigned.Verify())

	// Nothing was applied
	require.Empty(vm.verifiedBlocks)
	lastAccepted, err := vm.LastAccepted()
	require.NoError(err)
	require.Equal(genesisID, lastAccepted)
	count, err := vm.KittiesCount()
	require.NoError(err)
	require.Equal(KittyIndex(1), count)

	valid, err := vm.newBlock(genesisID, 1, now, []*Tx{tx})
	require.NoError(err)
	require.NoError(valid.Verify())
	require.NoError(valid.Accept())

	// An unverified block cannot be accepted
	unverified, err := vm.newBlock(valid.ID(), 2, now, []*Tx{newSignedTx(t, bobKey, &CreateCall{})})
	require.NoError(err)
	require.Error(unverified.Accept())
}

func TestParseBlock(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	issue(t, vm, bobKey, &CreateCall{})
	blk := buildPending(t, vm)

	// The verified instance is returned
	parsed, err := vm.ParseBlock(blk.Bytes())
	require.NoError(err)
	require.True(parsed == blk)

	got, err := vm.GetBlock(blk.ID())
	require.NoError(err)
	require.Equal(choices.Processing, got.Status())

	_, err = vm.ParseBlock([]byte{1, 2, 3})
	require.Error(err)
}

func TestIssueTx(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	_, err := vm.IssueTx(&Tx{})
	require.Equal(errNoCall, err)

	tx := newSignedTx(t, bobKey, &CreateCall{})
	txID, err := vm.IssueTx(tx)
	require.NoError(err)
	require.Equal(tx.ID(), txID)
	acceptPending(t, vm)

	_, err = vm.IssueTx(tx)
	require.Equal(errTxAccepted, err)

	parsed, err := ParseTx(tx.Bytes())
	require.NoError(err)
	require.Equal(tx.ID(), parsed.ID())
	require.Equal(bob, parsed.Caller())
}

func TestSetState(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	// bootstrapping
	require.NoError(vm.SetState(snow.Bootstrapping))
	require.False(vm.bootstrapped.GetValue())
	// bootstrapped
	require.NoError(vm.SetState(snow.NormalOp))
	require.True(vm.bootstrapped.GetValue())
	// unknown
	unknownState := snow.State(99)
	require.ErrorIs(vm.SetState(unknownState), snow.ErrUnknownState)

	health, err := vm.HealthCheck()
	require.NoError(err)
	require.Equal(true, health.(map[string]interface{})["bootstrapped"])
}

func TestShutdown(t *testing.T) {
	vm := newTestVM(t)
	require.NoError(t, vm.Shutdown())

	// Shutting down a vm that never initialized is a no-op
	require.NoError(t, (&VM{}).Shutdown())
}

func TestMempoolFull(t *testing.T) {
	require := require.New(t)
	vm, _ := newTestVMWithConfig(t, []byte(`{"mempoolSize":1}`))

	issue(t, vm, bobKey, &CreateCall{})
	_, err := vm.IssueTx(newSignedTx(t, bobKey, &CreateCall{}))
	require.Error(err)
}

func TestHandlers(t *testing.T) {
	require := require.New(t)
	vm := newTestVM(t)

	handlers, err := vm.CreateHandlers()
	require.NoError(err)
	require.Equal(common.LockOption(common.WriteLock), handlers[""].LockOptions)

	staticHandlers, err := vm.CreateStaticHandlers()
	require.NoError(err)
	require.Contains(staticHandlers, "")

	factory := &Factory{}
	created, err := factory.New(nil)
	require.NoError(err)
	require.IsType(&VM{}, created)
}
