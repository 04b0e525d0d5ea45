// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	log "github.com/inconshreveable/log15"

	safemath "github.com/ava-labs/avalanchego/utils/math"
)

var (
	ErrKittiesCountOverflow = errors.New("kitties count overflow")
	ErrNotOwner             = errors.New("not owner")
	ErrSameParentIndex      = errors.New("same parent index")
	ErrInvalidKittyIndex    = errors.New("invalid kitty index")
	ErrNotForSale           = errors.New("not for sale")
	ErrNotEnoughForBuying   = errors.New("not enough balance for buying")
	ErrNotEnoughForStaking  = errors.New("not enough balance for staking")
	ErrBuyerIsOwner         = errors.New("buyer is owner")
)

// Ledger applies kitty calls to State.
//
// Every exported mutating method may leave partial writes behind when it
// fails; Apply is the entry point that turns a call into an all-or-nothing
// state transition.
type Ledger struct {
	state    State
	currency Currency
	staker   *Staker
	random   *Randomness
	metrics  *metrics
	log      log.Logger

	// events emitted by the call being applied
	pending []*Event
	// events of applied calls whose writes have not reached disk yet
	committed []*Event
	// calls rolled back since the last Publish
	failed int
}

// NewLedger returns a ledger over [state]. Funds and stake move through
// [currency], which must write to [state] for calls to stay atomic.
func NewLedger(
	state State,
	currency Currency,
	host Host,
	stakeUnit uint64,
	metrics *metrics,
) *Ledger {
	logger := log.New("module", "ledger")
	return &Ledger{
		state:    state,
		currency: currency,
		staker:   NewStaker(currency, stakeUnit, logger),
		random:   NewRandomness(host),
		metrics:  metrics,
		log:      logger,
	}
}

// StakeUnit returns the amount reserved per held kitty
func (l *Ledger) StakeUnit() uint64 { return l.staker.Unit() }

// Apply executes [call] on behalf of [caller]. On success every write and
// event of the call is committed to the ledger's state; on failure none of
// them is. Events of applied calls are held until Publish.
func (l *Ledger) Apply(caller ids.ShortID, call Call) error {
	if err := call.Execute(l, caller); err != nil {
		l.abort()
		return err
	}
	if err := l.state.Commit(); err != nil {
		l.abort()
		return fmt.Errorf("failed to commit call: %w", err)
	}
	l.settle()
	return nil
}

// settle marks the events of the current call as committed
func (l *Ledger) settle() {
	l.committed = append(l.committed, l.pending...)
	l.pending = nil
}

// Publish reports the events of every applied call. Call it once the
// writes of those calls are durable.
func (l *Ledger) Publish() {
	for _, event := range l.committed {
		l.metrics.observe(event)
		l.log.Debug("event",
			"kind", event.Kind,
			"account", event.Account,
			"counterparty", event.Counterparty,
			"kittyID", event.KittyID,
			"price", event.Price,
		)
	}
	l.metrics.failedCalls.Add(float64(l.failed))
	l.committed = nil
	l.failed = 0
}

// Discard drops every event held by the ledger without reporting it
func (l *Ledger) Discard() {
	l.pending = nil
	l.committed = nil
	l.failed = 0
}

func (l *Ledger) abort() {
	l.state.Abort()
	l.pending = nil
	l.failed++
}

// NextKittyID returns the index the next kitty will get
func (l *Ledger) NextKittyID() (KittyIndex, error) {
	count, err := l.state.KittiesCount()
	if err != nil {
		return 0, fmt.Errorf("failed to read kitties count: %w", err)
	}
	if count == MaxKittyIndex {
		return 0, ErrKittiesCountOverflow
	}
	return count, nil
}

// Create mints a kitty with fresh random DNA for [caller]
func (l *Ledger) Create(caller ids.ShortID) (KittyIndex, error) {
	kittyID, err := l.NextKittyID()
	if err != nil {
		return 0, err
	}

	dna := l.random.Derive(caller)
	return kittyID, l.mint(caller, kittyID, dna)
}

// Breed mints a kitty for [caller] whose DNA is a crossover of two existing
// kitties. The caller does not need to own either parent.
func (l *Ledger) Breed(caller ids.ShortID, kittyID1, kittyID2 KittyIndex) (KittyIndex, error) {
	if kittyID1 == kittyID2 {
		return 0, ErrSameParentIndex
	}

	parent1, err := l.parent(kittyID1)
	if err != nil {
		return 0, err
	}
	parent2, err := l.parent(kittyID2)
	if err != nil {
		return 0, err
	}

	kittyID, err := l.NextKittyID()
	if err != nil {
		return 0, err
	}

	selector := l.random.Derive(caller)
	dna := Crossover(selector, parent1.DNA, parent2.DNA)
	return kittyID, l.mint(caller, kittyID, dna)
}

func (l *Ledger) parent(kittyID KittyIndex) (*Kitty, error) {
	kitty, err := l.state.GetKitty(kittyID)
	switch {
	case err == database.ErrNotFound:
		return nil, ErrInvalidKittyIndex
	case err != nil:
		return nil, fmt.Errorf("failed to get kitty %d: %w", kittyID, err)
	}
	return kitty, nil
}

// mint stakes for [owner] and only then stores the kitty, so a stored kitty
// always has a reservation behind it.
func (l *Ledger) mint(owner ids.ShortID, kittyID KittyIndex, dna DNA) error {
	if err := l.staker.Stake(owner); err != nil {
		return err
	}
	if err := l.allocate(kittyID, &Kitty{DNA: dna}, owner); err != nil {
		return err
	}
	return l.emit(&Event{
		Kind:    KittyCreated,
		Account: owner,
		KittyID: kittyID,
	})
}

func (l *Ledger) allocate(kittyID KittyIndex, kitty *Kitty, owner ids.ShortID) error {
	if err := l.state.PutKitty(kittyID, kitty); err != nil {
		return fmt.Errorf("failed to put kitty %d: %w", kittyID, err)
	}
	if err := l.state.PutOwner(kittyID, owner); err != nil {
		return fmt.Errorf("failed to put owner of kitty %d: %w", kittyID, err)
	}
	if err := l.state.SetKittiesCount(kittyID + 1); err != nil {
		return fmt.Errorf("failed to update kitties count: %w", err)
	}
	return nil
}

// owner returns the owner of [kittyID]. A missing kitty has no owner, which
// callers report as ErrNotOwner.
func (l *Ledger) owner(kittyID KittyIndex) (ids.ShortID, error) {
	owner, err := l.state.GetOwner(kittyID)
	switch {
	case err == database.ErrNotFound:
		return ids.ShortEmpty, ErrNotOwner
	case err != nil:
		return ids.ShortEmpty, fmt.Errorf("failed to get owner of kitty %d: %w", kittyID, err)
	}
	return owner, nil
}

func (l *Ledger) ensureOwner(caller ids.ShortID, kittyID KittyIndex) error {
	owner, err := l.owner(kittyID)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotOwner
	}
	return nil
}

// Transfer gives [kittyID] from [caller] to [to], moving its stake along.
// An existing listing stays in place under the new owner.
func (l *Ledger) Transfer(caller, to ids.ShortID, kittyID KittyIndex) error {
	if err := l.ensureOwner(caller, kittyID); err != nil {
		return err
	}
	return l.transferFrom(caller, to, kittyID)
}

func (l *Ledger) transferFrom(from, to ids.ShortID, kittyID KittyIndex) error {
	if err := l.reassign(from, to, kittyID); err != nil {
		return err
	}
	return l.emit(&Event{
		Kind:         KittyTransferred,
		Account:      from,
		Counterparty: to,
		KittyID:      kittyID,
	})
}

// reassign reserves the new owner's stake before releasing the old one's.
func (l *Ledger) reassign(from, to ids.ShortID, kittyID KittyIndex) error {
	if err := l.staker.Stake(to); err != nil {
		return err
	}
	if err := l.staker.Unstake(from); err != nil {
		return err
	}
	if err := l.state.PutOwner(kittyID, to); err != nil {
		return fmt.Errorf("failed to put owner of kitty %d: %w", kittyID, err)
	}
	return nil
}

// Sell lists [kittyID] at [price], or delists it when [listed] is false.
func (l *Ledger) Sell(caller ids.ShortID, kittyID KittyIndex, price uint64, listed bool) error {
	if err := l.ensureOwner(caller, kittyID); err != nil {
		return err
	}

	var err error
	if listed {
		err = l.state.PutPrice(kittyID, price)
	} else {
		price = 0
		err = l.state.DeletePrice(kittyID)
	}
	if err != nil {
		return fmt.Errorf("failed to update listing of kitty %d: %w", kittyID, err)
	}

	return l.emit(&Event{
		Kind:    KittyListed,
		Account: caller,
		KittyID: kittyID,
		Price:   price,
		Listed:  listed,
	})
}

// Buy purchases [kittyID] for [caller] at its listing price. The buyer must
// hold strictly more than price + stake unit in free balance.
func (l *Ledger) Buy(caller ids.ShortID, kittyID KittyIndex) error {
	seller, err := l.owner(kittyID)
	if err != nil {
		return err
	}
	if seller == caller {
		return ErrBuyerIsOwner
	}

	price, listed, err := l.state.GetPrice(kittyID)
	if err != nil {
		return fmt.Errorf("failed to get listing of kitty %d: %w", kittyID, err)
	}
	if !listed {
		return ErrNotForSale
	}

	balance, err := l.currency.FreeBalance(caller)
	if err != nil {
		return fmt.Errorf("failed to get balance of %s: %w", caller, err)
	}
	required, err := safemath.Add64(price, l.staker.Unit())
	if err != nil || balance <= required {
		return ErrNotEnoughForBuying
	}

	// The stake moves once, together with ownership.
	if err := l.reassign(seller, caller, kittyID); err != nil {
		return err
	}
	if err := l.currency.Transfer(caller, seller, price, KeepAlive); err != nil {
		return err
	}
	if err := l.state.DeletePrice(kittyID); err != nil {
		return fmt.Errorf("failed to clear listing of kitty %d: %w", kittyID, err)
	}

	return l.emit(&Event{
		Kind:         KittyPurchased,
		Account:      caller,
		Counterparty: seller,
		KittyID:      kittyID,
		Price:        price,
	})
}

// emit appends [event] to the event log as part of the current call
func (l *Ledger) emit(event *Event) error {
	seq, err := l.state.EventCount()
	if err != nil {
		return fmt.Errorf("failed to read event count: %w", err)
	}
	if err := l.state.PutEvent(seq, event); err != nil {
		return fmt.Errorf("failed to put event %d: %w", seq, err)
	}
	if err := l.state.SetEventCount(seq + 1); err != nil {
		return fmt.Errorf("failed to update event count: %w", err)
	}
	l.pending = append(l.pending, event)
	return nil
}

// Kitty returns the record, owner and listing of [kittyID]
func (l *Ledger) Kitty(kittyID KittyIndex) (*KittyInfo, error) {
	kitty, err := l.parent(kittyID)
	if err != nil {
		return nil, err
	}
	owner, err := l.owner(kittyID)
	if err != nil {
		return nil, err
	}
	price, listed, err := l.state.GetPrice(kittyID)
	if err != nil {
		return nil, err
	}
	return &KittyInfo{
		ID:     kittyID,
		DNA:    kitty.DNA,
		Owner:  owner,
		Price:  price,
		Listed: listed,
	}, nil
}

// Events returns up to [limit] events starting at sequence [start]
func (l *Ledger) Events(start uint64, limit int) ([]*Event, error) {
	count, err := l.state.EventCount()
	if err != nil {
		return nil, err
	}
	events := []*Event{}
	for seq := start; seq < count && len(events) < limit; seq++ {
		event, err := l.state.GetEvent(seq)
		if err != nil {
			return nil, fmt.Errorf("failed to get event %d: %w", seq, err)
		}
		events = append(events, event)
	}
	return events, nil
}
