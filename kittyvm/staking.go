// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	log "github.com/inconshreveable/log15"
)

var errStakeInvariant = errors.New("stake invariant violated")

// Staker reserves one stake unit per kitty against the kitty's owner.
type Staker struct {
	currency Currency
	unit     uint64
	log      log.Logger
}

func NewStaker(currency Currency, unit uint64, logger log.Logger) *Staker {
	return &Staker{
		currency: currency,
		unit:     unit,
		log:      logger,
	}
}

// Unit returns the amount reserved per held kitty
func (s *Staker) Unit() uint64 { return s.unit }

// Stake reserves one unit from [addr]
func (s *Staker) Stake(addr ids.ShortID) error {
	err := s.currency.Reserve(addr, s.unit)
	if errors.Is(err, ErrInsufficientBalance) {
		return ErrNotEnoughForStaking
	}
	return err
}

// Unstake releases one unit previously reserved from [addr].
// Every owned kitty carries a reservation, so a shortfall means the ledger is
// corrupt rather than that the caller did something wrong.
func (s *Staker) Unstake(addr ids.ShortID) error {
	shortfall, err := s.currency.Unreserve(addr, s.unit)
	if err != nil {
		return err
	}
	if shortfall != 0 {
		s.log.Crit("unstake shortfall", "account", addr, "unit", s.unit, "shortfall", shortfall)
		return fmt.Errorf("%w: %s is short %d of %d reserved", errStakeInvariant, addr, shortfall, s.unit)
	}
	return nil
}
