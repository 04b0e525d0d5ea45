// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	safemath "github.com/ava-labs/avalanchego/utils/math"
)

var (
	ErrInsufficientBalance = errors.New("insufficient free balance")
	ErrKeepAlive           = errors.New("transfer would drop the sender below the existential deposit")
	ErrExistentialDeposit  = errors.New("receiving account would stay below the existential deposit")

	errAccountWrongVersion = errors.New("wrong account version")

	_ AccountState = &accountState{}
)

// ExistenceRequirement tells Transfer whether the sender may be emptied.
type ExistenceRequirement uint8

const (
	AllowDeath ExistenceRequirement = iota
	KeepAlive
)

// Currency is the balances subsystem the ledger moves funds and stake with.
type Currency interface {
	FreeBalance(addr ids.ShortID) (uint64, error)
	// Reserve moves [amount] from free to reserved balance.
	Reserve(addr ids.ShortID, amount uint64) error
	// Unreserve moves up to [amount] from reserved back to free balance and
	// returns the part that could not be unreserved.
	Unreserve(addr ids.ShortID, amount uint64) (uint64, error)
	Transfer(from, to ids.ShortID, amount uint64, req ExistenceRequirement) error
}

// Account is the balance record of an address.
type Account struct {
	Free     uint64 `serialize:"true" json:"free"`
	Reserved uint64 `serialize:"true" json:"reserved"`
}

// AccountState is a Currency persisted in a database
type AccountState interface {
	Currency

	GetAccount(addr ids.ShortID) (Account, error)
	// Mint credits [amount] to the free balance of [addr]. Genesis only.
	Mint(addr ids.ShortID, amount uint64) error
	ExistentialDeposit() uint64
	SetExistentialDeposit(uint64)
}

type accountState struct {
	accountDB database.Database

	existentialDeposit uint64
}

func NewAccountState(db database.Database) AccountState {
	return &accountState{accountDB: db}
}

func (s *accountState) GetAccount(addr ids.ShortID) (Account, error) {
	accountBytes, err := s.accountDB.Get(addr[:])
	if err == database.ErrNotFound {
		return Account{}, nil
	}
	if err != nil {
		return Account{}, err
	}

	account := Account{}
	parsedVersion, err := Codec.Unmarshal(accountBytes, &account)
	if err != nil {
		return Account{}, err
	}
	if parsedVersion != CodecVersion {
		return Account{}, errAccountWrongVersion
	}
	return account, nil
}

func (s *accountState) putAccount(addr ids.ShortID, account Account) error {
	if account.Free == 0 && account.Reserved == 0 {
		return s.accountDB.Delete(addr[:])
	}
	bytes, err := Codec.Marshal(CodecVersion, &account)
	if err != nil {
		return err
	}
	return s.accountDB.Put(addr[:], bytes)
}

func (s *accountState) FreeBalance(addr ids.ShortID) (uint64, error) {
	account, err := s.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	return account.Free, nil
}

func (s *accountState) Reserve(addr ids.ShortID, amount uint64) error {
	account, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	if account.Free < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, addr, account.Free, amount)
	}
	reserved, err := safemath.Add64(account.Reserved, amount)
	if err != nil {
		return err
	}
	account.Free -= amount
	account.Reserved = reserved
	return s.putAccount(addr, account)
}

func (s *accountState) Unreserve(addr ids.ShortID, amount uint64) (uint64, error) {
	account, err := s.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	actual := amount
	if account.Reserved < actual {
		actual = account.Reserved
	}
	free, err := safemath.Add64(account.Free, actual)
	if err != nil {
		return 0, err
	}
	account.Free = free
	account.Reserved -= actual
	if err := s.putAccount(addr, account); err != nil {
		return 0, err
	}
	return amount - actual, nil
}

func (s *accountState) Transfer(from, to ids.ShortID, amount uint64, req ExistenceRequirement) error {
	if amount == 0 || from == to {
		return nil
	}
	sender, err := s.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Free < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, sender.Free, amount)
	}
	remaining := sender.Free - amount
	if req == KeepAlive && remaining < s.existentialDeposit {
		return ErrKeepAlive
	}

	receiver, err := s.GetAccount(to)
	if err != nil {
		return err
	}
	free, err := safemath.Add64(receiver.Free, amount)
	if err != nil {
		return err
	}
	total, err := safemath.Add64(free, receiver.Reserved)
	if err != nil {
		return err
	}
	if total < s.existentialDeposit {
		return ErrExistentialDeposit
	}

	sender.Free = remaining
	receiver.Free = free
	if err := s.putAccount(from, sender); err != nil {
		return err
	}
	return s.putAccount(to, receiver)
}

func (s *accountState) Mint(addr ids.ShortID, amount uint64) error {
	account, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	free, err := safemath.Add64(account.Free, amount)
	if err != nil {
		return err
	}
	account.Free = free
	return s.putAccount(addr, account)
}

func (s *accountState) ExistentialDeposit() uint64     { return s.existentialDeposit }
func (s *accountState) SetExistentialDeposit(d uint64) { s.existentialDeposit = d }
