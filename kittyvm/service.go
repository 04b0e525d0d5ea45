// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

const maxEventsPerRequest = 1024

var errCannotGetLastAccepted = errors.New("cannot get last accepted block")

// Service is the API service for this VM
type Service struct{ vm *VM }

// EmptyArgs are the arguments of calls that take none
type EmptyArgs struct{}

// IssueTxReply is the reply of every call that issues a tx
type IssueTxReply struct {
	TxID ids.ID `json:"txID"`
}

// IssueTxArgs are arguments for IssueTx
type IssueTxArgs struct {
	// Tx is a signed tx, as produced by NewTx
	Tx       string              `json:"tx"`
	Encoding formatting.Encoding `json:"encoding"`
}

// IssueTx decodes a signed tx and adds it to the mempool. The tx is applied
// on behalf of the address that signed it.
func (s *Service) IssueTx(_ *http.Request, args *IssueTxArgs, reply *IssueTxReply) error {
	txBytes, err := formatting.Decode(args.Encoding, args.Tx)
	if err != nil {
		return fmt.Errorf("problem decoding tx: %w", err)
	}
	tx, err := ParseTx(txBytes)
	if err != nil {
		return fmt.Errorf("problem parsing tx: %w", err)
	}
	txID, err := s.vm.IssueTx(tx)
	if err != nil {
		return err
	}
	reply.TxID = txID
	return nil
}

// GetKittyArgs are arguments for GetKitty
type GetKittyArgs struct {
	KittyID cjson.Uint32 `json:"kittyID"`
}

// GetKittyReply is the reply from GetKitty
type GetKittyReply struct {
	KittyID cjson.Uint32  `json:"kittyID"`
	DNA     string        `json:"dna"`
	Owner   ids.ShortID   `json:"owner"`
	Price   *cjson.Uint64 `json:"price,omitempty"`
}

// GetKitty returns a kitty, its owner and its listing price if any
func (s *Service) GetKitty(_ *http.Request, args *GetKittyArgs, reply *GetKittyReply) error {
	info, err := s.vm.GetKitty(KittyIndex(args.KittyID))
	if err != nil {
		return err
	}
	dna, err := EncodeDNA(info.DNA)
	if err != nil {
		return fmt.Errorf("couldn't encode dna: %w", err)
	}

	reply.KittyID = cjson.Uint32(info.ID)
	reply.DNA = dna
	reply.Owner = info.Owner
	if info.Listed {
		price := cjson.Uint64(info.Price)
		reply.Price = &price
	}
	return nil
}

// KittiesCountReply is the reply from KittiesCount
type KittiesCountReply struct {
	Count cjson.Uint32 `json:"count"`
}

// KittiesCount returns the number of kitties ever created
func (s *Service) KittiesCount(_ *http.Request, _ *EmptyArgs, reply *KittiesCountReply) error {
	count, err := s.vm.KittiesCount()
	reply.Count = cjson.Uint32(count)
	return err
}

// AddressArgs are arguments for GetBalance
type AddressArgs struct {
	Address ids.ShortID `json:"address"`
}

// BalanceReply is the reply from GetBalance
type BalanceReply struct {
	Free     cjson.Uint64 `json:"free"`
	Reserved cjson.Uint64 `json:"reserved"`
}

// GetBalance returns the free and reserved balance of an address
func (s *Service) GetBalance(_ *http.Request, args *AddressArgs, reply *BalanceReply) error {
	account, err := s.vm.GetAccount(args.Address)
	if err != nil {
		return err
	}
	reply.Free = cjson.Uint64(account.Free)
	reply.Reserved = cjson.Uint64(account.Reserved)
	return nil
}

// TxIDArgs are arguments for GetReceipt
type TxIDArgs struct {
	TxID ids.ID `json:"txID"`
}

// ReceiptReply is the reply from GetReceipt
type ReceiptReply struct {
	BlockID ids.ID       `json:"blockID"`
	Index   cjson.Uint32 `json:"index"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
}

// GetReceipt returns the outcome of an accepted tx
func (s *Service) GetReceipt(_ *http.Request, args *TxIDArgs, reply *ReceiptReply) error {
	receipt, err := s.vm.GetReceipt(args.TxID)
	if err != nil {
		return fmt.Errorf("couldn't get receipt of tx %s: %w", args.TxID, err)
	}
	reply.BlockID = receipt.BlockID
	reply.Index = cjson.Uint32(receipt.Index)
	reply.Success = receipt.Success
	reply.Error = receipt.Error
	return nil
}

// GetEventsArgs are arguments for GetEvents
type GetEventsArgs struct {
	Start cjson.Uint64 `json:"start"`
	Limit cjson.Uint32 `json:"limit"`
}

// EventReply is an event as returned by the API
type EventReply struct {
	Kind         string        `json:"kind"`
	Account      ids.ShortID   `json:"account"`
	Counterparty *ids.ShortID  `json:"counterparty,omitempty"`
	KittyID      cjson.Uint32  `json:"kittyID"`
	Price        *cjson.Uint64 `json:"price,omitempty"`
}

// GetEventsReply is the reply from GetEvents
type GetEventsReply struct {
	Events []EventReply `json:"events"`
	// Next is the sequence to pass as start to continue reading
	Next cjson.Uint64 `json:"next"`
}

// GetEvents returns emitted events in order
func (s *Service) GetEvents(_ *http.Request, args *GetEventsArgs, reply *GetEventsReply) error {
	limit := int(args.Limit)
	if limit <= 0 || limit > maxEventsPerRequest {
		limit = maxEventsPerRequest
	}
	events, err := s.vm.Events(uint64(args.Start), limit)
	if err != nil {
		return err
	}

	reply.Events = make([]EventReply, len(events))
	for i, event := range events {
		r := EventReply{
			Kind:    event.Kind.String(),
			Account: event.Account,
			KittyID: cjson.Uint32(event.KittyID),
		}
		switch event.Kind {
		case KittyTransferred:
			counterparty := event.Counterparty
			r.Counterparty = &counterparty
		case KittyListed:
			if event.Listed {
				price := cjson.Uint64(event.Price)
				r.Price = &price
			}
		case KittyPurchased:
			counterparty := event.Counterparty
			price := cjson.Uint64(event.Price)
			r.Counterparty = &counterparty
			r.Price = &price
		}
		reply.Events[i] = r
	}
	reply.Next = cjson.Uint64(uint64(args.Start) + uint64(len(events)))
	return nil
}

// BlockIDArgs are arguments for GetBlock
type BlockIDArgs struct {
	ID ids.ID `json:"id"`
}

// GetBlockReply is the reply from GetBlock
type GetBlockReply struct {
	ID        ids.ID       `json:"id"`
	ParentID  ids.ID       `json:"parentID"`
	Height    cjson.Uint64 `json:"height"`
	Timestamp cjson.Uint64 `json:"timestamp"`
	Status    string       `json:"status"`
	TxIDs     []ids.ID     `json:"txIDs"`
}

// GetBlock gets the block whose ID is [args.ID]
// If [args.ID] is empty, get the latest block
func (s *Service) GetBlock(_ *http.Request, args *BlockIDArgs, reply *GetBlockReply) error {
	var (
		requestedBlockID = args.ID
		err              error
	)
	if requestedBlockID == ids.Empty {
		requestedBlockID, err = s.vm.LastAccepted()
		if err != nil {
			return errCannotGetLastAccepted
		}
	}
	block, err := s.vm.getBlock(requestedBlockID)
	if err != nil {
		return fmt.Errorf("couldn't get block %s: %w", requestedBlockID, err)
	}

	reply.ID = block.ID()
	reply.ParentID = block.Parent()
	reply.Height = cjson.Uint64(block.Height())
	reply.Timestamp = cjson.Uint64(block.Timestamp().Unix())
	reply.Status = block.Status().String()
	reply.TxIDs = make([]ids.ID, len(block.Txs))
	for i, tx := range block.Txs {
		reply.TxIDs[i] = tx.ID()
	}
	return nil
}
