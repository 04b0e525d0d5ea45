// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/kittyvm/kittyvm"
)

// Client defines kittyvm client operations.
// Calls are signed with [key]; the ledger applies them on behalf of the
// key's address.
type Client interface {
	// IssueTx submits a signed tx
	IssueTx(ctx context.Context, tx *kittyvm.Tx) (ids.ID, error)

	// Create issues a tx minting a kitty
	Create(ctx context.Context, key crypto.PrivateKey) (ids.ID, error)
	// Transfer issues a tx giving [kittyID] to [to]
	Transfer(ctx context.Context, key crypto.PrivateKey, to ids.ShortID, kittyID kittyvm.KittyIndex) (ids.ID, error)
	// Breed issues a tx breeding two kitties
	Breed(ctx context.Context, key crypto.PrivateKey, kittyID1, kittyID2 kittyvm.KittyIndex) (ids.ID, error)
	// Sell issues a tx listing [kittyID], or delisting it when [price] is nil
	Sell(ctx context.Context, key crypto.PrivateKey, kittyID kittyvm.KittyIndex, price *uint64) (ids.ID, error)
	// Buy issues a tx purchasing [kittyID]
	Buy(ctx context.Context, key crypto.PrivateKey, kittyID kittyvm.KittyIndex) (ids.ID, error)

	GetKitty(ctx context.Context, kittyID kittyvm.KittyIndex) (*kittyvm.GetKittyReply, error)
	KittiesCount(ctx context.Context) (kittyvm.KittyIndex, error)
	GetBalance(ctx context.Context, addr ids.ShortID) (free uint64, reserved uint64, err error)
	GetReceipt(ctx context.Context, txID ids.ID) (*kittyvm.ReceiptReply, error)
	GetEvents(ctx context.Context, start uint64, limit uint32) (*kittyvm.GetEventsReply, error)

	// GetBlock fetches a block. An empty [blkID] fetches the last accepted one.
	GetBlock(ctx context.Context, blkID ids.ID) (*kittyvm.GetBlockReply, error)
}

// New creates a new client object.
// [uri] is the endpoint the VM handlers are served at.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, "", kittyvm.Name)
	return &client{
		req:   req,
		nonce: uint64(time.Now().UnixNano()),
	}
}

type client struct {
	req rpc.EndpointRequester
	// source of tx nonces, so repeated calls get distinct tx IDs
	nonce uint64
}

func (cli *client) IssueTx(ctx context.Context, tx *kittyvm.Tx) (ids.ID, error) {
	bytes, err := formatting.EncodeWithChecksum(formatting.Hex, tx.Bytes())
	if err != nil {
		return ids.Empty, err
	}

	resp := new(kittyvm.IssueTxReply)
	err = cli.req.SendRequest(ctx,
		"issueTx",
		&kittyvm.IssueTxArgs{
			Tx:       bytes,
			Encoding: formatting.Hex,
		},
		resp,
	)
	if err != nil {
		return ids.Empty, err
	}
	return resp.TxID, nil
}

// issueCall signs [call] with [key] and issues it
func (cli *client) issueCall(ctx context.Context, key crypto.PrivateKey, call kittyvm.Call) (ids.ID, error) {
	tx, err := kittyvm.NewTx(key, atomic.AddUint64(&cli.nonce, 1), call)
	if err != nil {
		return ids.Empty, err
	}
	return cli.IssueTx(ctx, tx)
}

func (cli *client) Create(ctx context.Context, key crypto.PrivateKey) (ids.ID, error) {
	return cli.issueCall(ctx, key, &kittyvm.CreateCall{})
}

func (cli *client) Transfer(ctx context.Context, key crypto.PrivateKey, to ids.ShortID, kittyID kittyvm.KittyIndex) (ids.ID, error) {
	return cli.issueCall(ctx, key, &kittyvm.TransferCall{
		To:      to,
		KittyID: kittyID,
	})
}

func (cli *client) Breed(ctx context.Context, key crypto.PrivateKey, kittyID1, kittyID2 kittyvm.KittyIndex) (ids.ID, error) {
	return cli.issueCall(ctx, key, &kittyvm.BreedCall{
		KittyID1: kittyID1,
		KittyID2: kittyID2,
	})
}

func (cli *client) Sell(ctx context.Context, key crypto.PrivateKey, kittyID kittyvm.KittyIndex, price *uint64) (ids.ID, error) {
	call := &kittyvm.SellCall{KittyID: kittyID}
	if price != nil {
		call.Price = *price
		call.Listed = true
	}
	return cli.issueCall(ctx, key, call)
}

func (cli *client) Buy(ctx context.Context, key crypto.PrivateKey, kittyID kittyvm.KittyIndex) (ids.ID, error) {
	return cli.issueCall(ctx, key, &kittyvm.BuyCall{KittyID: kittyID})
}

func (cli *client) GetKitty(ctx context.Context, kittyID kittyvm.KittyIndex) (*kittyvm.GetKittyReply, error) {
	resp := new(kittyvm.GetKittyReply)
	err := cli.req.SendRequest(ctx,
		"getKitty",
		&kittyvm.GetKittyArgs{KittyID: cjson.Uint32(kittyID)},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) KittiesCount(ctx context.Context) (kittyvm.KittyIndex, error) {
	resp := new(kittyvm.KittiesCountReply)
	if err := cli.req.SendRequest(ctx, "kittiesCount", &kittyvm.EmptyArgs{}, resp); err != nil {
		return 0, err
	}
	return kittyvm.KittyIndex(resp.Count), nil
}

func (cli *client) GetBalance(ctx context.Context, addr ids.ShortID) (uint64, uint64, error) {
	resp := new(kittyvm.BalanceReply)
	err := cli.req.SendRequest(ctx,
		"getBalance",
		&kittyvm.AddressArgs{Address: addr},
		resp,
	)
	if err != nil {
		return 0, 0, err
	}
	return uint64(resp.Free), uint64(resp.Reserved), nil
}

func (cli *client) GetReceipt(ctx context.Context, txID ids.ID) (*kittyvm.ReceiptReply, error) {
	resp := new(kittyvm.ReceiptReply)
	err := cli.req.SendRequest(ctx,
		"getReceipt",
		&kittyvm.TxIDArgs{TxID: txID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) GetEvents(ctx context.Context, start uint64, limit uint32) (*kittyvm.GetEventsReply, error) {
	resp := new(kittyvm.GetEventsReply)
	err := cli.req.SendRequest(ctx,
		"getEvents",
		&kittyvm.GetEventsArgs{
			Start: cjson.Uint64(start),
			Limit: cjson.Uint32(limit),
		},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (cli *client) GetBlock(ctx context.Context, blkID ids.ID) (*kittyvm.GetBlockReply, error) {
	resp := new(kittyvm.GetBlockReply)
	err := cli.req.SendRequest(ctx,
		"getBlock",
		&kittyvm.BlockIDArgs{ID: blkID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
