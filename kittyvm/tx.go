// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

const recoverCacheSize = 2048

var (
	errNoCaller       = errors.New("tx signer is unknown")
	errNoCall         = errors.New("tx has no call")
	errBadSignature   = errors.New("tx signature is invalid")
	errTxWrongVersion = errors.New("wrong tx version")

	keyFactory = &crypto.FactorySECP256K1R{Cache: cache.LRU{Size: recoverCacheSize}}

	_ Call = &CreateCall{}
	_ Call = &TransferCall{}
	_ Call = &BreedCall{}
	_ Call = &SellCall{}
	_ Call = &BuyCall{}
)

// Call is one ledger operation. The caller is supplied by the enclosing Tx.
type Call interface {
	Execute(l *Ledger, caller ids.ShortID) error
}

// CreateCall mints a kitty with random DNA for the caller
type CreateCall struct{}

func (*CreateCall) Execute(l *Ledger, caller ids.ShortID) error {
	_, err := l.Create(caller)
	return err
}

// TransferCall gives KittyID to To
type TransferCall struct {
	To      ids.ShortID `serialize:"true" json:"to"`
	KittyID KittyIndex  `serialize:"true" json:"kittyID"`
}

func (c *TransferCall) Execute(l *Ledger, caller ids.ShortID) error {
	return l.Transfer(caller, c.To, c.KittyID)
}

// BreedCall mints a kitty whose DNA is a crossover of two existing kitties
type BreedCall struct {
	KittyID1 KittyIndex `serialize:"true" json:"kittyID1"`
	KittyID2 KittyIndex `serialize:"true" json:"kittyID2"`
}

func (c *BreedCall) Execute(l *Ledger, caller ids.ShortID) error {
	_, err := l.Breed(caller, c.KittyID1, c.KittyID2)
	return err
}

// SellCall lists KittyID at Price, or removes the listing when Listed is false
type SellCall struct {
	KittyID KittyIndex `serialize:"true" json:"kittyID"`
	Price   uint64     `serialize:"true" json:"price"`
	Listed  bool       `serialize:"true" json:"listed"`
}

func (c *SellCall) Execute(l *Ledger, caller ids.ShortID) error {
	return l.Sell(caller, c.KittyID, c.Price, c.Listed)
}

// BuyCall purchases a listed kitty at its listing price
type BuyCall struct {
	KittyID KittyIndex `serialize:"true" json:"kittyID"`
}

func (c *BuyCall) Execute(l *Ledger, caller ids.ShortID) error {
	return l.Buy(caller, c.KittyID)
}

// UnsignedTx is the part of a tx covered by its signature
type UnsignedTx struct {
	// Nonce keeps otherwise identical txs from sharing an ID
	Nonce uint64 `serialize:"true" json:"nonce"`
	Call  Call   `serialize:"true" json:"call"`
}

// Tx is a call signed by the account issuing it. The caller is never sent
// over the wire: it is recovered from the signature.
type Tx struct {
	Unsigned  *UnsignedTx                   `serialize:"true" json:"unsignedTx"`
	Signature [crypto.SECP256K1RSigLen]byte `serialize:"true" json:"signature"`

	caller ids.ShortID
	id     ids.ID
	bytes  []byte
}

// NewTx returns an initialized tx carrying [call], signed by [key]
func NewTx(key crypto.PrivateKey, nonce uint64, call Call) (*Tx, error) {
	unsigned := &UnsignedTx{
		Nonce: nonce,
		Call:  call,
	}
	unsignedBytes, err := Codec.Marshal(CodecVersion, unsigned)
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal unsigned tx: %w", err)
	}
	sig, err := key.Sign(unsignedBytes)
	if err != nil {
		return nil, fmt.Errorf("couldn't sign tx: %w", err)
	}

	tx := &Tx{Unsigned: unsigned}
	copy(tx.Signature[:], sig)
	return tx, tx.Initialize()
}

// ParseTx parses [bytes] to a Tx and recovers its caller
func ParseTx(bytes []byte) (*Tx, error) {
	tx := &Tx{}
	parsedVersion, err := Codec.Unmarshal(bytes, tx)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errTxWrongVersion
	}
	return tx, tx.Initialize()
}

// Initialize computes the byte repr., the ID and the caller of [tx]
func (tx *Tx) Initialize() error {
	if tx.Unsigned == nil {
		return errNoCall
	}
	bytes, err := Codec.Marshal(CodecVersion, tx)
	if err != nil {
		return err
	}
	tx.bytes = bytes
	tx.id = hashing.ComputeHash256Array(bytes)

	unsignedBytes, err := Codec.Marshal(CodecVersion, tx.Unsigned)
	if err != nil {
		return err
	}
	pk, err := keyFactory.RecoverPublicKey(unsignedBytes, tx.Signature[:])
	if err != nil {
		return fmt.Errorf("%w: %s", errBadSignature, err)
	}
	tx.caller = pk.Address()
	return nil
}

func (tx *Tx) ID() ids.ID { return tx.id }

func (tx *Tx) Bytes() []byte { return tx.bytes }

// Caller returns the address that signed [tx]
func (tx *Tx) Caller() ids.ShortID { return tx.caller }

// Call returns the operation [tx] carries
func (tx *Tx) Call() Call { return tx.Unsigned.Call }

// SyntacticVerify checks what can be checked without reading state
func (tx *Tx) SyntacticVerify() error {
	switch {
	case tx.Unsigned == nil || tx.Unsigned.Call == nil:
		return errNoCall
	case tx.caller == ids.ShortEmpty:
		return errNoCaller
	default:
		return nil
	}
}

// Receipt records the outcome of a tx included in an accepted block
type Receipt struct {
	BlockID ids.ID `serialize:"true" json:"blockID"`
	Index   uint32 `serialize:"true" json:"index"`
	Success bool   `serialize:"true" json:"success"`
	Error   string `serialize:"true" json:"error"`
}
