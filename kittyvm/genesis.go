// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

var (
	errNoStakeUnit     = errors.New("genesis stake unit must be positive")
	errBadGenesisBytes = errors.New("genesis data should be a JSON genesis document")
)

// Allocation credits an address with free balance at genesis
type Allocation struct {
	Address string       `json:"address"`
	Balance cjson.Uint64 `json:"balance"`
}

// GenesisKitty is a kitty that exists from the start. Its owner's stake is
// reserved out of the owner's allocation.
type GenesisKitty struct {
	Owner string `json:"owner"`
	// DNA is checksummed hex as produced by EncodeDNA; shorter values are
	// zero padded
	DNA string `json:"dna"`
}

// Genesis is the initial state of the chain
type Genesis struct {
	StakeUnit          cjson.Uint64   `json:"stakeUnit"`
	ExistentialDeposit cjson.Uint64   `json:"existentialDeposit"`
	Allocations        []Allocation   `json:"allocations"`
	Kitties            []GenesisKitty `json:"kitties"`
}

// ParseGenesis decodes and validates genesis bytes
func ParseGenesis(genesisBytes []byte) (*Genesis, error) {
	genesis := &Genesis{}
	if err := json.Unmarshal(genesisBytes, genesis); err != nil {
		return nil, fmt.Errorf("%w: %s", errBadGenesisBytes, err)
	}
	if genesis.StakeUnit == 0 {
		return nil, errNoStakeUnit
	}
	for i, alloc := range genesis.Allocations {
		if _, err := ids.ShortFromString(alloc.Address); err != nil {
			return nil, fmt.Errorf("invalid address in allocation %d: %w", i, err)
		}
	}
	for i, kitty := range genesis.Kitties {
		if _, err := ids.ShortFromString(kitty.Owner); err != nil {
			return nil, fmt.Errorf("invalid owner of genesis kitty %d: %w", i, err)
		}
		if _, err := decodeDNA(kitty.DNA); err != nil {
			return nil, fmt.Errorf("invalid dna of genesis kitty %d: %w", i, err)
		}
	}
	return genesis, nil
}

// Bytes returns the JSON encoding of [g]
func (g *Genesis) Bytes() ([]byte, error) {
	return json.Marshal(g)
}

func decodeDNA(s string) ([]byte, error) {
	dna, err := formatting.Decode(formatting.Hex, s)
	if err != nil {
		return nil, err
	}
	if len(dna) > DNALen {
		return nil, fmt.Errorf("dna is %d bytes, at most %d allowed", len(dna), DNALen)
	}
	return dna, nil
}

// EncodeDNA returns the hex encoding used for DNA in genesis and the API
func EncodeDNA(dna DNA) (string, error) {
	return formatting.EncodeWithChecksum(formatting.Hex, dna[:])
}
