// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"math"

	"github.com/ava-labs/avalanchego/ids"
)

const (
	// DNALen is the size of a kitty's genetic payload
	DNALen = 16

	// MaxKittyIndex is never allocated; reaching it exhausts the id space.
	MaxKittyIndex KittyIndex = math.MaxUint32
)

// KittyIndex identifies a kitty. Indices are handed out in order starting at 0
// and are never reused.
type KittyIndex uint32

// DNA is the opaque genetic payload of a kitty
type DNA [DNALen]byte

// Kitty is an immutable record; ownership lives in a separate map.
type Kitty struct {
	DNA DNA `serialize:"true" json:"dna"`
}

// Crossover derives a child's DNA from two parents.
// Each bit of the child comes from [p1] when the matching bit of [selector]
// is set, and from [p2] otherwise.
func Crossover(selector, p1, p2 DNA) DNA {
	var child DNA
	for i := range child {
		child[i] = (selector[i] & p1[i]) | (^selector[i] & p2[i])
	}
	return child
}

// BytesToDNA converts a byte slice to DNA. If the byte slice input is
// larger than [DNALen], it will be truncated.
func BytesToDNA(input []byte) DNA {
	dna := DNA{}
	lim := len(input)
	if lim > DNALen {
		lim = DNALen
	}
	copy(dna[:], input[:lim])
	return dna
}

// KittyInfo is the read model of a kitty returned by queries
type KittyInfo struct {
	ID     KittyIndex
	DNA    DNA
	Owner  ids.ShortID
	Price  uint64
	Listed bool
}
