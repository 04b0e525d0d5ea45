// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"encoding/binary"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"golang.org/x/crypto/blake2b"
)

// Host exposes the execution context of the call currently being applied.
type Host interface {
	// RandomSeed returns entropy callers cannot predict when they submit a tx
	RandomSeed() []byte
	// ExtrinsicIndex returns the position of the current tx in its block
	ExtrinsicIndex() uint32
}

// Randomness derives per-call pseudo-random values. It keeps no state of its
// own: the same seed, caller and index always produce the same value.
type Randomness struct {
	host Host
}

func NewRandomness(host Host) *Randomness {
	return &Randomness{host: host}
}

// Derive returns blake2b-128(seed || caller || index)
func (r *Randomness) Derive(caller ids.ShortID) DNA {
	seed := r.host.RandomSeed()
	payload := make([]byte, len(seed)+len(caller)+wrappers.IntLen)
	work := payload
	copy(work, seed)
	work = work[len(seed):]
	copy(work, caller[:])
	work = work[len(caller):]
	binary.LittleEndian.PutUint32(work, r.host.ExtrinsicIndex())

	// blake2b.New only fails for a key longer than 64 bytes or a bad size.
	h, err := blake2b.New(DNALen, nil)
	if err != nil {
		panic(err)
	}
	_, _ = h.Write(payload)

	var out DNA
	copy(out[:], h.Sum(nil))
	return out
}
