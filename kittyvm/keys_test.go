// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"github.com/ava-labs/avalanchego/utils/crypto"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	aliceKey = testKey("alice")
	bobKey   = testKey("bob")
	// carol cannot afford a stake
	carolKey = testKey("carol")

	alice = aliceKey.PublicKey().Address()
	bob   = bobKey.PublicKey().Address()
	carol = carolKey.PublicKey().Address()
)

// testKey derives a fixed private key from [seed]
func testKey(seed string) crypto.PrivateKey {
	factory := crypto.FactorySECP256K1R{}
	key, err := factory.ToPrivateKey(hashing.ComputeHash256([]byte(seed)))
	if err != nil {
		panic(err)
	}
	return key
}
