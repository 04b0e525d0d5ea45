// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/vms"
)

var _ vms.Factory = &Factory{}

// Factory creates kitty VMs for a node that links this package in
type Factory struct{}

func (f *Factory) New(*snow.Context) (interface{}, error) { return &VM{}, nil }
