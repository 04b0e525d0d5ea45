// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"fmt"
)

type mempool struct {
	// notify is called whenever a tx arrives
	notify func()
	txs    chan *Tx
	size   int
}

func newMempool(size int, notify func()) *mempool {
	return &mempool{
		txs:    make(chan *Tx, size),
		notify: notify,
		size:   size,
	}
}

func (m *mempool) Add(tx *Tx) error {
	select {
	case m.txs <- tx:
	default:
		return fmt.Errorf("failed to add tx %s to mempool due to full at size (%d)", tx.ID(), m.size)
	}

	m.notify()
	return nil
}

// Next returns up to [max] pending txs in arrival order
func (m *mempool) Next(max int) []*Tx {
	txs := []*Tx{}
	for len(txs) < max {
		select {
		case tx := <-m.txs:
			txs = append(txs, tx)
		default:
			return txs
		}
	}
	return txs
}

func (m *mempool) Len() int {
	return len(m.txs)
}
