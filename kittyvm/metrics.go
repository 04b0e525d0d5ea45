// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "kittyvm"

type metrics struct {
	created     prometheus.Counter
	transferred prometheus.Counter
	listed      prometheus.Counter
	purchased   prometheus.Counter
	failedCalls prometheus.Counter

	kitties        prometheus.Gauge
	blocksAccepted prometheus.Counter
	txsAccepted    prometheus.Counter
	mempoolSize    prometheus.Gauge
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		created:        newCounter("kitties_created", "Number of kitties created or bred"),
		transferred:    newCounter("kitties_transferred", "Number of kitty transfers outside the marketplace"),
		listed:         newCounter("kitties_listed", "Number of listing updates"),
		purchased:      newCounter("kitties_purchased", "Number of marketplace purchases"),
		failedCalls:    newCounter("failed_calls", "Number of calls rolled back"),
		kitties:        newGauge("kitties", "Number of kitties in existence"),
		blocksAccepted: newCounter("blocks_accepted", "Number of blocks accepted"),
		txsAccepted:    newCounter("txs_accepted", "Number of txs included in accepted blocks"),
		mempoolSize:    newGauge("mempool_size", "Number of txs waiting in the mempool"),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.created),
		registerer.Register(m.transferred),
		registerer.Register(m.listed),
		registerer.Register(m.purchased),
		registerer.Register(m.failedCalls),
		registerer.Register(m.kitties),
		registerer.Register(m.blocksAccepted),
		registerer.Register(m.txsAccepted),
		registerer.Register(m.mempoolSize),
	)
	return m, errs.Err
}

func (m *metrics) observe(event *Event) {
	switch event.Kind {
	case KittyCreated:
		m.created.Inc()
		m.kitties.Inc()
	case KittyTransferred:
		m.transferred.Inc()
	case KittyListed:
		m.listed.Inc()
	case KittyPurchased:
		m.purchased.Inc()
	}
}
