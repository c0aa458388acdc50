// Package metrics exposes pool activity as prometheus series.
package metrics

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/pool"
)

const namespace = "poold"

// PoolSource reports the live pool state.
type PoolSource interface {
	Info() pool.Info
}

// Metrics is a pool.EventSink. It only touches prometheus collectors, so it
// is safe to call while the pool holds its lock.
type Metrics struct {
	registry     *prometheus.Registry
	operations   *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	protocolFees *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "number of committed pool operations by event",
		}, []string{"event"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "number of rejected pool operations by operation and error kind",
		}, []string{"operation", "kind"}),
		protocolFees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_fees_total",
			Help:      "protocol fees forwarded to the fee recipient, in whole units",
		}, []string{"asset"}),
	}

	err := errors.Join(
		m.registry.Register(m.operations),
		m.registry.Register(m.rejections),
		m.registry.Register(m.protocolFees),
		m.registry.Register(collectors.NewGoCollector()),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Publish counts a committed operation.
func (m *Metrics) Publish(ev pool.Event) {
	m.operations.WithLabelValues(ev.EventName()).Inc()
	if swap, ok := ev.(pool.Swap); ok && swap.ProtocolFee != nil && !swap.ProtocolFee.IsZero() {
		m.protocolFees.WithLabelValues(swap.AssetIn.Hex()).Add(units(swap.ProtocolFee))
	}
}

// ObserveRejection counts a failed operation by its error kind.
func (m *Metrics) ObserveRejection(operation string, err error) {
	m.rejections.WithLabelValues(operation, pool.Kind(err)).Inc()
}

// TrackPool registers reserve and share gauges read from source at scrape
// time. Only one pool can be tracked per registry.
func (m *Metrics) TrackPool(source PoolSource) error {
	gauges := []struct {
		name string
		help string
		read func(pool.Info) *uint256.Int
	}{
		{"reserve1", "pool reserve of asset1, in whole units", func(i pool.Info) *uint256.Int { return i.Reserve1 }},
		{"reserve2", "pool reserve of asset2, in whole units", func(i pool.Info) *uint256.Int { return i.Reserve2 }},
		{"total_shares", "outstanding liquidity shares, in whole units", func(i pool.Info) *uint256.Int { return i.TotalShares }},
	}
	errs := make([]error, 0, len(gauges))
	for _, g := range gauges {
		read := g.read
		errs = append(errs, m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      g.name,
			Help:      g.help,
		}, func() float64 { return units(read(source.Info())) })))
	}
	return errors.Join(errs...)
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func units(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	scale, _ := fixedpoint.Pow10(fixedpoint.Decimals)
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), new(big.Float).SetInt(scale.ToBig())).Float64()
	return f
}
