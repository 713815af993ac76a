// Package observability provides a metrics extension for Vault that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnDepositAccepted    = (*MetricsExtension)(nil)
	_ plugin.OnDepositRejected    = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalPaid     = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFrozen   = (*MetricsExtension)(nil)
	_ plugin.OnDivergenceDetected = (*MetricsExtension)(nil)
	_ plugin.OnDrained            = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed     = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotSaved      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vault plugin to automatically track custody metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Deposit metrics
	DepositsAccepted Counter
	DepositsRejected Counter
	DepositVolume    Histogram

	// Withdrawal metrics
	WithdrawalsPaid   Counter
	WithdrawalsFrozen Counter
	WithdrawalVolume  Histogram

	// Integrity metrics
	DivergencesDetected Counter
	VaultsDrained       Counter
	DrainVolume         Histogram

	// Journal metrics
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram

	// Snapshot metrics
	SnapshotsSaved Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Deposit metrics
		DepositsAccepted: factory.Counter("vault.deposit.accepted"),
		DepositsRejected: factory.Counter("vault.deposit.rejected"),
		DepositVolume:    factory.Histogram("vault.deposit.volume"),

		// Withdrawal metrics
		WithdrawalsPaid:   factory.Counter("vault.withdrawal.paid"),
		WithdrawalsFrozen: factory.Counter("vault.withdrawal.frozen"),
		WithdrawalVolume:  factory.Histogram("vault.withdrawal.volume"),

		// Integrity metrics
		DivergencesDetected: factory.Counter("vault.divergence.detected"),
		VaultsDrained:       factory.Counter("vault.drained"),
		DrainVolume:         factory.Histogram("vault.drain.volume"),

		// Journal metrics
		JournalBatchSize:    factory.Histogram("vault.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("vault.journal.flush.latency_ms"),

		// Snapshot metrics
		SnapshotsSaved: factory.Counter("vault.snapshot.saved"),

		// Error metrics
		StoreErrors:  factory.Counter("vault.store.errors"),
		PluginErrors: factory.Counter("vault.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Deposit lifecycle hooks
// ──────────────────────────────────────────────────

// OnDepositAccepted implements plugin.OnDepositAccepted.
func (m *MetricsExtension) OnDepositAccepted(_ context.Context, _ string, amount, _ types.Funds) error {
	m.DepositsAccepted.Inc()
	m.DepositVolume.Observe(float64(amount.Amount))
	return nil
}

// OnDepositRejected implements plugin.OnDepositRejected.
func (m *MetricsExtension) OnDepositRejected(_ context.Context, _ string, _ types.Funds, _ error) error {
	m.DepositsRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Withdrawal lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalPaid implements plugin.OnWithdrawalPaid.
func (m *MetricsExtension) OnWithdrawalPaid(_ context.Context, _ string, amount types.Funds) error {
	m.WithdrawalsPaid.Inc()
	m.WithdrawalVolume.Observe(float64(amount.Amount))
	return nil
}

// OnWithdrawalFrozen implements plugin.OnWithdrawalFrozen.
func (m *MetricsExtension) OnWithdrawalFrozen(_ context.Context, _ string, _ types.Funds) error {
	m.WithdrawalsFrozen.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Integrity lifecycle hooks
// ──────────────────────────────────────────────────

// OnDivergenceDetected implements plugin.OnDivergenceDetected.
func (m *MetricsExtension) OnDivergenceDetected(_ context.Context, _, _ types.Funds) error {
	m.DivergencesDetected.Inc()
	return nil
}

// OnDrained implements plugin.OnDrained.
func (m *MetricsExtension) OnDrained(_ context.Context, _ string, amount types.Funds) error {
	m.VaultsDrained.Inc()
	m.DrainVolume.Observe(float64(amount.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Persistence lifecycle hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSnapshotSaved implements plugin.OnSnapshotSaved.
func (m *MetricsExtension) OnSnapshotSaved(_ context.Context, _ interface{}) error {
	m.SnapshotsSaved.Inc()
	return nil
}
