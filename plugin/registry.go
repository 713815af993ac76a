package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/vault/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onDepositAccepted    []OnDepositAccepted
	onDepositRejected    []OnDepositRejected
	onWithdrawalPaid     []OnWithdrawalPaid
	onWithdrawalFrozen   []OnWithdrawalFrozen
	onDivergenceDetected []OnDivergenceDetected
	onDrained            []OnDrained
	onJournalFlushed     []OnJournalFlushed
	onSnapshotSaved      []OnSnapshotSaved
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDepositAccepted); ok {
		r.onDepositAccepted = append(r.onDepositAccepted, v)
	}
	if v, ok := p.(OnDepositRejected); ok {
		r.onDepositRejected = append(r.onDepositRejected, v)
	}
	if v, ok := p.(OnWithdrawalPaid); ok {
		r.onWithdrawalPaid = append(r.onWithdrawalPaid, v)
	}
	if v, ok := p.(OnWithdrawalFrozen); ok {
		r.onWithdrawalFrozen = append(r.onWithdrawalFrozen, v)
	}
	if v, ok := p.(OnDivergenceDetected); ok {
		r.onDivergenceDetected = append(r.onDivergenceDetected, v)
	}
	if v, ok := p.(OnDrained); ok {
		r.onDrained = append(r.onDrained, v)
	}
	if v, ok := p.(OnJournalFlushed); ok {
		r.onJournalFlushed = append(r.onJournalFlushed, v)
	}
	if v, ok := p.(OnSnapshotSaved); ok {
		r.onSnapshotSaved = append(r.onSnapshotSaved, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnDepositAccepted)(nil)).Elem(), "OnDepositAccepted")
	checkInterface(reflect.TypeOf((*OnDepositRejected)(nil)).Elem(), "OnDepositRejected")
	checkInterface(reflect.TypeOf((*OnWithdrawalPaid)(nil)).Elem(), "OnWithdrawalPaid")
	checkInterface(reflect.TypeOf((*OnWithdrawalFrozen)(nil)).Elem(), "OnWithdrawalFrozen")
	checkInterface(reflect.TypeOf((*OnDivergenceDetected)(nil)).Elem(), "OnDivergenceDetected")
	checkInterface(reflect.TypeOf((*OnDrained)(nil)).Elem(), "OnDrained")
	checkInterface(reflect.TypeOf((*OnJournalFlushed)(nil)).Elem(), "OnJournalFlushed")
	checkInterface(reflect.TypeOf((*OnSnapshotSaved)(nil)).Elem(), "OnSnapshotSaved")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, v interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, v)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositAccepted emits a deposit accepted event.
func (r *Registry) EmitDepositAccepted(ctx context.Context, account string, amount, heldAfter types.Funds) {
	r.mu.RLock()
	plugins := r.onDepositAccepted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDepositAccepted(ctx, account, amount, heldAfter)
		}); err != nil {
			r.logger.Warn("plugin OnDepositAccepted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositRejected emits a deposit rejected event.
func (r *Registry) EmitDepositRejected(ctx context.Context, account string, amount types.Funds, cause error) {
	r.mu.RLock()
	plugins := r.onDepositRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDepositRejected(ctx, account, amount, cause)
		}); err != nil {
			r.logger.Warn("plugin OnDepositRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalPaid emits a withdrawal paid event.
func (r *Registry) EmitWithdrawalPaid(ctx context.Context, account string, amount types.Funds) {
	r.mu.RLock()
	plugins := r.onWithdrawalPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalPaid(ctx, account, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalPaid failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalFrozen emits a withdrawal frozen event.
func (r *Registry) EmitWithdrawalFrozen(ctx context.Context, account string, owed types.Funds) {
	r.mu.RLock()
	plugins := r.onWithdrawalFrozen
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalFrozen(ctx, account, owed)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalFrozen failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDivergenceDetected emits a divergence detected event.
func (r *Registry) EmitDivergenceDetected(ctx context.Context, held, expected types.Funds) {
	r.mu.RLock()
	plugins := r.onDivergenceDetected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDivergenceDetected(ctx, held, expected)
		}); err != nil {
			r.logger.Warn("plugin OnDivergenceDetected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDrained emits a drained event.
func (r *Registry) EmitDrained(ctx context.Context, account string, amount types.Funds) {
	r.mu.RLock()
	plugins := r.onDrained
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDrained(ctx, account, amount)
		}); err != nil {
			r.logger.Warn("plugin OnDrained failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalFlushed emits a journal flushed event.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onJournalFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnJournalFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnJournalFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSnapshotSaved emits a snapshot saved event.
func (r *Registry) EmitSnapshotSaved(ctx context.Context, st interface{}) {
	r.mu.RLock()
	plugins := r.onSnapshotSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSnapshotSaved(ctx, st)
		}); err != nil {
			r.logger.Warn("plugin OnSnapshotSaved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a vault operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
