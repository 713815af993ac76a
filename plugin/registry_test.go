package plugin_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

type captureHook struct {
	name string

	mu         sync.Mutex
	deposits   []string
	frozen     []string
	divergence int
}

func (c *captureHook) Name() string { return c.name }

func (c *captureHook) OnDepositAccepted(_ context.Context, account string, _, _ types.Funds) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deposits = append(c.deposits, account)
	return nil
}

func (c *captureHook) OnWithdrawalFrozen(_ context.Context, account string, _ types.Funds) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = append(c.frozen, account)
	return nil
}

func (c *captureHook) OnDivergenceDetected(_ context.Context, _, _ types.Funds) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.divergence++
	return nil
}

type nameOnly struct{ name string }

func (n *nameOnly) Name() string { return n.name }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	r := plugin.NewRegistry()

	hook := &captureHook{name: "capture"}
	if err := r.Register(hook); err != nil {
		t.Fatal(err)
	}
	// A plugin implementing no hooks must not break dispatch.
	if err := r.Register(&nameOnly{name: "inert"}); err != nil {
		t.Fatal(err)
	}

	r.EmitDepositAccepted(ctx, "acct_a", types.Milli(500), types.Coin(1))
	r.EmitDepositAccepted(ctx, "acct_b", types.Milli(500), types.Milli(1500))
	r.EmitWithdrawalFrozen(ctx, "acct_a", types.Milli(500))
	r.EmitDivergenceDetected(ctx, types.Coin(20), types.Coin(1))

	if len(hook.deposits) != 2 {
		t.Errorf("got %d deposit events, want 2", len(hook.deposits))
	}
	if len(hook.frozen) != 1 || hook.frozen[0] != "acct_a" {
		t.Errorf("got frozen events %v, want [acct_a]", hook.frozen)
	}
	if hook.divergence != 1 {
		t.Errorf("got %d divergence events, want 1", hook.divergence)
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := plugin.NewRegistry()

	if err := r.Register(&nameOnly{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&nameOnly{name: "dup"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if r.Count() != 1 {
		t.Errorf("got %d plugins, want 1", r.Count())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(&nameOnly{name: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&nameOnly{name: "second"}); err != nil {
		t.Fatal(err)
	}

	if got := r.Get("second"); got == nil || got.Name() != "second" {
		t.Errorf("Get(second) = %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List() returned %d plugins, want 2", got)
	}
}
