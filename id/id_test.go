package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vault/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"VaultID", id.NewVaultID, "vlt_"},
		{"AccountID", id.NewAccountID, "acct_"},
		{"EntryID", id.NewEntryID, "jent_"},
		{"SnapshotID", id.NewSnapshotID, "snap_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixVault)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixVault {
		t.Errorf("expected prefix %q, got %q", id.PrefixVault, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		newFn func() id.ID
	}{
		{"Vault", id.NewVaultID},
		{"Account", id.NewAccountID},
		{"Entry", id.NewEntryID},
		{"Snapshot", id.NewSnapshotID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := id.Parse(original.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip: got %q, want %q", parsed.String(), original.String())
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	acct := id.NewAccountID()

	t.Run("matching prefix", func(t *testing.T) {
		parsed, err := id.ParseAccountID(acct.String())
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if parsed.String() != acct.String() {
			t.Errorf("got %q, want %q", parsed.String(), acct.String())
		}
	})

	t.Run("mismatched prefix", func(t *testing.T) {
		if _, err := id.ParseVaultID(acct.String()); err == nil {
			t.Error("expected prefix mismatch error")
		}
	})

	t.Run("empty string", func(t *testing.T) {
		if _, err := id.Parse(""); err == nil {
			t.Error("expected error for empty string")
		}
	})
}

func TestTextMarshaling(t *testing.T) {
	original := id.NewVaultID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", decoded.String(), original.String())
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil should report IsNil")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil String should be empty, got %q", id.Nil.String())
	}
}
