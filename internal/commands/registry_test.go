package commands

import "testing"

func TestRegistry_RejectsClashes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&AddCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&AddCmd{}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}
	if err := r.Register(&ListCmd{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := r.All()
	if len(all) != 2 || all[0].Name() != "add" || all[1].Name() != "list" {
		t.Errorf("expected add and list sorted, got %d commands", len(all))
	}
	if cmd, ok := r.Find("ls"); !ok || cmd.Name() != "list" {
		t.Error("expected alias lookup")
	}
}
