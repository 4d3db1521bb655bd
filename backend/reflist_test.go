package backend

import "testing"

func TestRefList(t *testing.T) {
	r := NewRefList([]string{"a", "b", "c"})

	if _, ok := r.Current(); ok {
		t.Error("no current ref before the first Next")
	}
	if _, ok := r.Previous(); ok {
		t.Error("Previous at the start should fail")
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := r.Next()
		if !ok || got != want {
			t.Fatalf("Next = %q, %v; want %q", got, ok, want)
		}
	}
	if _, ok := r.Next(); ok {
		t.Error("Next at the end should fail")
	}
	if cur, _ := r.Current(); cur != "c" {
		t.Errorf("cursor should stay on the last ref, got %q", cur)
	}

	if got, ok := r.Previous(); !ok || got != "b" {
		t.Errorf("Previous = %q, %v; want b", got, ok)
	}

	r.Insert("x")
	if cur, _ := r.Current(); cur != "x" {
		t.Errorf("Insert should move onto the new ref, got %q", cur)
	}
	if got, _ := r.Next(); got != "c" {
		t.Errorf("Next after Insert = %q, want c", got)
	}
	if r.Len() != 4 {
		t.Errorf("Len = %d, want 4", r.Len())
	}
}

func TestRefListEmptyInsert(t *testing.T) {
	r := NewRefList(nil)
	r.Insert("only")
	if cur, ok := r.Current(); !ok || cur != "only" {
		t.Errorf("Current = %q, %v; want only", cur, ok)
	}
}
