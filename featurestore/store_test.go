package featurestore

import (
	"errors"
	"os"
	"testing"
)

type testRecord struct {
	SeqID  string
	Values []float32
	Label  []float32
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := &testRecord{
		SeqID:  "42",
		Values: []float32{1, 2, 3.5, -0.25},
		Label:  []float32{0, 1, 0},
	}
	if err := store.Save("train", want.SeqID, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var got testRecord
	if err := store.Load("train", "42", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.SeqID != want.SeqID {
		t.Errorf("SeqID = %q, want %q", got.SeqID, want.SeqID)
	}
	if len(got.Values) != len(want.Values) || len(got.Label) != len(want.Label) {
		t.Fatalf("dims changed across round trip: %v / %v", got.Values, got.Label)
	}
	for i := range want.Values {
		if got.Values[i] != want.Values[i] {
			t.Errorf("Values[%d] = %v, want %v", i, got.Values[i], want.Values[i])
		}
	}
}

func TestStoreOverwrite(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := store.Save("train", "7", &testRecord{SeqID: "7", Values: []float32{1}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save("train", "7", &testRecord{SeqID: "7", Values: []float32{2}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	var got testRecord
	if err := store.Load("train", "7", &got); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Values) != 1 || got.Values[0] != 2 {
		t.Errorf("expected overwritten record, got %v", got.Values)
	}
}

func TestStoreList(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Unknown split is empty, not an error: directories appear lazily.
	ids, err := store.List("eval")
	if err != nil {
		t.Fatalf("List on missing split failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty split, got %v", ids)
	}

	for _, id := range []string{"b", "a", "c"} {
		if err := store.Save("eval", id, &testRecord{SeqID: id}); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}
	ids, err = store.List("eval")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("expected sorted ids [a b c], got %v", ids)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var rec testRecord
	err = store.Load("train", "nope", &rec)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestStoreInvalidKeys(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New with empty root should fail")
	}
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := store.Save("", "1", &testRecord{}); err == nil {
		t.Error("Save with empty split should fail")
	}
	if err := store.Save("train", "", &testRecord{}); err == nil {
		t.Error("Save with empty sequence id should fail")
	}
}
