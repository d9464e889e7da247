package artifact

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return store
}

func TestWriteRawIsImmutable(t *testing.T) {
	store := newTestStore(t)

	path, err := store.WriteRaw("01ABC", []byte(`{"chapters": {}}`))
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if filepath.Dir(path) != store.RawDir() {
		t.Errorf("raw artifact outside raw dir: %s", path)
	}

	if _, err := store.WriteRaw("01ABC", []byte(`{"chapters": {"1": {}}}`)); err == nil {
		t.Fatal("expected error on duplicate raw artifact id")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"chapters": {}}`)) {
		t.Error("original raw artifact was modified")
	}
}

func TestWriteRawDistinctIDs(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"01A", "01B", "01C"} {
		if _, err := store.WriteRaw(id, []byte("{}")); err != nil {
			t.Fatalf("WriteRaw(%s): %v", id, err)
		}
	}
	entries, err := os.ReadDir(store.RawDir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("raw archive: got %d files, want 3", len(entries))
	}
}

func TestWriteNormalizedReplaces(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.ReadNormalized(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	if _, err := store.WriteNormalized([]byte(`{"chapters": {"1": {}}}`)); err != nil {
		t.Fatalf("WriteNormalized: %v", err)
	}
	path, err := store.WriteNormalized([]byte(`{"chapters": {"1": {}, "2": {}}}`))
	if err != nil {
		t.Fatalf("WriteNormalized: %v", err)
	}
	if path != store.NormalizedPath() {
		t.Errorf("normalized path: got %s, want %s", path, store.NormalizedPath())
	}

	data, err := store.ReadNormalized()
	if err != nil {
		t.Fatalf("ReadNormalized: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"chapters": {"1": {}, "2": {}}}`)) {
		t.Errorf("normalized content: got %s", data)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after rename")
	}
}

func TestUsageBytes(t *testing.T) {
	store := newTestStore(t)

	n, err := store.UsageBytes()
	if err != nil {
		t.Fatalf("UsageBytes: %v", err)
	}
	if n != 0 {
		t.Errorf("empty store usage: got %d, want 0", n)
	}

	if _, err := store.WriteRaw("01A", bytes.Repeat([]byte("a"), 100)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if _, err := store.WriteNormalized(bytes.Repeat([]byte("b"), 50)); err != nil {
		t.Fatalf("WriteNormalized: %v", err)
	}
	n, err = store.UsageBytes()
	if err != nil {
		t.Fatalf("UsageBytes: %v", err)
	}
	if n != 150 {
		t.Errorf("usage: got %d, want 150", n)
	}
}

func TestNewDiskStoreRequiresBase(t *testing.T) {
	if _, err := NewDiskStore("", nil); err == nil {
		t.Fatal("expected error for empty base directory")
	}
}
