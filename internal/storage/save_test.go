package storage_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/hashdb/internal/checksum"
	"github.com/starford/hashdb/internal/models"
	"github.com/starford/hashdb/internal/storage"
	"github.com/starford/hashdb/internal/store"
	"github.com/starford/hashdb/internal/testutil"
)

func TestSave_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 3, 257} {
		path := dbPath(t)
		s := store.New(path)
		for i := range n {
			s.Add(testutil.Record(i, "t"+string(rune('a'+i%5))))
		}

		if err := storage.Save(s); err != nil {
			t.Fatalf("n=%d Save: %v", n, err)
		}
		if s.Dirty() {
			t.Errorf("n=%d: store still dirty after save", n)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !json.Valid(data) {
			t.Fatalf("n=%d: output is not valid JSON:\n%s", n, data)
		}
		if s.SavedChecksum() != checksum.Sum(data) {
			t.Errorf("n=%d: saved checksum does not match file", n)
		}

		loaded, err := storage.Load(path)
		if err != nil {
			t.Fatalf("n=%d Load: %v", n, err)
		}
		if diff := cmp.Diff(records(s), records(loaded)); diff != "" {
			t.Errorf("n=%d round trip mismatch (-saved +loaded):\n%s", n, diff)
		}
		if loaded.SavedChecksum() != s.SavedChecksum() {
			t.Errorf("n=%d: checksum changed across load", n)
		}
	}
}

func TestSave_Format(t *testing.T) {
	path := dbPath(t)
	s := store.New(path)
	if err := storage.Save(s); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "[\n]\n" {
		t.Errorf("empty store wrote %q", got)
	}

	s.Add(models.Record{Hash: "h1", Kind: models.KindPrimary, Name: "a", Tags: []string{"x"}})
	s.Add(models.Record{Hash: "h2", Kind: models.KindAlias, Name: "b"})
	if err := storage.Save(s); err != nil {
		t.Fatal(err)
	}
	want := `[
{"hash":"h1","type":"primary","name":"a","tags":["x"]},
{"hash":"h2","type":"alias","name":"b","tags":[]}
]
`
	if got, _ := os.ReadFile(path); string(got) != want {
		t.Errorf("file mismatch (-want +got):\n%s", cmp.Diff(want, string(got)))
	}
}

func TestSave_ReplacesAtomically(t *testing.T) {
	path := dbPath(t)
	writeFile(t, path, "previous content")

	s := store.New(path)
	s.Add(testutil.Record(1))
	if err := storage.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "database.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only database.json", names)
	}
}

func TestSave_MissingDirectoryKeepsDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "database.json")
	s := store.New(path)
	s.Add(testutil.Record(1))

	if err := storage.Save(s); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
	if !s.Dirty() {
		t.Error("failed save must leave the store dirty")
	}
	if s.SavedChecksum() != "" {
		t.Error("failed save must not record a checksum")
	}
}

func TestSave_FailureKeepsPreviousFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "database.json")
	s := store.New(path)
	s.Add(testutil.Record(1))
	if err := storage.Save(s); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	s.Add(testutil.Record(2))
	if err := storage.Save(s); err == nil {
		t.Fatal("expected error saving into a read-only directory")
	}
	if !s.Dirty() {
		t.Error("failed save must leave the store dirty")
	}
	after, _ := os.ReadFile(path)
	if string(after) != string(before) {
		t.Error("failed save changed the existing file")
	}
}

// addingSource adds a record to its store the first time the saver asks
// for one, imitating an add that races with a save.
type addingSource struct {
	*store.Store
	once sync.Once
}

func (a *addingSource) At(i int) (models.Record, bool) {
	a.once.Do(func() { a.Store.Add(testutil.Record(99)) })
	return a.Store.At(i)
}

func TestSave_ConcurrentAddLeavesDirty(t *testing.T) {
	path := dbPath(t)
	s := store.New(path)
	s.Add(testutil.Record(1))

	if err := storage.Save(&addingSource{Store: s}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Dirty() {
		t.Fatal("record added during the save must leave the store dirty")
	}

	// The written file is valid whatever it caught.
	data, _ := os.ReadFile(path)
	if !json.Valid(data) {
		t.Fatalf("invalid JSON after concurrent add:\n%s", data)
	}

	if err := storage.Save(s); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Error("follow-up save should clear dirty")
	}
	loaded, err := storage.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Errorf("loaded %d records, want 2", loaded.Len())
	}
}

func TestSave_ConcurrentWithAdds(t *testing.T) {
	path := dbPath(t)
	s := store.New(path)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 200 {
			s.Add(testutil.Record(i))
		}
	}()
	for range 5 {
		if err := storage.Save(s); err != nil {
			t.Errorf("Save: %v", err)
		}
	}
	wg.Wait()

	if err := storage.Save(s); err != nil {
		t.Fatal(err)
	}
	loaded, err := storage.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 200 {
		t.Errorf("loaded %d records, want 200", loaded.Len())
	}
}
