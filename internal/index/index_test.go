package index

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/hashdb/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "hashdb-index-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sliceSource enumerates a fixed list of records.
type sliceSource []models.Record

func (s sliceSource) All(fn func(i int, rec models.Record) bool) {
	for i, rec := range s {
		if !fn(i, rec) {
			return
		}
	}
}

func rec(hash, name string, tags ...string) models.Record {
	if tags == nil {
		tags = []string{}
	}
	return models.Record{Hash: hash, Kind: models.KindPrimary, Name: name, Tags: tags}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&count); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM record_tags`).Scan(&count); err != nil {
		t.Fatalf("record_tags table missing: %v", err)
	}
}

func TestAddRecordAndLookup(t *testing.T) {
	db := testDB(t)
	if err := db.AddRecord(0, rec("QmA", "first", "go", "db")); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := db.AddRecord(1, rec("QmB", "other")); err != nil {
		t.Fatal(err)
	}
	if err := db.AddRecord(2, rec("QmA", "again", "go")); err != nil {
		t.Fatal(err)
	}

	hits, err := db.LookupHash("QmA")
	if err != nil {
		t.Fatalf("LookupHash: %v", err)
	}
	want := []Hit{
		{Seq: 0, Record: rec("QmA", "first", "go", "db")},
		{Seq: 2, Record: rec("QmA", "again", "go")},
	}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}

	n, err := db.Count()
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}
}

func TestLookupHash_NotFound(t *testing.T) {
	db := testDB(t)
	hits, err := db.LookupHash("QmNope")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %v", hits)
	}
}

func TestAddRecord_ReplacesSameSeq(t *testing.T) {
	db := testDB(t)
	_ = db.AddRecord(0, rec("QmA", "old", "x"))
	_ = db.AddRecord(0, rec("QmB", "new", "y"))

	if hits, _ := db.LookupHash("QmA"); len(hits) != 0 {
		t.Errorf("stale record still indexed: %v", hits)
	}
	counts, _ := db.TagCounts(0)
	if diff := cmp.Diff([]TagCount{{Tag: "y", Count: 1}}, counts); diff != "" {
		t.Errorf("tag counts mismatch (-want +got):\n%s", diff)
	}
}

func TestTagCounts_Order(t *testing.T) {
	db := testDB(t)
	src := sliceSource{
		rec("Qm1", "a", "rock", "jazz"),
		rec("Qm2", "b", "rock"),
		rec("Qm3", "c", "blues", "jazz"),
		rec("Qm4", "d", "rock", "ambient"),
	}
	if err := db.Rebuild(src); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	counts, err := db.TagCounts(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []TagCount{
		{Tag: "rock", Count: 3},
		{Tag: "jazz", Count: 2},
		{Tag: "ambient", Count: 1},
		{Tag: "blues", Count: 1},
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("tag counts mismatch (-want +got):\n%s", diff)
	}

	limited, _ := db.TagCounts(2)
	if len(limited) != 2 || limited[1].Tag != "jazz" {
		t.Errorf("limited = %v", limited)
	}
}

func TestRebuild_ReplacesEverything(t *testing.T) {
	db := testDB(t)
	_ = db.AddRecord(0, rec("QmOld", "old", "stale"))
	_ = db.AddRecord(7, rec("QmOld2", "old2"))

	if err := db.Rebuild(sliceSource{rec("QmNew", "new", "fresh")}); err != nil {
		t.Fatal(err)
	}

	n, _ := db.Count()
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	if hits, _ := db.LookupHash("QmOld"); len(hits) != 0 {
		t.Errorf("old record survived rebuild")
	}
	counts, _ := db.TagCounts(0)
	if diff := cmp.Diff([]TagCount{{Tag: "fresh", Count: 1}}, counts); diff != "" {
		t.Errorf("tag counts mismatch (-want +got):\n%s", diff)
	}
}

func TestRebuild_Empty(t *testing.T) {
	db := testDB(t)
	_ = db.AddRecord(0, rec("QmA", "a", "x"))
	if err := db.Rebuild(sliceSource{}); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.Count(); n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestDuplicateTagsCountedOnce(t *testing.T) {
	db := testDB(t)
	_ = db.AddRecord(0, rec("QmA", "a", "x", "x"))
	counts, _ := db.TagCounts(0)
	if len(counts) != 1 || counts[0].Count != 1 {
		t.Errorf("counts = %v", counts)
	}
}
