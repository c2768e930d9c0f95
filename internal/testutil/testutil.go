// Package testutil provides shared test helpers for setting up stores and indexes.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/hashdb/internal/index"
	"github.com/starford/hashdb/internal/models"
	"github.com/starford/hashdb/internal/store"
)

const base58 = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// TestIndex creates a temporary SQLite index that is automatically cleaned up.
func TestIndex(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hashdb-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates an empty store backed by database.json in a temporary
// directory. The file itself does not exist yet.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "database.json"))
}

// Hash returns a well-formed hash that is unique for each i >= 0.
func Hash(i int) string {
	b := []byte(strings.Repeat("a", 44))
	for j := len(b) - 1; i > 0 && j >= 0; j-- {
		b[j] = base58[i%58]
		i /= 58
	}
	return "Qm" + string(b)
}

// Record returns a primary record named doc<i> with the given tags.
func Record(i int, tags ...string) models.Record {
	if tags == nil {
		tags = []string{}
	}
	return models.Record{
		Hash: Hash(i),
		Kind: models.KindPrimary,
		Name: fmt.Sprintf("doc%d", i),
		Tags: tags,
	}
}
