package playback

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "timeline.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewInMemoryStore() },
		"sqlite": func(t *testing.T) Store { return openTestSQLite(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			created := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)

			if _, ok, err := s.Get("a"); err != nil || ok {
				t.Fatalf("Get on empty store = %v, %v", ok, err)
			}
			for _, id := range []SequenceID{"b", "a"} {
				if err := s.Put(Record{ID: id, Source: []byte("title: " + string(id)), CreatedAt: created}); err != nil {
					t.Fatalf("Put %s: %v", id, err)
				}
			}
			if err := s.Put(Record{ID: "a", Source: []byte("title: replaced"), CreatedAt: created}); err != nil {
				t.Fatalf("Put replace: %v", err)
			}

			rec, ok, err := s.Get("a")
			if err != nil || !ok {
				t.Fatalf("Get a = %v, %v", ok, err)
			}
			want := Record{ID: "a", Source: []byte("title: replaced"), CreatedAt: created}
			if diff := cmp.Diff(want, rec); diff != "" {
				t.Errorf("record (-want +got):\n%s", diff)
			}

			ids, err := s.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if diff := cmp.Diff([]SequenceID{"a", "b"}, ids); diff != "" {
				t.Errorf("ids (-want +got):\n%s", diff)
			}

			if ok, err := s.Delete("a"); err != nil || !ok {
				t.Errorf("Delete a = %v, %v", ok, err)
			}
			if ok, err := s.Delete("a"); err != nil || ok {
				t.Errorf("second Delete a = %v, %v", ok, err)
			}
		})
	}
}

func TestInMemoryStore_copies_source(t *testing.T) {
	s := NewInMemoryStore()
	src := []byte("title: x")
	s.Put(Record{ID: "x", Source: src})
	src[0] = 'T'

	rec, _, _ := s.Get("x")
	if string(rec.Source) != "title: x" {
		t.Errorf("stored source changed with caller's buffer: %q", rec.Source)
	}
}

func TestSQLiteStore_reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.db")
	s, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(Record{ID: "kept", Source: []byte(demoScript), CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	rec, ok, err := s.Get("kept")
	if err != nil || !ok || string(rec.Source) != demoScript {
		t.Errorf("reopened Get = %q, %v, %v", rec.Source, ok, err)
	}
}
