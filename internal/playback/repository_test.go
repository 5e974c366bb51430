package playback

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"interaction-timeline/internal/interaction"
)

func TestEngineRepository_Save(t *testing.T) {
	repo := NewEngineRepository(ScriptCompiler())

	c, created, err := repo.Save(Record{ID: "demo", Source: []byte(demoScript)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !created || c.Engine == nil {
		t.Errorf("first Save created=%v engine=%v", created, c.Engine)
	}
	if _, created, err = repo.Save(Record{ID: "demo", Source: []byte(demoScript)}); err != nil || created {
		t.Errorf("second Save created=%v err=%v, want replace", created, err)
	}
	if n := repo.SequenceCount(); n != 1 {
		t.Errorf("SequenceCount = %d, want 1", n)
	}
}

func TestEngineRepository_Save_keeps_created_at(t *testing.T) {
	repo := NewEngineRepository(ScriptCompiler())
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	if _, _, err := repo.Save(Record{ID: "demo", Source: []byte(demoScript), CreatedAt: first}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c, _, err := repo.Save(Record{ID: "demo", Source: []byte(demoScript), CreatedAt: first.Add(time.Hour)})
	if err != nil {
		t.Fatalf("replace Save: %v", err)
	}
	if !c.Record.CreatedAt.Equal(first) {
		t.Errorf("replace CreatedAt = %v, want %v", c.Record.CreatedAt, first)
	}
	got, err := repo.Get("demo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Record.CreatedAt.Equal(first) {
		t.Errorf("stored CreatedAt = %v, want %v", got.Record.CreatedAt, first)
	}
}

func TestEngineRepository_Save_rejects_bad_script(t *testing.T) {
	repo := NewEngineRepository(ScriptCompiler())

	_, _, err := repo.Save(Record{ID: "bad", Source: []byte("states: nope")})
	if !errors.Is(err, ErrInvalidScript) {
		t.Fatalf("err = %v, want ErrInvalidScript", err)
	}
	if _, err := repo.Get("bad"); !errors.Is(err, ErrSequenceNotFound) {
		t.Errorf("rejected script should not be stored, Get err = %v", err)
	}
}

func TestEngineRepository_strict(t *testing.T) {
	lenient := NewEngineRepository(ScriptCompiler())
	if _, _, err := lenient.Save(Record{ID: "d", Source: []byte(danglingScript)}); err != nil {
		t.Errorf("lenient Save: %v", err)
	}

	strict := NewEngineRepository(ScriptCompiler(interaction.WithStrictReferences()))
	_, _, err := strict.Save(Record{ID: "d", Source: []byte(danglingScript)})
	if !errors.Is(err, ErrInvalidScript) || !errors.Is(err, interaction.ErrInvalidSequence) {
		t.Errorf("strict Save err = %v", err)
	}
}

func TestEngineRepository_compiles_stored_records_once(t *testing.T) {
	store := NewInMemoryStore()
	store.Put(Record{ID: "old", Source: []byte(demoScript)})

	var compiles atomic.Int32
	compile := ScriptCompiler()
	repo := NewEngineRepositoryWithStore(store, func(src []byte) (*interaction.Engine, error) {
		compiles.Add(1)
		return compile(src)
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Get("old"); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := compiles.Load(); n != 1 {
		t.Errorf("compiled %d times, want 1", n)
	}
}

func TestEngineRepository_Delete(t *testing.T) {
	repo := NewEngineRepository(ScriptCompiler())
	repo.Save(Record{ID: "demo", Source: []byte(demoScript)})

	if err := repo.Delete("demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get("demo"); !errors.Is(err, ErrSequenceNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
	if err := repo.Delete("demo"); !errors.Is(err, ErrSequenceNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
}

func TestEngineRepository_with_sqlite(t *testing.T) {
	store := openTestSQLite(t)
	first := NewEngineRepositoryWithStore(store, ScriptCompiler())
	if _, _, err := first.Save(Record{ID: "demo", Source: []byte(demoScript)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := NewEngineRepositoryWithStore(store, ScriptCompiler())
	c, err := second.Get("demo")
	if err != nil {
		t.Fatalf("Get from a fresh repository: %v", err)
	}
	if c.Engine.Duration() != 121 {
		t.Errorf("Duration = %d, want 121", c.Engine.Duration())
	}
}
