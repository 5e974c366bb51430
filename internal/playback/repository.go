package playback

import (
	"errors"
	"fmt"
	"sync"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/script"
)

var (
	// ErrSequenceNotFound is returned for ids with no stored record.
	ErrSequenceNotFound = errors.New("sequence not found")

	// ErrInvalidScript wraps parse, conversion and construction errors of a
	// submitted script.
	ErrInvalidScript = errors.New("invalid script")
)

// CompileFunc builds an engine from stored script source.
type CompileFunc func(source []byte) (*interaction.Engine, error)

// ScriptCompiler returns a CompileFunc for YAML or JSON script documents.
func ScriptCompiler(opts ...interaction.Option) CompileFunc {
	return func(source []byte) (*interaction.Engine, error) {
		e, err := script.Compile(source, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
		}
		return e, nil
	}
}

// Repository defines the concurrency-safe contract for storing sequences and
// reaching their compiled engines.
type Repository interface {
	// Save compiles rec and stores it, replacing any record with the same id.
	// A replacement keeps the original CreatedAt. A source that does not
	// compile is rejected and nothing is stored.
	Save(rec Record) (c Compiled, created bool, err error)

	// Get returns the compiled sequence for id. Records stored by an earlier
	// process are compiled on first access.
	Get(id SequenceID) (Compiled, error)

	// Delete removes id. It returns ErrSequenceNotFound if id is not stored.
	Delete(id SequenceID) error

	// IDs returns the stored ids in ascending order.
	IDs() ([]SequenceID, error)

	// SequenceCount returns the number of stored sequences. Used for metrics.
	SequenceCount() int
}

// EngineRepository is a Repository that keeps compiled engines in memory in
// front of a Store.
type EngineRepository struct {
	mu      sync.RWMutex
	store   Store
	compile CompileFunc
	engines map[SequenceID]Compiled
}

// NewEngineRepository returns a repository over an in-memory store.
func NewEngineRepository(compile CompileFunc) *EngineRepository {
	return NewEngineRepositoryWithStore(NewInMemoryStore(), compile)
}

// NewEngineRepositoryWithStore returns a repository that persists to store.
func NewEngineRepositoryWithStore(store Store, compile CompileFunc) *EngineRepository {
	return &EngineRepository{
		store:   store,
		compile: compile,
		engines: make(map[SequenceID]Compiled),
	}
}

// Save implements Repository.Save.
func (r *EngineRepository) Save(rec Record) (Compiled, bool, error) {
	e, err := r.compile(rec.Source)
	if err != nil {
		return Compiled{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists, err := r.store.Get(rec.ID)
	if err != nil {
		return Compiled{}, false, err
	}
	if exists {
		rec.CreatedAt = old.CreatedAt
	}
	if err := r.store.Put(rec); err != nil {
		return Compiled{}, false, err
	}
	c := Compiled{Record: rec, Engine: e}
	r.engines[rec.ID] = c
	return c, !exists, nil
}

// Get implements Repository.Get.
func (r *EngineRepository) Get(id SequenceID) (Compiled, error) {
	r.mu.RLock()
	c, ok := r.engines[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.engines[id]; ok {
		return c, nil
	}
	rec, ok, err := r.store.Get(id)
	if err != nil {
		return Compiled{}, err
	}
	if !ok {
		return Compiled{}, ErrSequenceNotFound
	}
	e, err := r.compile(rec.Source)
	if err != nil {
		return Compiled{}, fmt.Errorf("stored sequence %s: %w", id, err)
	}
	c = Compiled{Record: rec, Engine: e}
	r.engines[id] = c
	return c, nil
}

// Delete implements Repository.Delete.
func (r *EngineRepository) Delete(id SequenceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.store.Delete(id)
	if err != nil {
		return err
	}
	delete(r.engines, id)
	if !ok {
		return ErrSequenceNotFound
	}
	return nil
}

// IDs implements Repository.IDs.
func (r *EngineRepository) IDs() ([]SequenceID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.List()
}

// SequenceCount implements Repository.SequenceCount. Store errors count as zero.
func (r *EngineRepository) SequenceCount() int {
	ids, err := r.IDs()
	if err != nil {
		return 0
	}
	return len(ids)
}
