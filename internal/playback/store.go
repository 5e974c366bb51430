package playback

import "slices"

// Store persists sequence records. Implementations need not be safe for
// concurrent use; the repository serializes access.
type Store interface {
	Get(id SequenceID) (Record, bool, error)
	Put(rec Record) error
	Delete(id SequenceID) (bool, error)
	// List returns stored ids in ascending order.
	List() ([]SequenceID, error)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	records map[SequenceID]Record
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[SequenceID]Record)}
}

// Get implements Store.Get.
func (s *InMemoryStore) Get(id SequenceID) (Record, bool, error) {
	rec, ok := s.records[id]
	return rec, ok, nil
}

// Put implements Store.Put.
func (s *InMemoryStore) Put(rec Record) error {
	rec.Source = slices.Clone(rec.Source)
	s.records[rec.ID] = rec
	return nil
}

// Delete implements Store.Delete.
func (s *InMemoryStore) Delete(id SequenceID) (bool, error) {
	_, ok := s.records[id]
	delete(s.records, id)
	return ok, nil
}

// List implements Store.List.
func (s *InMemoryStore) List() ([]SequenceID, error) {
	ids := make([]SequenceID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
