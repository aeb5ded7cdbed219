package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"

	"github.com/samirrijal/placepicker/internal/core/ports"
	"github.com/samirrijal/placepicker/internal/pkg/logging"
)

// DefaultSelectionKey is the storage key holding the selected ids.
const DefaultSelectionKey = "selectedPlaces"

// SelectionStore keeps the ordered set of selected place ids (most recent
// first) and mirrors it into a KeyValueStore on every mutation.
type SelectionStore struct {
	kv  ports.KeyValueStore
	key string
	ids []string
}

// NewSelectionStore creates a SelectionStore backed by kv under key.
func NewSelectionStore(kv ports.KeyValueStore, key string) *SelectionStore {
	if key == "" {
		key = DefaultSelectionKey
	}
	return &SelectionStore{kv: kv, key: key, ids: []string{}}
}

// Load reads the stored ids. Absent, unreadable, or malformed values yield an
// empty selection; empty and duplicate ids are dropped.
func (s *SelectionStore) Load(ctx context.Context) []string {
	s.ids = []string{}

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "selection read failed, starting empty", "key", s.key, "error", err)
		return s.IDs()
	}
	if !found {
		return s.IDs()
	}

	ids, err := decodeIDs(raw)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "stored selection is malformed, starting empty", "key", s.key, "error", err)
		return s.IDs()
	}

	s.ids = ids
	return s.IDs()
}

// Add prepends id unless already present, then persists.
func (s *SelectionStore) Add(ctx context.Context, id string) error {
	if s.Contains(id) {
		return nil
	}
	s.ids = append([]string{id}, s.ids...)
	return s.persist(ctx)
}

// Remove drops id if present, then persists.
func (s *SelectionStore) Remove(ctx context.Context, id string) error {
	idx := slices.Index(s.ids, id)
	if idx < 0 {
		return nil
	}
	s.ids = slices.Delete(s.ids, idx, idx+1)
	return s.persist(ctx)
}

// Retain keeps only the ids for which keep returns true and persists the
// result when anything was dropped.
func (s *SelectionStore) Retain(ctx context.Context, keep func(id string) bool) error {
	n := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !keep(id) })
	if len(s.ids) == n {
		return nil
	}
	return s.persist(ctx)
}

// Contains reports whether id is selected.
func (s *SelectionStore) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// IDs returns a copy of the selection.
func (s *SelectionStore) IDs() []string {
	return slices.Clone(s.ids)
}

func (s *SelectionStore) persist(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "SelectionStore.persist")
	defer span.End()

	data, err := json.Marshal(s.ids)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("write selection %q: %w", s.key, err)
	}
	return nil
}

// decodeIDs parses a JSON array of strings. Anything else is an error.
func decodeIDs(raw string) ([]string, error) {
	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(decoded))
	for _, id := range decoded {
		if id == "" || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
