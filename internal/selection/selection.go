package selection

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/storage"
)

// MaxSelected is the maximum number of coins a user may select for comparison.
const MaxSelected = 5

// StorageKey is the fixed key the selection is persisted under.
const StorageKey = "cryptograph_selected_coins"

var (
	// ErrOverflow is returned by Toggle when adding would exceed MaxSelected.
	// The set is left unchanged; the caller must have the user evict a member first.
	ErrOverflow = errors.New("selection is full")
	// ErrInvalidPersistedData marks a stored payload that is not a JSON array of strings.
	ErrInvalidPersistedData = errors.New("invalid persisted selection")
	// ErrEmptyID is returned for blank identifiers.
	ErrEmptyID = errors.New("empty coin id")
)

// Set is the ordered, capped set of selected coin ids.
type Set struct {
	mu  sync.Mutex
	ids []string
	kv  storage.KV
	log logrus.FieldLogger
}

// New creates a Set rehydrated from kv. A missing or malformed payload yields an empty set;
// kv may be nil for a purely in-memory set.
func New(kv storage.KV, log logrus.FieldLogger) *Set {
	s := &Set{kv: kv, log: log}
	if kv == nil {
		return s
	}
	raw, found, err := kv.Get(StorageKey)
	if err != nil {
		log.WithError(err).Warn("load selection failed, starting empty")
		return s
	}
	if !found {
		return s
	}
	ids, err := Decode(raw)
	if err != nil {
		log.WithError(err).Warn("discarding persisted selection")
		return s
	}
	s.ids = ids
	log.WithField("count", len(ids)).Info("selection restored")
	return s
}

// Decode validates a persisted payload. It accepts only a JSON array of strings; blank and
// duplicate ids are dropped and the result is capped at MaxSelected.
func Decode(raw []byte) ([]string, error) {
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrInvalidPersistedData
	}
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		str, ok := it.(string)
		if !ok {
			return nil, ErrInvalidPersistedData
		}
		str = strings.TrimSpace(str)
		if str == "" || seen[str] {
			continue
		}
		seen[str] = true
		ids = append(ids, str)
	}
	if len(ids) > MaxSelected {
		ids = ids[:MaxSelected]
	}
	return ids, nil
}

// Toggle removes id if selected, otherwise appends it. Appending to a full set returns
// ErrOverflow without mutating. added reports which way the toggle went.
func (s *Set) Toggle(id string) (added bool, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
		s.persist()
		return false, nil
	}
	if len(s.ids) >= MaxSelected {
		return false, ErrOverflow
	}
	s.ids = append(s.ids, id)
	s.persist()
	return true, nil
}

// Remove drops id if present. It reports whether anything changed.
func (s *Set) Remove(id string) bool {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	s.persist()
	return true
}

// Clear empties the set and returns the ids that were removed.
func (s *Set) Clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.ids
	s.ids = nil
	s.persist()
	return removed
}

func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(strings.TrimSpace(id)) >= 0
}

// Snapshot returns a copy of the selected ids in insertion order.
func (s *Set) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Full reports whether another Toggle of a new id would overflow.
func (s *Set) Full() bool {
	return s.Len() >= MaxSelected
}

func (s *Set) indexOf(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// persist writes the current ids. Must be called with mu held. Failures are logged only.
func (s *Set) persist() {
	if s.kv == nil {
		return
	}
	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		s.log.WithError(err).Error("encode selection")
		return
	}
	if err := s.kv.Set(StorageKey, data); err != nil {
		s.log.WithError(err).Warn("save selection failed, keeping in-memory state")
	}
}
