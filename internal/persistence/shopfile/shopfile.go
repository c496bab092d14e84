// Package shopfile persists the active listing catalog for one world as a
// single JSON document, plus a one-shot seed marker. Reads degrade to an
// empty catalog on missing or malformed files; writes are full-file
// rewrites. The store assumes single-writer discipline, which the market
// loop provides.
package shopfile

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shopcraft.gg/internal/protocol"
)

const SchemaVersion = "1.0"

const (
	catalogFile = "shop.json"
	seedMarker  = ".seeded"
)

type document struct {
	Version     string             `json:"version"`
	Description string             `json:"description"`
	LastUpdated int64              `json:"lastUpdated"`
	Items       []protocol.Listing `json:"items"`
}

type Store struct {
	dir string
	log *log.Logger

	// Clock hook for deterministic lastUpdated in tests.
	Now func() time.Time
}

// Open prepares a store rooted at dir (one directory per world). The
// directory is created if needed.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: logger, Now: time.Now}, nil
}

// Load reads the catalog. Absent or malformed files yield an empty list;
// the condition is logged, never fatal. Listings missing a GUID get a fresh
// one so every loaded listing is addressable.
func (s *Store) Load() []protocol.Listing {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logf("shopfile: read %s: %v", s.path(), err)
		}
		return nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logf("shopfile: malformed %s: %v (treating as empty)", s.path(), err)
		return nil
	}
	out := make([]protocol.Listing, 0, len(doc.Items))
	for _, l := range doc.Items {
		if l.GUID == "" {
			l.GUID = uuid.NewString()
		}
		if l.Quantity <= 0 {
			l.Quantity = l.Count
		}
		out = append(out, l)
	}
	return out
}

// Save rewrites the whole catalog document.
func (s *Store) Save(listings []protocol.Listing) error {
	doc := document{
		Version:     SchemaVersion,
		Description: "shop listings",
		LastUpdated: s.Now().UnixMilli(),
		Items:       listings,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// BootstrapIfEmpty seeds the starter catalog exactly once per store
// lifetime: only when the marker is unset and the catalog is empty. Later
// admin clears do not re-trigger it. It returns the effective catalog and
// whether seeding happened.
func (s *Store) BootstrapIfEmpty(seed []protocol.Listing) ([]protocol.Listing, bool) {
	existing := s.Load()
	if s.seeded() || len(existing) > 0 {
		return existing, false
	}
	out := make([]protocol.Listing, 0, len(seed))
	for _, l := range seed {
		if l.GUID == "" {
			l.GUID = uuid.NewString()
		}
		if l.Quantity <= 0 {
			l.Quantity = l.Count
		}
		out = append(out, l)
	}
	if err := s.Save(out); err != nil {
		s.logf("shopfile: bootstrap save: %v", err)
		return existing, false
	}
	if err := s.markSeeded(); err != nil {
		s.logf("shopfile: bootstrap marker: %v", err)
	}
	return out, true
}

func (s *Store) seeded() bool {
	_, err := os.Stat(filepath.Join(s.dir, seedMarker))
	return err == nil
}

func (s *Store) markSeeded() error {
	return os.WriteFile(filepath.Join(s.dir, seedMarker), []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0o644)
}

func (s *Store) path() string {
	return filepath.Join(s.dir, catalogFile)
}

func (s *Store) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}
