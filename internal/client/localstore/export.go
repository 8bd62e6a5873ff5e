package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/common"
)

// SnapshotVersion is the format version written into exported snapshots.
const SnapshotVersion = 1

// NamespaceSnapshot is one namespace's exported content.
type NamespaceSnapshot struct {
	Contacts []models.Contact `json:"contacts"`
	MyCard   *models.Contact  `json:"myCard,omitempty"`
}

// Snapshot is a portable dump of the whole local store.
type Snapshot struct {
	Version    int                          `json:"version"`
	Namespaces map[string]NamespaceSnapshot `json:"namespaces"`
}

// Export serializes every namespace's contacts and profile into a single
// JSON snapshot.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	namespaces, err := s.listNamespaces(ctx)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{Version: SnapshotVersion, Namespaces: map[string]NamespaceSnapshot{}}
	for _, ns := range namespaces {
		records, err := s.contacts.GetAll(ctx, ns)
		if err != nil {
			return nil, fmt.Errorf("failed to export contacts for %q: %w", ns, err)
		}
		entry := NamespaceSnapshot{Contacts: records}
		if card, err := s.mycards.Get(ctx, ns); err == nil {
			entry.MyCard = card
		}
		snap.Namespaces[ns] = entry
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import restores a snapshot produced by Export. Each namespace present in
// the snapshot replaces the current local content of that namespace
// wholesale; namespaces absent from the snapshot are left untouched.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %d", common.ErrInternal, snap.Version)
	}

	for ns, entry := range snap.Namespaces {
		if err := s.contacts.ReplaceAll(ctx, ns, entry.Contacts); err != nil {
			return fmt.Errorf("failed to import contacts for %q: %w", ns, err)
		}
		s.notify(ns, CollectionContacts)
		if entry.MyCard != nil {
			if err := s.mycards.Save(ctx, ns, *entry.MyCard); err != nil {
				return fmt.Errorf("failed to import my card for %q: %w", ns, err)
			}
			s.notify(ns, CollectionMyCard)
		}
	}
	return nil
}

func (s *Store) listNamespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace FROM contacts
		UNION
		SELECT namespace FROM mycards
		ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		result = append(result, ns)
	}
	return result, rows.Err()
}
