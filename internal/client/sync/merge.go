package sync

import (
	"sort"

	"github.com/kymbms/name-card-manage/internal/client/models"
)

// mergeContacts reconciles a remote snapshot with the locally persisted set.
// The remote value wins on an id collision; local records the remote does
// not know yet (written offline or before the first echo) are kept. The
// result is ordered newest first.
func mergeContacts(remoteSet, localSet []models.Contact) []models.Contact {
	seen := make(map[int64]struct{}, len(remoteSet))
	merged := make([]models.Contact, 0, len(remoteSet)+len(localSet))
	for _, c := range remoteSet {
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
	}
	for _, c := range localSet {
		if _, ok := seen[c.ID]; !ok {
			merged = append(merged, c)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID > merged[j].ID })
	return merged
}
