// Package merger combines the legacy and structured notification streams into one
// deduplicated, emoji-annotated, newest-first view split into active and cleared lists.
//
// Merge is pure apart from reading the clock once per call, and it never fails: missing
// messages are treated as empty and unparseable timestamps fall back to defaults.
package merger

import (
	"sort"
	"strconv"
	"time"

	"marketplace/services/notification/internal/entity"
)

const DefaultOwnerRole = "seller"

type Merger struct {
	ownerRole string
	now       func() time.Time
}

func New(ownerRole string) *Merger {
	return NewWithClock(ownerRole, time.Now)
}

func NewWithClock(ownerRole string, now func() time.Time) *Merger {
	if ownerRole == "" {
		ownerRole = DefaultOwnerRole
	}
	if now == nil {
		now = time.Now
	}
	return &Merger{ownerRole: ownerRole, now: now}
}

func (m *Merger) OwnerRole() string {
	return m.ownerRole
}

// Owns reports whether the viewer holds the role that receives notifications.
func (m *Merger) Owns(viewer entity.Viewer) bool {
	return viewer.Role == m.ownerRole
}

// Merge builds the active list from legacy-not-cleared plus structuredActive and the
// cleared list from legacy-cleared plus structuredCleared. Viewers without the owner
// role get two empty lists and the input is not looked at.
func (m *Merger) Merge(legacy []entity.LegacyNotification, structuredActive, structuredCleared []entity.StructuredNotification, viewer entity.Viewer) entity.Merged {
	result := entity.Merged{
		Active:  []entity.Notification{},
		Cleared: []entity.Notification{},
	}
	if !m.Owns(viewer) {
		return result
	}

	now := m.now()

	var activeIn, clearedIn []entity.Notification
	for _, n := range legacy {
		normalized := fromLegacy(n)
		if normalized.Cleared {
			clearedIn = append(clearedIn, normalized)
		} else {
			activeIn = append(activeIn, normalized)
		}
	}
	for _, n := range structuredActive {
		activeIn = append(activeIn, fromStructured(n, false))
	}
	for _, n := range structuredCleared {
		clearedIn = append(clearedIn, fromStructured(n, true))
	}

	result.Active = dedupAndSort(activeIn, now)

	activeIDs := make(map[string]struct{}, len(result.Active))
	for _, n := range result.Active {
		activeIDs[n.ID] = struct{}{}
	}
	for _, n := range dedupAndSort(clearedIn, now) {
		if _, dup := activeIDs[n.ID]; dup {
			continue
		}
		result.Cleared = append(result.Cleared, n)
	}

	return result
}

func fromLegacy(n entity.LegacyNotification) entity.Notification {
	return entity.Notification{
		ID:        n.ID,
		Message:   n.Message,
		Timestamp: n.Timestamp,
		Cleared:   n.Cleared,
		Source:    entity.SourceLegacy,
	}
}

func fromStructured(n entity.StructuredNotification, cleared bool) entity.Notification {
	return entity.Notification{
		ID:        n.Key(),
		Message:   n.Message,
		Timestamp: n.CreatedAt,
		Cleared:   cleared,
		Source:    entity.SourceStructured,
	}
}

// DedupKey is the cleaned message joined with the 1-minute window of the timestamp.
func DedupKey(n entity.Notification, now time.Time) string {
	return StripEmoji(n.Message) + "_" + strconv.FormatInt(timeWindow(windowInstant(n.Timestamp, now)), 10)
}

// dedupAndSort keeps the first-seen slot for every dedup key. A strictly later duplicate
// overwrites the record in that slot; anything else is dropped. The survivors are then
// stably sorted newest first.
func dedupAndSort(in []entity.Notification, now time.Time) []entity.Notification {
	out := make([]entity.Notification, 0, len(in))
	slots := make(map[string]int, len(in))

	for _, n := range in {
		n.Message = Annotate(n.Message)
		key := DedupKey(n, now)

		slot, seen := slots[key]
		if !seen {
			slots[key] = len(out)
			out = append(out, n)
			continue
		}
		if isLater(n.Timestamp, out[slot].Timestamp) {
			out[slot] = n
		}
	}

	keys := make([]int64, len(out))
	for i, n := range out {
		keys[i] = sortKey(n.Timestamp)
	}
	sort.Stable(byNewest{items: out, keys: keys})
	return out
}

// isLater compares two timestamps that must both parse; an unparseable side never wins.
func isLater(candidate, retained entity.Timestamp) bool {
	c, ok := ParseTimestamp(candidate)
	if !ok {
		return false
	}
	r, ok := ParseTimestamp(retained)
	if !ok {
		return false
	}
	return c.After(r)
}

type byNewest struct {
	items []entity.Notification
	keys  []int64
}

func (b byNewest) Len() int           { return len(b.items) }
func (b byNewest) Less(i, j int) bool { return b.keys[i] > b.keys[j] }
func (b byNewest) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
