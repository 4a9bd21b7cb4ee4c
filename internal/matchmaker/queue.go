package matchmaker

import (
	"time"

	"github.com/oggyb/anonchat/internal/domain"
)

// Entry is one waiting user.
type Entry struct {
	UserID   domain.UserID
	Filter   domain.Filter
	QueuedAt time.Time
}

// queue keeps entries in insertion order. A user appears at most once.
// Not safe for concurrent use; the Matchmaker lock guards it.
type queue struct {
	entries []Entry
	members map[domain.UserID]struct{}
}

func newQueue() *queue {
	return &queue{members: make(map[domain.UserID]struct{})}
}

func (q *queue) len() int { return len(q.entries) }

func (q *queue) contains(id domain.UserID) bool {
	_, ok := q.members[id]
	return ok
}

// push appends e, replacing any earlier entry of the same user.
func (q *queue) push(e Entry) {
	q.remove(e.UserID)
	q.entries = append(q.entries, e)
	q.members[e.UserID] = struct{}{}
}

// insertAt puts e back at position i. Used to undo a removal.
func (q *queue) insertAt(i int, e Entry) {
	q.remove(e.UserID)
	if i > len(q.entries) {
		i = len(q.entries)
	}
	q.entries = append(q.entries, Entry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
	q.members[e.UserID] = struct{}{}
}

func (q *queue) remove(id domain.UserID) bool {
	if !q.contains(id) {
		return false
	}
	for i, e := range q.entries {
		if e.UserID == id {
			q.removeAt(i)
			return true
		}
	}
	return false
}

func (q *queue) removeAt(i int) Entry {
	e := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	delete(q.members, e.UserID)
	return e
}

func (q *queue) snapshot() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
