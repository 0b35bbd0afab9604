// Package feed fans out committed project changes to live subscribers.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/votes"
)

const defaultBuffer = 8

// Snapshot is the public state of a project after a committed write. Seq is the
// project's committed version, so within one project a larger Seq is the fresher snapshot.
type Snapshot struct {
	Seq       uint64      `json:"seq"`
	ProjectID string      `json:"projectId"`
	Votes     votes.State `json:"votes"`
	Average   float64     `json:"average"`
	Rating    float64     `json:"rating"`
	Views     int64       `json:"views"`
	At        time.Time   `json:"at"`
}

func SnapshotOf(p *models.Project) Snapshot {
	state := votes.FromModel(p.Votes)
	avg := votes.Average(state)
	return Snapshot{
		Seq:       uint64(p.Version),
		ProjectID: p.ID,
		Votes:     state,
		Average:   avg,
		Rating:    votes.Round(avg),
		Views:     p.Views(),
		At:        time.Now().UTC(),
	}
}

type subscriber struct {
	ch   chan Snapshot
	done chan struct{}
	once sync.Once
}

type topic struct {
	subs map[*subscriber]struct{}
	last uint64
	sent bool
}

type Hub struct {
	mu     sync.Mutex
	buffer int
	topics map[string]*topic
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{buffer: buffer, topics: make(map[string]*topic)}
}

// Subscribe registers for snapshots of projectID. The channel closes when ctx ends or cancel is called.
func (h *Hub) Subscribe(ctx context.Context, projectID string) (<-chan Snapshot, func()) {
	sub := &subscriber{ch: make(chan Snapshot, h.buffer), done: make(chan struct{})}

	h.mu.Lock()
	t := h.topics[projectID]
	if t == nil {
		t = &topic{subs: make(map[*subscriber]struct{})}
		h.topics[projectID] = t
	}
	t.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(t.subs, sub)
			if len(t.subs) == 0 && h.topics[projectID] == t {
				delete(h.topics, projectID)
			}
			close(sub.ch)
			h.mu.Unlock()
			close(sub.done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()

	return sub.ch, cancel
}

// Publish delivers s without blocking and reports whether it was sent. A snapshot
// whose Seq is not newer than the last one sent for the project is dropped, so
// writes that commit in one order but publish in another never regress a viewer.
// A subscriber that fell behind loses its oldest queued snapshot.
func (h *Hub) Publish(s Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.topics[s.ProjectID]
	if t == nil {
		return false
	}
	if t.sent && s.Seq <= t.last {
		return false
	}
	t.last, t.sent = s.Seq, true

	for sub := range t.subs {
		select {
		case sub.ch <- s:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- s
		}
	}
	return true
}

func (h *Hub) PublishProject(p *models.Project) {
	if p == nil {
		return
	}
	h.Publish(SnapshotOf(p))
}

func (h *Hub) Subscribers(projectID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t := h.topics[projectID]; t != nil {
		return len(t.subs)
	}
	return 0
}

// Latest keeps the freshest snapshot seen and rejects older arrivals.
type Latest struct {
	mu   sync.Mutex
	snap Snapshot
	ok   bool
}

// Offer returns false when s is not newer than the snapshot already held.
func (l *Latest) Offer(s Snapshot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ok && s.Seq <= l.snap.Seq {
		return false
	}
	l.snap, l.ok = s, true
	return true
}

func (l *Latest) Get() (Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap, l.ok
}
