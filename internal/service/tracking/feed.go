package tracking

import (
	"sync"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

// Feed fans driver positions out to in-process subscribers. The realtime
// channel delivers at-most-once and possibly out of order, so the feed keeps
// one latest position per driver and applies last-write-wins by RecordedAt:
// a stale sample is dropped, never delivered.
type Feed struct {
	mu     sync.RWMutex
	latest map[uuid.UUID]models.LocationUpdate
	subs   map[uuid.UUID]map[int]func(models.LocationUpdate)
	nextID int
}

func NewFeed() *Feed {
	return &Feed{
		latest: make(map[uuid.UUID]models.LocationUpdate),
		subs:   make(map[uuid.UUID]map[int]func(models.LocationUpdate)),
	}
}

// Subscription is the handle returned by Subscribe. Unsubscribe is
// idempotent: calling it twice is the same as calling it once.
type Subscription struct {
	once     sync.Once
	feed     *Feed
	driverID uuid.UUID
	id       int
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()

		observers := s.feed.subs[s.driverID]
		delete(observers, s.id)
		if len(observers) == 0 {
			delete(s.feed.subs, s.driverID)
		}
	})
}

// Subscribe registers fn for one driver's positions. The feed never
// replays: fn only sees samples applied after this call, and callers that
// need the current position pull it through Latest. Multiple subscribers
// per driver are independent.
func (f *Feed) Subscribe(driverID uuid.UUID, fn func(models.LocationUpdate)) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	if f.subs[driverID] == nil {
		f.subs[driverID] = make(map[int]func(models.LocationUpdate))
	}
	f.subs[driverID][id] = fn

	return &Subscription{feed: f, driverID: driverID, id: id}
}

// Apply ingests one position sample. It returns false when the sample is
// older than the one already held and was discarded.
func (f *Feed) Apply(update models.LocationUpdate) bool {
	f.mu.Lock()

	if current, ok := f.latest[update.DriverID]; ok && !update.RecordedAt.After(current.RecordedAt) {
		f.mu.Unlock()
		return false
	}
	f.latest[update.DriverID] = update

	observers := make([]func(models.LocationUpdate), 0, len(f.subs[update.DriverID]))
	for _, fn := range f.subs[update.DriverID] {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(update)
	}
	return true
}

// Latest returns the freshest known position for a driver.
func (f *Feed) Latest(driverID uuid.UUID) (models.LocationUpdate, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	update, ok := f.latest[driverID]
	return update, ok
}

// SubscriberCount reports active subscriptions for a driver.
func (f *Feed) SubscriberCount(driverID uuid.UUID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.subs[driverID])
}
