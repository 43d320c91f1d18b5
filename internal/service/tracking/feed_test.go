package tracking

import (
	"sync"
	"testing"
	"time"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/pkg/uuid"
)

func update(driverID uuid.UUID, lat, lng float64, at time.Time) models.LocationUpdate {
	return models.LocationUpdate{
		RideID:     uuid.MustNew(),
		DriverID:   driverID,
		Lat:        lat,
		Lng:        lng,
		RecordedAt: at,
	}
}

func TestFeedLastWriteWins(t *testing.T) {
	feed := NewFeed()
	driverID := uuid.MustNew()
	base := time.Now()

	var mu sync.Mutex
	var seen []float64
	sub := feed.Subscribe(driverID, func(u models.LocationUpdate) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, u.Lat)
	})
	defer sub.Unsubscribe()

	if !feed.Apply(update(driverID, 1, 1, base)) {
		t.Fatal("first sample must be applied")
	}
	if !feed.Apply(update(driverID, 2, 2, base.Add(2*time.Second))) {
		t.Fatal("newer sample must be applied")
	}

	// stale sample (older timestamp) arrives late: dropped, not delivered
	if feed.Apply(update(driverID, 99, 99, base.Add(time.Second))) {
		t.Fatal("stale sample must be discarded")
	}
	// equal timestamp is also stale
	if feed.Apply(update(driverID, 98, 98, base.Add(2*time.Second))) {
		t.Fatal("equal-timestamp sample must be discarded")
	}

	latest, ok := feed.Latest(driverID)
	if !ok || latest.Lat != 2 {
		t.Errorf("Latest() = %+v, %v, want lat 2", latest, ok)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("delivered lats = %v, want [1 2]", seen)
	}
}

func TestFeedMultipleSubscribers(t *testing.T) {
	feed := NewFeed()
	driverID := uuid.MustNew()

	var mu sync.Mutex
	counts := make(map[string]int)
	subA := feed.Subscribe(driverID, func(models.LocationUpdate) {
		mu.Lock()
		counts["a"]++
		mu.Unlock()
	})
	subB := feed.Subscribe(driverID, func(models.LocationUpdate) {
		mu.Lock()
		counts["b"]++
		mu.Unlock()
	})

	feed.Apply(update(driverID, 1, 1, time.Now()))

	mu.Lock()
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("counts = %v, want both 1", counts)
	}
	mu.Unlock()

	subA.Unsubscribe()
	feed.Apply(update(driverID, 2, 2, time.Now().Add(time.Second)))

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 1 {
		t.Errorf("unsubscribed observer received a delivery, count = %d", counts["a"])
	}
	if counts["b"] != 2 {
		t.Errorf("remaining observer count = %d, want 2", counts["b"])
	}

	subB.Unsubscribe()
	if n := feed.SubscriberCount(driverID); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}

func TestFeedUnsubscribeIdempotent(t *testing.T) {
	feed := NewFeed()
	driverID := uuid.MustNew()

	sub1 := feed.Subscribe(driverID, func(models.LocationUpdate) {})
	sub2 := feed.Subscribe(driverID, func(models.LocationUpdate) {})

	sub1.Unsubscribe()
	sub1.Unsubscribe()
	sub1.Unsubscribe()

	// the double unsubscribe must not have removed the other subscriber
	if n := feed.SubscriberCount(driverID); n != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", n)
	}
	sub2.Unsubscribe()
}

func TestFeedLateSubscriberSeesNoHistory(t *testing.T) {
	feed := NewFeed()
	driverID := uuid.MustNew()
	base := time.Now()

	feed.Apply(update(driverID, 7, 8, base))

	var seen []models.LocationUpdate
	sub := feed.Subscribe(driverID, func(u models.LocationUpdate) {
		seen = append(seen, u)
	})
	defer sub.Unsubscribe()

	if len(seen) != 0 {
		t.Fatalf("late subscriber received %d pre-subscription sample(s)", len(seen))
	}

	// The held position stays reachable as an explicit pull.
	if current, ok := feed.Latest(driverID); !ok || current.Lat != 7 || current.Lng != 8 {
		t.Errorf("Latest() = %+v, %v, want the held position", current, ok)
	}

	feed.Apply(update(driverID, 9, 10, base.Add(time.Second)))

	if len(seen) != 1 || seen[0].Lat != 9 {
		t.Errorf("subscriber saw %+v, want only the post-subscription sample", seen)
	}
}

func TestFeedDriversAreIndependent(t *testing.T) {
	feed := NewFeed()
	driverA := uuid.MustNew()
	driverB := uuid.MustNew()

	delivered := 0
	sub := feed.Subscribe(driverA, func(models.LocationUpdate) { delivered++ })
	defer sub.Unsubscribe()

	feed.Apply(update(driverB, 1, 1, time.Now()))

	if delivered != 0 {
		t.Errorf("subscriber for driver A saw driver B's position")
	}
}
