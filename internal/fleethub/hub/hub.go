// Package hub owns the fleet state and serializes every event against it.
//
// A Hub holds the registry, the active tracker, the authenticator and the
// dispatcher. Run processes one event at a time, to completion, in arrival
// order. Transports call the exported methods from any goroutine. Each call
// blocks until the loop has handled it.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/auth"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/dispatch"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/tracker"
	"github.com/autopeer-io/fleethub/internal/pkg/metrics"
	"github.com/autopeer-io/fleethub/pkg/log"
)

// ErrStopped is returned for events submitted after Run has returned.
var ErrStopped = errors.New("hub stopped")

// Presence describes a change of a vehicle's connection state.
type Presence struct {
	VehicleID string              `json:"vehicleId"`
	Online    bool                `json:"online"`
	Status    model.VehicleStatus `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
}

// Notifier receives presence changes. Notify must not block.
type Notifier interface {
	Notify(p Presence)
}

// Backup stores a copy of every snapshot written.
type Backup interface {
	Upload(ctx context.Context, data []byte) error
}

// Option configures a Hub.
type Option func(*Hub)

// WithNotifier publishes presence changes to n.
func WithNotifier(n Notifier) Option {
	return func(h *Hub) { h.notifier = n }
}

// WithBackup uploads every written snapshot to b.
func WithBackup(b Backup) Option {
	return func(h *Hub) { h.backup = b }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.PassiveClock) Option {
	return func(h *Hub) { h.clock = c }
}

// Hub is the server context of the fleet hub.
type Hub struct {
	registry   *registry.Registry
	tracker    *tracker.Tracker
	auth       *auth.Authenticator
	dispatcher *dispatch.Dispatcher

	events  chan func()
	stopped chan struct{}

	// sessions and online are touched only by the loop.
	sessions map[string]*Session
	online   map[string]int

	snapshotPath string
	notifier     Notifier
	backup       Backup
	clock        clock.PassiveClock

	// saveMu serializes snapshot writes and reloads and guards lastDigest.
	saveMu     sync.Mutex
	lastDigest [32]byte
}

// New builds a hub around reg, which must not be used by anyone else afterwards.
// Vehicles recorded as Online in reg have no connection yet and are moved Offline.
func New(reg *registry.Registry, snapshotPath string, opts ...Option) *Hub {
	tr := tracker.New()
	h := &Hub{
		registry:     reg,
		tracker:      tr,
		auth:         auth.New(reg),
		dispatcher:   dispatch.New(reg, tr),
		events:       make(chan func()),
		stopped:      make(chan struct{}),
		sessions:     make(map[string]*Session),
		online:       make(map[string]int),
		snapshotPath: snapshotPath,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, v := range reg.All() {
		if v.Status == model.Online {
			v.Status = model.Offline
		}
	}
	h.updateGauges()
	return h
}

// Run processes events until ctx is canceled. Sessions still open at that
// point are closed as if their connections had dropped.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)

	log.Info("Fleet hub event loop started", "vehicles", h.registry.Len())
	for {
		select {
		case <-ctx.Done():
			for _, s := range h.sessions {
				h.disconnect(s)
			}
			log.Info("Fleet hub event loop stopped")
			return nil
		case fn := <-h.events:
			fn()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (h *Hub) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	event := func() {
		defer close(done)
		fn()
	}

	select {
	case h.events <- event:
	case <-h.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// Commands returns the names of every dispatchable command.
func (h *Hub) Commands() []string {
	return h.dispatcher.Commands()
}

// Stopped is closed once Run has returned.
func (h *Hub) Stopped() <-chan struct{} {
	return h.stopped
}

func (h *Hub) notify(v *model.Vehicle) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(Presence{
		VehicleID: v.ID,
		Online:    h.online[v.ID] > 0,
		Status:    v.Status,
		Timestamp: h.clock.Now(),
	})
}

func (h *Hub) updateGauges() {
	metrics.ActiveVehicles.Set(float64(h.tracker.Len()))
	metrics.RegisteredVehicles.Set(float64(h.registry.Len()))
}
