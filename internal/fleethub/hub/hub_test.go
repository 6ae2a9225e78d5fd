package hub

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/auth"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/store"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Presence
}

func (n *recordingNotifier) Notify(p Presence) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, p)
}

func (n *recordingNotifier) list() []Presence {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Presence(nil), n.events...)
}

type recordingBackup struct {
	mu      sync.Mutex
	uploads [][]byte
}

func (b *recordingBackup) Upload(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, data)
	return nil
}

type fixture struct {
	hub      *Hub
	registry *registry.Registry
	notifier *recordingNotifier
	backup   *recordingBackup
	clock    *testingclock.FakeClock
	path     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		registry: registry.New(),
		notifier: &recordingNotifier{},
		backup:   &recordingBackup{},
		clock:    testingclock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		path:     filepath.Join(t.TempDir(), "DB.json"),
	}
	if _, err := f.registry.RegisterCar("AAA", "TestCar", nil, nil); err != nil {
		t.Fatal(err)
	}
	f.hub = New(f.registry, f.path, WithNotifier(f.notifier), WithBackup(f.backup), WithClock(f.clock))

	ctx, cancel := context.WithCancel(context.Background())
	go f.hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-f.hub.Stopped()
	})
	return f
}

func (f *fixture) vehicle(t *testing.T, id string) *model.Vehicle {
	t.Helper()
	v, err := f.hub.Vehicle(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func (f *fixture) active(t *testing.T) []string {
	t.Helper()
	ids, err := f.hub.ActiveIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return ids
}

func TestConnectDisconnectScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, env, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatalf("Connect(AAA) error = %v", err)
	}
	if env.Event != protocol.EventConnected {
		t.Errorf("Connect(AAA) event = %q, want %q", env.Event, protocol.EventConnected)
	}
	if got := f.vehicle(t, "AAA").Status; got != model.Online {
		t.Errorf("status after connect = %v, want Online", got)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active after connect = %v, want [AAA]", got)
	}

	f.clock.Step(90 * time.Second)
	if err := f.hub.Disconnect(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if got := f.vehicle(t, "AAA").Status; got != model.Offline {
		t.Errorf("status after disconnect = %v, want Offline", got)
	}
	if got := f.active(t); len(got) != 0 {
		t.Errorf("active after disconnect = %v, want empty", got)
	}

	presence := f.notifier.list()
	if len(presence) != 2 || !presence[0].Online || presence[1].Online || presence[1].Status != model.Offline {
		t.Errorf("presence notifications = %+v", presence)
	}
}

func TestRejectedConnectionsLeaveNoTrace(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"missing id", "", auth.ErrNoID},
		{"unknown id", "ZZZ", auth.ErrUnknownID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, env, err := f.hub.Connect(context.Background(), tt.id)
			if !errors.Is(err, tt.wantErr) || sess != nil {
				t.Fatalf("Connect(%q) = %v, %v; want nil, %v", tt.id, sess, err, tt.wantErr)
			}
			var msg string
			if env.Event != protocol.EventConnectError || json.Unmarshal(env.Data, &msg) != nil || msg != tt.wantErr.Error() {
				t.Errorf("envelope = %s %s", env.Event, env.Data)
			}
		})
	}

	if got := f.active(t); len(got) != 0 {
		t.Errorf("active = %v, want empty", got)
	}
	if got := f.vehicle(t, "AAA").Status; got != model.New {
		t.Errorf("status = %v, want New", got)
	}
	if len(f.notifier.list()) != 0 {
		t.Error("rejected connections produced presence notifications")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := f.hub.Disconnect(ctx, sess); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.hub.Disconnect(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if got := f.vehicle(t, "AAA").Status; got != model.Offline {
		t.Errorf("status = %v, want Offline", got)
	}
	if len(f.notifier.list()) != 2 {
		t.Errorf("presence notifications = %d, want 2", len(f.notifier.list()))
	}
}

func TestSecondSessionKeepsSingleTrackerEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, _ := f.hub.Connect(ctx, "AAA")
	second, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active with two sessions = %v", got)
	}

	f.hub.Disconnect(ctx, first)
	if got := f.vehicle(t, "AAA").Status; got != model.Online {
		t.Errorf("status with one session left = %v, want Online", got)
	}

	f.hub.Disconnect(ctx, second)
	if got := f.vehicle(t, "AAA").Status; got != model.Offline {
		t.Errorf("status after last session = %v, want Offline", got)
	}
}

func TestRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.hub.Connect(ctx, "AAA")

	tests := []struct {
		name      string
		data      string
		wantEvent string
		wantData  string
	}{
		{"getActive", `["getActive"]`, protocol.EventResponse,
			`{"request":["getActive"],"response":[{"id":"AAA","name":"TestCar","type":"Car","status":"Online","settings":{},"info":{}}]}`},
		{"getID", `["getID","AAA"]`, protocol.EventResponse,
			`{"request":["getID","AAA"],"response":[{"id":"AAA","name":"TestCar","type":"Car","status":"Online","settings":{},"info":{}}]}`},
		{"bare string", `"getAll"`, protocol.EventResponse,
			`{"request":["getAll"],"response":{"registry":{"AAA":{"id":"AAA","name":"TestCar","type":"Car","status":"Online","settings":{},"info":{}}}}}`},
		{"bogus", `["bogus"]`, protocol.EventError, `"the command \"bogus\" was not recognized"`},
		{"getID unknown", `["getID","AAA","ZZZ"]`, protocol.EventError, `"vehicle with ID ZZZ does not exist"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.hub.Request(ctx, sess, json.RawMessage(tt.data))
			if env.Event != tt.wantEvent || string(env.Data) != tt.wantData {
				t.Errorf("Request(%s) = %s %s\nwant %s %s", tt.data, env.Event, env.Data, tt.wantEvent, tt.wantData)
			}
		})
	}
}

func TestRequestAfterDisconnect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, _, _ := f.hub.Connect(ctx, "AAA")
	f.hub.Disconnect(ctx, sess)

	env := f.hub.Request(ctx, sess, json.RawMessage(`["getActive"]`))
	if env.Event != protocol.EventError {
		t.Errorf("Request on closed session = %s %s", env.Event, env.Data)
	}
}

func TestAdminOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.hub.RegisterCar(ctx, "BBB", "Second", map[string]any{"autopilot": false}, nil)
	if err != nil || v.Status != model.New {
		t.Fatalf("RegisterCar() = %+v, %v", v, err)
	}
	if _, err := f.hub.RegisterCar(ctx, "BBB", "Again", nil, nil); !errors.Is(err, registry.ErrDuplicateID) {
		t.Errorf("duplicate RegisterCar() error = %v", err)
	}

	if err := f.hub.Fault(ctx, "BBB", "battery"); err != nil {
		t.Fatal(err)
	}
	if got := f.vehicle(t, "BBB").Status; got != model.Error {
		t.Errorf("status after fault = %v, want Error", got)
	}
	if err := f.hub.Fault(ctx, "ZZZ", "x"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Fault(ZZZ) error = %v", err)
	}

	// A faulty vehicle may still connect.
	sess, _, err := f.hub.Connect(ctx, "BBB")
	if err != nil {
		t.Fatal(err)
	}
	f.hub.Disconnect(ctx, sess)

	if err := f.hub.DeleteCar(ctx, "BBB"); err != nil {
		t.Fatal(err)
	}
	if err := f.hub.DeleteCar(ctx, "BBB"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.hub.Vehicle(ctx, "BBB"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Vehicle(BBB) after delete error = %v", err)
	}

	out, err := f.hub.Dispatch(ctx, "getID", []string{"AAA"})
	if err != nil || len(out) == 0 || out[0] != '[' {
		t.Errorf("Dispatch(getID) = %s, %v", out, err)
	}
}

func TestSaveAndReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.hub.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(f.backup.uploads) != 1 {
		t.Fatalf("backup uploads = %d, want 1", len(f.backup.uploads))
	}

	// Reloading our own write is a no-op.
	if err := f.hub.Reload(ctx); err != nil {
		t.Fatal(err)
	}

	sess, _, _ := f.hub.Connect(ctx, "AAA")
	defer f.hub.Disconnect(ctx, sess)

	edited := store.Snapshot{
		"AAA": model.NewCar("AAA", "Renamed", nil, nil),
		"CCC": model.NewCar("CCC", "Added by hand", nil, nil),
	}
	if _, err := store.Write(f.path, edited); err != nil {
		t.Fatal(err)
	}
	if err := f.hub.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	aaa := f.vehicle(t, "AAA")
	if aaa.Name != "Renamed" || aaa.Status != model.Online {
		t.Errorf("AAA after reload = %+v", aaa)
	}
	if _, err := f.hub.Vehicle(ctx, "CCC"); err != nil {
		t.Errorf("CCC not added by reload: %v", err)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active after reload = %v", got)
	}
}

func TestReloadCorruptKeepsRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := store.WriteFile(f.path, []byte(`{"AAA":`)); err != nil {
		t.Fatal(err)
	}
	if err := f.hub.Reload(ctx); !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("Reload() error = %v, want ErrCorrupt", err)
	}
	if _, err := f.hub.Vehicle(ctx, "AAA"); err != nil {
		t.Errorf("registry lost AAA after a corrupt reload: %v", err)
	}
}

func TestStaleOnlineStatusIsCleared(t *testing.T) {
	reg := registry.New()
	v, _ := reg.RegisterCar("AAA", "TestCar", nil, nil)
	v.Status = model.Online

	New(reg, filepath.Join(t.TempDir(), "DB.json"))
	if v.Status != model.Offline {
		t.Errorf("status = %v, want Offline", v.Status)
	}
}

func TestStoppedHubRejectsEvents(t *testing.T) {
	h := New(registry.New(), filepath.Join(t.TempDir(), "DB.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	if _, _, err := h.Connect(context.Background(), "AAA"); !errors.Is(err, ErrStopped) {
		t.Errorf("Connect() on stopped hub error = %v, want ErrStopped", err)
	}
}

func TestRunClosesOpenSessions(t *testing.T) {
	reg := registry.New()
	reg.RegisterCar("AAA", "TestCar", nil, nil)
	h := New(reg, filepath.Join(t.TempDir(), "DB.json"))

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	if _, _, err := h.Connect(context.Background(), "AAA"); err != nil {
		t.Fatal(err)
	}
	cancel()
	<-h.Stopped()

	vs, _ := reg.GetByID("AAA")
	if vs[0].Status != model.Offline {
		t.Errorf("status after shutdown = %v, want Offline", vs[0].Status)
	}
}

// fleetView returns the status of id as seen by getAll and the
// (id, status) pairs listed by getActive.
func (f *fixture) fleetView(t *testing.T, id string) (model.VehicleStatus, []string) {
	t.Helper()
	ctx := context.Background()

	raw, err := f.hub.Dispatch(ctx, "getAll", nil)
	if err != nil {
		t.Fatal(err)
	}
	var all struct {
		Registry map[string]*model.Vehicle `json:"registry"`
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatal(err)
	}
	v, ok := all.Registry[id]
	if !ok {
		t.Fatalf("getAll has no %s: %s", id, raw)
	}

	raw, err = f.hub.Dispatch(ctx, "getActive", nil)
	if err != nil {
		t.Fatal(err)
	}
	var active []*model.Vehicle
	if err := json.Unmarshal(raw, &active); err != nil {
		t.Fatal(err)
	}
	pairs := make([]string, 0, len(active))
	for _, a := range active {
		pairs = append(pairs, a.ID+"/"+a.Status.String()+"/"+a.Name)
	}
	return v.Status, pairs
}

func TestReRegisterWhileConnected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.hub.DeleteCar(ctx, "AAA"); err != nil {
		t.Fatal(err)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active after delete = %v, want the deleted vehicle still tracked", got)
	}

	if _, err := f.hub.RegisterCar(ctx, "AAA", "Rebuilt", nil, nil); err != nil {
		t.Fatal(err)
	}
	status, active := f.fleetView(t, "AAA")
	if status != model.Online || !reflect.DeepEqual(active, []string{"AAA/Online/Rebuilt"}) {
		t.Errorf("after re-register: getAll status %v, getActive %v", status, active)
	}

	second, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}
	status, active = f.fleetView(t, "AAA")
	if status != model.Online || !reflect.DeepEqual(active, []string{"AAA/Online/Rebuilt"}) {
		t.Errorf("after second login: getAll status %v, getActive %v", status, active)
	}

	f.hub.Disconnect(ctx, first)
	if got := f.vehicle(t, "AAA").Status; got != model.Online {
		t.Errorf("status with one session left = %v, want Online", got)
	}

	f.hub.Disconnect(ctx, second)
	status, active = f.fleetView(t, "AAA")
	if status != model.Offline || len(active) != 0 {
		t.Errorf("after last disconnect: getAll status %v, getActive %v", status, active)
	}
}

func TestLoginMovesSessionsOfReplacedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, _ := f.hub.Connect(ctx, "AAA")

	// Swap the record behind the hub's back; the next login must still
	// move the open session over.
	if err := f.hub.do(ctx, func() {
		f.registry.DeleteCar("AAA")
		f.registry.RegisterCar("AAA", "Swapped", nil, nil)
	}); err != nil {
		t.Fatal(err)
	}

	second, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}
	status, active := f.fleetView(t, "AAA")
	if status != model.Online || !reflect.DeepEqual(active, []string{"AAA/Online/Swapped"}) {
		t.Errorf("after login: getAll status %v, getActive %v", status, active)
	}

	f.hub.Disconnect(ctx, first)
	f.hub.Disconnect(ctx, second)
	if got := f.vehicle(t, "AAA").Status; got != model.Offline {
		t.Errorf("status after disconnect = %v, want Offline", got)
	}
}

func TestReloadRemovesAndReAddsConnectedVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Write(f.path, store.Snapshot{"BBB": model.NewCar("BBB", "Other", nil, nil)}); err != nil {
		t.Fatal(err)
	}
	if err := f.hub.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.hub.Vehicle(ctx, "AAA"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("AAA still registered after reload: %v", err)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active after removal = %v, want AAA until it disconnects", got)
	}

	stale := model.NewCar("AAA", "Back", nil, nil)
	stale.Status = model.Online
	if _, err := store.Write(f.path, store.Snapshot{"AAA": stale}); err != nil {
		t.Fatal(err)
	}
	if err := f.hub.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	status, active := f.fleetView(t, "AAA")
	if status != model.Online || !reflect.DeepEqual(active, []string{"AAA/Online/Back"}) {
		t.Errorf("after re-add: getAll status %v, getActive %v", status, active)
	}

	f.hub.Disconnect(ctx, sess)
	status, active = f.fleetView(t, "AAA")
	if status != model.Offline || len(active) != 0 {
		t.Errorf("after disconnect: getAll status %v, getActive %v", status, active)
	}
}

func TestLoginClearsFaultOfConnectedVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _, _ := f.hub.Connect(ctx, "AAA")
	if err := f.hub.Fault(ctx, "AAA", "sensor"); err != nil {
		t.Fatal(err)
	}

	second, _, err := f.hub.Connect(ctx, "AAA")
	if err != nil {
		t.Fatal(err)
	}
	if got := f.vehicle(t, "AAA").Status; got != model.Online {
		t.Errorf("status after second login = %v, want Online", got)
	}
	if got := f.active(t); !reflect.DeepEqual(got, []string{"AAA"}) {
		t.Errorf("active = %v, want [AAA]", got)
	}

	f.hub.Disconnect(ctx, first)
	f.hub.Disconnect(ctx, second)
	if got := f.vehicle(t, "AAA").Status; got != model.Offline {
		t.Errorf("status after disconnect = %v, want Offline", got)
	}
}
