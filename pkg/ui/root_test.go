package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labnet/LabClient/model"
	"github.com/labnet/LabClient/pkg/coordinator"
)

type fakeManager struct {
	connected    bool
	places       []model.Place
	resources    []model.Resource
	reservations []model.Reservation

	placeCb      func(coordinator.PlaceEvent) error
	syncs        int
	unregistered int
}

func (f *fakeManager) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeManager) Client() *coordinator.Client {
	c, err := coordinator.NewClient("localhost:20408")
	if err != nil {
		panic(err)
	}
	return c
}

func (f *fakeManager) Connected() bool {
	return f.connected
}

func (f *fakeManager) GetPlaces() []model.Place {
	return f.places
}

func (f *fakeManager) GetPlace(name string) (model.Place, error) {
	for _, p := range f.places {
		if p.HasName(name) {
			return p, nil
		}
	}
	return model.Place{}, errors.Wrapf(model.NotFoundError, "place '%s'", name)
}

func (f *fakeManager) GetResources() []model.Resource {
	return f.resources
}

func (f *fakeManager) GetReservations() []model.Reservation {
	return f.reservations
}

func (f *fakeManager) TriggerSync() {
	f.syncs++
}

func (f *fakeManager) RefreshReservations(ctx context.Context) error {
	return nil
}

func (f *fakeManager) countingCancel() context.CancelFunc {
	return func() {
		f.unregistered++
	}
}

func (f *fakeManager) RegisterConnectionReceiver(cb func(coordinator.ConnectionEvent) error) context.CancelFunc {
	return f.countingCancel()
}

func (f *fakeManager) RegisterPlaceReceiver(cb func(coordinator.PlaceEvent) error) context.CancelFunc {
	f.placeCb = cb
	return f.countingCancel()
}

func (f *fakeManager) RegisterResourceReceiver(cb func(coordinator.ResourceEvent) error) context.CancelFunc {
	return f.countingCancel()
}

func (f *fakeManager) RegisterReservationsReceiver(cb func(coordinator.ReservationsEvent) error) context.CancelFunc {
	return f.countingCancel()
}

func (f *fakeManager) RegisterSyncReceiver(cb func(coordinator.SyncEvent) error) context.CancelFunc {
	return f.countingCancel()
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		connected: true,
		places: []model.Place{
			{Name: "board-1", Acquired: "host/alice", Tags: map[string]string{"soc": "imx8"}, Changed: float64(time.Now().Unix())},
			{Name: "board-2"},
		},
		resources: []model.Resource{
			{Path: model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "power"}, Class: "ExternalPower", Avail: true},
			{Path: model.ResourcePath{ExporterName: "rack1", GroupName: "main", ResourceName: "plug"}, Class: "TasmotaPowerPort", Avail: false},
		},
		reservations: []model.Reservation{
			{Owner: "host/alice", Token: "tok-1", State: model.ReservationStateAcquired,
				Allocations: map[string][]string{"main": {"board-1"}}, Created: float64(time.Now().Unix())},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, r Root, msg tea.Msg) (Root, tea.Cmd) {
	t.Helper()
	m, cmd := r.Update(msg)
	root, ok := m.(Root)
	require.True(t, ok)
	return root, cmd
}

func TestRootView(t *testing.T) {
	r := New(newFakeManager())
	defer r.Release()
	r, _ = update(t, r, tea.WindowSizeMsg{Width: 120, Height: 30})

	view := r.View()
	assert.Contains(t, view, "LabNet")
	assert.Contains(t, view, "Places")
	assert.Contains(t, view, "board-1")
	assert.Contains(t, view, "host/alice")
	assert.Contains(t, view, "connected")
	assert.NotContains(t, view, "disconnected")
}

func TestRootDisconnected(t *testing.T) {
	manager := newFakeManager()
	manager.connected = false
	r := New(manager)
	defer r.Release()

	assert.Contains(t, r.View(), "disconnected")
}

func TestRootTabs(t *testing.T) {
	r := New(newFakeManager())
	defer r.Release()

	assert.Equal(t, tabPlaces, r.tab)
	r, _ = update(t, r, keyMsg("tab"))
	assert.Equal(t, tabResources, r.tab)
	assert.Contains(t, r.View(), "rack1/main/power")
	r, _ = update(t, r, keyMsg("tab"))
	assert.Equal(t, tabReservations, r.tab)
	assert.Contains(t, r.View(), "tok-1")
	r, _ = update(t, r, keyMsg("tab"))
	assert.Equal(t, tabPlaces, r.tab)
	r, _ = update(t, r, keyMsg("shift+tab"))
	assert.Equal(t, tabReservations, r.tab)
}

func TestRootAvailFilter(t *testing.T) {
	r := New(newFakeManager())
	defer r.Release()
	r, _ = update(t, r, keyMsg("tab"))
	require.Len(t, r.resources.Rows(), 2)

	r, _ = update(t, r, keyMsg("f"))
	require.Len(t, r.resources.Rows(), 1)
	assert.Equal(t, "rack1/main/power", r.resources.Rows()[0][0])
	assert.Contains(t, r.View(), "available only")

	r, _ = update(t, r, keyMsg("f"))
	require.Len(t, r.resources.Rows(), 2)
}

func TestRootStateChanged(t *testing.T) {
	manager := newFakeManager()
	r := New(manager)
	defer r.Release()
	require.Len(t, r.places.Rows(), 2)

	manager.places = append(manager.places, model.Place{Name: "board-3"})
	require.NotNil(t, manager.placeCb)
	require.NoError(t, manager.placeCb(coordinator.PlaceEvent{Name: "board-3"}))

	msg := r.waitForChange()()
	require.IsType(t, stateChangedMsg{}, msg)
	r, _ = update(t, r, msg)
	assert.Len(t, r.places.Rows(), 3)
}

func TestRootActions(t *testing.T) {
	r := New(newFakeManager())
	defer r.Release()

	// Acquire and release act on the selected place.
	_, cmd := update(t, r, keyMsg("a"))
	assert.NotNil(t, cmd)
	_, cmd = update(t, r, keyMsg("d"))
	assert.NotNil(t, cmd)

	// Not on the other tabs.
	resources, _ := update(t, r, keyMsg("tab"))
	_, cmd = update(t, resources, keyMsg("a"))
	assert.Nil(t, cmd)
}

func TestRootActionDone(t *testing.T) {
	manager := newFakeManager()
	r := New(manager)
	defer r.Release()

	r, _ = update(t, r, actionDoneMsg{action: "acquire board-1"})
	assert.Contains(t, r.View(), "acquire board-1: ok")
	assert.Equal(t, 1, manager.syncs)

	r, _ = update(t, r, actionDoneMsg{action: "release board-1", err: errors.New("denied")})
	assert.Contains(t, r.View(), "release board-1: denied")
}

func TestRootRelease(t *testing.T) {
	manager := newFakeManager()
	r := New(manager)
	r.Release()
	assert.Equal(t, 4, manager.unregistered)
}

func TestRootSmallWindow(t *testing.T) {
	r := New(newFakeManager())
	defer r.Release()
	r, _ = update(t, r, tea.WindowSizeMsg{Width: 20, Height: 4})
	assert.NotEmpty(t, r.View())
}

func TestAge(t *testing.T) {
	assert.Equal(t, "-", age(0))
	assert.Contains(t, age(float64(time.Now().Add(-2*time.Minute).Unix())), "minute")
}

func TestFormatTags(t *testing.T) {
	assert.Equal(t, "", formatTags(nil))
	assert.Equal(t, "a=1 b=2", formatTags(map[string]string{"b": "2", "a": "1"}))
}
