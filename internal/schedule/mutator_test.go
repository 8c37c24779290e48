package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI управляемая замена сервиса расписания
type fakeAPI struct {
	mu sync.Mutex

	createErr error
	updateErr error
	deleteErr error

	createCalls int
	updateCalls int
	deleteCalls int
	listCalls   int

	lastUpdateID string
	lastDeleteID string

	listSlots []*model.ScheduleSlot
	listErr   error

	// unblock != nil: CreateSlot висит до закрытия канала
	unblock chan struct{}

	nextRecordID int
}

func (f *fakeAPI) ListSlots(ctx context.Context, from, to time.Time) ([]*model.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.listSlots, f.listErr
}

func (f *fakeAPI) CreateSlot(ctx context.Context, date time.Time, slotID model.SlotID) (*model.ScheduleSlot, error) {
	f.mu.Lock()
	unblock := f.unblock
	f.createCalls++
	f.mu.Unlock()

	if unblock != nil {
		<-unblock
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextRecordID++
	return &model.ScheduleSlot{
		ID:     fmt.Sprintf("rec_%d", f.nextRecordID),
		Date:   date,
		SlotID: slotID,
		Status: model.SlotStatusReserved,
	}, nil
}

func (f *fakeAPI) UpdateSlotStatus(ctx context.Context, recordID string, status model.SlotStatus) (*model.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdateID = recordID
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &model.ScheduleSlot{
		ID:     recordID,
		Date:   testDay,
		SlotID: model.Slot1,
		Status: status,
	}, nil
}

func (f *fakeAPI) DeleteSlot(ctx context.Context, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	f.lastDeleteID = recordID
	return f.deleteErr
}

// fakeRefresher считает запланированные сверки
type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) ScheduleRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixedNow() time.Time {
	// Среда 5 июня 2024, середина рабочего дня
	return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
}

func newTestMutator(api *fakeAPI) (*Mutator, *Store, *fakeRefresher) {
	store := NewStore()
	refresher := &fakeRefresher{}
	m := NewMutator(store, api, refresher, zap.NewNop()).WithNow(fixedNow)
	return m, store, refresher
}

func TestOpenCreatesSlot(t *testing.T) {
	api := &fakeAPI{}
	m, store, refresher := newTestMutator(api)

	err := m.Open(context.Background(), testDay, model.Slot1)
	require.NoError(t, err)

	slot, ok := store.Lookup(testDay, model.Slot1)
	require.True(t, ok)
	assert.Equal(t, "rec_1", slot.ID)
	assert.Equal(t, model.SlotStatusReserved, slot.Status)
	assert.False(t, slot.Optimistic)

	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, 0, api.updateCalls)
	assert.Equal(t, 1, refresher.count(), "exactly one refresh per successful mutation")
}

func TestOpenUpdatesExistingRecord(t *testing.T) {
	api := &fakeAPI{}
	m, store, _ := newTestMutator(api)

	// Деактивированная запись: материализована, но со статусом Empty
	store.Load([]*model.ScheduleSlot{{
		ID:     "rec_77",
		Date:   testDay,
		SlotID: model.Slot1,
		Status: model.SlotStatusEmpty,
	}})

	err := m.Open(context.Background(), testDay, model.Slot1)
	require.NoError(t, err)

	assert.Equal(t, 0, api.createCalls, "existing record must be updated, not recreated")
	assert.Equal(t, 1, api.updateCalls)
	assert.Equal(t, "rec_77", api.lastUpdateID)
}

func TestOpenPastDateRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	m, store, refresher := newTestMutator(api)

	yesterday := DateOf(fixedNow()).AddDate(0, 0, -1)
	err := m.Open(context.Background(), yesterday, model.Slot1)

	assert.ErrorIs(t, err, ErrPastDate)
	assert.Equal(t, 0, api.createCalls, "past date must not reach the network")
	assert.Equal(t, 0, refresher.count())
	assert.Empty(t, store.Slots())
}

func TestOpenTodayAllowed(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestMutator(api)

	err := m.Open(context.Background(), DateOf(fixedNow()), model.Slot12)
	assert.NoError(t, err, "today is not a past date")
}

func TestOpenAlreadyOpenRejected(t *testing.T) {
	api := &fakeAPI{}
	m, store, _ := newTestMutator(api)
	store.Load([]*model.ScheduleSlot{reservedSlot("rec_1", testDay, model.Slot1)})

	err := m.Open(context.Background(), testDay, model.Slot1)

	assert.ErrorIs(t, err, ErrAlreadyOpen)
	assert.Equal(t, 0, api.createCalls)
}

func TestOpenUnknownSlotID(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestMutator(api)

	err := m.Open(context.Background(), testDay, model.SlotID("SLOT_13"))
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestOpenRollbackOnCreateFailure(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("connection refused")}
	m, store, refresher := newTestMutator(api)

	err := m.Open(context.Background(), testDay, model.Slot1)
	require.Error(t, err)

	// Слот вернулся к подразумеваемому пустому, оптимистичной записи нет
	_, ok := store.Lookup(testDay, model.Slot1)
	assert.False(t, ok)
	assert.Equal(t, model.SlotStatusEmpty, store.Find(testDay, model.Slot1).Status)
	assert.Equal(t, 0, refresher.count(), "failed mutation must not schedule a refresh")
}

func TestOpenRollbackRestoresDeactivatedRecord(t *testing.T) {
	api := &fakeAPI{updateErr: errors.New("boom")}
	m, store, _ := newTestMutator(api)

	prior := &model.ScheduleSlot{
		ID:     "rec_77",
		Date:   testDay,
		SlotID: model.Slot1,
		Status: model.SlotStatusEmpty,
	}
	store.Load([]*model.ScheduleSlot{prior})

	err := m.Open(context.Background(), testDay, model.Slot1)
	require.Error(t, err)

	// Откат восстанавливает прежнюю запись дословно, включая её id
	slot, ok := store.Lookup(testDay, model.Slot1)
	require.True(t, ok)
	assert.Equal(t, prior, slot)
}

func TestOpenSurfacesServerErrorVerbatim(t *testing.T) {
	api := &fakeAPI{createErr: &scheduling.APIError{StatusCode: 409, Message: "Slot already booked"}}
	m, _, _ := newTestMutator(api)

	err := m.Open(context.Background(), testDay, model.Slot1)
	require.Error(t, err)

	var apiErr *scheduling.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Slot already booked", apiErr.Message)
}

func TestOpenOptimisticStateVisibleDuringRequest(t *testing.T) {
	unblock := make(chan struct{})
	api := &fakeAPI{unblock: unblock}
	m, store, _ := newTestMutator(api)

	done := make(chan error, 1)
	go func() {
		done <- m.Open(context.Background(), testDay, model.Slot1)
	}()

	// Пока запрос висит, в хранилище уже лежит оптимистичный Reserved
	require.Eventually(t, func() bool {
		slot, ok := store.Lookup(testDay, model.Slot1)
		return ok && slot.Optimistic && slot.Status == model.SlotStatusReserved
	}, time.Second, 5*time.Millisecond)

	close(unblock)
	require.NoError(t, <-done)

	slot, _ := store.Lookup(testDay, model.Slot1)
	assert.False(t, slot.Optimistic)
}

func TestOpenWhileOpenInFlight(t *testing.T) {
	unblock := make(chan struct{})
	api := &fakeAPI{unblock: unblock}
	m, _, _ := newTestMutator(api)

	done := make(chan error, 1)
	go func() {
		done <- m.Open(context.Background(), testDay, model.Slot1)
	}()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.createCalls == 1
	}, time.Second, 5*time.Millisecond)

	// Повторная операция по тому же слоту отклоняется, пока первая в пути
	err := m.Open(context.Background(), testDay, model.Slot1)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	err = m.Close(context.Background(), testDay, model.Slot1)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(unblock)
	require.NoError(t, <-done)
}

func TestCloseRemovesSlot(t *testing.T) {
	api := &fakeAPI{}
	m, store, refresher := newTestMutator(api)
	store.Load([]*model.ScheduleSlot{reservedSlot("rec_1", testDay, model.Slot1)})

	err := m.Close(context.Background(), testDay, model.Slot1)
	require.NoError(t, err)

	_, ok := store.Lookup(testDay, model.Slot1)
	assert.False(t, ok)
	assert.Equal(t, "rec_1", api.lastDeleteID)
	assert.Equal(t, 1, refresher.count())
}

func TestCloseNotOpenRejected(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestMutator(api)

	err := m.Close(context.Background(), testDay, model.Slot1)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Equal(t, 0, api.deleteCalls)
}

func TestCloseBusySlotIsNoop(t *testing.T) {
	api := &fakeAPI{}
	m, store, refresher := newTestMutator(api)

	busy := reservedSlot("rec_1", testDay, model.Slot1)
	busy.Status = model.SlotStatusBusy
	busy.Appointment = &model.AppointmentRef{ID: "apt_1", PatientName: "Петров П.П."}
	store.Load([]*model.ScheduleSlot{busy})

	err := m.Close(context.Background(), testDay, model.Slot1)
	require.NoError(t, err)

	// Занятый слот не трогаем: ни сети, ни изменений, ни сверки
	assert.Equal(t, 0, api.deleteCalls)
	assert.Equal(t, 0, refresher.count())
	slot, ok := store.Lookup(testDay, model.Slot1)
	require.True(t, ok)
	assert.Equal(t, model.SlotStatusBusy, slot.Status)
}

func TestCloseRollbackOnDeleteFailure(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("timeout")}
	m, store, refresher := newTestMutator(api)

	original := reservedSlot("rec_1", testDay, model.Slot1)
	store.Load([]*model.ScheduleSlot{original})

	err := m.Close(context.Background(), testDay, model.Slot1)
	require.Error(t, err)

	slot, ok := store.Lookup(testDay, model.Slot1)
	require.True(t, ok)
	assert.Equal(t, original, slot, "rollback must restore the removed slot verbatim")
	assert.Equal(t, 0, refresher.count())
}

func TestCloseUnconfirmedOptimisticSlot(t *testing.T) {
	api := &fakeAPI{}
	m, store, _ := newTestMutator(api)

	store.InsertOptimistic(&model.ScheduleSlot{
		Date:   testDay,
		SlotID: model.Slot1,
		Status: model.SlotStatusReserved,
	})

	err := m.Close(context.Background(), testDay, model.Slot1)
	assert.ErrorIs(t, err, ErrMutationInFlight)
	assert.Equal(t, 0, api.deleteCalls)
}
