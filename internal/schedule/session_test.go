package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(api RemoteAPI) *Session {
	return NewSession(SessionConfig{
		API:            api,
		ReconcileDelay: time.Millisecond,
		Now:            fixedNow,
		Logger:         zap.NewNop(),
	})
}

func TestSessionWindowStartsOnCurrentWeek(t *testing.T) {
	s := newTestSession(&fakeAPI{})
	assert.Equal(t, WeekStart(fixedNow()), s.Window().Start)
	assert.Equal(t, DateOf(fixedNow()), s.Today())
}

func TestEnsureLoadedOnce(t *testing.T) {
	api := &fakeAPI{listSlots: []*model.ScheduleSlot{reservedSlot("rec_1", testDay, model.Slot1)}}
	s := newTestSession(api)

	require.NoError(t, s.EnsureLoaded(context.Background()))
	require.NoError(t, s.EnsureLoaded(context.Background()))

	assert.Equal(t, 1, api.listCalls, "repeated EnsureLoaded must not reload")
	_, ok := s.Store().Lookup(testDay, model.Slot1)
	assert.True(t, ok)
}

func TestEnsureLoadedSurfacesFirstLoadError(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("network down")}
	s := newTestSession(api)

	err := s.EnsureLoaded(context.Background())
	require.Error(t, err)

	// Неудачная загрузка не помечает сессию загруженной
	api.mu.Lock()
	api.listErr = nil
	api.mu.Unlock()
	assert.NoError(t, s.EnsureLoaded(context.Background()))
}

func TestSessionNavigation(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)
	start := s.Window().Start

	s.NextWeek(context.Background())
	assert.Equal(t, start.AddDate(0, 0, 7), s.Window().Start)

	s.PreviousWeek(context.Background())
	assert.Equal(t, start, s.Window().Start)

	s.NextWeek(context.Background())
	s.NextWeek(context.Background())
	s.CurrentWeek(context.Background())
	assert.Equal(t, start, s.Window().Start)
}

func TestRegistryGetOrCreateReusesSession(t *testing.T) {
	created := 0
	reg := NewRegistry(func(user *model.User) (*Session, error) {
		created++
		return newTestSession(&fakeAPI{}), nil
	})

	user := &model.User{TelegramID: 42, APIToken: "token"}

	s1, err := reg.GetOrCreate(user)
	require.NoError(t, err)
	s2, err := reg.GetOrCreate(user)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, created)
}

func TestRegistryDrop(t *testing.T) {
	created := 0
	reg := NewRegistry(func(user *model.User) (*Session, error) {
		created++
		return newTestSession(&fakeAPI{}), nil
	})

	user := &model.User{TelegramID: 42}
	_, err := reg.GetOrCreate(user)
	require.NoError(t, err)

	reg.Drop(42)

	_, err = reg.GetOrCreate(user)
	require.NoError(t, err)
	assert.Equal(t, 2, created, "dropped session must be recreated on next access")
}

func TestRegistryFactoryError(t *testing.T) {
	reg := NewRegistry(func(user *model.User) (*Session, error) {
		return nil, errors.New("no token")
	})

	_, err := reg.GetOrCreate(&model.User{TelegramID: 42})
	assert.Error(t, err)
}

func TestRegistryEvictIdle(t *testing.T) {
	// Управляемые часы: обе сессии создаются "сейчас", потом время уходит вперёд
	current := fixedNow()
	now := func() time.Time { return current }

	makeSession := func() *Session {
		return NewSession(SessionConfig{
			API:    &fakeAPI{},
			Now:    now,
			Logger: zap.NewNop(),
		})
	}

	reg := NewRegistry(func(user *model.User) (*Session, error) {
		return makeSession(), nil
	})

	stale, err := reg.GetOrCreate(&model.User{TelegramID: 1})
	require.NoError(t, err)
	_ = stale

	current = current.Add(time.Hour)

	fresh, err := reg.GetOrCreate(&model.User{TelegramID: 2})
	require.NoError(t, err)
	_ = fresh

	evicted := reg.EvictIdle(30 * time.Minute)
	assert.Equal(t, 1, evicted)

	// Свежая сессия пережила чистку
	again, err := reg.GetOrCreate(&model.User{TelegramID: 2})
	require.NoError(t, err)
	assert.Same(t, fresh, again)
}
