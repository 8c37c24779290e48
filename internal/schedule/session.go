package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"go.uber.org/zap"
)

// SessionConfig зависимости одной сессии календаря
type SessionConfig struct {
	API            RemoteAPI
	ReconcileDelay time.Duration
	Now            func() time.Time // nil = time.Now
	Logger         *zap.Logger
}

// Session календарь одного врача: окно недели, хранилище слотов,
// мутатор и реконсилер. Принадлежит ровно одному чату и не разделяется
// между экранами.
type Session struct {
	mu         sync.Mutex
	window     Window
	loaded     bool
	lastActive time.Time

	store      *Store
	mutator    *Mutator
	reconciler *Reconciler
	now        func() time.Time
}

// NewSession создаёт сессию с окном текущей недели
func NewSession(cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		window:     NewWindow(now()),
		store:      NewStore(),
		now:        now,
		lastActive: now(),
	}

	s.reconciler = NewReconciler(s.store, cfg.API, s.Window, cfg.ReconcileDelay, cfg.Logger)
	s.mutator = NewMutator(s.store, cfg.API, s.reconciler, cfg.Logger).WithNow(now)

	return s
}

// Window текущее окно недели
func (s *Session) Window() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Store хранилище слотов сессии (для рендера сетки)
func (s *Session) Store() *Store {
	return s.store
}

// Today сегодняшняя календарная дата сессии
func (s *Session) Today() time.Time {
	return DateOf(s.now())
}

// EnsureLoaded выполняет первую, блокирующую загрузку недели.
// Единственная загрузка, чья ошибка показывается пользователю:
// прежнего состояния, к которому можно откатиться, ещё нет.
func (s *Session) EnsureLoaded(ctx context.Context) error {
	s.touch()

	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	if err := s.reconciler.Refresh(ctx, false); err != nil {
		return err
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Open открывает слот (Empty -> Reserved)
func (s *Session) Open(ctx context.Context, date time.Time, slotID model.SlotID) error {
	s.touch()
	return s.mutator.Open(ctx, date, slotID)
}

// Close закрывает слот (Reserved -> Empty)
func (s *Session) Close(ctx context.Context, date time.Time, slotID model.SlotID) error {
	s.touch()
	return s.mutator.Close(ctx, date, slotID)
}

// NextWeek листает окно на неделю вперёд с тихой сверкой
func (s *Session) NextWeek(ctx context.Context) {
	s.navigate(ctx, func(w Window) Window { return w.Next() })
}

// PreviousWeek листает окно на неделю назад с тихой сверкой
func (s *Session) PreviousWeek(ctx context.Context) {
	s.navigate(ctx, func(w Window) Window { return w.Previous() })
}

// CurrentWeek возвращает окно к неделе с сегодняшним днём
func (s *Session) CurrentWeek(ctx context.Context) {
	s.navigate(ctx, func(Window) Window { return NewWindow(s.now()) })
}

func (s *Session) navigate(ctx context.Context, shift func(Window) Window) {
	s.touch()

	s.mu.Lock()
	s.window = shift(s.window)
	s.mu.Unlock()

	// После первой загрузки все перечитывания недели тихие
	s.reconciler.Refresh(ctx, true) //nolint:errcheck
}

// IdleFor сколько времени сессию не трогали
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastActive)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// SessionFactory создаёт сессию для привязанного врача
type SessionFactory func(user *model.User) (*Session, error)

// Registry сессии календаря по Telegram ID
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	factory  SessionFactory
}

// NewRegistry создаёт реестр сессий
func NewRegistry(factory SessionFactory) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		factory:  factory,
	}
}

// GetOrCreate возвращает сессию пользователя, создавая её при первом обращении
func (r *Registry) GetOrCreate(user *model.User) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[user.TelegramID]; ok {
		return s, nil
	}

	s, err := r.factory(user)
	if err != nil {
		return nil, err
	}
	r.sessions[user.TelegramID] = s
	return s, nil
}

// Drop удаляет сессию пользователя (например, после смены токена)
func (r *Registry) Drop(telegramID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, telegramID)
}

// EvictIdle удаляет сессии, простоявшие без обращений дольше ttl.
// Возвращает число удалённых.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		if s.IdleFor() > ttl {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}
