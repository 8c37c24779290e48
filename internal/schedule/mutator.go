package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"go.uber.org/zap"
)

// Локальные отказы валидации: до сети не доходят,
// показываются пользователю сразу и отличимы от серверных ошибок
var (
	ErrPastDate         = errors.New("cannot schedule a past date")
	ErrAlreadyOpen      = errors.New("slot is already open")
	ErrNotOpen          = errors.New("slot is not open")
	ErrMutationInFlight = errors.New("previous operation on this slot is still in progress")
	ErrUnknownSlot      = errors.New("unknown slot id")
)

// RemoteAPI операции удалённого сервиса расписания, нужные мутатору
// и реконсилеру. Реализуется клиентом из internal/scheduling.
type RemoteAPI interface {
	ListSlots(ctx context.Context, from, to time.Time) ([]*model.ScheduleSlot, error)
	CreateSlot(ctx context.Context, date time.Time, slotID model.SlotID) (*model.ScheduleSlot, error)
	UpdateSlotStatus(ctx context.Context, recordID string, status model.SlotStatus) (*model.ScheduleSlot, error)
	DeleteSlot(ctx context.Context, recordID string) error
}

// RefreshScheduler планирует фоновую сверку после успешной мутации
type RefreshScheduler interface {
	ScheduleRefresh()
}

// Mutator выполняет переходы слота Empty <-> Reserved с оптимистичным
// обновлением хранилища и откатом при ошибке сети или сервера.
// Статус Busy принадлежит серверу: мутатор его не создаёт и не снимает.
type Mutator struct {
	store     *Store
	api       RemoteAPI
	refresher RefreshScheduler
	now       func() time.Time
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[slotKey]bool
}

// NewMutator создаёт мутатор поверх хранилища
func NewMutator(store *Store, api RemoteAPI, refresher RefreshScheduler, logger *zap.Logger) *Mutator {
	return &Mutator{
		store:     store,
		api:       api,
		refresher: refresher,
		now:       time.Now,
		logger:    logger,
		inFlight:  make(map[slotKey]bool),
	}
}

// WithNow подменяет источник времени (для тестов)
func (m *Mutator) WithNow(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// Open переводит слот Empty -> Reserved.
//
// Прошедшие даты и уже открытые/занятые слоты отклоняются локально без
// сетевого вызова. Хранилище сразу получает оптимистичную запись Reserved;
// затем идёт create (записи на сервере ещё нет) либо update статуса
// (есть деактивированная запись). Успех: оптимистичная запись заменяется
// серверной и планируется одна тихая сверка. Ошибка: откат к снимку
// состояния до мутации.
func (m *Mutator) Open(ctx context.Context, date time.Time, slotID model.SlotID) error {
	if !model.IsValidSlotID(slotID) {
		return ErrUnknownSlot
	}

	day := DateOf(date)
	if day.Before(DateOf(m.now())) {
		return ErrPastDate
	}

	key := keyOf(day, slotID)
	if !m.acquire(key) {
		return ErrMutationInFlight
	}
	defer m.release(key)

	// Снимок до мутации: откат восстанавливает его дословно,
	// а не "угадывает" прежнее состояние
	prev, existed := m.store.Lookup(day, slotID)
	if existed && prev.Status != model.SlotStatusEmpty {
		return ErrAlreadyOpen
	}

	tempID := m.store.InsertOptimistic(&model.ScheduleSlot{
		Date:   day,
		SlotID: slotID,
		Status: model.SlotStatusReserved,
	})

	var (
		confirmed *model.ScheduleSlot
		err       error
	)
	if existed && prev.IsMaterialized() {
		confirmed, err = m.api.UpdateSlotStatus(ctx, prev.ID, model.SlotStatusReserved)
	} else {
		confirmed, err = m.api.CreateSlot(ctx, day, slotID)
	}

	if err != nil {
		if existed {
			m.store.Restore(prev)
		} else {
			m.store.Remove(tempID)
		}
		m.logger.Warn("Failed to open slot",
			zap.String("date", day.Format(DateFormat)),
			zap.String("slot_id", string(slotID)),
			zap.Error(err))
		return fmt.Errorf("open slot: %w", err)
	}

	m.store.Replace(tempID, confirmed)
	m.refresher.ScheduleRefresh()

	m.logger.Info("Slot opened",
		zap.String("date", day.Format(DateFormat)),
		zap.String("slot_id", string(slotID)),
		zap.String("record_id", confirmed.ID))

	return nil
}

// Close переводит слот Reserved -> Empty.
//
// Занятый пациентом слот (Busy) неактивен: вызов молча ничего не делает.
// Слот убирается из хранилища до сетевого вызова delete; при ошибке
// снятая запись возвращается целиком, как была.
func (m *Mutator) Close(ctx context.Context, date time.Time, slotID model.SlotID) error {
	if !model.IsValidSlotID(slotID) {
		return ErrUnknownSlot
	}

	day := DateOf(date)

	key := keyOf(day, slotID)
	if !m.acquire(key) {
		return ErrMutationInFlight
	}
	defer m.release(key)

	cur, existed := m.store.Lookup(day, slotID)
	if !existed || cur.Status == model.SlotStatusEmpty {
		return ErrNotOpen
	}
	if cur.Status == model.SlotStatusBusy {
		// Сервер владеет занятыми слотами, клиент их не трогает
		return nil
	}
	if cur.Optimistic {
		// Открытие этого слота ещё не подтверждено
		return ErrMutationInFlight
	}

	snapshot := cur.Clone()
	m.store.Remove(cur.ID)

	if err := m.api.DeleteSlot(ctx, cur.ID); err != nil {
		m.store.Restore(snapshot)
		m.logger.Warn("Failed to close slot",
			zap.String("date", day.Format(DateFormat)),
			zap.String("slot_id", string(slotID)),
			zap.String("record_id", cur.ID),
			zap.Error(err))
		return fmt.Errorf("close slot: %w", err)
	}

	m.refresher.ScheduleRefresh()

	m.logger.Info("Slot closed",
		zap.String("date", day.Format(DateFormat)),
		zap.String("slot_id", string(slotID)),
		zap.String("record_id", cur.ID))

	return nil
}

func (m *Mutator) acquire(key slotKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight[key] {
		return false
	}
	m.inFlight[key] = true
	return true
}

func (m *Mutator) release(key slotKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, key)
}
