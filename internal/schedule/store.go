package schedule

import (
	"strings"
	"sync"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/google/uuid"
)

// slotKey ключ слота: (календарная дата, окно приёма).
// В хранилище не бывает двух слотов с одним ключом.
type slotKey struct {
	date string
	slot model.SlotID
}

func keyOf(date time.Time, slotID model.SlotID) slotKey {
	return slotKey{date: DateOf(date).Format(DateFormat), slot: slotID}
}

// GenSnapshot снимок поколений ключей на момент начала фонового запроса
type GenSnapshot map[slotKey]uint64

// Store рабочий набор слотов текущей недели.
// Каждая локальная мутация увеличивает поколение своего ключа; фоновая
// загрузка, начатая до мутации, не перетирает более новое локальное состояние.
type Store struct {
	mu    sync.RWMutex
	slots map[slotKey]*model.ScheduleSlot
	gens  map[slotKey]uint64
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{
		slots: make(map[slotKey]*model.ScheduleSlot),
		gens:  make(map[slotKey]uint64),
	}
}

// Load полностью заменяет рабочий набор (первая загрузка недели)
func (s *Store) Load(slots []*model.ScheduleSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceAll(slots, nil)
}

// LoadSince заменяет рабочий набор данными сервера, кроме ключей,
// мутировавших локально после снятия снимка snap — для них остаётся
// локальная версия, а серверная копия отбрасывается.
func (s *Store) LoadSince(snap GenSnapshot, slots []*model.ScheduleSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceAll(slots, snap)
}

func (s *Store) replaceAll(slots []*model.ScheduleSlot, snap GenSnapshot) {
	next := make(map[slotKey]*model.ScheduleSlot, len(slots))
	for _, slot := range slots {
		next[keyOf(slot.Date, slot.SlotID)] = slot.Clone()
	}

	if snap != nil {
		for key, gen := range s.gens {
			if snap[key] == gen {
				continue
			}
			// Ключ изменился после снимка: серверная копия устарела
			if local, ok := s.slots[key]; ok {
				next[key] = local
			} else {
				delete(next, key)
			}
		}
	}

	s.slots = next

	// Подчищаем поколения ключей, выпавших из рабочего набора
	for key := range s.gens {
		if _, ok := next[key]; !ok {
			delete(s.gens, key)
		}
	}
}

// Generations возвращает снимок текущих поколений
func (s *Store) Generations() GenSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(GenSnapshot, len(s.gens))
	for key, gen := range s.gens {
		snap[key] = gen
	}
	return snap
}

// Find возвращает слот по (дата, окно) или подразумеваемый пустой,
// если записи нет. Возвращается копия, мутировать её безопасно.
func (s *Store) Find(date time.Time, slotID model.SlotID) *model.ScheduleSlot {
	if slot, ok := s.Lookup(date, slotID); ok {
		return slot
	}
	return &model.ScheduleSlot{
		Date:   DateOf(date),
		SlotID: slotID,
		Status: model.SlotStatusEmpty,
	}
}

// Lookup возвращает копию слота и признак его наличия в наборе
func (s *Store) Lookup(date time.Time, slotID model.SlotID) (*model.ScheduleSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[keyOf(date, slotID)]
	if !ok {
		return nil, false
	}
	return slot.Clone(), true
}

// InsertOptimistic помещает в набор синтетический слот с временным id.
// Существующая запись по этому ключу вытесняется (замена, не добавление).
// Возвращает временный id для последующего Replace.
func (s *Store) InsertOptimistic(slot *model.ScheduleSlot) string {
	tempID := "tmp_" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := slot.Clone()
	entry.ID = tempID
	entry.Optimistic = true

	key := keyOf(entry.Date, entry.SlotID)
	s.slots[key] = entry
	s.gens[key]++

	return tempID
}

// Replace подменяет оптимистичную запись подтверждённой серверной.
// Совпадение ищется по временному id; если записи уже нет (её успела
// заменить более новая мутация), замена не выполняется.
func (s *Store) Replace(tempID string, confirmed *model.ScheduleSlot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, slot := range s.slots {
		if slot.ID != tempID {
			continue
		}
		entry := confirmed.Clone()
		entry.Optimistic = false

		newKey := keyOf(entry.Date, entry.SlotID)
		delete(s.slots, key)
		s.slots[newKey] = entry
		s.gens[newKey]++
		return true
	}
	return false
}

// Remove убирает слот по id записи и возвращает его копию для отката.
// Если записи нет, возвращает nil.
func (s *Store) Remove(id string) *model.ScheduleSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, slot := range s.slots {
		if slot.ID != id {
			continue
		}
		removed := slot.Clone()
		delete(s.slots, key)
		s.gens[key]++
		return removed
	}
	return nil
}

// Restore возвращает снятый слот в набор в точности как он был
func (s *Store) Restore(slot *model.ScheduleSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(slot.Date, slot.SlotID)
	s.slots[key] = slot.Clone()
	s.gens[key]++
}

// CountByStatus количество слотов с данным статусом.
// Считается на лету, отдельного счётчика нет.
func (s *Store) CountByStatus(status model.SlotStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, slot := range s.slots {
		if slot.Status == status {
			count++
		}
	}
	return count
}

// Slots возвращает копию всех слотов набора
func (s *Store) Slots() []*model.ScheduleSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ScheduleSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot.Clone())
	}
	return out
}

// IsTempID id является временным (оптимистичным), а не серверным
func IsTempID(id string) bool {
	return strings.HasPrefix(id, "tmp_")
}
