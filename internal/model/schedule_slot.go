package model

import "time"

type SlotStatus string

const (
	SlotStatusEmpty    SlotStatus = "EMPTY"
	SlotStatusReserved SlotStatus = "RESERVED"
	SlotStatusBusy     SlotStatus = "BUSY"
)

// AppointmentRef ссылка на запись пациента, занявшего слот.
// Создаётся и изменяется только сервером расписания, бот её лишь показывает.
type AppointmentRef struct {
	ID          string `json:"id"`
	PatientName string `json:"patient_name"`
}

// ScheduleSlot состояние конкретного окна приёма на конкретную дату
type ScheduleSlot struct {
	ID          string          `json:"id"` // пустой, пока запись не материализована на сервере
	Date        time.Time       `json:"date"`
	SlotID      SlotID          `json:"slot_id"`
	Status      SlotStatus      `json:"status"`
	Appointment *AppointmentRef `json:"appointment"` // только при статусе BUSY
	Optimistic  bool            `json:"-"`           // локальное предсказание, сервером не подтверждено
}

// Clone возвращает глубокую копию слота
func (s *ScheduleSlot) Clone() *ScheduleSlot {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Appointment != nil {
		ref := *s.Appointment
		cp.Appointment = &ref
	}
	return &cp
}

// IsMaterialized слот уже существует как запись на сервере
func (s *ScheduleSlot) IsMaterialized() bool {
	return s != nil && s.ID != "" && !s.Optimistic
}
