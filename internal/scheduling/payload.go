package scheduling

import (
	"fmt"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
)

const dateFormat = "2006-01-02"

// slotPayload слот в проводном формате сервиса
type slotPayload struct {
	ID          string              `json:"id"`
	Date        string              `json:"date"` // YYYY-MM-DD
	SlotID      string              `json:"slot_id"`
	Status      string              `json:"status"`
	Appointment *appointmentPayload `json:"appointment,omitempty"`
}

type appointmentPayload struct {
	ID          string `json:"id"`
	PatientName string `json:"patient_name"`
}

func (p slotPayload) toModel() (*model.ScheduleSlot, error) {
	date, err := time.ParseInLocation(dateFormat, p.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse slot date %q: %w", p.Date, err)
	}

	slot := &model.ScheduleSlot{
		ID:     p.ID,
		Date:   date,
		SlotID: model.SlotID(p.SlotID),
		Status: model.SlotStatus(p.Status),
	}
	if p.Appointment != nil {
		slot.Appointment = &model.AppointmentRef{
			ID:          p.Appointment.ID,
			PatientName: p.Appointment.PatientName,
		}
	}
	return slot, nil
}
