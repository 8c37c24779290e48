package model

// SlotID идентификатор одного из 12 фиксированных окон приёма
type SlotID string

const (
	Slot1  SlotID = "SLOT_1"
	Slot2  SlotID = "SLOT_2"
	Slot3  SlotID = "SLOT_3"
	Slot4  SlotID = "SLOT_4"
	Slot5  SlotID = "SLOT_5"
	Slot6  SlotID = "SLOT_6"
	Slot7  SlotID = "SLOT_7"
	Slot8  SlotID = "SLOT_8"
	Slot9  SlotID = "SLOT_9"
	Slot10 SlotID = "SLOT_10"
	Slot11 SlotID = "SLOT_11"
	Slot12 SlotID = "SLOT_12"
)

// SlotPeriod половина рабочего дня
type SlotPeriod string

const (
	PeriodMorning   SlotPeriod = "morning"
	PeriodAfternoon SlotPeriod = "afternoon"
)

// SlotDefinition статическое описание окна приёма.
// Таблица создаётся при старте процесса и никогда не изменяется.
type SlotDefinition struct {
	ID           SlotID
	DisplayRange string // "07:30 - 08:15"
	Period       SlotPeriod
}

// SlotCatalog 12 окон приёма клиники: 07:30-12:00 утром и 12:45-17:15
// после обеда, по 45 минут. Порядок в слайсе задаёт порядок строк сетки.
var SlotCatalog = []SlotDefinition{
	{ID: Slot1, DisplayRange: "07:30 - 08:15", Period: PeriodMorning},
	{ID: Slot2, DisplayRange: "08:15 - 09:00", Period: PeriodMorning},
	{ID: Slot3, DisplayRange: "09:00 - 09:45", Period: PeriodMorning},
	{ID: Slot4, DisplayRange: "09:45 - 10:30", Period: PeriodMorning},
	{ID: Slot5, DisplayRange: "10:30 - 11:15", Period: PeriodMorning},
	{ID: Slot6, DisplayRange: "11:15 - 12:00", Period: PeriodMorning},
	{ID: Slot7, DisplayRange: "12:45 - 13:30", Period: PeriodAfternoon},
	{ID: Slot8, DisplayRange: "13:30 - 14:15", Period: PeriodAfternoon},
	{ID: Slot9, DisplayRange: "14:15 - 15:00", Period: PeriodAfternoon},
	{ID: Slot10, DisplayRange: "15:00 - 15:45", Period: PeriodAfternoon},
	{ID: Slot11, DisplayRange: "15:45 - 16:30", Period: PeriodAfternoon},
	{ID: Slot12, DisplayRange: "16:30 - 17:15", Period: PeriodAfternoon},
}

// SlotDefinitionByID находит описание окна по идентификатору
func SlotDefinitionByID(id SlotID) (SlotDefinition, bool) {
	for _, def := range SlotCatalog {
		if def.ID == id {
			return def, true
		}
	}
	return SlotDefinition{}, false
}

// IsValidSlotID проверяет что идентификатор есть в каталоге
func IsValidSlotID(id SlotID) bool {
	_, ok := SlotDefinitionByID(id)
	return ok
}
