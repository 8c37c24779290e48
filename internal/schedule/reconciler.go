package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultReconcileDelay пауза перед фоновой сверкой после мутации:
// достаточно, чтобы запись сервера стала видимой, и мало настолько,
// что оптимистичная запись почти не живёт на экране
const DefaultReconcileDelay = 100 * time.Millisecond

const refreshTimeout = 10 * time.Second

// Reconciler приводит хранилище к серверной истине полной перезагрузкой
// слотов текущей недели. Повторные вызовы безопасны: второй Load просто
// подтверждает первый.
type Reconciler struct {
	store  *Store
	api    RemoteAPI
	window func() Window // окно недели принадлежит сессии
	delay  time.Duration
	logger *zap.Logger
}

// NewReconciler создаёт реконсилер для хранилища
func NewReconciler(store *Store, api RemoteAPI, window func() Window, delay time.Duration, logger *zap.Logger) *Reconciler {
	if delay <= 0 {
		delay = DefaultReconcileDelay
	}
	return &Reconciler{
		store:  store,
		api:    api,
		window: window,
		delay:  delay,
		logger: logger,
	}
}

// ScheduleRefresh планирует одну тихую сверку после паузы.
// Вызывается мутатором после каждой успешной мутации.
func (r *Reconciler) ScheduleRefresh() {
	time.AfterFunc(r.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		r.Refresh(ctx, true) //nolint:errcheck // тихая сверка ошибок не возвращает
	})
}

// Refresh перечитывает слоты текущей недели и заменяет рабочий набор.
//
// silent=true (после мутаций и при листании недель): ошибка сети
// проглатывается — устаревшая, но корректная сетка лучше всплывающей
// ошибки после каждой фоновой синхронизации. silent=false (первая
// загрузка): ошибка возвращается наверх, отступать не к чему.
//
// Ключи, мутировавшие локально между началом запроса и его завершением,
// сохраняют локальное состояние — устаревший ответ их не перетирает.
func (r *Reconciler) Refresh(ctx context.Context, silent bool) error {
	w := r.window()
	snap := r.store.Generations()

	slots, err := r.api.ListSlots(ctx, w.Start, w.End())
	if err != nil {
		if silent {
			r.logger.Debug("Silent refresh failed",
				zap.String("week_start", w.Start.Format(DateFormat)),
				zap.Error(err))
			return nil
		}
		return err
	}

	r.store.LoadSince(snap, slots)

	r.logger.Debug("Week reconciled",
		zap.String("week_start", w.Start.Format(DateFormat)),
		zap.Int("slots", len(slots)))

	return nil
}
