// Пакет viewer — конечные автоматы состояния взаимодействия с 3D-вьювером.
//
// Два независимых автомата:
//   - Animation — режим анимации (idle / spinning / rocking);
//     одновременное вращение и покачивание непредставимо по построению
//   - Measurement — режим измерения (idle / distance / angle)
//     с накоплением точек и вычислением результата
//
// Сами вызовы рендеринга выполняет внешний слой отображения,
// сервис хранит только состояние сессии. Потокобезопасно.
package viewer

import (
	"fmt"
	"sync"
	"time"
)

// AnimationMode — режим анимации вьювера.
type AnimationMode string

const (
	// AnimIdle — анимация остановлена
	AnimIdle AnimationMode = "idle"
	// AnimSpinning — непрерывное вращение модели
	AnimSpinning AnimationMode = "spinning"
	// AnimRocking — покачивание модели
	AnimRocking AnimationMode = "rocking"
)

// animTransitions — матрица допустимых переходов анимации.
// Самопереходы запрещены: повторный запуск того же режима — ошибка.
var animTransitions = map[AnimationMode]map[AnimationMode]bool{
	AnimIdle:     {AnimSpinning: true, AnimRocking: true},
	AnimSpinning: {AnimIdle: true, AnimRocking: true},
	AnimRocking:  {AnimIdle: true, AnimSpinning: true},
}

// TransitionRecord — запись о переходе между режимами анимации.
type TransitionRecord struct {
	From      AnimationMode `json:"from"`
	To        AnimationMode `json:"to"`
	Timestamp time.Time     `json:"timestamp"`
}

// Animation — конечный автомат режима анимации.
type Animation struct {
	mu      sync.RWMutex
	current AnimationMode
	history []TransitionRecord
}

// NewAnimation создаёт автомат в состоянии idle.
func NewAnimation() *Animation {
	return &Animation{
		current: AnimIdle,
		history: make([]TransitionRecord, 0),
	}
}

// Current возвращает текущий режим анимации.
func (a *Animation) Current() AnimationMode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// TransitionTo выполняет переход в указанный режим.
// Самопереход и неизвестный режим — ошибка *TransitionError.
func (a *Animation) TransitionTo(target AnimationMode) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := animTransitions[target]; !ok {
		return &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("недопустимый режим анимации: %q", target),
		}
	}

	if !animTransitions[a.current][target] {
		return &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("переход %s → %s недопустим", a.current, target),
		}
	}

	a.history = append(a.history, TransitionRecord{
		From:      a.current,
		To:        target,
		Timestamp: time.Now().UTC(),
	})
	a.current = target

	return nil
}

// Spin переводит анимацию в режим вращения.
func (a *Animation) Spin() error { return a.TransitionTo(AnimSpinning) }

// Rock переводит анимацию в режим покачивания.
func (a *Animation) Rock() error { return a.TransitionTo(AnimRocking) }

// Stop останавливает анимацию.
func (a *Animation) Stop() error { return a.TransitionTo(AnimIdle) }

// History возвращает историю переходов (копия).
func (a *Animation) History() []TransitionRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]TransitionRecord, len(a.history))
	copy(result, a.history)
	return result
}

// TransitionError — ошибка недопустимого перехода.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ParseAnimationMode преобразует строку в AnimationMode.
func ParseAnimationMode(s string) (AnimationMode, error) {
	switch AnimationMode(s) {
	case AnimIdle, AnimSpinning, AnimRocking:
		return AnimationMode(s), nil
	default:
		return "", fmt.Errorf("недопустимый режим анимации: %q, допустимые: idle, spinning, rocking", s)
	}
}
