// measurement.go — конечный автомат режима измерения.
// Накапливает точки, выбранные пользователем в слое отображения,
// и вычисляет евклидово расстояние (2 точки) или угол при вершине
// (3 точки, вершина — вторая точка).
package viewer

import (
	"fmt"
	"math"
	"sync"
)

// MeasurementMode — режим измерения.
type MeasurementMode string

const (
	// MeasureIdle — измерение не активно
	MeasureIdle MeasurementMode = "idle"
	// MeasureDistance — ожидание точек для измерения расстояния
	MeasureDistance MeasurementMode = "distance"
	// MeasureAngle — ожидание точек для измерения угла
	MeasureAngle MeasurementMode = "angle"
)

// pointsNeeded — количество точек, необходимое каждому режиму.
var pointsNeeded = map[MeasurementMode]int{
	MeasureDistance: 2,
	MeasureAngle:    3,
}

// Point — точка в координатах модели (ангстремы).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MeasurementResult — результат завершённого измерения.
type MeasurementResult struct {
	// Kind — distance или angle
	Kind MeasurementMode `json:"kind"`
	// Value — расстояние в ангстремах или угол в градусах
	Value float64 `json:"value"`
	// Unit — единица измерения (angstrom, degree)
	Unit string `json:"unit"`
	// Points — точки, по которым выполнено измерение
	Points []Point `json:"points"`
}

// MeasurementSnapshot — снимок текущего состояния измерения.
type MeasurementSnapshot struct {
	Mode            MeasurementMode `json:"mode"`
	PointsCollected int             `json:"points_collected"`
	PointsNeeded    int             `json:"points_needed"`
}

// Measurement — конечный автомат измерения. Потокобезопасен.
type Measurement struct {
	mu      sync.Mutex
	mode    MeasurementMode
	points  []Point
	results []MeasurementResult
}

// NewMeasurement создаёт автомат в состоянии idle.
func NewMeasurement() *Measurement {
	return &Measurement{
		mode:    MeasureIdle,
		points:  make([]Point, 0, 3),
		results: make([]MeasurementResult, 0),
	}
}

// StartDistance начинает измерение расстояния.
// Допустимо только из состояния idle: активное измерение
// сначала требуется отменить (Cancel).
func (m *Measurement) StartDistance() error {
	return m.start(MeasureDistance)
}

// StartAngle начинает измерение угла.
func (m *Measurement) StartAngle() error {
	return m.start(MeasureAngle)
}

func (m *Measurement) start(mode MeasurementMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != MeasureIdle {
		return &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("измерение %s уже активно, завершите или отмените его", m.mode),
		}
	}

	m.mode = mode
	m.points = m.points[:0]
	return nil
}

// AddPoint добавляет точку к активному измерению.
// Когда точек достаточно, возвращает результат и переводит
// автомат обратно в idle. До этого возвращает (nil, nil).
func (m *Measurement) AddPoint(p Point) (*MeasurementResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == MeasureIdle {
		return nil, &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: "измерение не активно, сначала выберите режим (distance или angle)",
		}
	}

	m.points = append(m.points, p)
	if len(m.points) < pointsNeeded[m.mode] {
		return nil, nil
	}

	// Точек достаточно — вычисляем результат
	result, err := m.compute()
	if err != nil {
		// Некорректная геометрия (совпадающие точки): сбрасываем
		// накопленные точки, режим остаётся активным
		m.points = m.points[:0]
		return nil, err
	}

	m.results = append(m.results, *result)
	m.mode = MeasureIdle
	m.points = m.points[:0]

	return result, nil
}

// compute вычисляет результат по накопленным точкам.
// Вызывается под мьютексом.
func (m *Measurement) compute() (*MeasurementResult, error) {
	points := make([]Point, len(m.points))
	copy(points, m.points)

	switch m.mode {
	case MeasureDistance:
		return &MeasurementResult{
			Kind:   MeasureDistance,
			Value:  Distance(points[0], points[1]),
			Unit:   "angstrom",
			Points: points,
		}, nil

	case MeasureAngle:
		angle, err := Angle(points[0], points[1], points[2])
		if err != nil {
			return nil, err
		}
		return &MeasurementResult{
			Kind:   MeasureAngle,
			Value:  angle,
			Unit:   "degree",
			Points: points,
		}, nil

	default:
		return nil, fmt.Errorf("неизвестный режим измерения: %q", m.mode)
	}
}

// Cancel отменяет активное измерение и сбрасывает точки.
// Из состояния idle — no-op.
func (m *Measurement) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = MeasureIdle
	m.points = m.points[:0]
}

// Snapshot возвращает снимок текущего состояния.
func (m *Measurement) Snapshot() MeasurementSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MeasurementSnapshot{
		Mode:            m.mode,
		PointsCollected: len(m.points),
		PointsNeeded:    pointsNeeded[m.mode],
	}
}

// Results возвращает историю завершённых измерений (копия).
func (m *Measurement) Results() []MeasurementResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]MeasurementResult, len(m.results))
	copy(result, m.results)
	return result
}

// Distance возвращает евклидово расстояние между двумя точками.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Angle возвращает угол при вершине b (в градусах) для точек a, b, c.
// Возвращает ошибку, если одна из сторон угла вырождена
// (совпадающие точки).
func Angle(a, b, c Point) (float64, error) {
	ux, uy, uz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	vx, vy, vz := c.X-b.X, c.Y-b.Y, c.Z-b.Z

	lu := math.Sqrt(ux*ux + uy*uy + uz*uz)
	lv := math.Sqrt(vx*vx + vy*vy + vz*vz)
	if lu == 0 || lv == 0 {
		return 0, fmt.Errorf("угол не определён: совпадающие точки")
	}

	cos := (ux*vx + uy*vy + uz*vz) / (lu * lv)
	// Защита от выхода за [-1, 1] из-за погрешности float64
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi, nil
}
