// viewer.go — HTTP handlers состояния 3D-вьювера: режим анимации
// и режим измерения. Состояние хранится на стороне сервиса,
// рендеринг выполняет слой отображения.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/bigkaa/molview/structure-service/internal/api/errors"
	"github.com/bigkaa/molview/structure-service/internal/viewer"
)

// ViewerHandler — обработчик endpoints состояния вьювера.
type ViewerHandler struct {
	animation   *viewer.Animation
	measurement *viewer.Measurement
}

// NewViewerHandler создаёт обработчик endpoints вьювера.
func NewViewerHandler(animation *viewer.Animation, measurement *viewer.Measurement) *ViewerHandler {
	return &ViewerHandler{
		animation:   animation,
		measurement: measurement,
	}
}

// animationState — тело ответа состояния анимации.
type animationState struct {
	Mode    viewer.AnimationMode      `json:"mode"`
	History []viewer.TransitionRecord `json:"history"`
}

// GetAnimation обрабатывает GET /api/v1/viewer/animation.
func (h *ViewerHandler) GetAnimation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, animationState{
		Mode:    h.animation.Current(),
		History: h.animation.History(),
	})
}

// animationRequest — тело запроса смены режима анимации.
type animationRequest struct {
	Mode string `json:"mode"`
}

// SetAnimation обрабатывает POST /api/v1/viewer/animation.
// Тело: {"mode": "idle" | "spinning" | "rocking"}.
// Самопереход (повторный запуск текущего режима) — 409 INVALID_TRANSITION.
func (h *ViewerHandler) SetAnimation(w http.ResponseWriter, r *http.Request) {
	var req animationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}

	mode, err := viewer.ParseAnimationMode(req.Mode)
	if err != nil {
		errors.ValidationError(w, err.Error())
		return
	}

	if err := h.animation.TransitionTo(mode); err != nil {
		var trErr *viewer.TransitionError
		if stderrors.As(err, &trErr) {
			errors.InvalidTransition(w, trErr.Message)
			return
		}
		errors.InternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"mode": h.animation.Current()})
}

// measurementState — тело ответа состояния измерения.
type measurementState struct {
	State   viewer.MeasurementSnapshot `json:"state"`
	Results []viewer.MeasurementResult `json:"results"`
}

// GetMeasurement обрабатывает GET /api/v1/viewer/measurement.
// Возвращает текущее состояние автомата и историю завершённых измерений.
func (h *ViewerHandler) GetMeasurement(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, measurementState{
		State:   h.measurement.Snapshot(),
		Results: h.measurement.Results(),
	})
}

// measurementRequest — тело запроса начала измерения.
type measurementRequest struct {
	Mode string `json:"mode"`
}

// StartMeasurement обрабатывает POST /api/v1/viewer/measurement.
// Тело: {"mode": "distance" | "angle"}.
// Активное измерение требуется сначала отменить — 409 INVALID_TRANSITION.
func (h *ViewerHandler) StartMeasurement(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}

	var err error
	switch viewer.MeasurementMode(req.Mode) {
	case viewer.MeasureDistance:
		err = h.measurement.StartDistance()
	case viewer.MeasureAngle:
		err = h.measurement.StartAngle()
	default:
		errors.ValidationError(w,
			fmt.Sprintf("недопустимый режим измерения: %q, допустимые: distance, angle", req.Mode))
		return
	}

	if err != nil {
		var trErr *viewer.TransitionError
		if stderrors.As(err, &trErr) {
			errors.InvalidTransition(w, trErr.Message)
			return
		}
		errors.InternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.measurement.Snapshot())
}

// CancelMeasurement обрабатывает DELETE /api/v1/viewer/measurement.
// Отмена из состояния idle — no-op, тоже 204.
func (h *ViewerHandler) CancelMeasurement(w http.ResponseWriter, _ *http.Request) {
	h.measurement.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// pointResponse — тело ответа добавления точки.
// result присутствует только при завершении измерения.
type pointResponse struct {
	State  viewer.MeasurementSnapshot `json:"state"`
	Result *viewer.MeasurementResult  `json:"result,omitempty"`
}

// AddPoint обрабатывает POST /api/v1/viewer/measurement/points.
// Тело: {"x": ..., "y": ..., "z": ...} — точка в координатах модели.
// Когда точек достаточно, в ответе присутствует result, автомат
// возвращается в idle. Вырожденная геометрия (совпадающие точки) — 400,
// накопленные точки сбрасываются, режим остаётся активным.
func (h *ViewerHandler) AddPoint(w http.ResponseWriter, r *http.Request) {
	var p viewer.Point
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}

	result, err := h.measurement.AddPoint(p)
	if err != nil {
		var trErr *viewer.TransitionError
		if stderrors.As(err, &trErr) {
			errors.InvalidTransition(w, trErr.Message)
			return
		}
		// Вырожденная геометрия
		errors.ValidationError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, pointResponse{
		State:  h.measurement.Snapshot(),
		Result: result,
	})
}
