package handlers

import (
	"context"
	"errors"
	"net/http"

	"temp_regulator/internal/calibration"
	"temp_regulator/internal/device"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	errGetState        = "failed to load state"
	errInvalidBodyPref = "invalid body: "
	errRegulatorBusy   = "regulator is not responding"
	errCommandFailed   = "command failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// commandError maps a rejected command to an HTTP status.
func (h *Handler) commandError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrBadRequest),
		errors.Is(err, device.ErrBadTarget),
		errors.Is(err, device.ErrBadIndex),
		errors.Is(err, device.ErrUnknownEvent),
		errors.Is(err, device.ErrUnknownCommand),
		errors.Is(err, profile.ErrBadSlot),
		errors.Is(err, profile.ErrTooManySteps):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, device.ErrWrongState),
		errors.Is(err, device.ErrNotCalibrated),
		errors.Is(err, device.ErrProfileUnavailable),
		errors.Is(err, calibration.ErrWrongStep),
		errors.Is(err, calibration.ErrNotStable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, device.ErrStopped),
		errors.Is(err, context.DeadlineExceeded):
		h.logAndJSONError(c, http.StatusServiceUnavailable, errRegulatorBusy, logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errCommandFailed, logKey, err, kv...)
	}
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// EventRequest navigates the state machine.
type EventRequest struct {
	// Event name, e.g. to_settings, to_work, back
	Event string `json:"event" binding:"required" example:"to_settings"`
}

// CoefficientRequest adjusts or resets a coefficient set.
type CoefficientRequest struct {
	// pid or thermo
	Set string `json:"set" binding:"required" example:"pid"`
	// kp, ki, kd for pid; slope, offset for thermo
	Name  string  `json:"name,omitempty" example:"kp"`
	Delta float64 `json:"delta,omitempty" example:"0.1"`
	Reset bool    `json:"reset,omitempty"`
}

// SetpointRequest sets the target either absolutely or by a delta.
type SetpointRequest struct {
	Value *float64 `json:"value,omitempty" example:"250"`
	Delta float64  `json:"delta,omitempty" example:"-1"`
}

// HeatRequest starts or stops heating.
type HeatRequest struct {
	On *bool `json:"on" binding:"required"`
}

// WizardRequest drives the calibration and autotune wizards.
type WizardRequest struct {
	Action string  `json:"action" binding:"required" example:"advance"`
	Delta  float64 `json:"delta,omitempty"`
	Value  float64 `json:"value,omitempty"`
}

// TouchRequest starts panel calibration ("reset") or the touch test ("test").
type TouchRequest struct {
	Action string `json:"action" binding:"required" example:"reset"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get regulator state
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "device_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Send navigation event
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   EventRequest  true  "Event payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/events [post]
// @Security     BearerAuth
func (h *Handler) postEvent(c *gin.Context) {
	var req EventRequest
	if !h.bindBody(c, &req) {
		return
	}
	if err := h.services.Control.Dispatch(c.Request.Context(), req.Event); err != nil {
		h.commandError(c, "device_event_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"event": req.Event})
}

// @Summary      Adjust coefficients
// @Description  Works in Settings only. reset=true restores the factory set.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   CoefficientRequest  true  "Coefficient payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/coefficients [post]
// @Security     BearerAuth
func (h *Handler) postCoefficient(c *gin.Context) {
	var req CoefficientRequest
	if !h.bindBody(c, &req) {
		return
	}
	err := h.services.Control.Coefficient(c.Request.Context(), service.CoefficientParams{
		Set:   req.Set,
		Name:  req.Name,
		Delta: req.Delta,
		Reset: req.Reset,
	})
	if err != nil {
		h.commandError(c, "device_coefficient_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Change setpoint
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   SetpointRequest  true  "Setpoint payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/setpoint [post]
// @Security     BearerAuth
func (h *Handler) postSetpoint(c *gin.Context) {
	var req SetpointRequest
	if !h.bindBody(c, &req) {
		return
	}
	err := h.services.Control.Setpoint(c.Request.Context(), service.SetpointParams{Value: req.Value, Delta: req.Delta})
	if err != nil {
		h.commandError(c, "device_setpoint_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Start or stop heating
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   HeatRequest  true  "Heat payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/heat [post]
// @Security     BearerAuth
func (h *Handler) postHeat(c *gin.Context) {
	var req HeatRequest
	if !h.bindBody(c, &req) {
		return
	}
	if err := h.services.Control.Heat(c.Request.Context(), *req.On); err != nil {
		h.commandError(c, "device_heat_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"on": *req.On})
}

// @Summary      Acknowledge alarm
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/alarm/ack [post]
// @Security     BearerAuth
func (h *Handler) ackAlarm(c *gin.Context) {
	if err := h.services.Control.AckAlarm(c.Request.Context()); err != nil {
		h.commandError(c, "device_alarm_ack_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}

// @Summary      Drive the thermocouple calibration wizard
// @Description  Actions: adjust_ref, advance, back, confirm, cancel
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   WizardRequest  true  "Wizard payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/calibration [post]
// @Security     BearerAuth
func (h *Handler) postCalibration(c *gin.Context) {
	var req WizardRequest
	if !h.bindBody(c, &req) {
		return
	}
	err := h.services.Control.Calibration(c.Request.Context(), service.WizardParams{
		Action: req.Action, Delta: req.Delta, Value: req.Value,
	})
	if err != nil {
		h.commandError(c, "device_calibration_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"action": req.Action})
}

// @Summary      Drive the PID autotune
// @Description  Actions: adjust_target, set_target, start, abort
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   WizardRequest  true  "Wizard payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/autotune [post]
// @Security     BearerAuth
func (h *Handler) postAutotune(c *gin.Context) {
	var req WizardRequest
	if !h.bindBody(c, &req) {
		return
	}
	err := h.services.Control.Autotune(c.Request.Context(), service.WizardParams{
		Action: req.Action, Delta: req.Delta, Value: req.Value,
	})
	if err != nil {
		h.commandError(c, "device_autotune_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"action": req.Action})
}

// @Summary      Touch panel calibration and test
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   TouchRequest  true  "Touch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/touch [post]
// @Security     BearerAuth
func (h *Handler) postTouch(c *gin.Context) {
	var req TouchRequest
	if !h.bindBody(c, &req) {
		return
	}
	if err := h.services.Control.Touch(c.Request.Context(), req.Action); err != nil {
		h.commandError(c, "device_touch_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{"action": req.Action})
}

// @Summary      Wipe stored settings
// @Description  Clears persisted settings and reboots the regulator into defaults.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/wipe [post]
// @Security     BearerAuth
func (h *Handler) postWipe(c *gin.Context) {
	if err := h.services.Control.Wipe(c.Request.Context()); err != nil {
		h.commandError(c, "device_wipe_failed", err)
		return
	}
	if h.log != nil {
		h.log.Infow("settings_wiped", "operator_id", operatorID(c))
	}
	h.respondWithStatusAndState(c, statusAccepted, gin.H{})
}
