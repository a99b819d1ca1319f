package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errRangeInvalid = "'from' must be <= 'to'"
	errTypeInvalid  = "unknown event type"
	errKeepInvalid  = "invalid 'older_than'; use a positive duration such as 720h"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// @Summary      List device events
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD') and type. A date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range, date-only means end of day"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(STATE,ALARM,CALIBRATION,AUTOTUNE,SETTINGS,PROFILE)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	f, msg := parseLogFilter(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange), errors.Is(err, service.ErrUnknownEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Prune device events
// @Tags         logs
// @Produce      json
// @Param        older_than  query   string  true  "Age of the oldest event to keep"  example(720h)
// @Success      200   {object}  map[string]interface{}  "deleted"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/logs [delete]
// @Security     BearerAuth
func (h *Handler) pruneLogs(c *gin.Context) {
	keep, err := time.ParseDuration(c.Query("older_than"))
	if err != nil || keep <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errKeepInvalid})
		return
	}
	n, err := h.services.EventLog.Prune(c.Request.Context(), keep)
	switch {
	case errors.Is(err, service.ErrBadRetention):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to prune logs", "logs_prune_failed", err,
			"older_than", keep.String())
		return
	}
	if h.log != nil {
		h.log.Infow("logs_pruned", "deleted", n, "older_than", keep.String(), "operator_id", operatorID(c))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// parseLogFilter reads from/to/type. The second result is the 400 message.
func parseLogFilter(c *gin.Context) (service.LogFilter, string) {
	var f service.LogFilter
	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errToInvalid
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errRangeInvalid
	}
	f.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))
	if f.Type != "" && !tr.IsEventType(f.Type) {
		return f, errTypeInvalid
	}
	return f, ""
}

// parseQueryTime accepts RFC3339, a datetime or a bare date, all as UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
