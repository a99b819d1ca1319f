package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []tr.DeviceEvent{
		{EventID: "e1", OccurredAt: now, Type: "STATE", Description: "Ready -> Work"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: "ALARM", Description: "Sensor fault"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs})

	get := func(url string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header = authHeader("valid")
		r.ServeHTTP(w, req)
		return w
	}

	if w := get("/api/v1/logs/?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}
	if w := get("/api/v1/logs/?from=2025-08-02&to=2025-08-01"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
	if w := get("/api/v1/logs/?type=mode_change"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	w := get("/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=2099-01-01&type=alarm")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int              `json:"count"`
		Events []tr.DeviceEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "ALARM" {
		t.Fatalf("expected lastType ALARM, got %q", logs.lastType)
	}
	wantTo := time.Date(2099, 1, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("date-only 'to' must be end of day, got %v", logs.lastTo)
	}
}

func TestLogsHandler_Prune(t *testing.T) {
	logs := &mockEventLog{pruned: 12}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	del := func(q string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/logs/"+q, nil)
		req.Header = authHeader("valid")
		r.ServeHTTP(w, req)
		return w
	}

	for _, q := range []string{"", "?older_than=soon", "?older_than=-1h"} {
		if w := del(q); w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", q, w.Code)
		}
	}

	w := del("?older_than=48h")
	if w.Code != http.StatusOK {
		t.Fatalf("prune status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Deleted != 12 || logs.lastKeep != 48*time.Hour {
		t.Fatalf("deleted=%d keep=%v", out.Deleted, logs.lastKeep)
	}
}

func TestLogsHandler_ServiceRejectionsAre400(t *testing.T) {
	cases := []struct {
		name   string
		method string
		url    string
		err    error
	}{
		{"list unknown type", http.MethodGet, "/api/v1/logs/", service.ErrUnknownEventType},
		{"list inverted range", http.MethodGet, "/api/v1/logs/", service.ErrInvalidTimeRange},
		{"prune too short", http.MethodDelete, "/api/v1/logs/?older_than=10m", service.ErrBadRetention},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := &mockEventLog{err: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.url, nil)
			req.Header = authHeader("valid")
			r.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}
