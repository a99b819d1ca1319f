package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	tr "temp_regulator"
	"temp_regulator/internal/calibration"
	"temp_regulator/internal/device"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/service"
)

func newDeviceRouter(ctl *mockControl, mon *mockMonitoring) http.Handler {
	return newTestRouter(&service.Service{
		Authorization: &mockAuth{parseID: 7},
		Control:       ctl,
		Monitoring:    mon,
	})
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer valid")
	r.ServeHTTP(w, req)
	return w
}

func TestDeviceHandlers_GetState(t *testing.T) {
	mon := &mockMonitoring{state: tr.Telemetry{State: "work", CurrentTempC: 500, TargetTempC: 520}}
	r := newDeviceRouter(&mockControl{}, mon)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = send(r, http.MethodGet, "/api/v1/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var st tr.Telemetry
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.State != "work" || st.CurrentTempC != 500 {
		t.Fatalf("unexpected state: %+v", st)
	}

	mon.err = errors.New("gone")
	if w = send(r, http.MethodGet, "/api/v1/state", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestDeviceHandlers_Commands(t *testing.T) {
	v := 250.0
	cases := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCall string
		wantArg  any
	}{
		{"event", http.MethodPost, "/api/v1/events", `{"event":"to_settings"}`, "dispatch", "to_settings"},
		{"coefficient", http.MethodPost, "/api/v1/coefficients", `{"set":"pid","name":"kp","delta":0.1}`,
			"coefficient", service.CoefficientParams{Set: "pid", Name: "kp", Delta: 0.1}},
		{"setpoint delta", http.MethodPost, "/api/v1/setpoint", `{"delta":-1}`, "setpoint", service.SetpointParams{Delta: -1}},
		{"heat on", http.MethodPost, "/api/v1/heat", `{"on":true}`, "heat", true},
		{"alarm ack", http.MethodPost, "/api/v1/alarm/ack", "", "ack_alarm", nil},
		{"calibration", http.MethodPost, "/api/v1/calibration", `{"action":"adjust_ref","delta":5}`,
			"calibration", service.WizardParams{Action: "adjust_ref", Delta: 5}},
		{"autotune", http.MethodPost, "/api/v1/autotune", `{"action":"set_target","value":300}`,
			"autotune", service.WizardParams{Action: "set_target", Value: 300}},
		{"touch", http.MethodPost, "/api/v1/touch", `{"action":"test"}`, "touch", "test"},
		{"wipe", http.MethodPost, "/api/v1/wipe", "", "wipe", nil},
		{"select profile", http.MethodPost, "/api/v1/profiles/select", `{"slot":0}`, "select_profile", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctl := &mockControl{}
			r := newDeviceRouter(ctl, &mockMonitoring{state: tr.Telemetry{State: "ready"}})

			w := send(r, tc.method, tc.path, tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
			}
			if len(ctl.calls) != 1 || ctl.calls[0] != tc.wantCall {
				t.Fatalf("calls=%v, want [%s]", ctl.calls, tc.wantCall)
			}
			if fmt.Sprint(ctl.lastArg) != fmt.Sprint(tc.wantArg) {
				t.Fatalf("arg=%+v, want %+v", ctl.lastArg, tc.wantArg)
			}
			var resp struct {
				Status string       `json:"status"`
				State  tr.Telemetry `json:"state"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Status != statusAccepted || resp.State.State != "ready" {
				t.Fatalf("bad response: %s", w.Body.String())
			}
		})
	}

	t.Run("setpoint value", func(t *testing.T) {
		ctl := &mockControl{}
		w := send(newDeviceRouter(ctl, &mockMonitoring{}), http.MethodPost, "/api/v1/setpoint", `{"value":250}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d", w.Code)
		}
		p, ok := ctl.lastArg.(service.SetpointParams)
		if !ok || p.Value == nil || *p.Value != v {
			t.Fatalf("value not forwarded: %+v", ctl.lastArg)
		}
	})
}

func TestDeviceHandlers_BodyValidation(t *testing.T) {
	cases := map[string]struct{ path, body string }{
		"event missing":  {"/api/v1/events", `{}`},
		"heat missing":   {"/api/v1/heat", `{}`},
		"slot missing":   {"/api/v1/profiles/select", `{}`},
		"action missing": {"/api/v1/autotune", `{"value":1}`},
		"malformed":      {"/api/v1/setpoint", `{"value":`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctl := &mockControl{}
			w := send(newDeviceRouter(ctl, &mockMonitoring{}), http.MethodPost, tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			if len(ctl.calls) != 0 {
				t.Fatalf("service must not be called, got %v", ctl.calls)
			}
		})
	}
}

func TestDeviceHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: unknown event", service.ErrBadRequest), http.StatusBadRequest},
		{device.ErrBadTarget, http.StatusBadRequest},
		{device.ErrWrongState, http.StatusConflict},
		{device.ErrNotCalibrated, http.StatusConflict},
		{device.ErrProfileUnavailable, http.StatusConflict},
		{calibration.ErrWrongStep, http.StatusConflict},
		{device.ErrStopped, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			ctl := &mockControl{err: tc.err}
			w := send(newDeviceRouter(ctl, &mockMonitoring{}), http.MethodPost, "/api/v1/events", `{"event":"to_autotune"}`)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d", w.Code, tc.code)
			}
		})
	}
}

func TestProfileHandlers(t *testing.T) {
	stored := profile.Defaults()
	mon := &mockMonitoring{profiles: stored}
	ctl := &mockControl{}
	r := newDeviceRouter(ctl, mon)

	w := send(r, http.MethodGet, "/api/v1/profiles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var out struct {
		Count    int               `json:"count"`
		Profiles []profile.Profile `json:"profiles"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != profile.Slots || out.Profiles[0].Name != "Test profile" {
		t.Fatalf("unexpected list: %+v", out)
	}

	body := `{"slot":2,"name":"bisque","steps":[{"start_c":20,"end_c":900,"minutes":240}]}`
	if w = send(r, http.MethodPut, "/api/v1/profiles", body); w.Code != http.StatusOK {
		t.Fatalf("put status=%d, body=%s", w.Code, w.Body.String())
	}
	p, ok := ctl.lastArg.(profile.Profile)
	if !ok || p.Slot != 2 || p.Name != "bisque" || len(p.Steps) != 1 || p.Steps[0].EndC != 900 {
		t.Fatalf("profile not forwarded: %+v", ctl.lastArg)
	}
}
