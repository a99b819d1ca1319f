package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_below_tick", "/ws?interval=10ms", 1 * time.Second},
		{"interval_ms_below_tick", "/ws?interval_ms=20", 1 * time.Second},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, mon *mockMonitoring, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Monitoring: mon}, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_TelemetryStream(t *testing.T) {
	mon := &mockMonitoring{state: tr.Telemetry{State: "work", CurrentTempC: 700, TargetTempC: 800, Heating: true}}
	conn := dialWS(t, mon, "interval_ms=100")

	env := readEnvelope(t, conn)
	if env.Type != msgTelemetry || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st tr.Telemetry
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal telemetry: %v", err)
	}
	if st.State != "work" || st.CurrentTempC != 700 || !st.Heating {
		t.Fatalf("unexpected telemetry: %+v", st)
	}

	if env = readEnvelope(t, conn); env.Type != msgTelemetry {
		t.Fatalf("expected periodic telemetry, got %+v", env)
	}
}

func TestWebSocket_AlarmFrameSentOnce(t *testing.T) {
	mon := &mockMonitoring{state: tr.Telemetry{State: "ready"}}
	conn := dialWS(t, mon, "interval_ms=100")

	if env := readEnvelope(t, conn); env.Type != msgTelemetry {
		t.Fatalf("expected telemetry first, got %+v", env)
	}

	mon.set(tr.Telemetry{State: "alarm", Alarm: true, Message: "sensor fault"})
	var env envelope
	for i := 0; i < 5; i++ {
		if env = readEnvelope(t, conn); env.Type == msgAlarm {
			break
		}
	}
	if env.Type != msgAlarm {
		t.Fatalf("alarm frame never arrived")
	}
	var alarm struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(env.Data, &alarm)
	if alarm.Message != "sensor fault" {
		t.Fatalf("unexpected alarm payload: %s", env.Data)
	}

	for i := 0; i < 3; i++ {
		if env = readEnvelope(t, conn); env.Type != msgTelemetry {
			t.Fatalf("alarm must be sent once while it persists, got %+v", env)
		}
	}
}

func TestWebSocket_InitialGetStateError_Closes(t *testing.T) {
	conn := dialWS(t, &mockMonitoring{err: errors.New("boom")}, "")

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
