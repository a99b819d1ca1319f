package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockControl records the last call by name together with its argument.
type mockControl struct {
	err      error
	calls    []string
	lastArg  any
	lastHeat bool
}

func (m *mockControl) hit(name string, arg any) error {
	m.calls = append(m.calls, name)
	m.lastArg = arg
	return m.err
}

func (m *mockControl) Dispatch(ctx context.Context, event string) error {
	return m.hit("dispatch", event)
}
func (m *mockControl) Coefficient(ctx context.Context, p service.CoefficientParams) error {
	return m.hit("coefficient", p)
}
func (m *mockControl) Setpoint(ctx context.Context, p service.SetpointParams) error {
	return m.hit("setpoint", p)
}
func (m *mockControl) SelectProfile(ctx context.Context, slot int) error {
	return m.hit("select_profile", slot)
}
func (m *mockControl) StoreProfile(ctx context.Context, p profile.Profile) error {
	return m.hit("store_profile", p)
}
func (m *mockControl) Heat(ctx context.Context, on bool) error {
	m.lastHeat = on
	return m.hit("heat", on)
}
func (m *mockControl) AckAlarm(ctx context.Context) error { return m.hit("ack_alarm", nil) }
func (m *mockControl) Calibration(ctx context.Context, p service.WizardParams) error {
	return m.hit("calibration", p)
}
func (m *mockControl) Autotune(ctx context.Context, p service.WizardParams) error {
	return m.hit("autotune", p)
}
func (m *mockControl) Touch(ctx context.Context, action string) error {
	return m.hit("touch", action)
}
func (m *mockControl) Wipe(ctx context.Context) error { return m.hit("wipe", nil) }

type mockMonitoring struct {
	mu       sync.Mutex
	state    tr.Telemetry
	err      error
	profiles []profile.Profile
}

func (m *mockMonitoring) GetState(ctx context.Context) (tr.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

func (m *mockMonitoring) set(st tr.Telemetry) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
}

func (m *mockMonitoring) Profiles(ctx context.Context) ([]profile.Profile, error) {
	return m.profiles, m.err
}

type mockEventLog struct {
	resp     []tr.DeviceEvent
	err      error
	pruned   int64
	lastKeep time.Duration
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]tr.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

func (m *mockEventLog) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	m.lastKeep = keep
	return m.pruned, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
