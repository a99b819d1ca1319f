package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"temp_regulator/internal/service"
)

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const goodCreds = `{"username":"shift-lead","password":"kiln-secret"}`

func TestAuthHandlers_SignUp(t *testing.T) {
	auth := &mockAuth{signUpID: 42}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/sign-up", goodCreds)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.ID != 42 || out.Username != "shift-lead" {
		t.Fatalf("unexpected body: %+v", out)
	}
	if auth.lastSignUpUsername != "shift-lead" || auth.lastSignUpPassword != "kiln-secret" {
		t.Fatalf("credentials not forwarded: %q/%q", auth.lastSignUpUsername, auth.lastSignUpPassword)
	}

	auth.signUpErr = errors.New("UNIQUE constraint failed")
	if w = postJSON(r, "/auth/sign-up", goodCreds); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate sign-up: want 400, got %d", w.Code)
	}
}

func TestAuthHandlers_CredentialValidation(t *testing.T) {
	bodies := map[string]string{
		"short password": `{"username":"shift-lead","password":"123"}`,
		"short username": `{"username":"ab","password":"kiln-secret"}`,
		"wrong types":    `{"username":1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			auth := &mockAuth{}
			r := newTestRouter(&service.Service{Authorization: auth})
			for _, path := range []string{"/auth/sign-up", "/auth/sign-in"} {
				if w := postJSON(r, path, body); w.Code != http.StatusBadRequest {
					t.Fatalf("%s: want 400, got %d", path, w.Code)
				}
			}
			if auth.lastSignUpUsername != "" || auth.lastGenUsername != "" {
				t.Fatalf("service must not be called")
			}
		})
	}
}

func TestAuthHandlers_SignIn(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{service.ErrInvalidPassword, http.StatusUnauthorized},
		{fmt.Errorf("lookup: %w", service.ErrOperatorNotFound), http.StatusUnauthorized},
		{errors.New("db locked"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.err), func(t *testing.T) {
			auth := &mockAuth{genTokenToken: "tok123", genTokenErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: auth})

			w := postJSON(r, "/auth/sign-in", goodCreds)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d", w.Code, tc.code)
			}
			if tc.err != nil {
				return
			}
			var m map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &m)
			if m["token"] != "tok123" || m["token_type"] != "Bearer" {
				t.Fatalf("unexpected body: %v", m)
			}
		})
	}
}
