package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/gearbox/cmd/cli/config"
	"github.com/crucial707/gearbox/internal/models"
)

func setup(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("GEARBOX_API_URL", srv.URL)
	t.Setenv("GEARBOX_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
}

func TestLogin_SavesToken(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Sam" || body["role"] != "user" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "jwt-token",
			"user":  models.NewUser("Sam", models.RoleUser),
		})
	})

	cmd := loginCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--name", "Sam", "--role", "user"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Logged in as Sam (user)") {
		t.Errorf("output = %q", out.String())
	}
	if tok, err := config.LoadToken(); err != nil || tok != "jwt-token" {
		t.Errorf("saved token = %q, %v", tok, err)
	}
}

func TestLogin_RejectsBadRole(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called")
	})
	cmd := loginCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--name", "Sam", "--role", "owner"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestLogin_ServerError(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid passcode"}`))
	})
	cmd := loginCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--name", "Ana", "--role", "admin", "--passcode", "nope"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid passcode") {
		t.Errorf("err = %v", err)
	}
	if _, err := config.LoadToken(); err == nil {
		t.Error("token saved despite failed login")
	}
}

func TestLogout(t *testing.T) {
	setup(t, nil)
	if err := config.SaveToken("x"); err != nil {
		t.Fatal(err)
	}
	cmd := logoutCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Logged out.") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := config.LoadToken(); err == nil {
		t.Error("token still present after logout")
	}
}
