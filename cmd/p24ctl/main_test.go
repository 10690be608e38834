//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := `gateway:
  merchant_id: 123456
  secret_id: api-secret
  crc: test-crc
  base_url: ` + baseURL + `
http:
  return_url: https://shop.example.com/return
`
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSignThenVerifyNotification(t *testing.T) {
	cfgPath := writeConfig(t, "https://sandbox.przelewy24.pl/api/v1")
	ctx := context.Background()

	var signed bytes.Buffer
	err := run(ctx, []string{"-config", cfgPath, "sign-notification", "-session", "s1", "-amount", "10000", "-order", "42"}, nil, &signed)
	if err != nil {
		t.Fatalf("sign-notification: %v", err)
	}
	if !strings.Contains(signed.String(), `"sign":"`) || strings.Contains(signed.String(), "test-crc") {
		t.Fatalf("unexpected signed body: %s", signed.String())
	}

	var out bytes.Buffer
	if err := run(ctx, []string{"-config", cfgPath, "verify-notification"}, bytes.NewReader(signed.Bytes()), &out); err != nil {
		t.Fatalf("verify-notification: %v, out=%s", err, out.String())
	}
	var res struct {
		Verified bool `json:"verified"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil || !res.Verified {
		t.Fatalf("expected verified output, got %s (%v)", out.String(), err)
	}

	tampered := strings.Replace(signed.String(), `"amount":10000`, `"amount":1`, 1)
	out.Reset()
	err = run(ctx, []string{"-config", cfgPath, "verify-notification"}, strings.NewReader(tampered), &out)
	if !errors.Is(err, errNotVerified) {
		t.Fatalf("expected errNotVerified, got %v", err)
	}
}

func TestTestAccessAndRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "123456" || pass != "api-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`"Unauthorized"`))
			return
		}
		switch r.URL.Path {
		case "/api/v1/testAccess":
			_, _ = w.Write([]byte(`{"data":true,"error":""}`))
		case "/api/v1/transaction/register":
			_, _ = w.Write([]byte(`{"data":{"token":"TOKEN-1"},"responseCode":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	cfgPath := writeConfig(t, srv.URL+"/api/v1")
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, []string{"-config", cfgPath, "test-access"}, nil, &out); err != nil {
		t.Fatalf("test-access: %v", err)
	}
	if !strings.Contains(out.String(), `"granted": true`) || strings.Contains(out.String(), "api-secret") {
		t.Fatalf("unexpected test-access output: %s", out.String())
	}

	out.Reset()
	err := run(ctx, []string{"-config", cfgPath, "register", "-amount", "500", "-description", "d", "-email", "e@example.com"}, nil, &out)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.Contains(out.String(), srv.URL+"/trnRequest/TOKEN-1") {
		t.Fatalf("missing redirect url: %s", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	cfgPath := writeConfig(t, "https://sandbox.przelewy24.pl/api/v1")
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", cfgPath, "bogus"}, nil, &out); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if !strings.Contains(out.String(), "usage:") {
		t.Fatalf("expected usage, got %s", out.String())
	}
}
