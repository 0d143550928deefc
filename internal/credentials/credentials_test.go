package credentials

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/granola-sync/internal/storage"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *credentials.Error", err)
	}
	return cerr.Reason
}

func TestParseToken(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		token  string
		reason Reason
	}{
		{"string encoded", `{"cognito_tokens": "{\"access_token\": \"tok-1\"}"}`, "tok-1", ""},
		{"object", `{"cognito_tokens": {"access_token": "tok-2", "refresh_token": "r"}}`, "tok-2", ""},
		{"not json", `{{{`, "", ReasonMalformedJSON},
		{"inner not json", `{"cognito_tokens": "nope"}`, "", ReasonMalformedJSON},
		{"no cognito_tokens", `{"user": {}}`, "", ReasonTokenMissing},
		{"null cognito_tokens", `{"cognito_tokens": null}`, "", ReasonTokenMissing},
		{"empty access token", `{"cognito_tokens": "{\"access_token\": \"\"}"}`, "", ReasonTokenMissing},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tok, err := ParseToken([]byte(c.in))
			if c.reason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tok != c.token {
					t.Errorf("token = %q, want %q", tok, c.token)
				}
				return
			}
			if got := reasonOf(t, err); got != c.reason {
				t.Errorf("reason = %s, want %s", got, c.reason)
			}
		})
	}
}

func TestFileResolver(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("config/supabase.json", []byte(`{"cognito_tokens": "{\"access_token\": \"abc\"}"}`))

	tok, err := (&FileResolver{Store: store, Path: "config/supabase.json"}).Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tok != "abc" {
		t.Errorf("token = %q", tok)
	}

	failures := map[string]Reason{
		"":                   ReasonPathNotConfigured,
		"   ":                ReasonPathNotConfigured,
		"/etc/supabase.json": ReasonPathAbsolute,
		"missing.json":       ReasonFileNotFound,
	}
	for path, want := range failures {
		_, err := (&FileResolver{Store: store, Path: path}).Resolve(context.Background())
		if got := reasonOf(t, err); got != want {
			t.Errorf("path %q: reason = %s, want %s", path, got, want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	for _, r := range []Reason{
		ReasonPathNotConfigured, ReasonPathAbsolute, ReasonFileNotFound,
		ReasonMalformedJSON, ReasonTokenMissing, ReasonUnreachable,
	} {
		e := &Error{Reason: r}
		if e.Message() == "" || e.Message() == (&Error{Reason: "other"}).Message() {
			t.Errorf("reason %s has no specific message", r)
		}
	}
}

func TestLoopbackHandler(t *testing.T) {
	src := filepath.Join(t.TempDir(), "supabase.json")
	_ = os.WriteFile(src, []byte(`{"cognito_tokens": {"access_token": "x"}}`), 0o600)

	for _, p := range []string{"/", "/supabase.json"} {
		srv := httptest.NewServer((&Loopback{SourcePath: src}).Handler())
		resp, err := http.Get(srv.URL + p)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		srv.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", p, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
	}

	srv := httptest.NewServer((&Loopback{SourcePath: src}).Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/other")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /other = %d, want 404", resp.StatusCode)
	}
}

func TestLoopbackHandler_ServesPayloadOnce(t *testing.T) {
	src := filepath.Join(t.TempDir(), "supabase.json")
	payload := `{"cognito_tokens": {"access_token": "x"}}`
	srv := httptest.NewServer((&Loopback{SourcePath: src}).Handler())
	defer srv.Close()

	get := func(p string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + p)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	// A miss does not use up the handler.
	if code, _ := get("/"); code != http.StatusNotFound {
		t.Fatalf("missing file = %d, want 404", code)
	}
	_ = os.WriteFile(src, []byte(payload), 0o600)

	if code, body := get("/"); code != http.StatusOK || body != payload {
		t.Fatalf("first GET = %d %q", code, body)
	}
	for _, p := range []string{"/", "/supabase.json"} {
		code, body := get(p)
		if code != http.StatusGone {
			t.Errorf("repeat GET %s = %d, want 410", p, code)
		}
		if strings.Contains(body, "access_token") {
			t.Errorf("repeat GET %s leaked payload: %q", p, body)
		}
	}
}

func TestLoopbackResolver(t *testing.T) {
	src := filepath.Join(t.TempDir(), "supabase.json")
	_ = os.WriteFile(src, []byte(`{"cognito_tokens": "{\"access_token\": \"loop-tok\"}"}`), 0o600)

	r := &LoopbackResolver{Loopback: &Loopback{Address: "127.0.0.1:0", SourcePath: src}}
	tok, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tok != "loop-tok" {
		t.Errorf("token = %q", tok)
	}
}

func TestLoopbackResolver_MissingSource(t *testing.T) {
	r := &LoopbackResolver{Loopback: &Loopback{
		Address:    "127.0.0.1:0",
		SourcePath: filepath.Join(t.TempDir(), "absent.json"),
	}}
	_, err := r.Resolve(context.Background())
	if got := reasonOf(t, err); got != ReasonFileNotFound {
		t.Errorf("reason = %s, want %s", got, ReasonFileNotFound)
	}

	_, err = (&LoopbackResolver{}).Resolve(context.Background())
	if got := reasonOf(t, err); got != ReasonPathNotConfigured {
		t.Errorf("reason = %s, want %s", got, ReasonPathNotConfigured)
	}
}

func TestLoopback_StopsOnContextCancel(t *testing.T) {
	lb := &Loopback{Address: "127.0.0.1:0", SourcePath: "unused"}
	ctx, cancel := context.WithCancel(context.Background())
	baseURL, stop, err := lb.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()
	cancel()

	client := &http.Client{}
	var lastErr error
	for i := 0; i < 50; i++ {
		resp, err := client.Get(baseURL)
		if err != nil {
			lastErr = err
			break
		}
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	if lastErr == nil {
		t.Error("listener still serving after cancel")
	}
}
