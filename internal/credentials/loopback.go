package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultLoopbackAddress is where the credential listener binds by default.
const DefaultLoopbackAddress = "127.0.0.1:2590"

// Loopback serves one credential file that lives outside the vault on a
// local-only listener.
type Loopback struct {
	Address    string
	SourcePath string
	Logger     *slog.Logger
}

// Handler returns the router serving the credential file at "/" and
// "/supabase.json". Each handler hands out the payload once; later requests
// get 410 Gone.
func (l *Loopback) Handler() http.Handler {
	var served atomic.Bool
	serve := func(w http.ResponseWriter, _ *http.Request) {
		if served.Load() {
			http.Error(w, "Credentials already served", http.StatusGone)
			return
		}
		data, err := os.ReadFile(l.SourcePath)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		if !served.CompareAndSwap(false, true) {
			http.Error(w, "Credentials already served", http.StatusGone)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
	r := chi.NewRouter()
	r.Get("/", serve)
	r.Get("/supabase.json", serve)
	return r
}

// Start binds the listener and serves until stop is called or ctx is done.
// It returns the base URL of the listener.
func (l *Loopback) Start(ctx context.Context) (baseURL string, stop func(), err error) {
	addr := l.Address
	if addr == "" {
		addr = DefaultLoopbackAddress
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("credentials: listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: l.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger().Error("credentials: loopback serve", slog.String("error", err.Error()))
		}
	}()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		l.logger().Debug("credentials: loopback stopped", slog.String("addr", ln.Addr().String()))
	}()

	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }
	l.logger().Debug("credentials: loopback started", slog.String("addr", ln.Addr().String()))
	return "http://" + ln.Addr().String() + "/", stop, nil
}

func (l *Loopback) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// LoopbackResolver starts the loopback listener for the duration of one
// request and parses the token from its response.
type LoopbackResolver struct {
	Loopback *Loopback
	Client   *http.Client
}

// Resolve implements Resolver.
func (r *LoopbackResolver) Resolve(ctx context.Context) (string, error) {
	if r.Loopback == nil || r.Loopback.SourcePath == "" {
		return "", &Error{Reason: ReasonPathNotConfigured}
	}
	baseURL, stop, err := r.Loopback.Start(ctx)
	if err != nil {
		return "", &Error{Reason: ReasonUnreachable, Err: err}
	}
	defer stop()

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", &Error{Reason: ReasonUnreachable, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{Reason: ReasonUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", &Error{Reason: ReasonFileNotFound, Err: errors.New(r.Loopback.SourcePath)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Reason: ReasonUnreachable, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Reason: ReasonUnreachable, Err: err}
	}
	return ParseToken(data)
}
