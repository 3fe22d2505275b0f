package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRetrieverFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/media/ok":
			w.Write([]byte("%PDF-1.4 receipt"))
		case "/media/big":
			w.Write([]byte(strings.Repeat("x", 65)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewRetriever("AC123", "secret", 64, zap.NewNop())

	data, err := r.Fetch(context.Background(), srv.URL+"/media/ok")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "%PDF-1.4 receipt" {
		t.Errorf("unexpected body: %q", data)
	}

	for name, url := range map[string]string{
		"not found": srv.URL + "/media/missing",
		"too large": srv.URL + "/media/big",
		"bad url":   "://nope",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := r.Fetch(context.Background(), url); !errors.Is(err, ErrRetrieval) {
				t.Errorf("expected ErrRetrieval, got %v", err)
			}
		})
	}

	anonymous := NewRetriever("", "", 0, zap.NewNop())
	if _, err := anonymous.Fetch(context.Background(), srv.URL+"/media/ok"); !errors.Is(err, ErrRetrieval) {
		t.Errorf("missing credentials: expected ErrRetrieval, got %v", err)
	}
}

func TestRetrieverFollowsCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewRetriever("AC123", "secret", 0, zap.NewNop())
	if r.httpClient.Timeout != 0 {
		t.Errorf("downloads should only be bounded by the caller, got client timeout %s", r.httpClient.Timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := r.Fetch(ctx, srv.URL+"/media/slow"); !errors.Is(err, ErrRetrieval) {
		t.Errorf("expected ErrRetrieval after cancellation, got %v", err)
	}
}
