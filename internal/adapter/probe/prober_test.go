package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neomorfeo/storebridge/internal/adapter/probe"
)

func TestProber_Check_Reachable(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	p := probe.New(0)
	if err := p.Check(context.Background(), srv.URL+"/image.png"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if method != http.MethodHead {
		t.Errorf("method = %q, want HEAD", method)
	}
}

func TestProber_Check_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p := probe.New(0)
	err := p.Check(context.Background(), srv.URL+"/missing.png")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	want := "Image validation failed for URL: " + srv.URL + "/missing.png"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestProber_Check_Unreachable(t *testing.T) {
	p := probe.New(100 * time.Millisecond)
	err := p.Check(context.Background(), "http://localhost:1/image.png")
	if err == nil {
		t.Fatal("expected error for unreachable host")
	}
}

func TestProber_Check_InvalidURL(t *testing.T) {
	p := probe.New(0)
	if err := p.Check(context.Background(), "://not-a-url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
