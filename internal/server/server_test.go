package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	dstesting "github.com/xtxerr/docservice/internal/testing"
)

func TestServer_RunAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	s := New(Config{Handler: handler, Listen: "127.0.0.1:0", DrainTimeout: time.Second})
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	url := fmt.Sprintf("http://%s/", s.Addr())
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	refused := func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return true
		}
		resp.Body.Close()
		return false
	}
	if err := dstesting.Eventually(time.Second, 10*time.Millisecond, refused); err != nil {
		t.Errorf("server still accepting after shutdown: %v", err)
	}
}

func TestServer_DrainsInFlight(t *testing.T) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		io.WriteString(w, "done")
	})

	s := New(Config{Handler: handler, Listen: "127.0.0.1:0", DrainTimeout: 5 * time.Second})
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := dstesting.NewGroup(t, 10*time.Second)
	g.Go(func(context.Context) error { return s.Run(ctx) })
	g.Go(func(context.Context) error {
		resp, err := http.Get(fmt.Sprintf("http://%s/", s.Addr()))
		if err != nil {
			return fmt.Errorf("in-flight request: %w", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "done" {
			return fmt.Errorf("body = %q, want done", body)
		}
		return nil
	})

	<-started
	cancel()
	g.Wait()
}

func TestServer_MissingTLSFiles(t *testing.T) {
	s := New(Config{
		Handler:     http.NotFoundHandler(),
		Listen:      "127.0.0.1:0",
		TLSCertFile: "/nonexistent/cert.pem",
		TLSKeyFile:  "/nonexistent/key.pem",
	})
	if err := s.Listen(); err == nil {
		t.Fatal("Listen succeeded without certificate files")
	}
}
