package governance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsCreator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/creators/check" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("address") {
		case "erd1owner":
			w.Write([]byte(`{"allowed":true}`))
		default:
			w.Write([]byte(`{"allowed":false}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	ok, err := c.IsCreator(context.Background(), "erd1owner")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatalf("expected erd1owner to be allowed")
	}
	ok, err = c.IsCreator(context.Background(), "erd1stranger")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatalf("expected erd1stranger to be denied")
	}
	if _, err := c.IsCreator(context.Background(), "  "); err == nil {
		t.Fatalf("blank address accepted")
	}
}

func TestFeeToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/params/fee-token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"token":"FEE-abcdef"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	token, err := c.FeeToken(context.Background())
	if err != nil {
		t.Fatalf("fee token: %v", err)
	}
	if token != "FEE-abcdef" {
		t.Fatalf("token = %q", token)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	_, err := c.FeeToken(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", apiErr.Status)
	}
}
