package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sharedlist/internal/adapters/listapi"
	"sharedlist/internal/client"
	"sharedlist/internal/core"
	"sharedlist/internal/infra/persistence/memory"
	"sharedlist/pkg/domain"
)

func newClient(t *testing.T, svc *core.Service) *client.Client {
	t.Helper()
	srv := httptest.NewServer(listapi.NewRouter(listapi.NewHandler(svc, nil), listapi.RouterOptions{}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t, core.NewInMemoryService(core.NewDefaultRulesEngine(0)))
	ctx := context.Background()

	list, err := c.Read(ctx)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	if _, err := c.Add(ctx, "Milk", "Ana"); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, err = c.Toggle(ctx, 1)
	if err != nil || !list[0].Completed {
		t.Fatalf("toggle: %v %+v", err, list)
	}
	list, err = c.Delete(ctx, 1)
	if err != nil || len(list) != 0 {
		t.Fatalf("delete: %v %+v", err, list)
	}
	if _, err := c.Add(ctx, "Eggs", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, err = c.ClearAll(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("clear: %v %+v", err, list)
	}
}

func TestClientMapsValidationErrors(t *testing.T) {
	c := newClient(t, core.NewInMemoryService(nil))
	_, err := c.Add(context.Background(), " ", "Ana")
	var se *client.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if !domain.IsValidation(err) {
		t.Fatalf("400 should unwrap to a validation error")
	}
	if se.Message == "" {
		t.Fatalf("expected server message")
	}
}

func TestClientMapsStorageErrors(t *testing.T) {
	store := memory.NewStore(nil, memory.WithCommitHook(func(context.Context, memory.Snapshot) error { return errors.New("disk") }))
	c := newClient(t, core.NewService(store))
	_, err := c.Add(context.Background(), "Milk", "Ana")
	if !domain.IsStorage(err) {
		t.Fatalf("500 should unwrap to a storage error, got %v", err)
	}
}

func TestClientMapsMethodNotAllowed(t *testing.T) {
	err := (&client.StatusError{Code: http.StatusMethodNotAllowed}).Unwrap()
	if !errors.Is(err, domain.ErrMethodNotAllowed) {
		t.Fatalf("405 should unwrap to ErrMethodNotAllowed")
	}
}

func TestClientNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	_, err := client.New(srv.URL).Read(context.Background())
	var se *client.StatusError
	if !errors.As(err, &se) || se.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	_, err := client.New(addr).Read(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var se *client.StatusError
	if errors.As(err, &se) {
		t.Fatalf("transport failure must not look like a server response")
	}
}

func TestNewNormalizesAddress(t *testing.T) {
	cases := map[string]string{
		"":                       client.DefaultAddr,
		"localhost:9000":         "http://localhost:9000",
		"https://list.example/ ": "https://list.example",
	}
	for in, want := range cases {
		if got := client.New(in).BaseURL(); got != want {
			t.Fatalf("New(%q).BaseURL() = %q, want %q", in, got, want)
		}
	}
}
