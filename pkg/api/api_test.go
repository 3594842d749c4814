package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"tableflow/pkg/logger"
	"tableflow/pkg/order"
	"tableflow/pkg/order/memory"
)

func newTestServer(repo order.Repository) *Server {
	return NewServer(repo, logger.New(io.Discard, logger.LevelDebug, "api-test", nil), nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWelcome(t *testing.T) {
	rec := do(t, newTestServer(memory.New()), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || rec.Body.String() != Usage {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestTableLifecycle(t *testing.T) {
	store := memory.New()
	srv := newTestServer(store)

	rec := do(t, srv, http.MethodGet, "/table/1", "")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("untouched table: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, "/table/1", `{"name":"Pork Ramen","cook_time":9}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "Inserted" {
		t.Fatalf("insert: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/table/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %q", rec.Code, rec.Body.String())
	}
	var items []order.Item
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Pork Ramen" || items[0].CookTime != 9 || items[0].ID == uuid.Nil {
		t.Fatalf("unexpected items: %+v", items)
	}
	id := items[0].ID

	rec = do(t, srv, http.MethodPut, "/table/1/item/"+id.String(), `{"name":"Chicken Curry","cook_time":12}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "Updated" {
		t.Fatalf("update: %d %q", rec.Code, rec.Body.String())
	}
	got, _ := store.ItemsFromTable(context.Background(), 1)
	want := []order.Item{{ID: id, Name: "Chicken Curry", CookTime: 12}}
	if diff := cmp.Diff(want, got); diff != "" || got[0].Name != "Chicken Curry" {
		t.Fatalf("after update (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodDelete, "/table/1/item/"+id.String(), "")
	if rec.Code != http.StatusOK || rec.Body.String() != "Deleted" {
		t.Fatalf("delete: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/table/1", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("emptied table: %d %q", rec.Code, rec.Body.String())
	}
}

func TestUpdateMissingItemFails(t *testing.T) {
	store := memory.New()
	store.AddItems(context.Background(), 2, []order.Item{order.NewItem("Coffee")})
	srv := newTestServer(store)

	rec := do(t, srv, http.MethodPut, "/table/2/item/"+uuid.NewString(), `{"name":"Tea","cook_time":5}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "nothing to update") {
		t.Fatalf("update missing: %d %q", rec.Code, rec.Body.String())
	}
	rec = do(t, srv, http.MethodDelete, "/table/3/item/"+uuid.NewString(), "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("delete on missing table: %d %q", rec.Code, rec.Body.String())
	}
}

type countingRepo struct {
	order.Repository
	calls int
}

func (c *countingRepo) ItemsFromTable(ctx context.Context, t order.TableID) ([]order.Item, error) {
	c.calls++
	return c.Repository.ItemsFromTable(ctx, t)
}

func (c *countingRepo) AddItems(ctx context.Context, t order.TableID, items []order.Item) error {
	c.calls++
	return c.Repository.AddItems(ctx, t, items)
}

func (c *countingRepo) UpdateItem(ctx context.Context, t order.TableID, id uuid.UUID, it order.Item) error {
	c.calls++
	return c.Repository.UpdateItem(ctx, t, id, it)
}

func (c *countingRepo) RemoveItem(ctx context.Context, t order.TableID, id uuid.UUID) error {
	c.calls++
	return c.Repository.RemoveItem(ctx, t, id)
}

func TestMalformedRequestsSkipStore(t *testing.T) {
	repo := &countingRepo{Repository: memory.New()}
	srv := newTestServer(repo)
	valid := uuid.NewString()

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/table/abc", ""},
		{http.MethodGet, "/table/0", ""},
		{http.MethodGet, "/table/256", ""},
		{http.MethodPost, "/table/x", `{"name":"Soup","cook_time":4}`},
		{http.MethodPost, "/table/1", `not json`},
		{http.MethodPost, "/table/1", `{"cook_time":4}`},
		{http.MethodPut, "/table/1/item/not-a-uuid", `{"name":"Soup","cook_time":4}`},
		{http.MethodPut, "/table/999/item/" + valid, `{"name":"Soup","cook_time":4}`},
		{http.MethodDelete, "/table/1/item/123", ""},
	}
	for _, tc := range cases {
		rec := do(t, srv, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d %q", tc.method, tc.path, rec.Code, rec.Body.String())
		}
	}
	if repo.calls != 0 {
		t.Fatalf("store touched %d times by malformed requests", repo.calls)
	}
}

type brokenRepo struct{ order.Repository }

func (brokenRepo) AddItems(context.Context, order.TableID, []order.Item) error {
	return errors.New("kitchen on fire")
}

func TestStoreErrorIsServerError(t *testing.T) {
	srv := newTestServer(brokenRepo{Repository: memory.New()})
	rec := do(t, srv, http.MethodPost, "/table/4", `{"name":"Soup","cook_time":4}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "kitchen on fire") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(memory.New()), http.MethodPatch, "/table/1", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
