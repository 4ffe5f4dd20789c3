package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
)

func localRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// =====================
// Local API
// =====================

func TestLocalHandler_EnqueueAndStatus(t *testing.T) {
	q := newTestQueue(t)
	s := NewSyncer(q, &fakeTransport{}, time.Hour, time.Second)
	h := NewLocalHandler(q, s).Routes()

	m := mustMutation(t, enum.MutationAddItem, order.AddItemPayload{MenuItemID: uuid.New(), Quantity: 2})
	rr := localRequest(t, h, "POST", "/queue/", m)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	select {
	case <-s.kick:
	default:
		t.Error("enqueue did not request a flush")
	}

	rr = localRequest(t, h, "GET", "/queue/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var status struct {
		Counts  map[string]int64 `json:"counts"`
		Pending []entryResponse  `json:"pending"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Counts[enum.EntryStateQueued] != 1 || len(status.Pending) != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Pending[0].LocalID != m.LocalID.String() {
		t.Errorf("unexpected local id %s", status.Pending[0].LocalID)
	}
}

func TestLocalHandler_EnqueueRequiresKind(t *testing.T) {
	q := newTestQueue(t)
	h := NewLocalHandler(q, NewSyncer(q, &fakeTransport{}, time.Hour, time.Second)).Routes()

	rr := localRequest(t, h, "POST", "/queue/", map[string]string{"local_id": uuid.NewString()})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLocalHandler_ConflictsAndDismiss(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	h := NewLocalHandler(q, NewSyncer(q, &fakeTransport{}, time.Hour, time.Second)).Routes()

	m := mustMutation(t, enum.MutationAdvance, nil)
	enqueue(t, q, m)
	e := stateOf(t, q, m.LocalID)
	if err := q.markInflight(ctx, e.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := q.markFailed(ctx, e.ID, "item already fired"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	rr := localRequest(t, h, "GET", "/queue/conflicts", nil)
	var conflicts []entryResponse
	if err := json.NewDecoder(rr.Body).Decode(&conflicts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].LastError != "item already fired" {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}

	rr = localRequest(t, h, "DELETE", "/queue/conflicts/"+m.LocalID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = localRequest(t, h, "DELETE", "/queue/conflicts/"+m.LocalID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = localRequest(t, h, "DELETE", "/queue/conflicts/nope", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
