package project

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/auth"
	"github.com/hatchwork/backend/internal/middleware"
)

// newTestServer wires the handler into a mux with the same patterns the
// router uses, with a fixed account injected in place of SessionAuth.
func newTestServer(t *testing.T, acc *auth.Account) (*httptest.Server, Service) {
	t.Helper()
	svc := NewService(newMemRepo())
	h := NewHandler(svc, nil)

	inject := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(middleware.WithAccount(r.Context(), acc)))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/projects", inject(h.Create))
	mux.HandleFunc("GET /api/v1/projects", inject(h.List))
	mux.HandleFunc("GET /api/v1/projects/{id}", inject(h.Get))
	mux.HandleFunc("PUT /api/v1/projects/{id}", inject(h.Update))
	mux.HandleFunc("DELETE /api/v1/projects/{id}", inject(h.Delete))
	mux.HandleFunc("POST /api/v1/projects/{id}/commit", inject(h.Commit))
	mux.HandleFunc("POST /api/v1/projects/{id}/undo", inject(h.Undo))
	mux.HandleFunc("POST /api/v1/projects/{id}/redo", inject(h.Redo))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func testAccount() *auth.Account {
	return &auth.Account{ID: uuid.New(), Email: "u1@example.com", DisplayName: "U1"}
}

func TestHandler_CreateCommitUndoFlow(t *testing.T) {
	srv, _ := newTestServer(t, testAccount())

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/v1/projects", `{"name":"Demo"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, created)
	}
	id := created["id"].(string)

	commitBody := `{"files":{"index.html":"<h1>hi</h1>"},"projectName":"Demo","chatMessages":[]}`
	resp, state := doJSON(t, http.MethodPost, srv.URL+"/api/v1/projects/"+id+"/commit", commitBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit: %d %v", resp.StatusCode, state)
	}
	current := state["current"].(map[string]any)
	files := current["files"].(map[string]any)
	if files["index.html"] != "<h1>hi</h1>" {
		t.Fatalf("committed file missing: %v", files)
	}
	if state["can_undo"] != true {
		t.Fatal("can_undo should be true after a commit")
	}

	resp, state = doJSON(t, http.MethodPost, srv.URL+"/api/v1/projects/"+id+"/undo", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("undo: %d %v", resp.StatusCode, state)
	}
	current = state["current"].(map[string]any)
	if len(current["files"].(map[string]any)) != 0 {
		t.Fatalf("undo should restore empty genesis files, got %v", current["files"])
	}

	// A second undo hits the genesis boundary: 409 with a stable code.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/projects/"+id+"/undo", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("undo at genesis: %d", resp.StatusCode)
	}
	if body["code"] != "at_genesis" {
		t.Fatalf("undo at genesis code = %v", body["code"])
	}
}

func TestHandler_RedoAtHeadCode(t *testing.T) {
	acc := testAccount()
	srv, svc := newTestServer(t, acc)

	p, err := svc.Create(context.Background(), acc.ID, "Demo")
	if err != nil {
		t.Fatal(err)
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/projects/"+p.ID.String()+"/redo", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("redo at head: %d", resp.StatusCode)
	}
	if body["code"] != "at_head" {
		t.Fatalf("redo at head code = %v", body["code"])
	}
}

func TestHandler_UpdateIDMismatchRejected(t *testing.T) {
	acc := testAccount()
	srv, svc := newTestServer(t, acc)

	p, err := svc.Create(context.Background(), acc.ID, "Demo")
	if err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf(`{"id":%q,"name":"Demo","revision":1,"history":{"versions":[{"files":{}}],"currentIndex":0}}`, uuid.New())
	resp, decoded := doJSON(t, http.MethodPut, srv.URL+"/api/v1/projects/"+p.ID.String(), body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("id mismatch: %d %v", resp.StatusCode, decoded)
	}
	if decoded["code"] != "invalid_argument" {
		t.Fatalf("id mismatch code = %v", decoded["code"])
	}
}

func TestHandler_StaleRevisionIs409(t *testing.T) {
	acc := testAccount()
	srv, svc := newTestServer(t, acc)
	ctx := context.Background()

	p, err := svc.Create(ctx, acc.ID, "Demo")
	if err != nil {
		t.Fatal(err)
	}
	// Bump the revision behind the client's back.
	if _, err := svc.Commit(ctx, acc.ID, p.ID, p.History.Current()); err != nil {
		t.Fatal(err)
	}

	body := `{"name":"Renamed","revision":1,"history":{"versions":[{"files":{}}],"currentIndex":0}}`
	resp, decoded := doJSON(t, http.MethodPut, srv.URL+"/api/v1/projects/"+p.ID.String(), body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale update: %d %v", resp.StatusCode, decoded)
	}
	if decoded["code"] != "conflict" {
		t.Fatalf("stale update code = %v", decoded["code"])
	}
}

func TestHandler_GetUnknownProjectIs404(t *testing.T) {
	srv, _ := newTestServer(t, testAccount())

	resp, decoded := doJSON(t, http.MethodGet, srv.URL+"/api/v1/projects/"+uuid.NewString(), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown project: %d", resp.StatusCode)
	}
	if decoded["code"] != "not_found" {
		t.Fatalf("unknown project code = %v", decoded["code"])
	}
}

func TestHandler_DeleteIsIdempotent(t *testing.T) {
	acc := testAccount()
	srv, svc := newTestServer(t, acc)

	p, err := svc.Create(context.Background(), acc.ID, "Doomed")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/projects/"+p.ID.String(), "")
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete %d: %d", i+1, resp.StatusCode)
		}
	}
}
