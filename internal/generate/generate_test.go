package generate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hatchwork/backend/internal/models"
)

func schemasDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "schemas")
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

func TestMerge_AppliesEditSet(t *testing.T) {
	current := models.AppState{
		Files:       map[string]string{"index.html": "<h1>old</h1>", "style.css": "body{}"},
		ProjectName: "Demo",
		ChatMessages: []models.ChatMessage{
			{Role: models.RoleAssistant, Content: "Welcome!"},
		},
	}
	res := &EditResult{
		ChatTurn: "Done, I updated the heading and removed the stylesheet.",
		FileChanges: []FileChange{
			{Path: "index.html", Content: "<h1>new</h1>"},
			{Path: "style.css", Delete: true},
			{Path: "app.js", Content: "console.log(1)"},
		},
		PreviewHTML: "<html>preview</html>",
	}

	next := Merge(current, "change the heading", res, time.Now())

	if next.Files["index.html"] != "<h1>new</h1>" {
		t.Fatalf("upsert not applied: %q", next.Files["index.html"])
	}
	if _, ok := next.Files["style.css"]; ok {
		t.Fatal("deleted file still present")
	}
	if next.Files["app.js"] != "console.log(1)" {
		t.Fatal("new file not added")
	}
	if next.PreviewHTML != "<html>preview</html>" {
		t.Fatal("preview not refreshed")
	}
	if len(next.ChatMessages) != 3 {
		t.Fatalf("expected welcome + user + assistant, got %d", len(next.ChatMessages))
	}
	if next.ChatMessages[1].Role != models.RoleUser || next.ChatMessages[1].Content != "change the heading" {
		t.Fatalf("user turn wrong: %+v", next.ChatMessages[1])
	}
	if next.ChatMessages[2].Role != models.RoleAssistant {
		t.Fatalf("assistant turn wrong: %+v", next.ChatMessages[2])
	}

	// The input snapshot must be untouched (snapshots are immutable).
	if current.Files["index.html"] != "<h1>old</h1>" {
		t.Fatal("merge mutated the input snapshot's files")
	}
	if len(current.ChatMessages) != 1 {
		t.Fatal("merge mutated the input snapshot's chat log")
	}
}

func TestMerge_KeepsPreviewWhenReplyOmitsIt(t *testing.T) {
	current := models.AppState{Files: map[string]string{}, PreviewHTML: "<html>kept</html>"}
	next := Merge(current, "p", &EditResult{ChatTurn: "ok"}, time.Now())
	if next.PreviewHTML != "<html>kept</html>" {
		t.Fatalf("empty reply preview must not clear the existing one, got %q", next.PreviewHTML)
	}
}

// ---------------------------------------------------------------------------
// LLM client schema validation
// ---------------------------------------------------------------------------

func newClientAgainst(t *testing.T, body string, status int) *LLMClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c, err := NewLLMClient(srv.URL, "test-key", schemasDir(t))
	if err != nil {
		t.Fatalf("NewLLMClient: %v", err)
	}
	return c
}

func TestProposeEdit_AcceptsConformingReply(t *testing.T) {
	body := `{
		"chat_turn": "Here you go.",
		"file_changes": [{"path": "index.html", "content": "<h1>hi</h1>"}],
		"preview_html": "<html></html>"
	}`
	c := newClientAgainst(t, body, http.StatusOK)

	res, err := c.ProposeEdit(context.Background(), nil, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if res.ChatTurn != "Here you go." {
		t.Fatalf("chat turn = %q", res.ChatTurn)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].Path != "index.html" {
		t.Fatalf("file changes = %+v", res.FileChanges)
	}
}

func TestProposeEdit_RejectsNonConformingReply(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not JSON", `this is prose, not an edit set`},
		{"missing chat_turn", `{"file_changes": [], "preview_html": ""}`},
		{"empty chat_turn", `{"chat_turn": "", "file_changes": [], "preview_html": ""}`},
		{"change without path", `{"chat_turn": "x", "file_changes": [{"content": "y"}], "preview_html": ""}`},
		{"unknown field", `{"chat_turn": "x", "file_changes": [], "preview_html": "", "extra": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClientAgainst(t, tc.body, http.StatusOK)
			if _, err := c.ProposeEdit(context.Background(), nil, nil); !errors.Is(err, ErrBadEditResult) {
				t.Fatalf("want ErrBadEditResult, got %v", err)
			}
		})
	}
}

func TestProposeEdit_UpstreamErrorStatus(t *testing.T) {
	c := newClientAgainst(t, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	if _, err := c.ProposeEdit(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for non-2xx upstream status")
	}
}
