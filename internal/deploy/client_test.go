package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hatchwork/backend/internal/models"
)

func TestClient_Deploy(t *testing.T) {
	var gotAuth, gotSiteName, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sites" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotSiteName = r.Header.Get("X-Site-Name")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"dep_1","url":"https://demo.example.app"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "deploy-key")
	state := models.AppState{Files: map[string]string{"index.html": "<h1>live</h1>"}}

	d, err := c.Deploy(context.Background(), "demo-site", state)
	if err != nil {
		t.Fatal(err)
	}
	if d.URL != "https://demo.example.app" || d.ID != "dep_1" {
		t.Fatalf("unexpected deployment: %+v", d)
	}
	if gotAuth != "Bearer deploy-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotSiteName != "demo-site" {
		t.Fatalf("X-Site-Name = %q", gotSiteName)
	}
	if gotContentType != "application/zip" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}

	zr, err := zip.NewReader(bytes.NewReader(gotBody), int64(len(gotBody)))
	if err != nil {
		t.Fatalf("uploaded body is not a zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "index.html" {
		t.Fatalf("unexpected archive contents: %v", zr.File)
	}
}

func TestClient_Deploy_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "deploy-key")
	if _, err := c.Deploy(context.Background(), "demo", models.AppState{Files: map[string]string{}}); err == nil {
		t.Fatal("expected error on non-2xx provider response")
	}
}
