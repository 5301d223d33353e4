// Package router wires the HTTP surface under /api/v1.
package router

import (
	"net/http"

	"github.com/hatchwork/backend/internal/auth"
	"github.com/hatchwork/backend/internal/deploy"
	"github.com/hatchwork/backend/internal/export"
	"github.com/hatchwork/backend/internal/generate"
	"github.com/hatchwork/backend/internal/images"
	"github.com/hatchwork/backend/internal/project"
	"github.com/hatchwork/backend/internal/workspace"
)

// Handlers collects the per-feature HTTP handlers the router mounts.
type Handlers struct {
	Auth      *auth.Handler
	Workspace *workspace.Handler
	Projects  *project.Handler
	Generate  *generate.Handler
	Export    *export.Handler
	Deploy    *deploy.Handler
	Images    *images.Handler
}

// Middleware wraps a handler; session auth plugs in here.
type Middleware func(http.Handler) http.Handler

// New returns the API handler. Everything except registration and login
// sits behind session auth.
func New(h Handlers, sessionAuth Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)

	authed := func(fn http.HandlerFunc) http.Handler { return sessionAuth(fn) }

	mux.Handle("GET /api/v1/workspace", authed(h.Workspace.Load))

	mux.Handle("POST /api/v1/projects", authed(h.Projects.Create))
	mux.Handle("GET /api/v1/projects", authed(h.Projects.List))
	mux.Handle("GET /api/v1/projects/{id}", authed(h.Projects.Get))
	mux.Handle("PUT /api/v1/projects/{id}", authed(h.Projects.Update))
	mux.Handle("DELETE /api/v1/projects/{id}", authed(h.Projects.Delete))
	mux.Handle("POST /api/v1/projects/{id}/commit", authed(h.Projects.Commit))
	mux.Handle("POST /api/v1/projects/{id}/undo", authed(h.Projects.Undo))
	mux.Handle("POST /api/v1/projects/{id}/redo", authed(h.Projects.Redo))

	mux.Handle("POST /api/v1/projects/{id}/generate", authed(h.Generate.Generate))
	mux.Handle("GET /api/v1/projects/{id}/export", authed(h.Export.Download))
	mux.Handle("POST /api/v1/projects/{id}/deploy", authed(h.Deploy.Deploy))

	mux.Handle("GET /api/v1/images/search", authed(h.Images.Search))

	mux.Handle("GET /api/v1/credits", authed(h.Workspace.GetCredits))
	mux.Handle("POST /api/v1/credits/reset", authed(h.Workspace.ResetCredits))

	return mux
}
