package web

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/logging"
	"github.com/AdanAlnoor/costportal/internal/middleware"
	"github.com/AdanAlnoor/costportal/internal/project"
	"github.com/AdanAlnoor/costportal/internal/supabase"
)

// DefaultSection is the cost-control tab a bare project URL lands on.
const DefaultSection = "bq"

// loginNoticeDelay is how long the notice page shows before redirecting to
// the sign-in form.
const loginNoticeDelay = 3 * time.Second

var costControlTabs = []Tab{
	{ID: "bq", Label: "Bills of Quantities"},
	{ID: "costcontrol", Label: "Cost Control"},
	{ID: "summary", Label: "Summary"},
	{ID: "settings", Label: "Settings"},
}

// Pages holds the portal's page handlers and their collaborators.
type Pages struct {
	renderer    *Renderer
	routes      []RouteConfig
	cache       *project.Cache
	store       project.Store
	backend     *supabase.Client
	auth        *middleware.Auth
	log         zerolog.Logger
	environment string
	version     string
}

// NewPages wires the page layer. The route tree is validated here so a
// misconfigured tree fails at startup, not at request time.
func NewPages(
	renderer *Renderer,
	cache *project.Cache,
	store project.Store,
	backend *supabase.Client,
	auth *middleware.Auth,
	log zerolog.Logger,
	environment string,
	version string,
) (*Pages, error) {
	routes := Routes()
	if err := ValidateRoutes(routes); err != nil {
		return nil, err
	}
	return &Pages{
		renderer:    renderer,
		routes:      routes,
		cache:       cache,
		store:       store,
		backend:     backend,
		auth:        auth,
		log:         log,
		environment: environment,
		version:     version,
	}, nil
}

func (p *Pages) pageData(r *http.Request, title, activePath string) *PageData {
	return &PageData{
		Title:       title,
		ActivePath:  activePath,
		Nav:         Nav(p.routes, activePath),
		Environment: p.environment,
		Version:     p.version,
		User:        logging.UserID(r.Context()),
	}
}

// Home renders the dashboard landing page.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	data := p.pageData(r, "Dashboard", "/")
	p.render(w, r, http.StatusOK, LayoutFor(p.routes, "/"), "home", data)
}

// ProjectsList renders the filterable project list.
func (p *Pages) ProjectsList(w http.ResponseWriter, r *http.Request) {
	projects, err := p.store.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context(), p.log).Error().Err(err).Msg("list projects")
		p.renderError(w, r)
		return
	}

	status := r.URL.Query().Get("status")
	client := strings.ToLower(r.URL.Query().Get("client"))
	filtered := projects[:0:0]
	for _, pr := range projects {
		if status != "" && pr.Status != status {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(pr.Client), client) {
			continue
		}
		filtered = append(filtered, pr)
	}

	data := p.pageData(r, "Projects", "/projects")
	data.Projects = filtered
	p.render(w, r, http.StatusOK, LayoutFor(p.routes, "/projects"), "projects", data)
}

// ProjectRedirect sends a bare project URL to its default section.
func (p *Pages) ProjectRedirect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	http.Redirect(w, r, "/projects/"+id+"/"+DefaultSection, http.StatusFound)
}

// ProjectSection renders the tabbed cost-control workspace for a project.
// The active tab is owned by the URL; the tab control itself is stateless.
func (p *Pages) ProjectSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	section := vars["section"]

	record, err := p.cache.Get(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, project.ErrNotFound):
		p.renderNotFound(w, r, "No project exists with identifier "+id+".")
		return
	case r.Context().Err() != nil:
		// The client went away; there is nobody to answer. A backend
		// timeout does not land here and still gets the error page.
		return
	default:
		logging.FromContext(r.Context(), p.log).Error().Err(err).Str("project_id", id).Msg("fetch project")
		p.renderError(w, r)
		return
	}

	tabs, err := NewTabSet(costControlTabs, func(tab string) string {
		return "/projects/" + id + "/" + tab
	})
	if err != nil {
		p.renderError(w, r)
		return
	}

	data := p.pageData(r, record.Name, "/projects")
	data.Project = record
	// An unknown section marks no tab active and shows an empty panel;
	// accepted caller error, not signaled.
	data.Tabs = tabs.Items(section)
	data.Section = section
	p.render(w, r, http.StatusOK, LayoutFor(p.routes, "/projects/{id}/{section}"), "costcontrol", data)
}

// LoginForm renders the sign-in page.
func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	data := p.pageData(r, "Sign in", "/login")
	p.render(w, r, http.StatusOK, LayoutFor(p.routes, "/login"), "login", data)
}

// Login authenticates against the backend and establishes a session.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.loginFailed(w, r, "Invalid form submission.")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	session, err := p.backend.SignIn(r.Context(), email, password)
	switch {
	case err == nil:
	case errors.Is(err, supabase.ErrInvalidCredentials):
		p.loginFailed(w, r, "Email or password is incorrect.")
		return
	default:
		logging.FromContext(r.Context(), p.log).Error().Err(err).Msg("backend sign in")
		p.renderError(w, r)
		return
	}

	token, err := p.auth.IssueToken(session.User.ID, session.User.Email, session.User.Role)
	if err != nil {
		logging.FromContext(r.Context(), p.log).Error().Err(err).Msg("issue session token")
		p.renderError(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.auth.TTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (p *Pages) loginFailed(w http.ResponseWriter, r *http.Request, message string) {
	data := p.pageData(r, "Sign in", "/login")
	data.Message = message
	p.render(w, r, http.StatusUnauthorized, LayoutFor(p.routes, "/login"), "login", data)
}

// Logout clears the session cookie.
func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginNotice shows the sign-in-required notice and redirects to the login
// form after a fixed delay.
func (p *Pages) LoginNotice(w http.ResponseWriter, r *http.Request) {
	data := p.pageData(r, "Sign in required", "/login/notice")
	data.RedirectTo = "/login"
	data.RedirectAfter = int(loginNoticeDelay / time.Second)
	p.render(w, r, http.StatusOK, LayoutFor(p.routes, "/login/notice"), "login_notice", data)
}

// NotFound is the router's fallback for unknown paths.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderNotFound(w, r, "The page you requested does not exist.")
}

func (p *Pages) renderNotFound(w http.ResponseWriter, r *http.Request, message string) {
	data := p.pageData(r, "Not found", r.URL.Path)
	data.Message = message
	p.render(w, r, http.StatusNotFound, LayoutDefault, "notfound", data)
}

// render is the page-level error boundary: pages render into a buffer so a
// template failure can still produce the generic error page with a retry
// action instead of a half-written response.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, layout Layout, page string, data *PageData) {
	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, layout, page, data); err != nil {
		logging.FromContext(r.Context(), p.log).Error().Err(err).
			Str("layout", string(layout)).Str("page", page).Msg("render page")
		p.renderError(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError serves the generic error page; the retry link simply
// re-requests the failed URL.
func (p *Pages) renderError(w http.ResponseWriter, r *http.Request) {
	data := p.pageData(r, "Error", r.URL.Path)
	data.RetryPath = r.URL.RequestURI()

	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, LayoutDefault, "error", data); err != nil {
		// Last resort if the error page itself cannot render.
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
