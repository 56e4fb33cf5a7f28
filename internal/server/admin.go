package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/raphaelgruber/uniassist/internal/service"
)

const adminCookie = "uniassist_admin"

// AdminDeps are the collaborators of the admin site.
type AdminDeps struct {
	Site         string
	Secret       string
	Accounts     Accounts
	Applications Applications
	Metrics      *metrics.Collector
	Logger       *slog.Logger
}

// Admin serves the admin site: admin accounts, the applicant list and runtime stats.
type Admin struct {
	site     string
	accounts Accounts
	apps     Applications
	metrics  *metrics.Collector
	sessions *sessionManager
	views    *renderer
	logger   *slog.Logger
}

// NewAdmin creates the admin site.
func NewAdmin(deps AdminDeps) (*Admin, error) {
	views, err := newRenderer("admin_index", "admin_reg", "admin_log", "admin_dash", "admin_student")
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	site := deps.Site
	if site == "" {
		site = "UniAssist Admin"
	}
	return &Admin{
		site:     site,
		accounts: deps.Accounts,
		apps:     deps.Applications,
		metrics:  deps.Metrics,
		sessions: newSessionManager(adminCookie, deps.Secret),
		views:    views,
		logger:   logger,
	}, nil
}

// Handler returns the site's routes wrapped in request logging.
func (a *Admin) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.index)
	mux.HandleFunc("GET /reg", a.registerForm)
	mux.HandleFunc("POST /reg", a.register)
	mux.HandleFunc("GET /log", a.loginForm)
	mux.HandleFunc("POST /log", a.login)
	mux.HandleFunc("GET /dash", a.requireAdmin(a.dashboard))
	mux.HandleFunc("GET /student", a.requireAdmin(a.students))
	mux.HandleFunc("GET /stats", a.requireAdmin(a.stats))
	mux.HandleFunc("GET /logout", a.logout)
	mux.HandleFunc("GET /health", health)
	return LoggingMiddleware(a.logger)(mux)
}

type adminHandler func(w http.ResponseWriter, r *http.Request, admin *models.Admin)

func (a *Admin) requireAdmin(next adminHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin := a.currentAdmin(r)
		if admin == nil {
			http.Redirect(w, r, "/log", http.StatusSeeOther)
			return
		}
		next(w, r, admin)
	}
}

func (a *Admin) currentAdmin(r *http.Request) *models.Admin {
	id := a.sessions.principal(r)
	if id == "" {
		return nil
	}
	admin, err := a.accounts.Admin(r.Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			a.logger.Error("failed to load session admin", "error", err, "request_id", RequestID(r.Context()))
		}
		return nil
	}
	return admin
}

func (a *Admin) page(w http.ResponseWriter, r *http.Request, name, title string, data pageData) {
	data.Title = title
	data.Site = a.site
	data.Flashes = a.sessions.takeFlashes(r)
	data.CSRFToken = a.sessions.csrfToken(r)
	if err := a.sessions.save(w, r); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}
	a.views.render(w, a.logger, http.StatusOK, name, data)
}

func (a *Admin) redirect(w http.ResponseWriter, r *http.Request, to, category, msg string) {
	a.sessions.flash(r, category, msg)
	if err := a.sessions.save(w, r); err != nil {
		a.logger.Error("failed to save session", "error", err)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (a *Admin) index(w http.ResponseWriter, r *http.Request) {
	a.page(w, r, "admin_index", "Home", pageData{Admin: a.currentAdmin(r)})
}

func (a *Admin) registerForm(w http.ResponseWriter, r *http.Request) {
	a.page(w, r, "admin_reg", "Register", pageData{})
}

func (a *Admin) register(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.validCSRF(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusBadRequest)
		return
	}
	form := formValues(r, "name", "admin_id")
	_, err := a.accounts.RegisterAdmin(r.Context(), form["name"], form["admin_id"], r.PostFormValue("password"))

	var verr *service.ValidationError
	switch {
	case err == nil:
		a.redirect(w, r, "/log", flashSuccess, "Admin registered successfully. Please log in.")
	case errors.As(err, &verr):
		a.page(w, r, "admin_reg", "Register", pageData{Form: form, Errors: verr.Fields})
	case errors.Is(err, service.ErrAdminIDTaken):
		a.redirect(w, r, "/reg", flashDanger, "Admin ID Already Taken")
	default:
		a.logger.Error("failed to register admin", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (a *Admin) loginForm(w http.ResponseWriter, r *http.Request) {
	a.page(w, r, "admin_log", "Login", pageData{})
}

func (a *Admin) login(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.validCSRF(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusBadRequest)
		return
	}
	admin, err := a.accounts.AuthenticateAdmin(r.Context(), r.PostFormValue("admin_id"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		a.redirect(w, r, "/log", flashDanger, "Login failed. Please check your admin ID and password")
		return
	case err != nil:
		a.logger.Error("failed to authenticate admin", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err := a.sessions.login(w, r, models.MustRecordIDString(admin.ID)); err != nil {
		a.logger.Error("failed to save session", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dash", http.StatusSeeOther)
}

func (a *Admin) dashboard(w http.ResponseWriter, r *http.Request, admin *models.Admin) {
	a.page(w, r, "admin_dash", "Dashboard", pageData{Admin: admin})
}

func (a *Admin) students(w http.ResponseWriter, r *http.Request, admin *models.Admin) {
	applicants, err := a.apps.Applicants(r.Context())
	if err != nil {
		a.logger.Error("failed to list applicants", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	a.page(w, r, "admin_student", "Applicants", pageData{Admin: admin, Applicants: applicants})
}

type statsResponse struct {
	Metrics metrics.Snapshot `json:"metrics"`
	Records db.RecordCounts  `json:"records"`
}

func (a *Admin) stats(w http.ResponseWriter, r *http.Request, _ *models.Admin) {
	counts, err := a.apps.Counts(r.Context())
	if err != nil {
		a.logger.Error("failed to count records", "error", err)
		writeJSON(w, http.StatusInternalServerError, chatError{Error: "failed to count records"})
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Metrics: a.metrics.Snapshot(), Records: counts})
}

func (a *Admin) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.logout(w, r); err != nil {
		a.logger.Error("failed to clear session", "error", err)
	}
	a.redirect(w, r, "/log", flashSuccess, "You have been logged out successfully.")
}
