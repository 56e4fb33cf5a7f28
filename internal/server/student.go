package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/history"
	"github.com/raphaelgruber/uniassist/internal/models"
	"github.com/raphaelgruber/uniassist/internal/service"
)

// maxChatBody limits the size of a chat request body or WebSocket frame.
const maxChatBody = 64 << 10

const studentCookie = "uniassist_student"

// StudentDeps are the collaborators of the student site.
type StudentDeps struct {
	Site         string
	Secret       string
	Accounts     Accounts
	Applications Applications
	Chat         Chat
	Logger       *slog.Logger
}

// Student serves the student site: accounts, applications and the chat assistant.
type Student struct {
	site     string
	accounts Accounts
	apps     Applications
	chat     Chat
	sessions *sessionManager
	views    *renderer
	upgrader websocket.Upgrader
	sockets  *socketRegistry
	logger   *slog.Logger
}

// NewStudent creates the student site.
func NewStudent(deps StudentDeps) (*Student, error) {
	views, err := newRenderer("index", "register", "login", "dashboard", "info", "apply", "chat", "payment")
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	site := deps.Site
	if site == "" {
		site = "UniAssist"
	}
	return &Student{
		site:     site,
		accounts: deps.Accounts,
		apps:     deps.Applications,
		chat:     deps.Chat,
		sessions: newSessionManager(studentCookie, deps.Secret),
		views:    views,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		sockets:  newSocketRegistry(),
		logger:   logger,
	}, nil
}

// Handler returns the site's routes wrapped in request logging.
func (s *Student) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /register", s.registerForm)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("GET /login", s.loginForm)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /dashboard", s.requireUser(s.dashboard))
	mux.HandleFunc("GET /info", s.requireUser(s.info))
	mux.HandleFunc("GET /apply", s.requireUser(s.applyForm))
	mux.HandleFunc("POST /apply", s.requireUser(s.apply))
	mux.HandleFunc("GET /payment", s.requireUser(s.payment))
	mux.HandleFunc("GET /chat", s.chatPage)
	mux.HandleFunc("POST /chat", s.chatSend)
	mux.HandleFunc("GET /chat/ws", s.chatSocket)
	mux.HandleFunc("GET /logout", s.logout)
	mux.HandleFunc("GET /health", health)
	return LoggingMiddleware(s.logger)(mux)
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// requireUser redirects to /login unless the session names an existing user.
func (s *Student) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

// currentUser returns the logged-in user, or nil for guests and stale sessions.
func (s *Student) currentUser(r *http.Request) *models.User {
	id := s.sessions.principal(r)
	if id == "" {
		return nil
	}
	user, err := s.accounts.User(r.Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Error("failed to load session user", "error", err, "request_id", RequestID(r.Context()))
		}
		return nil
	}
	return user
}

func (s *Student) page(w http.ResponseWriter, r *http.Request, status int, name, title string, data pageData) {
	data.Title = title
	data.Site = s.site
	data.Flashes = s.sessions.takeFlashes(r)
	data.CSRFToken = s.sessions.csrfToken(r)
	if err := s.sessions.save(w, r); err != nil {
		s.logger.Error("failed to save session", "error", err)
	}
	s.views.render(w, s.logger, status, name, data)
}

// redirect stores a flash and redirects with 303.
func (s *Student) redirect(w http.ResponseWriter, r *http.Request, to, category, msg string) {
	if msg != "" {
		s.sessions.flash(r, category, msg)
		if err := s.sessions.save(w, r); err != nil {
			s.logger.Error("failed to save session", "error", err)
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// checkCSRF rejects form posts without the session's token.
func (s *Student) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if !s.sessions.validCSRF(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Student) index(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "index", "Home", pageData{User: s.currentUser(r)})
}

func (s *Student) registerForm(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "register", "Register", pageData{})
}

func (s *Student) register(w http.ResponseWriter, r *http.Request) {
	if !s.checkCSRF(w, r) {
		return
	}
	form := formValues(r, "name", "email")
	_, err := s.accounts.RegisterUser(r.Context(), form["name"], form["email"], r.PostFormValue("password"))

	var verr *service.ValidationError
	switch {
	case err == nil:
		s.redirect(w, r, "/login", flashSuccess, "Registration successful. Please log in.")
	case errors.As(err, &verr):
		s.page(w, r, http.StatusOK, "register", "Register", pageData{Form: form, Errors: verr.Fields})
	case errors.Is(err, service.ErrEmailTaken):
		s.redirect(w, r, "/register", flashDanger, "Email Already Taken")
	default:
		s.serverError(w, r, "failed to register user", err)
	}
}

func (s *Student) loginForm(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "login", "Login", pageData{})
}

func (s *Student) login(w http.ResponseWriter, r *http.Request) {
	if !s.checkCSRF(w, r) {
		return
	}
	user, err := s.accounts.AuthenticateUser(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		s.redirect(w, r, "/login", flashDanger, "Login failed. Please check your email and password")
		return
	case err != nil:
		s.serverError(w, r, "failed to authenticate user", err)
		return
	}
	if err := s.sessions.login(w, r, models.MustRecordIDString(user.ID)); err != nil {
		s.serverError(w, r, "failed to save session", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Student) dashboard(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.page(w, r, http.StatusOK, "dashboard", "Dashboard", pageData{User: user})
}

func (s *Student) info(w http.ResponseWriter, r *http.Request, user *models.User) {
	app, err := s.apps.ForUser(r.Context(), models.MustRecordIDString(user.ID))
	if err != nil {
		s.serverError(w, r, "failed to load application", err)
		return
	}
	s.page(w, r, http.StatusOK, "info", "Your Application", pageData{User: user, Application: app})
}

func (s *Student) applyForm(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.page(w, r, http.StatusOK, "apply", "Apply", pageData{
		User:        user,
		Form:        map[string]string{"full_name": user.Name, "email": user.Email},
		Departments: models.Departments,
	})
}

func (s *Student) apply(w http.ResponseWriter, r *http.Request, user *models.User) {
	if !s.checkCSRF(w, r) {
		return
	}
	form := formValues(r, "full_name", "email", "phone", "dob", "department", "ssc_result", "hsc_result")
	_, err := s.apps.Submit(r.Context(), models.ApplicationInput{
		UserID:     models.MustRecordIDString(user.ID),
		FullName:   form["full_name"],
		Email:      form["email"],
		Phone:      form["phone"],
		DOB:        form["dob"],
		Department: form["department"],
		SSCResult:  form["ssc_result"],
		HSCResult:  form["hsc_result"],
	})

	var verr *service.ValidationError
	switch {
	case err == nil:
		s.redirect(w, r, "/dashboard", flashSuccess, "Application submitted successfully")
	case errors.As(err, &verr):
		s.page(w, r, http.StatusOK, "apply", "Apply", pageData{
			User: user, Form: form, Errors: verr.Fields, Departments: models.Departments,
		})
	case errors.Is(err, service.ErrAlreadyApplied):
		s.redirect(w, r, "/info", flashInfo, "You have already submitted an application.")
	default:
		s.serverError(w, r, "failed to submit application", err)
	}
}

func (s *Student) payment(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.page(w, r, http.StatusOK, "payment", "Payment", pageData{User: user})
}

func (s *Student) logout(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.currentCSRF(r)
	if err := s.sessions.logout(w, r); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
	if n := s.sockets.closeSession(session); n > 0 {
		s.logger.Info("closed chat sockets on logout", "count", n, "request_id", RequestID(r.Context()))
	}
	s.redirect(w, r, "/login", flashSuccess, "You have been logged out successfully.")
}

func (s *Student) chatPage(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	turns, err := s.chat.History(r.Context(), chatIdentity(user))
	if err != nil {
		s.logger.Warn("failed to load chat history", "error", err, "request_id", RequestID(r.Context()))
		turns = nil
	}
	s.page(w, r, http.StatusOK, "chat", "Chat", pageData{User: user, History: turns})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatError struct {
	Error string `json:"error"`
}

func (s *Student) chatSend(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.validCSRFHeader(r) {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "invalid or missing CSRF token"})
		return
	}
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "request body must be JSON with a message field"})
		return
	}

	status, body := s.exchange(r.Context(), chatIdentity(s.currentUser(r)), req.Message)
	writeJSON(w, status, body)
}

// exchange runs one chat turn and maps the outcome to a status and JSON body.
func (s *Student) exchange(ctx context.Context, userID, message string) (int, any) {
	result, err := s.chat.Send(ctx, userID, message)
	switch {
	case err == nil:
		return http.StatusOK, result
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, chatError{Error: "message must not be empty"}
	case errors.Is(err, history.ErrInvalidUserID):
		return http.StatusBadRequest, chatError{Error: "invalid user"}
	case errors.Is(err, service.ErrHistorySave):
		return http.StatusOK, result
	default:
		s.logger.Error("chat exchange failed", "error", err, "request_id", RequestID(ctx))
		return http.StatusInternalServerError, chatError{Error: "The assistant is unavailable right now. Please try again."}
	}
}

// chatSocket serves the WebSocket chat: one reply frame per message frame.
// The handshake must carry the session's CSRF token. Logging out closes the
// sockets opened by that login session.
func (s *Student) chatSocket(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.validCSRFQuery(r) {
		http.Error(w, "invalid or missing CSRF token", http.StatusBadRequest)
		return
	}
	userID := chatIdentity(s.currentUser(r))
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatBody)
	if userID != "" {
		defer s.sockets.add(s.sessions.currentCSRF(r), conn)()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var req chatRequest
		var body any
		if err := json.Unmarshal(data, &req); err != nil {
			body = chatError{Error: "frame must be JSON with a message field"}
		} else {
			_, body = s.exchange(r.Context(), userID, req.Message)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(body); err != nil {
			s.logger.Warn("failed to write websocket reply", "error", err)
			return
		}
	}
}

func (s *Student) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, "error", err, "request_id", RequestID(r.Context()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// chatIdentity is the history key for user, or "" for a guest.
func chatIdentity(user *models.User) string {
	if user == nil {
		return ""
	}
	return models.MustRecordIDString(user.ID)
}

// formValues returns trimmed form values for the named fields.
func formValues(r *http.Request, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.TrimSpace(r.PostFormValue(f))
	}
	return out
}
