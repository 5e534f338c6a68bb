// Package httpapi is the transport adapter: it decodes JSON request bodies
// into service operation inputs and encodes typed results and errors back as
// JSON with the matching status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/abalakin-dev/quizkeeper/internal/logging"
	"github.com/abalakin-dev/quizkeeper/internal/server/models"
)

// AuthService is the slice of the authentication service the router needs.
type AuthService interface {
	Register(ctx context.Context, login, password string) (*models.User, error)
	Verify(ctx context.Context, login, password string) (*models.User, error)
}

// RecordService is the slice of the record mutation service the router needs.
type RecordService interface {
	AddScore(ctx context.Context, login, password string, delta int64) (int64, error)
	RecordTestResult(ctx context.Context, login string, testID int, score int64) error
	SubmitTestResult(ctx context.Context, login, password, testDate string, testID int, score int64) (int64, []models.Submission, error)
	AdminResetPassword(ctx context.Context, adminLogin, adminPassword, targetLogin, newPassword string) error
	AdminDeleteUser(ctx context.Context, adminLogin, adminPassword, targetLogin string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *mux.Router
	logger   logging.Logger
	auth     AuthService
	records  RecordService
	dbHealth func(context.Context) error
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger logging.Logger, auth AuthService, records RecordService, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      mux.NewRouter(),
		logger:   logger,
		auth:     auth,
		records:  records,
		dbHealth: dbHealth,
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.withRequestID(r.handleHealthz)).Methods(http.MethodGet)
	r.mux.HandleFunc("/auth/register", r.withRequestID(r.handleRegister)).Methods(http.MethodPost)
	r.mux.HandleFunc("/auth/login", r.withRequestID(r.handleLogin)).Methods(http.MethodPost)
	r.mux.HandleFunc("/user/update", r.withRequestID(r.handleUpdateScore)).Methods(http.MethodPost)
	r.mux.HandleFunc("/user/reset-password", r.withRequestID(r.handleResetPassword)).Methods(http.MethodPut)
	r.mux.HandleFunc("/user/delete", r.withRequestID(r.handleDeleteUser)).Methods(http.MethodDelete)
	r.mux.HandleFunc("/user/update-test-results", r.withRequestID(r.handleSubmitTestResult)).Methods(http.MethodPost)
	r.mux.HandleFunc("/user/test-result", r.withRequestID(r.handleTestResult)).Methods(http.MethodPost)
	r.mux.HandleFunc("/user/users", r.withRequestID(r.handleListUsers)).Methods(http.MethodGet)
}

type loggerContextKey string

const contextKeyLogger loggerContextKey = "quizkeeper-request-logger"

// withRequestID tags every request with a uuid, exposes it in the response
// headers, and stores a child logger carrying it in the request context.
func (r *Router) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		log := r.logger.With("request_id", id, "method", req.Method, "path", req.URL.Path)
		ctx := context.WithValue(req.Context(), contextKeyLogger, log)
		next(w, req.WithContext(ctx))
	}
}

// log returns the request-scoped logger, falling back to the router's own.
func (r *Router) log(req *http.Request) logging.Logger {
	if l, ok := req.Context().Value(contextKeyLogger).(logging.Logger); ok {
		return l
	}
	return r.logger
}
