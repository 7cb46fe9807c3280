package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supankharikap/ServiceTeam/internal/routing"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/infrastructure/persistence"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/services"
	"github.com/supankharikap/ServiceTeam/pkg/httperr"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

// HandlerOptions carries injectable dependencies. Nil fields fall back to
// Postgres-backed defaults built from the environment; tests inject memory
// stores.
type HandlerOptions struct {
	Schema     ports.SchemaProvider
	Rows       ports.RowStore
	Users      userStore
	Sessions   sessionStore
	Authorizer authorizer

	InstallTable string
	ReportsTable string
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := defaultConfigPath("config/routing/allowlist.yaml")
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	installTable := opts.InstallTable
	if installTable == "" {
		installTable = installTableFromEnv()
	}
	reportsTable := opts.ReportsTable
	if reportsTable == "" {
		reportsTable = reportsTableFromEnv()
	}

	schema := opts.Schema
	rows := opts.Rows
	users := opts.Users
	sessions := opts.Sessions

	var pgPool *pgxpool.Pool
	if schema == nil || rows == nil || users == nil || sessions == nil {
		pool, err := pgxpool.New(context.Background(), dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		pgPool = pool
	}
	if schema == nil {
		schema = persistence.NewPGSchemaProvider(pgPool)
	}
	if rows == nil {
		rows = persistence.NewPGRowStore(pgPool)
	}
	if users == nil {
		users = newPGUserStore(pgPool, usersTableFromEnv())
	}
	if sessions == nil {
		sessions = newPGSessionStore(pgPool)
	}

	auth := opts.Authorizer
	if auth == nil {
		loaded, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		auth = loaded
	}

	browse := services.NewBrowseService(schema, rows, installTable, reportsTable)
	suggest := services.NewSuggestService(schema, rows, installTable, reportsTable)
	upsert := services.NewUpsertService(schema, rows, installTable, reportsTable)

	h := &handler{
		sessions: sessions,
		users:    users,
		browse:   browse,
		suggest:  suggest,
		upsert:   upsert,
	}

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/iam/api/sessions", http.HandlerFunc(h.login))
	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/logout", http.HandlerFunc(h.logout))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/kpi", http.HandlerFunc(h.kpi))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase", http.HandlerFunc(h.installBaseList))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/fieldops/api/installbase", http.HandlerFunc(h.installBaseSave))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase:suggest", http.HandlerFunc(h.installBaseSuggest))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase:customer-suggest", http.HandlerFunc(h.customerSuggest))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase:serial-suggest", http.HandlerFunc(h.serialSuggest))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase:by-serial", http.HandlerFunc(h.installBaseBySerial))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/installbase:rows", http.HandlerFunc(h.installBaseRows))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/reports", http.HandlerFunc(h.reportList))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/fieldops/api/reports", http.HandlerFunc(h.reportSubmit))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/fieldops/api/reports:suggest", http.HandlerFunc(h.reportSuggest))

	var out http.Handler = router
	out = withAuthz(classifier, auth, out)
	out = h.withSession(out)
	return out, nil
}

type handler struct {
	sessions sessionStore
	users    userStore
	browse   *services.BrowseService
	suggest  *services.SuggestService
	upsert   *services.UpsertService
}

// withSession resolves the sid cookie to a principal and attaches it to the
// request context. Missing or stale sessions pass through anonymously; the
// authz middleware decides whether anonymous is acceptable.
func (h *handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := readSID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok, err := h.sessions.Lookup(r.Context(), sid)
		if err != nil || !ok {
			next.ServeHTTP(w, r)
			return
		}
		p, ok, err := h.users.GetByUsername(r.Context(), sess.Username)
		if err != nil || !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the service error taxonomy onto HTTP: validation
// failures are the client's to fix, storage failures are retryable.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if httperr.IsBadRequest(err) {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	if httperr.IsUnavailable(err) {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "internal_error", "internal error")
}
