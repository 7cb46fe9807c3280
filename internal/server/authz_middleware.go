package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/supankharikap/ServiceTeam/internal/routing"
	"github.com/supankharikap/ServiceTeam/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := defaultConfigPath("config/access/model.conf")
		if err != nil {
			return nil, errors.New("server: authz model not found")
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := defaultConfigPath("config/access/policy.csv")
		if err != nil {
			return nil, errors.New("server: authz policy not found")
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

// defaultConfigPath walks up from the working directory looking for a
// repo-relative config file, so tests run from package dirs still find it.
func defaultConfigPath(rel string) (string, error) {
	path := rel
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", os.ErrNotExist
}

type authorizer interface {
	Authorize(subject string, object string, action string) (allowed bool, enforced bool, err error)
}

// withAuthz gates routes by role before handlers run. Routes without an
// authz requirement (health, login) pass through; everything under
// /fieldops/api requires an authenticated, permitted role.
func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		role := ""
		if p, ok := currentPrincipal(r.Context()); ok {
			role = p.Role
		}
		subject := authz.SubjectFromRole(role)

		allowed, enforced, err := a.Authorize(subject, object, action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			if subject == "role:"+authz.RoleAnonymous {
				routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "login required")
				return
			}
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	switch path {
	case "/logout":
		if method == http.MethodPost {
			return authz.ObjectIAMSession, authz.ActionWrite, true
		}
		return "", "", false
	case "/fieldops/api/kpi":
		if method == http.MethodGet {
			return authz.ObjectFieldOpsKPI, authz.ActionRead, true
		}
		return "", "", false
	case "/fieldops/api/installbase":
		if method == http.MethodGet {
			return authz.ObjectFieldOpsInstallBase, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectFieldOpsInstallBase, authz.ActionWrite, true
		}
		return "", "", false
	case "/fieldops/api/installbase:suggest",
		"/fieldops/api/installbase:customer-suggest",
		"/fieldops/api/installbase:serial-suggest",
		"/fieldops/api/installbase:by-serial",
		"/fieldops/api/installbase:rows":
		if method == http.MethodGet {
			return authz.ObjectFieldOpsInstallBase, authz.ActionRead, true
		}
		return "", "", false
	case "/fieldops/api/reports":
		if method == http.MethodGet {
			return authz.ObjectFieldOpsReports, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectFieldOpsReports, authz.ActionWrite, true
		}
		return "", "", false
	case "/fieldops/api/reports:suggest":
		if method == http.MethodGet {
			return authz.ObjectFieldOpsReports, authz.ActionRead, true
		}
		return "", "", false
	default:
		return "", "", false
	}
}
