package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
)

// userStore authenticates field-team users and resolves their scope
// attributes (zone, full name, role).
type userStore interface {
	Authenticate(ctx context.Context, username string, password string) (Principal, bool, error)
	GetByUsername(ctx context.Context, username string) (Principal, bool, error)
}

type userRecord struct {
	principal Principal
	password  string
	active    bool
}

type memoryUserStore struct {
	mu    sync.Mutex
	byKey map[string]userRecord
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byKey: map[string]userRecord{}}
}

func (s *memoryUserStore) add(p Principal, password string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[strings.ToLower(p.Username)] = userRecord{principal: p, password: password, active: active}
}

func (s *memoryUserStore) Authenticate(_ context.Context, username string, password string) (Principal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[strings.ToLower(strings.TrimSpace(username))]
	if !ok || !rec.active {
		return Principal{}, false, nil
	}
	if !passwordsMatch(rec.password, password) {
		return Principal{}, false, nil
	}
	return rec.principal, true, nil
}

func (s *memoryUserStore) GetByUsername(_ context.Context, username string) (Principal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byKey[strings.ToLower(strings.TrimSpace(username))]
	if !ok || !rec.active {
		return Principal{}, false, nil
	}
	return rec.principal, true, nil
}

func passwordsMatch(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

type pgUserStore struct {
	q     rowQuerier
	table string
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newPGUserStore(q rowQuerier, table string) *pgUserStore {
	return &pgUserStore{q: q, table: table}
}

func quoteQualified(table string) string {
	parts := strings.SplitN(table, ".", 2)
	for i, p := range parts {
		parts[i] = query.Ident(p)
	}
	return strings.Join(parts, ".")
}

func (s *pgUserStore) lookup(ctx context.Context, username string) (Principal, string, bool, error) {
	var p Principal
	var password string
	var active bool
	err := s.q.QueryRow(ctx, `
SELECT username, COALESCE(full_name, ''), COALESCE(zone, ''), COALESCE(role_name, ''), COALESCE(team, ''), COALESCE(password, ''), is_active
FROM `+quoteQualified(s.table)+`
WHERE lower(username) = lower(btrim($1));
`, username).Scan(&p.Username, &p.FullName, &p.Zone, &p.Role, &p.Team, &password, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, "", false, nil
		}
		return Principal{}, "", false, err
	}
	if !active {
		return Principal{}, "", false, nil
	}
	return p, password, true, nil
}

func (s *pgUserStore) Authenticate(ctx context.Context, username string, password string) (Principal, bool, error) {
	p, stored, ok, err := s.lookup(ctx, username)
	if err != nil || !ok {
		return Principal{}, false, err
	}
	if !passwordsMatch(stored, password) {
		return Principal{}, false, nil
	}
	return p, true, nil
}

func (s *pgUserStore) GetByUsername(ctx context.Context, username string) (Principal, bool, error) {
	p, _, ok, err := s.lookup(ctx, username)
	return p, ok, err
}
