package server

import (
	"context"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
)

// Principal is the authenticated field-team user attached to a request. Zone
// and FullName feed the row-level scope predicates; Role feeds endpoint
// authorization.
type Principal struct {
	Username string
	FullName string
	Zone     string
	Role     string
	Team     string
}

func (p Principal) queryPrincipal() query.Principal {
	return query.Principal{
		Role:         p.Role,
		Zone:         p.Zone,
		EngineerName: p.FullName,
	}
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalContextKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
