// Package connector defines the boundary to the external data-collection
// layer. The engine never scrapes or authenticates against third-party
// systems; it consumes already-normalized activity variables through this
// interface.
package connector

import (
	"context"
	"fmt"

	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/types"
)

// Connector fetches one member's normalized activity variables for a
// period. Implementations may block on I/O; they must honor ctx.
type Connector interface {
	FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error)
}

// Static serves variables from an in-memory set, keyed by (user, period).
// It backs both the HTTP surface (where the request payload carries the
// variables) and the CLI roster files.
type Static struct {
	vars map[string]types.ActivityVariables
}

// NewStatic builds a static connector from a variable set.
func NewStatic(vars []types.ActivityVariables) *Static {
	m := make(map[string]types.ActivityVariables, len(vars))
	for _, v := range vars {
		m[key(v.UserID, v.Period)] = v
	}
	return &Static{vars: m}
}

// FetchActivity implements Connector.
func (s *Static) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	if err := ctx.Err(); err != nil {
		return types.ActivityVariables{}, err
	}
	v, ok := s.vars[key(userID, period)]
	if !ok {
		return types.ActivityVariables{}, errors.NewNotFound(
			fmt.Sprintf("no activity variables for user %s in period %s", userID, period))
	}
	return v, nil
}

func key(userID, period string) string {
	return userID + "|" + period
}
