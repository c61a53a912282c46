package service

import (
	"context"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/rs/zerolog/log"
)

type DepartmentHeadLookup interface {
	IsDepartmentHead(ctx context.Context, teacherID int64) (bool, error)
}

type RoleResolver struct {
	lookup DepartmentHeadLookup
}

func NewRoleResolver(lookup DepartmentHeadLookup) *RoleResolver {
	return &RoleResolver{lookup: lookup}
}

// Resolve returns the user's roles in resolution order. A user whose stored
// role is not recognised gets no roles at all rather than an error.
func (r *RoleResolver) Resolve(ctx context.Context, user domain.User) ([]string, error) {
	if !user.Role.Known() {
		log.Warn().Str("component", "RoleResolver").Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("unrecognized role; resolving to no roles")
		return domain.ResolveRoles(user.Role, false), nil
	}

	head := false
	if user.Role == domain.RoleTeacher {
		var err error
		head, err = r.lookup.IsDepartmentHead(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return domain.ResolveRoles(user.Role, head), nil
}
