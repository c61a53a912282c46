package repository

import (
	"context"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
)

type UserRepository interface {
	// HandleTrx runs fn inside one transaction. fn receives a repository bound
	// to that transaction; a returned error or panic rolls everything back.
	HandleTrx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error

	GetUserByCinAndEmail(ctx context.Context, cin, email string) (domain.User, error)
	GetUserByCinOrEmail(ctx context.Context, identifier string) (domain.User, error)

	// ActivateUser writes the first credential hash. It fails with
	// errs.ErrAlreadyActivated if a hash was stored in the meantime.
	ActivateUser(ctx context.Context, userID int64, hash string) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error

	RoleRecordExists(ctx context.Context, userID int64, kind domain.Role) (bool, error)
	CreateRoleRecord(ctx context.Context, record domain.RoleRecord) error
	IsDepartmentHead(ctx context.Context, teacherID int64) (bool, error)

	CountLegacyHashes(ctx context.Context) (int64, error)
}
