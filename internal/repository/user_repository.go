package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const userColumns = "id, first_name, last_name, email, cin, password_hash, phone, image, role"

var roleTables = map[domain.Role]string{
	domain.RoleStudent:             "students",
	domain.RoleTeacher:             "teachers",
	domain.RoleAdministrativeStaff: "administrative_staff",
}

type UserRepositoryImpl struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

func CreateNewRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
}

func (r *UserRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) (err error) {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Error().Err(err).Str("component", "HandleTrx").Msg("")
		return persistenceError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Str("component", "HandleTrx").Msg("rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			log.Error().Err(cErr).Str("component", "HandleTrx").Msg("commit failed")
			err = persistenceError(cErr)
		}
	}()

	return fn(ctx, &UserRepositoryImpl{db: r.db, tx: tx})
}

func (r *UserRepositoryImpl) getUser(ctx context.Context, component, query string, args ...interface{}) (res domain.User, err error) {
	err = sqlx.GetContext(ctx, r.ext(), &res, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, nil
		}
		log.Error().Err(err).Str("component", component).Msg("")
		return domain.User{}, persistenceError(err)
	}

	return
}

func (r *UserRepositoryImpl) GetUserByCinAndEmail(ctx context.Context, cin, email string) (domain.User, error) {
	return r.getUser(ctx, "GetUserByCinAndEmail",
		"SELECT "+userColumns+" FROM users WHERE cin = $1 AND email = $2", cin, email)
}

func (r *UserRepositoryImpl) GetUserByCinOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	return r.getUser(ctx, "GetUserByCinOrEmail",
		"SELECT "+userColumns+" FROM users WHERE cin = $1 OR email = $1 ORDER BY id LIMIT 1", identifier)
}

func (r *UserRepositoryImpl) ActivateUser(ctx context.Context, userID int64, hash string) error {
	res, err := r.ext().ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2 AND (password_hash IS NULL OR TRIM(password_hash) = '')",
		hash, userID)
	if err != nil {
		log.Error().Err(err).Str("component", "ActivateUser").Msg("")
		return persistenceError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Error().Err(err).Str("component", "ActivateUser").Msg("")
		return persistenceError(err)
	}

	if affected == 0 {
		return errs.ErrAlreadyActivated
	}

	return nil
}

func (r *UserRepositoryImpl) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	_, err := r.ext().ExecContext(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	if err != nil {
		log.Error().Err(err).Str("component", "UpdatePasswordHash").Msg("")
		return persistenceError(err)
	}

	return nil
}

func (r *UserRepositoryImpl) RoleRecordExists(ctx context.Context, userID int64, kind domain.Role) (exists bool, err error) {
	table, ok := roleTables[kind]
	if !ok {
		return false, fmt.Errorf("no profile table for role %q", kind)
	}

	err = sqlx.GetContext(ctx, r.ext(), &exists, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", userID)
	if err != nil {
		log.Error().Err(err).Str("component", "RoleRecordExists").Msg("")
		return false, persistenceError(err)
	}

	return
}

// CreateRoleRecord inserts the profile row. Callers check RoleRecordExists
// first inside the activation transaction, where the activation UPDATE
// already holds the user's row lock.
func (r *UserRepositoryImpl) CreateRoleRecord(ctx context.Context, record domain.RoleRecord) (err error) {
	switch record.Kind {
	case domain.RoleStudent:
		_, err = r.ext().ExecContext(ctx,
			"INSERT INTO students(id, group_id, specialty_id) VALUES ($1, $2, $3)",
			record.UserID, record.GroupID, record.SpecialtyID)
	case domain.RoleTeacher:
		_, err = r.ext().ExecContext(ctx,
			"INSERT INTO teachers(id, department_id) VALUES ($1, $2)",
			record.UserID, record.DepartmentID)
	case domain.RoleAdministrativeStaff:
		_, err = r.ext().ExecContext(ctx,
			"INSERT INTO administrative_staff(id, position) VALUES ($1, $2)",
			record.UserID, record.Position)
	default:
		return fmt.Errorf("no profile table for role %q", record.Kind)
	}

	if err != nil {
		log.Error().Err(err).Str("component", "CreateRoleRecord").Msg("")
		return persistenceError(err)
	}

	return nil
}

func (r *UserRepositoryImpl) IsDepartmentHead(ctx context.Context, teacherID int64) (exists bool, err error) {
	err = sqlx.GetContext(ctx, r.ext(), &exists, "SELECT EXISTS (SELECT 1 FROM department_heads WHERE id = $1)", teacherID)
	if err != nil {
		log.Error().Err(err).Str("component", "IsDepartmentHead").Msg("")
		return false, persistenceError(err)
	}

	return
}

func (r *UserRepositoryImpl) CountLegacyHashes(ctx context.Context) (count int64, err error) {
	err = sqlx.GetContext(ctx, r.ext(), &count, "SELECT COUNT(id) FROM users WHERE password_hash ~ '^[0-9a-f]{64}$'")
	if err != nil {
		log.Error().Err(err).Str("component", "CountLegacyHashes").Msg("")
		return 0, persistenceError(err)
	}

	return
}
