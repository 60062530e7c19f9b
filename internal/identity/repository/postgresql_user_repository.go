package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

// PostgreSQLUserRepository handles user persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

func scanPostgreSQLUser(row scanner) (*domain.User, error) {
	var user domain.User
	var orgID, groupID, roleID uuid.NullUUID

	err := row.Scan(
		&user.ID, &user.ExternalID, &user.Email, &user.DisplayName, &user.FirstName, &user.LastName,
		&user.AvatarURL, &user.PasswordHash, &user.IsActive, &orgID, &groupID, &roleID,
		&user.TrustLevel, &user.IsAdmin, &user.IsModerator, &user.CreatedAt, &user.LastLoginAt,
		&user.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}

	user.OrganizationID = fromNullUUID(orgID)
	user.GroupID = fromNullUUID(groupID)
	user.RoleID = fromNullUUID(roleID)
	return &user, nil
}

// Create inserts a new user. A duplicate email or external id returns the matching
// conflict error.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.ExternalID,
		user.Email,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.PasswordHash,
		user.IsActive,
		toNullUUID(user.OrganizationID),
		toNullUUID(user.GroupID),
		toNullUUID(user.RoleID),
		user.TrustLevel,
		user.IsAdmin,
		user.IsModerator,
		user.CreatedAt,
		user.LastLoginAt,
		user.LastSeenAt,
	)
	if err != nil {
		if conflict := userCreateError(err); conflict != nil {
			return conflict
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

func (r *PostgreSQLUserRepository) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanPostgreSQLUser(querier.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrapf(err, "failed to get user by %s", column)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email.
func (r *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByExternalID retrieves a user by identity provider account id.
func (r *PostgreSQLUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return r.getBy(ctx, "external_id", externalID)
}

// UpdateProfile refreshes the display and trust attributes of a user.
func (r *PostgreSQLUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users
			  SET display_name = $1, first_name = $2, last_name = $3, avatar_url = $4,
			      trust_level = $5, is_admin = $6, is_moderator = $7
			  WHERE id = $8`

	result, err := querier.ExecContext(
		ctx,
		query,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.TrustLevel,
		user.IsAdmin,
		user.IsModerator,
		user.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user profile")
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// UpdateLastLogin sets both the last login and last seen timestamps.
func (r *PostgreSQLUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET last_login_at = $1, last_seen_at = $1 WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, at, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update last login")
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// Deactivate clears the active flag. Deactivating an inactive user is not an error.
func (r *PostgreSQLUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to deactivate user")
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// AssignRole sets the organization, group and role references of a user.
func (r *PostgreSQLUserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role domain.RoleAssignment) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET organization_id = $1, group_id = $2, role_id = $3 WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		toNullUUID(role.OrganizationID),
		toNullUUID(role.GroupID),
		toNullUUID(role.RoleID),
		userID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to assign role")
	}
	return requireAffected(result, domain.ErrUserNotFound)
}

// ClearOrganization removes every organization, group and role reference to the organization.
func (r *PostgreSQLUserRepository) ClearOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET organization_id = NULL, group_id = NULL, role_id = NULL
			  WHERE organization_id = $1`

	result, err := querier.ExecContext(ctx, query, organizationID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clear organization references")
	}
	return result.RowsAffected()
}
