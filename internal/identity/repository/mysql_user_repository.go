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

// MySQLUserRepository handles user persistence for MySQL.
// Ids are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func scanMySQLUser(row scanner) (*domain.User, error) {
	var user domain.User
	var id, orgID, groupID, roleID []byte

	err := row.Scan(
		&id, &user.ExternalID, &user.Email, &user.DisplayName, &user.FirstName, &user.LastName,
		&user.AvatarURL, &user.PasswordHash, &user.IsActive, &orgID, &groupID, &roleID,
		&user.TrustLevel, &user.IsAdmin, &user.IsModerator, &user.CreatedAt, &user.LastLoginAt,
		&user.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if user.OrganizationID, err = parseBinaryUUID(orgID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}
	if user.GroupID, err = parseBinaryUUID(groupID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal group id")
	}
	if user.RoleID, err = parseBinaryUUID(roleID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}
	return &user, nil
}

// Create inserts a new user. A duplicate email or external id returns the matching
// conflict error.
func (m *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO users (` + userColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		uuidBytes(user.ID),
		user.ExternalID,
		user.Email,
		user.DisplayName,
		user.FirstName,
		user.LastName,
		user.AvatarURL,
		user.PasswordHash,
		user.IsActive,
		binaryUUID(user.OrganizationID),
		binaryUUID(user.GroupID),
		binaryUUID(user.RoleID),
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

func (m *MySQLUserRepository) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrapf(err, "failed to get user by %s", column)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (m *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getBy(ctx, "id", uuidBytes(id))
}

// GetByEmail retrieves a user by email.
func (m *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getBy(ctx, "email", email)
}

// GetByExternalID retrieves a user by identity provider account id.
func (m *MySQLUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return m.getBy(ctx, "external_id", externalID)
}

// UpdateProfile refreshes the display and trust attributes of a user.
func (m *MySQLUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE users
			  SET display_name = ?, first_name = ?, last_name = ?, avatar_url = ?,
			      trust_level = ?, is_admin = ?, is_moderator = ?
			  WHERE id = ?`

	id := uuidBytes(user.ID)
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
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user profile")
	}
	return requireMySQLRow(ctx, querier, result, "users", id, domain.ErrUserNotFound)
}

// UpdateLastLogin sets both the last login and last seen timestamps.
func (m *MySQLUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, m.db)

	idBytes := uuidBytes(id)
	result, err := querier.ExecContext(
		ctx,
		`UPDATE users SET last_login_at = ?, last_seen_at = ? WHERE id = ?`,
		at,
		at,
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update last login")
	}
	return requireMySQLRow(ctx, querier, result, "users", idBytes, domain.ErrUserNotFound)
}

// Deactivate clears the active flag. Deactivating an inactive user is not an error.
func (m *MySQLUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes := uuidBytes(id)
	result, err := querier.ExecContext(ctx, `UPDATE users SET is_active = FALSE WHERE id = ?`, idBytes)
	if err != nil {
		return apperrors.Wrap(err, "failed to deactivate user")
	}
	return requireMySQLRow(ctx, querier, result, "users", idBytes, domain.ErrUserNotFound)
}

// AssignRole sets the organization, group and role references of a user.
func (m *MySQLUserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role domain.RoleAssignment) error {
	querier := database.GetTx(ctx, m.db)

	idBytes := uuidBytes(userID)
	result, err := querier.ExecContext(
		ctx,
		`UPDATE users SET organization_id = ?, group_id = ?, role_id = ? WHERE id = ?`,
		binaryUUID(role.OrganizationID),
		binaryUUID(role.GroupID),
		binaryUUID(role.RoleID),
		idBytes,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to assign role")
	}
	return requireMySQLRow(ctx, querier, result, "users", idBytes, domain.ErrUserNotFound)
}

// ClearOrganization removes every organization, group and role reference to the organization.
func (m *MySQLUserRepository) ClearOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE users SET organization_id = NULL, group_id = NULL, role_id = NULL
			  WHERE organization_id = ?`

	result, err := querier.ExecContext(ctx, query, uuidBytes(organizationID))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clear organization references")
	}
	return result.RowsAffected()
}
