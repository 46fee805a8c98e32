package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/database"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrRoleNotFound is returned when no role matches the lookup.
	ErrRoleNotFound = errors.New("role not found")
	// ErrEmailTaken is returned when the unique email constraint fires.
	ErrEmailTaken = errors.New("email already registered")
)

const userColumns = `u.id, u.nombre, u.correo, u.password_hash, u.estado, u.created_at, u.updated_at,
	r.id, r.nombre, r.is_admin, r.is_super_admin`

// Repository handles user and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &u.Role.Name, &u.Role.IsAdmin, &u.Role.IsSuperAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user with their role loaded.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user with their role loaded.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + `
		FROM users u JOIN roles r ON r.id = u.role_id WHERE u.correo = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// GetRoleByID returns a role by ID.
func (r *Repository) GetRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	const q = `SELECT id, nombre, is_admin, is_super_admin FROM roles WHERE id = $1`
	var role models.Role
	err := r.pool.QueryRow(ctx, q, id).Scan(&role.ID, &role.Name, &role.IsAdmin, &role.IsSuperAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoleByName returns a role by its unique name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	const q = `SELECT id, nombre, is_admin, is_super_admin FROM roles WHERE nombre = $1`
	var role models.Role
	err := r.pool.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.IsAdmin, &role.IsSuperAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Create inserts a new user. Returns ErrEmailTaken when the email is in use.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string, roleID uuid.UUID) (*models.User, error) {
	const q = `INSERT INTO users (nombre, correo, password_hash, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, estado, created_at, updated_at`
	var u models.User
	u.Name = name
	u.Email = email
	u.Password = passwordHash
	err := r.pool.QueryRow(ctx, q, name, email, passwordHash, roleID).
		Scan(&u.ID, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	role, err := r.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	u.Role = *role
	return &u, nil
}

// UpdateRole changes a user's role reference.
func (r *Repository) UpdateRole(ctx context.Context, userID, roleID uuid.UUID) error {
	const q = `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
