package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/model"
)

// mysqlDuplicateKey is the server error number for unique violations.
const mysqlDuplicateKey = 1062

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
	u.role_id, r.name, u.profile, u.is_active, u.created_at, u.updated_at`

// UserRepo reads and writes the users table joined with roles.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the registration input for Create.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.RoleName
	Profile   map[string]string
}

// Create hashes the password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := auth.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	var profile any
	if len(in.Profile) > 0 {
		b, err := json.Marshal(in.Profile)
		if err != nil {
			return model.User{}, err
		}
		profile = string(b)
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, role_id, profile)
		 VALUES (?,?,?,?,?,?,?)`,
		strings.TrimSpace(in.Username), email, hash, in.FirstName, in.LastName, in.Role.ID(), profile)
	if err != nil {
		return model.User{}, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           uint64(id),
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         model.RoleFor(in.Role),
		Profile:      in.Profile,
		IsActive:     true,
	}, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id = u.role_id WHERE u.email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id=? LIMIT 1",
		id))
}

// ExistsByEmail reports whether a user already uses email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email)))
}

// ExistsByUsername reports whether a user already uses username.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// SetRole moves a user to another role.  Tokens already issued keep the
// old role until they are refreshed.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role model.RoleName) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role_id=? WHERE id=?", role.ID(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u        model.User
		roleName string
		profile  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role.ID, &roleName, &profile, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role.Name, _ = model.ParseRoleName(roleName)
	if profile.Valid && profile.String != "" {
		if err := json.Unmarshal([]byte(profile.String), &u.Profile); err != nil {
			return model.User{}, fmt.Errorf("decode profile for user %d: %w", u.ID, err)
		}
	}
	return u, nil
}

func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateKey {
		return err
	}
	if strings.Contains(me.Message, "username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
