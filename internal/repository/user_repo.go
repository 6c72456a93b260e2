package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"quantifyme/internal/domain"
)

var (
	// ErrUserNotFound indica que el email no corresponde a ningun usuario.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail indica un intento de crear un email ya registrado.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository define el contrato de persistencia para usuarios.
// El core solo necesita lookup simple por clave; las cuentas son
// responsabilidad de un colaborador externo.
type UserRepository interface {
	Create(ctx context.Context, email string, isPremium bool) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetOrCreate(ctx context.Context, email string) (domain.User, error)
	SetPremium(ctx context.Context, userID int64, value bool) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, email string, isPremium bool) (domain.User, error) {
	const query = `
		INSERT INTO users (email, is_premium, created_at)
		VALUES ($1, $2, now())
		RETURNING id, email, is_premium, created_at
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, normalizeEmail(email), isPremium).Scan(
		&u.ID,
		&u.Email,
		&u.IsPremium,
		&u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, is_premium, created_at
		FROM users
		WHERE email = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, normalizeEmail(email)).Scan(
		&u.ID,
		&u.Email,
		&u.IsPremium,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (r *PgUserRepository) GetOrCreate(ctx context.Context, email string) (domain.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return domain.User{}, err
	}

	u, err = r.Create(ctx, email, false)
	if err != nil {
		// Carrera con otro creador del mismo email: el existente gana.
		if errors.Is(err, ErrDuplicateEmail) {
			return r.GetByEmail(ctx, email)
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) SetPremium(ctx context.Context, userID int64, value bool) error {
	const query = `UPDATE users SET is_premium = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
