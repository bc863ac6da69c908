package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same repository code
// runs pooled or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresRepository struct {
	db DBTX
	// pool is nil when this repository is already bound to a transaction
	pool *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	listAccountsQuery = `
		SELECT id, username, email, password, first_name, last_name, phone, status, created_at, updated_at, last_login_at
		FROM account
		ORDER BY id
	`
	getAccountByIDQuery = `
		SELECT id, username, email, password, first_name, last_name, phone, status, created_at, updated_at, last_login_at
		FROM account
		WHERE id = $1
	`
	getAccountByUsernameQuery = `
		SELECT id, username, email, password, first_name, last_name, phone, status, created_at, updated_at, last_login_at
		FROM account
		WHERE username = $1
	`
	getAccountByEmailQuery = `
		SELECT id, username, email, password, first_name, last_name, phone, status, created_at, updated_at, last_login_at
		FROM account
		WHERE email = $1
	`

	insertAccountQuery = `
		INSERT INTO account (username, email, password, first_name, last_name, phone, status, created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	updateAccountQuery = `
		UPDATE account
		SET username = $1,
			email = $2,
			password = $3,
			first_name = $4,
			last_name = $5,
			phone = $6,
			status = $7,
			updated_at = $8,
			last_login_at = $9
		WHERE id = $10
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, pool: db}
}

func (r *PostgresRepository) Save(ctx context.Context, acc Account) (Account, error) {
	if acc.ID == 0 {
		err := r.db.QueryRowContext(
			ctx,
			insertAccountQuery,
			nullString(acc.Username),
			nullString(acc.Email),
			acc.Password,
			nullString(acc.FirstName),
			nullString(acc.LastName),
			nullString(acc.Phone),
			string(acc.Status),
			nullTime(acc.CreatedAt),
			nullTime(acc.UpdatedAt),
			nullTime(acc.LastLoginAt),
		).Scan(&acc.ID)
		if err != nil {
			return Account{}, translateDBError(err)
		}
		return acc, nil
	}

	now := time.Now()
	acc.UpdatedAt = &now
	result, err := r.db.ExecContext(
		ctx,
		updateAccountQuery,
		nullString(acc.Username),
		nullString(acc.Email),
		acc.Password,
		nullString(acc.FirstName),
		nullString(acc.LastName),
		nullString(acc.Phone),
		string(acc.Status),
		nullTime(acc.UpdatedAt),
		nullTime(acc.LastLoginAt),
		acc.ID,
	)
	if err != nil {
		return Account{}, translateDBError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Account{}, err
	}
	if affected == 0 {
		return Account{}, ErrNotFound
	}

	return acc, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int) (Account, error) {
	return r.findOne(ctx, getAccountByIDQuery, id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	return r.findOne(ctx, getAccountByUsernameQuery, username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	return r.findOne(ctx, getAccountByEmailQuery, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (Account, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, listAccountsQuery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

// InTx begins a transaction on the pool and hands fn a repository bound to
// it. A nested call reuses the enclosing transaction.
func (r *PostgresRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&PostgresRepository{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v: %w", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

func scanAccount(scanner rowScanner) (Account, error) {
	acc := Account{}
	var username, email, password, firstName, lastName, phone, status sql.NullString
	var createdAt, updatedAt, lastLoginAt sql.NullTime

	if err := scanner.Scan(
		&acc.ID,
		&username,
		&email,
		&password,
		&firstName,
		&lastName,
		&phone,
		&status,
		&createdAt,
		&updatedAt,
		&lastLoginAt,
	); err != nil {
		return Account{}, err
	}

	acc.Username = username.String
	acc.Email = email.String
	acc.Password = password.String
	acc.FirstName = firstName.String
	acc.LastName = lastName.String
	acc.Phone = phone.String
	acc.Status = Status(status.String)
	acc.CreatedAt = timePtr(createdAt)
	acc.UpdatedAt = timePtr(updatedAt)
	acc.LastLoginAt = timePtr(lastLoginAt)

	return acc, nil
}

// translateDBError maps unique-violation errors from the username/email
// indexes to the duplicate errors so the invariant holds even when two
// creates race past the service's pre-read check.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "email") || strings.Contains(pgErr.Detail, "email") {
			return ErrEmailExists
		}
		return ErrUsernameExists
	}
	return fmt.Errorf("db error: %w", err)
}

// nullString maps the entity's empty-means-unset strings to NULL so the
// unique indexes ignore absent usernames and emails.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
