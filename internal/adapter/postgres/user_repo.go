package postgres

import (
	"context"
	"database/sql"

	"donorregistry/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetUser retrieves a user and its credentials by ID.
func (d *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return loadUser(ctx, d.sql, id)
}

// FindByCredential retrieves the user owning a credential.
func (d *DB) FindByCredential(ctx context.Context, method domain.CredentialMethod, subject string) (*domain.User, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id FROM credentials WHERE method = $1 AND subject = $2",
		string(method), subject,
	).Scan(&id)
	if err != nil {
		return nil, mapErr(err)
	}
	return loadUser(ctx, d.sql, id)
}

// FindByEmail retrieves a user by email.
func (d *DB) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err != nil {
		return nil, mapErr(err)
	}
	return loadUser(ctx, d.sql, id)
}

// CreateUser inserts a user and its credentials in one transaction.
func (d *DB) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if !u.Identifiable() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "user needs an email or a credential")
	}
	var created *domain.User
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = insertUser(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// AddCredential links a credential to an existing user.
func (d *DB) AddCredential(ctx context.Context, userID int64, c domain.Credential) error {
	return mapErr(insertCredential(ctx, d.sql, userID, c))
}

// UpdateProfile sets the display name and, when non-empty, the email.
func (d *DB) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE users SET name = $2, email = COALESCE(NULLIF($3, ''), email) WHERE id = $1",
		id, name, email,
	)
	return affected(res, err)
}

// SetAdmin sets the admin flag of a user.
func (d *DB) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET is_admin = $2 WHERE id = $1", id, isAdmin)
	return affected(res, err)
}

// CreateFirstAdmin inserts u only while no password credential exists. The
// credentials table is locked against concurrent writers for the duration of
// the check and insert.
func (d *DB) CreateFirstAdmin(ctx context.Context, u *domain.User) (*domain.User, error) {
	var created *domain.User
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "LOCK TABLE credentials IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return err
		}
		n, err := countPasswordAdmins(ctx, tx)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAdminsExist
		}
		created, err = insertUser(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// CountPasswordAdmins returns the number of username/password credentials.
func (d *DB) CountPasswordAdmins(ctx context.Context) (int, error) {
	return countPasswordAdmins(ctx, d.sql)
}

func countPasswordAdmins(ctx context.Context, q dbtx) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM credentials WHERE method = 'password'").Scan(&n)
	return n, err
}

func insertUser(ctx context.Context, q dbtx, u *domain.User) (*domain.User, error) {
	created := *u
	created.Credentials = append([]domain.Credential(nil), u.Credentials...)
	err := q.QueryRowContext(ctx,
		"INSERT INTO users (name, email, is_admin) VALUES ($1, NULLIF($2, ''), $3) RETURNING id, created_at",
		u.Name, u.Email, u.IsAdmin,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, c := range u.Credentials {
		if err := insertCredential(ctx, q, created.ID, c); err != nil {
			return nil, err
		}
	}
	return &created, nil
}

func insertCredential(ctx context.Context, q dbtx, userID int64, c domain.Credential) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO credentials (user_id, method, subject, secret_hash) VALUES ($1, $2, $3, NULLIF($4, ''))",
		userID, string(c.Method), c.Subject, c.SecretHash,
	)
	return err
}

func loadUser(ctx context.Context, q dbtx, id int64) (*domain.User, error) {
	var u domain.User
	err := q.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(email, ''), is_admin, created_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT method, subject, COALESCE(secret_hash, '') FROM credentials WHERE user_id = $1 ORDER BY id",
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			c      domain.Credential
			method string
		)
		if err := rows.Scan(&method, &c.Subject, &c.SecretHash); err != nil {
			return nil, err
		}
		c.Method = domain.CredentialMethod(method)
		u.Credentials = append(u.Credentials, c)
	}
	return &u, rows.Err()
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
