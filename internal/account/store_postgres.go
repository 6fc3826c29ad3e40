package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. This store is pure I/O;
// lifecycle rules belong to the owning service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (id, owner_user_id, display_name, kind, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		acct.ID.String(), acct.OwnerUserID.String(), acct.DisplayName,
		string(acct.Kind), string(acct.Status), acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*Account, error) {
	query := `
		SELECT id, owner_user_id, display_name, kind, status, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	acct, err := scanAccount(s.db.QueryRowContext(ctx, query, accountID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, ownerID id.UserID) ([]*Account, error) {
	query := `
		SELECT id, owner_user_id, display_name, kind, status, created_at, updated_at
		FROM accounts
		WHERE owner_user_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("find accounts by owner: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, accountID id.AccountID, status Status) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`,
		accountID.String(), string(status),
	)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		acct         Account
		rawID, owner string
		kind, status string
	)
	if err := row.Scan(&rawID, &owner, &acct.DisplayName, &kind, &status, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(rawID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseUserID(owner)
	if err != nil {
		return nil, err
	}
	acct.ID = accountID
	acct.OwnerUserID = ownerID
	acct.Kind = Kind(kind)
	acct.Status = Status(status)
	return &acct, nil
}
