package party

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/platform/tx"
)

// PostgresStore persists one party type's records. The table name comes from
// the fixed TypeDescriptor set, never from request input. All methods honor
// a transaction carried in the context so the invitation accept flow can
// update every party table atomically.
type PostgresStore struct {
	db   *sql.DB
	desc TypeDescriptor
}

func NewPostgres(db *sql.DB, desc TypeDescriptor) *PostgresStore {
	return &PostgresStore{db: db, desc: desc}
}

// NewPostgresStores builds one postgres store per party type.
func NewPostgresStores(db *sql.DB) Stores {
	stores := make(Stores, len(id.PartyTypes))
	for _, t := range id.PartyTypes {
		stores[t] = NewPostgres(db, DescriptorFor(t))
	}
	return stores
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

const partyColumns = `id, account_id, email, name, role,
	is_director, is_shareholder, ownership_percent,
	is_trustee, is_beneficiary, beneficiary_percent,
	status, user_id, responded_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, s.desc.Table, partyColumns)
	_, err := s.q(ctx).ExecContext(ctx, query,
		r.ID.String(), r.AccountID.String(), r.Email, r.Name, r.Role,
		r.IsDirector, r.IsShareholder, r.OwnershipPercent,
		r.IsTrustee, r.IsBeneficiary, r.BeneficiaryPercent,
		string(r.Status), nullableID(r.UserID), r.RespondedAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create %s party: %w", s.desc.Type, err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, partyID id.PartyID) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, partyColumns, s.desc.Table)
	r, err := s.scan(s.q(ctx).QueryRowContext(ctx, query, partyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find %s party: %w", s.desc.Type, err)
	}
	return r, nil
}

func (s *PostgresStore) FindByAccountAndEmail(ctx context.Context, accountID id.AccountID, email string) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND LOWER(email) = LOWER($2) AND status != $3
		LIMIT 1
	`, partyColumns, s.desc.Table)
	r, err := s.scan(s.q(ctx).QueryRowContext(ctx, query, accountID.String(), email, string(StatusRemoved)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find %s party by email: %w", s.desc.Type, err)
	}
	return r, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID id.AccountID) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE account_id = $1 ORDER BY created_at
	`, partyColumns, s.desc.Table)
	return s.list(ctx, query, accountID.String())
}

func (s *PostgresStore) ListPendingFor(ctx context.Context, userID id.UserID, email string) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = $1 AND (user_id = $2 OR LOWER(email) = LOWER($3))
		ORDER BY created_at
	`, partyColumns, s.desc.Table)
	return s.list(ctx, query, string(StatusPending), userID.String(), email)
}

func (s *PostgresStore) Update(ctx context.Context, r *Record) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			email = $2, name = $3, role = $4,
			is_director = $5, is_shareholder = $6, ownership_percent = $7,
			is_trustee = $8, is_beneficiary = $9, beneficiary_percent = $10,
			status = $11, user_id = $12, responded_at = $13, updated_at = $14
		WHERE id = $1
	`, s.desc.Table)
	result, err := s.q(ctx).ExecContext(ctx, query,
		r.ID.String(), r.Email, r.Name, r.Role,
		r.IsDirector, r.IsShareholder, r.OwnershipPercent,
		r.IsTrustee, r.IsBeneficiary, r.BeneficiaryPercent,
		string(r.Status), nullableID(r.UserID), r.RespondedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update %s party: %w", s.desc.Type, err)
	}
	return requireRow(result)
}

func (s *PostgresStore) Delete(ctx context.Context, partyID id.PartyID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.desc.Table)
	result, err := s.q(ctx).ExecContext(ctx, query, partyID.String())
	if err != nil {
		return fmt.Errorf("delete %s party: %w", s.desc.Type, err)
	}
	return requireRow(result)
}

// ClaimPending approves every pending record for (account, email) and
// attaches the accepting user in one statement.
func (s *PostgresStore) ClaimPending(ctx context.Context, accountID id.AccountID, email string, userID id.UserID, now time.Time) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $4, user_id = $5, responded_at = $6, updated_at = $6
		WHERE account_id = $1 AND LOWER(email) = LOWER($2) AND status = $3
	`, s.desc.Table)
	result, err := s.q(ctx).ExecContext(ctx, query,
		accountID.String(), email, string(StatusPending),
		string(StatusApproved), userID.String(), now,
	)
	if err != nil {
		return 0, fmt.Errorf("claim %s parties: %w", s.desc.Type, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim %s parties: %w", s.desc.Type, err)
	}
	return int(rows), nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s parties: %w", s.desc.Type, err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s party: %w", s.desc.Type, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scan(row rowScanner) (*Record, error) {
	var (
		r              Record
		rawID, rawAcct string
		status         string
		rawUser        sql.NullString
		respondedAt    sql.NullTime
	)
	if err := row.Scan(&rawID, &rawAcct, &r.Email, &r.Name, &r.Role,
		&r.IsDirector, &r.IsShareholder, &r.OwnershipPercent,
		&r.IsTrustee, &r.IsBeneficiary, &r.BeneficiaryPercent,
		&status, &rawUser, &respondedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	partyID, err := id.ParsePartyID(rawID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(rawAcct)
	if err != nil {
		return nil, err
	}
	r.ID = partyID
	r.AccountID = accountID
	r.Type = s.desc.Type
	r.Status = Status(status)
	if rawUser.Valid {
		userID, err := id.ParseUserID(rawUser.String)
		if err != nil {
			return nil, err
		}
		r.UserID = &userID
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		r.RespondedAt = &t
	}
	return &r, nil
}

func nullableID(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return userID.String()
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
