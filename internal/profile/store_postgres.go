package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledgerdesk/internal/account"
	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL. One table holds all four
// variants discriminated by kind; (account_id, kind) is unique. Sensitive
// columns store only ciphertext and digest.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (account_id, kind, legal_name, trading_name, registration_number,
			tax_id_ciphertext, tax_id_digest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
		ON CONFLICT (account_id, kind) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			trading_name = EXCLUDED.trading_name,
			registration_number = EXCLUDED.registration_number,
			tax_id_ciphertext = EXCLUDED.tax_id_ciphertext,
			tax_id_digest = EXCLUDED.tax_id_digest,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.AccountID.String(), string(p.Kind), p.LegalName, p.TradingName, p.RegistrationNumber,
		p.TaxIDCiphertext, p.TaxIDDigest, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID id.AccountID, kind account.Kind) (*Profile, error) {
	query := `
		SELECT account_id, kind, legal_name, trading_name, registration_number,
			COALESCE(tax_id_ciphertext, ''), COALESCE(tax_id_digest, ''), created_at, updated_at
		FROM profiles
		WHERE account_id = $1 AND kind = $2
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, accountID.String(), string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

// FindByDigest performs the equality lookup behind the uniqueness guard.
// The digest column is deterministic, so an index serves this query; the
// guard still inspects each match's owning account status.
func (s *PostgresStore) FindByDigest(ctx context.Context, digest string) ([]*Profile, error) {
	if digest == "" {
		return nil, nil
	}
	query := `
		SELECT account_id, kind, legal_name, trading_name, registration_number,
			COALESCE(tax_id_ciphertext, ''), COALESCE(tax_id_digest, ''), created_at, updated_at
		FROM profiles
		WHERE tax_id_digest = $1
	`
	rows, err := s.db.QueryContext(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("find profiles by digest: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteByAccount(ctx context.Context, accountID id.AccountID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE account_id = $1`, accountID.String())
	if err != nil {
		return fmt.Errorf("delete profiles: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p     Profile
		rawID string
		kind  string
	)
	if err := row.Scan(&rawID, &kind, &p.LegalName, &p.TradingName, &p.RegistrationNumber,
		&p.TaxIDCiphertext, &p.TaxIDDigest, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(rawID)
	if err != nil {
		return nil, err
	}
	p.AccountID = accountID
	p.Kind = account.Kind(kind)
	return &p, nil
}
