package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledgerdesk/internal/party"
	id "ledgerdesk/pkg/domain"
	"ledgerdesk/pkg/platform/sentinel"
	"ledgerdesk/pkg/platform/tx"
)

// PostgresStore persists one party type's invitations. The table name comes
// from the fixed TypeDescriptor set, never from request input. Methods honor
// a transaction carried in the context so accept can mark the invitation and
// claim party records atomically.
type PostgresStore struct {
	db   *sql.DB
	desc party.TypeDescriptor
}

func NewPostgres(db *sql.DB, desc party.TypeDescriptor) *PostgresStore {
	return &PostgresStore{db: db, desc: desc}
}

// NewPostgresStores builds one postgres store per party type.
func NewPostgresStores(db *sql.DB) Stores {
	stores := make(Stores, len(id.PartyTypes))
	for _, t := range id.PartyTypes {
		stores[t] = NewPostgres(db, party.DescriptorFor(t))
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

const invitationColumns = `id, account_id, email, name, role, percentage,
	token_hash, expires_at, accepted_at, created_at`

func (s *PostgresStore) Create(ctx context.Context, inv *Invitation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.desc.InvitationTable, invitationColumns)
	_, err := s.q(ctx).ExecContext(ctx, query,
		inv.ID.String(), inv.AccountID.String(), inv.Email, inv.Name, inv.Role, inv.Percentage,
		inv.TokenHash, inv.ExpiresAt, inv.AcceptedAt, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create %s invitation: %w", s.desc.Type, err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, invitationID id.InvitationID) (*Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, invitationColumns, s.desc.InvitationTable)
	inv, err := s.scan(s.q(ctx).QueryRowContext(ctx, query, invitationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find %s invitation: %w", s.desc.Type, err)
	}
	return inv, nil
}

func (s *PostgresStore) ListLiveByEmail(ctx context.Context, email string, now time.Time) ([]*Invitation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE LOWER(email) = LOWER($1) AND accepted_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`, invitationColumns, s.desc.InvitationTable)
	rows, err := s.q(ctx).QueryContext(ctx, query, email, now)
	if err != nil {
		return nil, fmt.Errorf("list live %s invitations: %w", s.desc.Type, err)
	}
	defer rows.Close()

	var out []*Invitation
	for rows.Next() {
		inv, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s invitation: %w", s.desc.Type, err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkAccepted(ctx context.Context, invitationID id.InvitationID, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL
	`, s.desc.InvitationTable)
	result, err := s.q(ctx).ExecContext(ctx, query, invitationID.String(), at)
	if err != nil {
		return fmt.Errorf("mark %s invitation accepted: %w", s.desc.Type, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark %s invitation accepted: %w", s.desc.Type, err)
	}
	if rows == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE accepted_at IS NULL AND expires_at <= $1
	`, s.desc.InvitationTable)
	result, err := s.q(ctx).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired %s invitations: %w", s.desc.Type, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired %s invitations: %w", s.desc.Type, err)
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scan(row rowScanner) (*Invitation, error) {
	var (
		inv            Invitation
		rawID, rawAcct string
		acceptedAt     sql.NullTime
	)
	if err := row.Scan(&rawID, &rawAcct, &inv.Email, &inv.Name, &inv.Role, &inv.Percentage,
		&inv.TokenHash, &inv.ExpiresAt, &acceptedAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	invitationID, err := id.ParseInvitationID(rawID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(rawAcct)
	if err != nil {
		return nil, err
	}
	inv.ID = invitationID
	inv.AccountID = accountID
	inv.Type = s.desc.Type
	if acceptedAt.Valid {
		t := acceptedAt.Time
		inv.AcceptedAt = &t
	}
	return &inv, nil
}
