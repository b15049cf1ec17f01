package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/radieske/battle-monads/internal/identity"
)

// Postgres implementa identity.Store sobre a tabela user_profiles
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Upsert grava o perfil usando wallet_address como chave de conflito
func (p *Postgres) Upsert(ctx context.Context, pr identity.Profile) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO user_profiles (wallet_address, discord_id, username, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet_address) DO UPDATE SET
		  discord_id = EXCLUDED.discord_id,
		  username   = EXCLUDED.username,
		  avatar_url = EXCLUDED.avatar_url,
		  updated_at = EXCLUDED.updated_at
	`, identity.NormalizeWallet(pr.WalletAddress), pr.ExternalID, pr.Username, nullable(pr.AvatarURL), pr.UpdatedAt)
	return err
}

// GetByWallet retorna nil, nil quando a carteira não tem perfil
func (p *Postgres) GetByWallet(ctx context.Context, wallet string) (*identity.Profile, error) {
	var (
		pr     identity.Profile
		avatar sql.NullString
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT wallet_address, discord_id, username, avatar_url, updated_at
		FROM user_profiles WHERE wallet_address = $1
	`, identity.NormalizeWallet(wallet)).Scan(&pr.WalletAddress, &pr.ExternalID, &pr.Username, &avatar, &pr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pr.AvatarURL = avatar.String
	return &pr, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
