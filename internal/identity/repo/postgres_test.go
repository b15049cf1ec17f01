package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/battle-monads/internal/identity"
)

func TestUpsertLowercasesWallet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(wallet_address\) DO UPDATE`).
		WithArgs("0xabcdef0000000000000000000000000000000001", "42", "kaiju", nil, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgres(db).Upsert(context.Background(), identity.Profile{
		WalletAddress: "0xABCDEF0000000000000000000000000000000001",
		ExternalID:    "42",
		Username:      "kaiju",
		UpdatedAt:     at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByWallet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"wallet_address", "discord_id", "username", "avatar_url", "updated_at"}).
		AddRow("0xabc", "42", "kaiju", "https://cdn/a.png", at)
	mock.ExpectQuery(`SELECT wallet_address, discord_id, username, avatar_url, updated_at FROM user_profiles`).
		WithArgs("0xabc").WillReturnRows(rows)

	p, err := NewPostgres(db).GetByWallet(context.Background(), "0xABC")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "kaiju", p.Username)
	assert.Equal(t, "https://cdn/a.png", p.AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByWalletAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM user_profiles`).WithArgs("0xdead").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_address", "discord_id", "username", "avatar_url", "updated_at"}))

	p, err := NewPostgres(db).GetByWallet(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Nil(t, p)
}
