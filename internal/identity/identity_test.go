package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	upserts []Profile
	err     error
}

func (m *memStore) Upsert(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts = append(m.upserts, p)
	return m.err
}

func (m *memStore) GetByWallet(context.Context, string) (*Profile, error) { return nil, nil }

func TestDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "Global", Session{GlobalName: "Global", Name: "name", Email: "e@x"}.DisplayName())
	assert.Equal(t, "name", Session{Name: "name", Email: "e@x"}.DisplayName())
	assert.Equal(t, "e@x", Session{Email: "e@x"}.DisplayName())
}

func TestLinkerFiresOncePerPair(t *testing.T) {
	store := &memStore{}
	l := NewLinker(store, nil, nil)
	ctx := context.Background()
	wallet := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
	s := &Session{UserID: "u1", Name: "kaiju", AvatarURL: "https://cdn/a.png"}

	assert.False(t, l.Observe(ctx, nil, wallet))
	assert.False(t, l.Observe(ctx, s, common.Address{}))
	assert.True(t, l.Observe(ctx, s, wallet))
	assert.False(t, l.Observe(ctx, s, wallet))

	other := common.HexToAddress("0x0000000000000000000000000000000000000002")
	assert.True(t, l.Observe(ctx, s, other))

	require.Len(t, store.upserts, 2)
	p := store.upserts[0]
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", p.WalletAddress)
	assert.Equal(t, "u1", p.ExternalID)
	assert.Equal(t, "kaiju", p.Username)
}

func TestLinkerSwallowsErrors(t *testing.T) {
	store := &memStore{err: errors.New("db down")}
	var outcomes []string
	l := NewLinker(store, nil, func(o string) { outcomes = append(outcomes, o) })

	wallet := common.HexToAddress("0x0000000000000000000000000000000000000003")
	assert.True(t, l.Observe(context.Background(), &Session{UserID: "u1"}, wallet))
	assert.Equal(t, []string{"error"}, outcomes)
}

func TestProviderUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"k@x.io","user_metadata":{"name":"kaiju","avatar_url":"https://cdn/a.png","custom_claims":{"global_name":"Kaiju"}}}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL+"/", "anon")
	s, err := p.User(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Kaiju", s.DisplayName())
	assert.Equal(t, "https://cdn/a.png", s.AvatarURL)

	_, err = p.User(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = p.User(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
