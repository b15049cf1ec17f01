package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Profile associa uma carteira a uma identidade Discord (tabela user_profiles).
type Profile struct {
	WalletAddress string    `json:"wallet_address"` // sempre minúsculo
	ExternalID    string    `json:"discord_id"`
	Username      string    `json:"username"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session é o usuário autenticado no provedor de identidade.
type Session struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	GlobalName  string `json:"global_name"`
	AvatarURL   string `json:"avatar_url"`
	AccessToken string `json:"-"`
}

// DisplayName: global_name, depois name, depois email.
func (s Session) DisplayName() string {
	for _, v := range []string{s.GlobalName, s.Name, s.Email} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NormalizeWallet devolve o endereço em minúsculas usado como chave.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Store é a persistência de perfis.
type Store interface {
	Upsert(ctx context.Context, p Profile) error
	GetByWallet(ctx context.Context, wallet string) (*Profile, error)
}

// Linker grava o vínculo carteira/identidade uma vez por par (id, endereço)
// assim que os dois estiverem disponíveis. Falhas são logadas e descartadas.
type Linker struct {
	store    Store
	log      *zap.Logger
	onResult func(outcome string)
	now      func() time.Time

	mu     sync.Mutex
	linked map[string]struct{}
}

func NewLinker(store Store, log *zap.Logger, onResult func(outcome string)) *Linker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Linker{store: store, log: log, onResult: onResult, now: time.Now, linked: map[string]struct{}{}}
}

// Observe recebe o estado atual de sessão e carteira. Devolve true quando
// uma gravação foi disparada nesta chamada.
func (l *Linker) Observe(ctx context.Context, s *Session, wallet common.Address) bool {
	if s == nil || s.UserID == "" || wallet == (common.Address{}) {
		return false
	}
	addr := NormalizeWallet(wallet.Hex())
	key := s.UserID + "|" + addr

	l.mu.Lock()
	if _, done := l.linked[key]; done {
		l.mu.Unlock()
		return false
	}
	l.linked[key] = struct{}{}
	l.mu.Unlock()

	p := Profile{
		WalletAddress: addr,
		ExternalID:    s.UserID,
		Username:      s.DisplayName(),
		AvatarURL:     s.AvatarURL,
		UpdatedAt:     l.now().UTC(),
	}
	if err := l.store.Upsert(ctx, p); err != nil {
		l.log.Error("link wallet to identity", zap.String("wallet", addr), zap.String("user_id", s.UserID), zap.Error(err))
		l.report("error")
		return true
	}
	l.log.Info("wallet linked", zap.String("wallet", addr), zap.String("user_id", s.UserID))
	l.report("ok")
	return true
}

func (l *Linker) report(outcome string) {
	if l.onResult != nil {
		l.onResult(outcome)
	}
}
