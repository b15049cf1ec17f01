// Package feed monta o mural de comentários e ataques de uma batalha.
package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/battleview"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/identity"
)

type Kind string

const (
	KindComment Kind = "comment"
	KindAttack  Kind = "attack"
)

// ProfileLookup resolve o perfil de uma carteira (nil se não houver).
type ProfileLookup interface {
	GetByWallet(ctx context.Context, wallet string) (*identity.Profile, error)
}

type Author struct {
	Address     common.Address `json:"address"`
	DisplayName string         `json:"display_name"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
}

type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Target    string    `json:"target,omitempty"` // "ETH" ou "BTC" em ataques
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Age       string    `json:"age"`
}

// Classify devolve o tipo da entrada e o alvo quando é ataque.
func Classify(c gateway.Comment) (Kind, string) {
	if !c.IsAttack {
		return KindComment, ""
	}
	return KindAttack, c.AttackTarget.String()
}

// SortNewestFirst ordena por timestamp decrescente mantendo a ordem original nos empates.
func SortNewestFirst(cs []gateway.Comment) []gateway.Comment {
	out := make([]gateway.Comment, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Build ordena os comentários e resolve cada autor distinto uma única vez.
// O cache de perfis vale só para esta chamada.
func Build(ctx context.Context, cs []gateway.Comment, profiles ProfileLookup, now time.Time, log *zap.Logger) []Entry {
	if log == nil {
		log = zap.NewNop()
	}
	sorted := SortNewestFirst(cs)

	authors := map[string]Author{}
	for _, c := range sorted {
		key := strings.ToLower(c.User.Hex())
		if _, ok := authors[key]; ok {
			continue
		}
		a := Author{Address: c.User, DisplayName: ShortAddress(c.User)}
		if profiles != nil {
			p, err := profiles.GetByWallet(ctx, key)
			if err != nil {
				log.Warn("profile lookup failed", zap.String("wallet", key), zap.Error(err))
			} else if p != nil {
				if p.Username != "" {
					a.DisplayName = p.Username
				}
				a.AvatarURL = p.AvatarURL
			}
		}
		authors[key] = a
	}

	out := make([]Entry, 0, len(sorted))
	for _, c := range sorted {
		kind, target := Classify(c)
		out = append(out, Entry{
			ID:        c.ID,
			Kind:      kind,
			Target:    target,
			Content:   c.Content,
			Author:    authors[strings.ToLower(c.User.Hex())],
			Timestamp: c.Timestamp,
			Age:       battleview.RelativeAge(c.Timestamp, now),
		})
	}
	return out
}

// ShortAddress abrevia um endereço como "0x742d…bEb0".
func ShortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}
