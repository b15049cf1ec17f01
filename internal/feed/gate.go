package feed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/radieske/battle-monads/internal/gateway"
)

// Mensagens exibidas para cada condição de postagem não atendida.
const (
	GuidanceSignIn   = "Login with Discord to participate in battle comments and attacks"
	GuidanceWallet   = "Connect your wallet to comment"
	GuidancePlaceBet = "Place a bet in this battle to unlock comments"
)

type Reason string

const (
	ReasonNoSession  Reason = "no_session"
	ReasonNoWallet   Reason = "no_wallet"
	ReasonNotAllowed Reason = "not_allowed"
)

type Blocker struct {
	Reason   Reason `json:"reason"`
	Guidance string `json:"guidance"`
}

// Gate é o resultado da checagem de permissão para postar.
type Gate struct {
	Allowed  bool      `json:"allowed"`
	Blockers []Blocker `json:"blockers,omitempty"`
}

// Check avalia as três condições de forma independente.
func Check(hasSession, hasWallet, canComment bool) Gate {
	var g Gate
	if !hasSession {
		g.Blockers = append(g.Blockers, Blocker{ReasonNoSession, GuidanceSignIn})
	}
	if !hasWallet {
		g.Blockers = append(g.Blockers, Blocker{ReasonNoWallet, GuidanceWallet})
	}
	if !canComment {
		g.Blockers = append(g.Blockers, Blocker{ReasonNotAllowed, GuidancePlaceBet})
	}
	g.Allowed = len(g.Blockers) == 0
	return g
}

var ErrAttackNeedsTarget = errors.New("feed: attack needs a target (ETH or BTC)")

// AttackKeyword transforma o comentário em intenção de ataque.
const AttackKeyword = "attack"

// Draft é o que o usuário quer postar.
type Draft struct {
	Content string
	Kind    Kind
	Target  *gateway.Side
}

// ParseComment classifica o texto digitado. "attack" (qualquer caixa) exige alvo.
func ParseComment(content string, target *gateway.Side) (Draft, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Draft{}, gateway.ErrEmptyComment
	}
	if !strings.EqualFold(trimmed, AttackKeyword) {
		return Draft{Content: trimmed, Kind: KindComment}, nil
	}
	if target == nil || (*target != gateway.SideETH && *target != gateway.SideBTC) {
		return Draft{}, ErrAttackNeedsTarget
	}
	return Draft{Content: AttackKeyword, Kind: KindAttack, Target: target}, nil
}

func (d Draft) String() string {
	if d.Kind == KindAttack && d.Target != nil {
		return fmt.Sprintf("attack %s", d.Target)
	}
	return d.Content
}
