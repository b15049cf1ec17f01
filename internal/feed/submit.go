package feed

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

// RefreshDelay entre a submissão e a nova leitura do mural.
const RefreshDelay = 3 * time.Second

// CommentWriter é a escrita addComment do gateway.
type CommentWriter interface {
	AddComment(ctx context.Context, battleID int64, content string) (*types.Transaction, error)
}

// Submitter envia comentários e agenda a releitura do mural. Nada é
// inserido localmente: o comentário aparece quando a leitura o trouxer.
type Submitter struct {
	w       CommentWriter
	refresh func()
	delay   time.Duration
}

func NewSubmitter(w CommentWriter, refresh func()) *Submitter {
	return &Submitter{w: w, refresh: refresh, delay: RefreshDelay}
}

func (s *Submitter) Submit(ctx context.Context, battleID int64, d Draft) (*types.Transaction, error) {
	content := d.Content
	if d.Kind == KindAttack {
		content = AttackKeyword
	}
	tx, err := s.w.AddComment(ctx, battleID, content)
	if err != nil {
		return nil, err
	}
	if s.refresh != nil {
		time.AfterFunc(s.delay, s.refresh)
	}
	return tx, nil
}
