package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrDisabled é devolvido por um Fetch cujos parâmetros ainda não existem
// (id <= 0, carteira desconectada). Nenhuma requisição é feita e o valor
// guardado é limpo.
var ErrDisabled = errors.New("poller: query disabled")

// Fetch executa uma leitura. Cada chamada roda na sua própria goroutine.
type Fetch[T any] func(ctx context.Context) (T, error)

// Hooks recebe callbacks de métricas; todos opcionais.
type Hooks struct {
	OnPoll  func(resource string)
	OnError func(resource string, err error)
	OnStale func(resource string)
}

type Options struct {
	Name     string
	Interval time.Duration
	Logger   *zap.Logger
	Hooks    Hooks
}

// Poller lê um recurso na largada, a cada Interval e a cada Trigger.
// Toda leitura recebe um número de sequência crescente; um resultado mais
// antigo que o último armazenado é descartado.
type Poller[T any] struct {
	opts     Options
	fetch    Fetch[T]
	onUpdate func(T, uint64)
	log      *zap.Logger

	seq     atomic.Uint64
	trigger chan struct{}

	mu        sync.RWMutex
	value     T
	has       bool
	lastErr   error
	stored    uint64
	valueSeq  uint64 // seq do valor guardado (0 = nenhum)
	updatedAt time.Time

	// serializa as entregas a onUpdate; uma entrega só ocorre se o seq
	// ainda for o último armazenado
	deliver sync.Mutex

	cancel   context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

// New cria o poller. onUpdate pode ser nil.
func New[T any](opts Options, fetch Fetch[T], onUpdate func(T)) *Poller[T] {
	var fn func(T, uint64)
	if onUpdate != nil {
		fn = func(v T, _ uint64) { onUpdate(v) }
	}
	return NewSeq(opts, fetch, fn)
}

// NewSeq é o New com o número de sequência da leitura entregue junto do valor.
func NewSeq[T any](opts Options, fetch Fetch[T], onUpdate func(T, uint64)) *Poller[T] {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller[T]{
		opts:     opts,
		fetch:    fetch,
		onUpdate: onUpdate,
		log:      log.With(zap.String("resource", opts.Name)),
		trigger:  make(chan struct{}, 1),
	}
}

func (p *Poller[T]) Name() string { return p.opts.Name }

// Issued devolve o seq da última leitura disparada. Leituras entregues com
// seq maior começaram depois desta chamada.
func (p *Poller[T]) Issued() uint64 { return p.seq.Load() }

// Start dispara a primeira leitura imediatamente e inicia o loop.
// O loop termina quando ctx é cancelado ou Stop é chamado.
func (p *Poller[T]) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		p.poll(ctx)
		if p.opts.Interval <= 0 {
			<-ctx.Done()
			return
		}

		ticker := time.NewTicker(p.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			case <-p.trigger:
				p.poll(ctx)
			}
		}
	}()
}

// Trigger força uma leitura fora do intervalo. Pedidos acumulados viram um só.
func (p *Poller[T]) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Stop cancela o loop e espera as leituras em andamento terminarem.
func (p *Poller[T]) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.inflight.Wait()
}

// Latest devolve o último valor aceito e se existe algum.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.has
}

// Err devolve o erro da última leitura aceita (nil se ela teve sucesso).
func (p *Poller[T]) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Poller[T]) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}

func (p *Poller[T]) poll(ctx context.Context) {
	seq := p.seq.Add(1)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		v, err := p.fetch(ctx)
		p.apply(ctx, seq, v, err)
	}()
}

func (p *Poller[T]) apply(ctx context.Context, seq uint64, v T, err error) {
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	if seq < p.stored {
		p.mu.Unlock()
		if p.opts.Hooks.OnStale != nil {
			p.opts.Hooks.OnStale(p.opts.Name)
		}
		p.log.Debug("stale response discarded", zap.Uint64("seq", seq))
		return
	}
	p.stored = seq

	switch {
	case errors.Is(err, ErrDisabled):
		var zero T
		p.value, p.has, p.lastErr, p.valueSeq = zero, false, nil, 0
		p.mu.Unlock()
		return
	case err != nil:
		// falha transitória: mantém o valor anterior
		p.lastErr = err
		p.mu.Unlock()
		if p.opts.Hooks.OnPoll != nil {
			p.opts.Hooks.OnPoll(p.opts.Name)
		}
		if p.opts.Hooks.OnError != nil {
			p.opts.Hooks.OnError(p.opts.Name, err)
		}
		p.log.Warn("poll failed", zap.Error(err))
		return
	}

	p.value, p.has, p.lastErr, p.valueSeq = v, true, nil, seq
	p.updatedAt = time.Now()
	p.mu.Unlock()

	p.deliver.Lock()
	defer p.deliver.Unlock()
	if p.opts.Hooks.OnPoll != nil {
		p.opts.Hooks.OnPoll(p.opts.Name)
	}
	p.mu.RLock()
	current := seq == p.valueSeq
	p.mu.RUnlock()
	if !current {
		// um valor mais novo já foi armazenado (e será entregue) ou limpo
		if p.opts.Hooks.OnStale != nil {
			p.opts.Hooks.OnStale(p.opts.Name)
		}
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(v, seq)
	}
}
