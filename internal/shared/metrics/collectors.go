package metrics

import "github.com/prometheus/client_golang/prometheus"

// Client agrupa as métricas do battle-client
type Client struct {
	Polls     *prometheus.CounterVec // por recurso
	PollErrs  *prometheus.CounterVec // por recurso
	Stale     *prometheus.CounterVec // respostas fora de ordem descartadas
	TxSubmits *prometheus.CounterVec // por operação e resultado
	Links     *prometheus.CounterVec // identity linking por resultado
	Fallbacks prometheus.Counter     // snapshots placeholder de preço
}

// NewClient registra as métricas do battle-client no registerer informado
func NewClient(reg prometheus.Registerer) *Client {
	m := &Client{
		Polls:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "battle_client_polls_total", Help: "leituras disparadas por recurso"}, []string{"resource"}),
		PollErrs:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: "battle_client_poll_errors_total", Help: "leituras com erro por recurso"}, []string{"resource"}),
		Stale:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "battle_client_stale_responses_total", Help: "respostas antigas descartadas"}, []string{"resource"}),
		TxSubmits: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "battle_client_tx_submissions_total", Help: "transações submetidas"}, []string{"op", "outcome"}),
		Links:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "battle_client_identity_links_total", Help: "vínculos carteira/identidade"}, []string{"outcome"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{Name: "battle_client_price_fallbacks_total", Help: "snapshots placeholder servidos"}),
	}
	reg.MustRegister(m.Polls, m.PollErrs, m.Stale, m.TxSubmits, m.Links, m.Fallbacks)
	return m
}

// Events agrupa as métricas do pipeline de eventos on-chain
type Events struct {
	Observed  *prometheus.CounterVec // watcher: logs decodificados por tipo
	Published prometheus.Counter
	Consumed  prometheus.Counter
	Broadcast prometheus.Counter
	Errors    *prometheus.CounterVec // por estágio
	Head      prometheus.Gauge       // último bloco processado
}

func NewEvents(reg prometheus.Registerer, prefix string) *Events {
	m := &Events{
		Observed:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: prefix + "_events_observed_total", Help: "eventos decodificados por tipo"}, []string{"type"}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{Name: prefix + "_events_published_total", Help: "eventos publicados no kafka"}),
		Consumed:  prometheus.NewCounter(prometheus.CounterOpts{Name: prefix + "_messages_consumed_total", Help: "mensagens consumidas"}),
		Broadcast: prometheus.NewCounter(prometheus.CounterOpts{Name: prefix + "_broadcasts_total", Help: "mensagens enviadas ao pub/sub"}),
		Errors:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: prefix + "_errors_total", Help: "erros por estágio"}, []string{"stage"}),
		Head:      prometheus.NewGauge(prometheus.GaugeOpts{Name: prefix + "_last_block", Help: "último bloco processado"}),
	}
	reg.MustRegister(m.Observed, m.Published, m.Consumed, m.Broadcast, m.Errors, m.Head)
	return m
}
