package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type conn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex // gorilla não aceita escritas concorrentes
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por batalha
// subs: mapeia battleID para o conjunto de conexões inscritas
// Preços (battleID 0) vão para todas as conexões
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	conns    map[*conn]struct{}
	subs     map[int64]map[*conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		conns:    make(map[*conn]struct{}),
		subs:     make(map[int64]map[*conn]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{id: uuid.NewString(), ws: ws}
	defer ws.Close()

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("ws connected", zap.String("client_id", c.id))

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.BattleID]; !ok {
				h.subs[msg.BattleID] = make(map[*conn]struct{})
			}
			h.subs[msg.BattleID][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.BattleID]; ok {
				delete(m, c)
				if len(m) == 0 {
					delete(h.subs, msg.BattleID)
				}
			}
			h.mu.Unlock()
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong", "clientId": c.id})
			_ = c.write(b)
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	delete(h.conns, c)
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
	h.log.Debug("ws disconnected", zap.String("client_id", c.id))
}

// Notify implementa client.Notifier
func (h *Hub) Notify(battleID int64, resource string, payload any) {
	h.Broadcast(Update{BattleID: battleID, Resource: resource, Payload: payload})
}

// Broadcast envia a atualização aos inscritos da batalha; preços vão para todos
func (h *Hub) Broadcast(update Update) {
	h.mu.RLock()
	var targets []*conn
	if update.BattleID == 0 {
		for c := range h.conns {
			targets = append(targets, c)
		}
	} else {
		for c := range h.subs[update.BattleID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.String("resource", update.Resource), zap.Error(err))
		return
	}
	for _, c := range targets {
		_ = c.write(b)
	}
}

// Subscribers devolve quantas conexões acompanham a batalha
func (h *Hub) Subscribers(battleID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[battleID])
}
