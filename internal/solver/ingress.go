package solver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"percolator-go/internal/intent"
)

// Ingress accepts sealed intent envelopes over websocket, one binary message
// per envelope, and feeds them to the engine. Malformed messages are dropped
// without closing the connection; a full queue closes it so the counterparty
// backs off.
type Ingress struct {
	log      zerolog.Logger
	engine   *Engine
	upgrader websocket.Upgrader
}

// NewIngress builds the websocket handler in front of an engine.
func NewIngress(log zerolog.Logger, engine *Engine) *Ingress {
	return &Ingress{
		log:    log.With().Str("component", "ingress").Logger(),
		engine: engine,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1 << 12,
			WriteBufferSize:  1 << 12,
		},
	}
}

// ServeHTTP upgrades the connection and pumps envelopes until the peer goes
// away.
func (in *Ingress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := in.upgrader.Upgrade(w, r, nil)
	if err != nil {
		in.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 16)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	in.log.Info().Str("remote", r.RemoteAddr).Msg("counterparty connected")
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		env, err := intent.UnmarshalEnvelope(message)
		if err != nil {
			in.log.Warn().Err(err).Msg("malformed envelope")
			continue
		}
		if err := in.engine.Enqueue(env); err != nil {
			if errors.Is(err, ErrQueueFull) {
				in.log.Warn().Str("remote", r.RemoteAddr).Msg("queue full, shedding connection")
				return
			}
			in.log.Warn().Err(err).Msg("enqueue failed")
		}
	}
}

// Serve runs the ingress on its own listener.
func (in *Ingress) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/intents", in)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
