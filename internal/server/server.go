// Package server exposes game sessions over HTTP and WebSocket.
package server

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type Server struct {
	log      *logrus.Logger
	sessions *session.Manager
	jwt      *config.JWT
	ws       *config.WebSocket
	dec      *schema.Decoder
}

func New(
	log *logrus.Logger,
	sessions *session.Manager,
	jwt *config.JWT,
	ws *config.WebSocket,
) *Server {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return &Server{
		log:      log,
		sessions: sessions,
		jwt:      jwt,
		ws:       ws,
		dec:      dec,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := RequireSession(s.log, s.jwt)

	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/best", s.handleBest)
	mux.HandleFunc("GET /v1/challenge", s.handleChallenge)

	mux.HandleFunc("POST /v1/game", s.handleNewGame)
	mux.HandleFunc("GET /v1/game/{id}", s.handleGetGame)
	mux.HandleFunc("POST /v1/game/{id}/open", auth(s.handleMove(session.MoveOpen)))
	mux.HandleFunc("POST /v1/game/{id}/flag", auth(s.handleMove(session.MoveFlag)))
	mux.HandleFunc("POST /v1/game/{id}/chord", auth(s.handleMove(session.MoveChord)))
	mux.HandleFunc("POST /v1/game/{id}/forfeit", auth(s.handleForfeit))
	mux.HandleFunc("POST /v1/game/{id}/batch", auth(s.handleBatch))

	mux.HandleFunc("GET /v1/game/{id}/connect", auth(s.handleConnectWs))

	return Wrap(mux,
		Cors(),
		Logging(s.log),
	)
}
