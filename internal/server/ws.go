package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

// handleConnectWs plays every text message as a batch of commands and answers
// with the game after each one. Bad batches get an error reply and leave the
// game as it was.
func (s *Server) handleConnectWs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		sendError(w, s.log, err)
		return
	}

	log := s.log.WithField("session", id)
	if claims, ok := r.Context().Value(ctxSessionClaims).(*config.SessionClaims); ok && claims.ExpiresAt != nil {
		log = log.WithField("token_expires", claims.ExpiresAt.Time)
	}

	c, err := s.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("upgrade")
		return
	}
	defer c.Close()

	log.Debug("ws connected")
	if err := c.WriteJSON(view); err != nil {
		log.WithError(err).Warn("write")
		return
	}

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("read")
			}
			break
		}
		if mt != websocket.TextMessage {
			log.WithField("type", mt).Debug("ignoring non-text message")
			continue
		}
		log.WithField("commands", string(message)).Debug("ws >")

		if err := s.playWs(r.Context(), c, log, id, string(message)); err != nil {
			log.WithError(err).Warn("closing ws")
			break
		}
	}
}

// playWs only fails when the connection should be dropped.
func (s *Server) playWs(
	ctx context.Context, c *websocket.Conn, log *logrus.Entry, id, text string,
) error {
	moves, err := parseCommands(text)
	if err != nil {
		return c.WriteJSON(errorBody(err))
	}
	view, err := s.sessions.Apply(ctx, id, moves)
	switch {
	case err == nil:
		return c.WriteJSON(view)
	case errors.Is(err, session.ErrNotFound):
		// evicted while connected
		c.WriteJSON(errorBody(err))
		return err
	case statusOf(err) == http.StatusInternalServerError:
		log.WithError(err).Error("apply")
		return c.WriteJSON(errorPayload{Error: http.StatusText(http.StatusInternalServerError)})
	default:
		return c.WriteJSON(errorBody(err))
	}
}
