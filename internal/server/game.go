package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type NewGameParams struct {
	Preset    string `schema:"preset"`
	Level     int    `schema:"level"`
	Width     int    `schema:"width"`
	Height    int    `schema:"height"`
	MineCount int    `schema:"mine_count"`
	// WxH:M, shorthand for width, height and mine_count
	Board string `schema:"board"`
	Seed      uint64 `schema:"seed"`
}

type PosParams struct {
	X int `schema:"x,required"`
	Y int `schema:"y,required"`
}

type newGameResponse struct {
	*session.View
	Token string `json:"token"`
}

// setupFromQuery picks a preset, a challenge level or a custom board, in that
// order, defaulting to the easy preset. A custom board is given either as
// board=WxH:M or by its separate dimensions.
func (s *Server) setupFromQuery(r *http.Request) (session.Setup, []session.Option, error) {
	query := r.URL.Query()
	var params NewGameParams
	if err := s.dec.Decode(&params, query); err != nil {
		return session.Setup{}, nil, err
	}

	var opts []session.Option
	if query.Has("seed") {
		opts = append(opts, session.WithSeed(params.Seed))
	}

	switch {
	case params.Preset != "":
		preset, ok := session.PresetByName(params.Preset)
		if !ok {
			return session.Setup{}, nil, fmt.Errorf("unknown preset %q", params.Preset)
		}
		return session.PresetSetup(preset), opts, nil
	case query.Has("level"):
		return session.ChallengeSetup(params.Level), opts, nil
	case params.Board != "":
		p, err := mines.ParseParams(params.Board)
		if err != nil {
			return session.Setup{}, nil, err
		}
		return session.CustomSetup(p.Unpack()), opts, nil
	case query.Has("width") || query.Has("height") || query.Has("mine_count"):
		return session.CustomSetup(params.Width, params.Height, params.MineCount), opts, nil
	default:
		return session.PresetSetup(session.Easy), opts, nil
	}
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	setup, opts, err := s.setupFromQuery(r)
	if err != nil {
		sendJSONOrLog(w, s.log, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	view, err := s.sessions.Create(r.Context(), setup, opts...)
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	token, err := s.jwt.Sign(s.jwt.NewSessionClaims(view.Id, time.Now()))
	if err != nil {
		sendError(w, s.log, fmt.Errorf("unable to sign session token: %w", err))
		return
	}
	sendJSONOrLog(w, s.log, http.StatusCreated, newGameResponse{view, token})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	sendJSONOrLog(w, s.log, http.StatusOK, view)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, moves ...session.Move) {
	view, err := s.sessions.Apply(r.Context(), r.PathValue("id"), moves)
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	sendJSONOrLog(w, s.log, http.StatusOK, view)
}

func (s *Server) handleMove(kind session.MoveKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pos PosParams
		if err := s.dec.Decode(&pos, r.URL.Query()); err != nil {
			sendJSONOrLog(w, s.log, http.StatusBadRequest, errorPayload{Error: err.Error()})
			return
		}
		s.apply(w, r, session.Move{Kind: kind, X: pos.X, Y: pos.Y})
	}
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, session.Move{Kind: session.MoveForfeit})
}

// Accepts newline-separated commands in the request body. Commands are played
// in the order they are listed and play stops at the first one that ends the
// game. If any command is malformed nothing is played and the response is a
// [http.StatusBadRequest] naming the offending line.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		sendError(w, s.log, fmt.Errorf("unable to read body: %w", err))
		return
	}
	moves, err := parseCommands(string(body))
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	s.apply(w, r, moves...)
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		sendJSONOrLog(w, s.log, http.StatusBadRequest, errorPayload{Error: "key is required"})
		return
	}
	best, err := s.sessions.Best(r.Context(), key)
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	payload := struct {
		Key  string `json:"key"`
		Best *int   `json:"best"`
		Time string `json:"time"`
	}{key, best, "--"}
	if best != nil {
		payload.Time = session.FormatTime(*best)
	}
	sendJSONOrLog(w, s.log, http.StatusOK, payload)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	unlocked, err := s.sessions.Progress(r.Context())
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	levels, err := s.sessions.Challenge(r.Context())
	if err != nil {
		sendError(w, s.log, err)
		return
	}
	payload := struct {
		Unlocked int                   `json:"unlocked"`
		Levels   []session.LevelStatus `json:"levels"`
	}{unlocked, levels}
	sendJSONOrLog(w, s.log, http.StatusOK, payload)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Status   string           `json:"status"`
		Sessions int              `json:"sessions"`
		Presets  []session.Preset `json:"presets"`
	}{"ok", s.sessions.Len(), session.Presets}
	sendJSONOrLog(w, s.log, http.StatusOK, payload)
}
