package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wolfden/internal/archive"
	"wolfden/internal/engine"
)

// WSMessage is a client request over the websocket.
type WSMessage struct {
	Action     string `json:"action"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	ActionType string `json:"action_type,omitempty"`
	Text       string `json:"text,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// ServerEvent is a server push over the websocket.
type ServerEvent struct {
	Type     string           `json:"type"`
	State    *GameView        `json:"state,omitempty"`
	Error    string           `json:"error,omitempty"`
	Player   *engine.Player   `json:"player,omitempty"`
	Chunk    string           `json:"chunk,omitempty"`
	Recent   []archive.Result `json:"recent,omitempty"`
	WinTally map[string]int   `json:"win_tally,omitempty"`
}

// PlayerView is a roster entry as one particular viewer may see it.
// Role is blank while the game is live unless the viewer is entitled to it.
type PlayerView struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Role    engine.Role `json:"role,omitempty"`
	Alive   bool        `json:"alive"`
	IsHuman bool        `json:"isHuman"`
	You     bool        `json:"you,omitempty"`
}

// GameView is the per-viewer snapshot pushed after every state change.
type GameView struct {
	GameID   string               `json:"gameId"`
	Phase    engine.Phase         `json:"phase"`
	Day      int                  `json:"day"`
	Players  []PlayerView         `json:"players"`
	Messages []engine.ChatMessage `json:"messages"`
	Speaker  string               `json:"speaker,omitempty"`
	Winner   engine.Role          `json:"winner,omitempty"`
	Findings []engine.SeerFinding `json:"findings,omitempty"`
	Witch    *engine.WitchPowers  `json:"witchPowers,omitempty"`
	ViewerID string               `json:"viewerId,omitempty"`
}

// Server wires the engine to the websocket hub and the side collaborators:
// the results archive and the optional AI storyteller.
type Server struct {
	cfg   AppConfig
	eng   *engine.Engine
	hub   *Hub
	store *archive.Store // nil when the archive is disabled
	story Storyteller    // nil when no provider is configured
	log   *zap.SugaredLogger

	finishMu sync.Mutex
	finished string // game id already archived and narrated
}

func newServer(cfg AppConfig, eng *engine.Engine, hub *Hub, store *archive.Store, story Storyteller, logger *zap.SugaredLogger) *Server {
	return &Server{cfg: cfg, eng: eng, hub: hub, store: store, story: story, log: logger}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{conn: conn}
	s.hub.register <- client

	// New connections get an immediate snapshot so they can render
	// without waiting for the next state change.
	s.sendState(client)

	go func() {
		defer func() {
			s.hub.unregister <- conn
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleWSMessage(client, message)
		}
	}()
}

func (s *Server) handleWSMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError(client, "malformed message")
		return
	}

	switch msg.Action {
	case "join":
		p, err := s.eng.AddPlayer(msg.Name, true, engine.Role(msg.Role))
		if err != nil {
			s.sendError(client, err.Error())
			return
		}
		client.claimSeat(p.ID)
		s.sendEvent(client, ServerEvent{Type: "joined", Player: &p})
		s.broadcastState()

	case "add_bot":
		if _, err := s.eng.AddPlayer(msg.Name, false, engine.Role(msg.Role)); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "remove_player":
		if err := s.eng.RemovePlayer(msg.PlayerID); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "start_game":
		if err := s.eng.Start(); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "advance":
		if err := s.eng.Advance(); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()
		s.maybeFinishGame()

	case "next_speaker":
		if err := s.eng.NextSpeaker(); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "cast_vote":
		err := s.eng.CastVote(client.viewer(), msg.TargetID, engine.ActionType(msg.ActionType))
		if err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "send_message":
		ch := engine.Channel(msg.Channel)
		if ch == "" {
			ch = s.eng.ActiveChannel(client.viewer())
		}
		if err := s.eng.SendMessage(client.viewer(), msg.Text, ch); err != nil {
			s.sendError(client, err.Error())
			return
		}
		s.broadcastState()

	case "new_game":
		s.eng.Reset()
		s.broadcastState()

	case "stats":
		s.sendStats(client, msg.Limit)

	default:
		s.sendError(client, "unknown action "+msg.Action)
	}
}

// broadcastState pushes a fresh per-viewer snapshot to every connection.
// A single snapshot backs the whole fan-out so all viewers see the same
// state, just through their own keyhole.
func (s *Server) broadcastState() {
	st := s.eng.Snapshot()
	s.hub.broadcastView(func(viewerID string) []byte {
		return marshalEvent(ServerEvent{Type: "state", State: buildView(st, viewerID)})
	})
}

func (s *Server) sendState(client *Client) {
	st := s.eng.Snapshot()
	s.sendEvent(client, ServerEvent{Type: "state", State: buildView(st, client.viewer())})
}

func (s *Server) sendError(client *Client, msg string) {
	s.sendEvent(client, ServerEvent{Type: "error", Error: msg})
}

func (s *Server) sendEvent(client *Client, ev ServerEvent) {
	if err := client.write(marshalEvent(ev)); err != nil {
		s.log.Warnw("websocket write failed", "viewer", client.viewer(), "err", err)
	}
}

func (s *Server) sendStats(client *Client, limit int) {
	if s.store == nil {
		s.sendError(client, "archive disabled")
		return
	}
	if limit <= 0 {
		limit = 10
	}
	recent, err := s.store.Recent(limit)
	if err != nil {
		s.sendError(client, "archive query failed")
		s.log.Errorw("archive recent query failed", "err", err)
		return
	}
	tally, err := s.store.WinCounts()
	if err != nil {
		s.sendError(client, "archive query failed")
		s.log.Errorw("archive win count query failed", "err", err)
		return
	}
	s.sendEvent(client, ServerEvent{Type: "stats", Recent: recent, WinTally: tally})
}

// maybeFinishGame runs the end-of-game side effects exactly once per game:
// archive the outcome and stream the storyteller's epilogue.
func (s *Server) maybeFinishGame() {
	st := s.eng.Snapshot()
	if st.Phase != engine.PhaseGameOver {
		return
	}

	s.finishMu.Lock()
	if s.finished == st.GameID {
		s.finishMu.Unlock()
		return
	}
	s.finished = st.GameID
	s.finishMu.Unlock()

	if s.store != nil {
		if err := s.store.Record(st, time.Now()); err != nil {
			s.log.Errorw("failed to archive finished game", "game", st.GameID, "err", err)
		} else {
			s.log.Infow("game archived", "game", st.GameID, "winner", st.Winner, "days", st.DayCount)
		}
	}

	if s.story != nil {
		go s.tellEpilogue(st)
	}
}

// tellEpilogue streams the storyteller's closing narration to every viewer.
// The game is over, so there is nothing left to hide.
func (s *Server) tellEpilogue(st engine.GameState) {
	history := make([]string, 0, len(st.Messages.Village))
	for _, m := range st.Messages.Village {
		history = append(history, m.SenderName+": "+m.Content)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.story.Tell(ctx, history, func(chunk string) {
		payload := marshalEvent(ServerEvent{Type: "story_chunk", Chunk: chunk})
		s.hub.broadcastView(func(string) []byte { return payload })
	})
	if err != nil {
		s.log.Warnw("storyteller failed", "game", st.GameID, "err", err)
		return
	}
	s.log.Infow("epilogue told", "game", st.GameID)
}

func marshalEvent(ev ServerEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		// ServerEvent has no unmarshalable fields; this cannot happen.
		return []byte(`{"type":"error","error":"internal encoding failure"}`)
	}
	return data
}

// buildView projects the full game state onto what one viewer may see.
// Secrecy rules: wolf-channel text only for wolf-aligned, moderator or dead
// viewers; roles hidden while the game is live except the viewer's own,
// wolf teammates between wolves, and everything for the moderator; seer
// findings only for the investigating seer and the moderator. Game over
// lifts all of it.
func buildView(st engine.GameState, viewerID string) *GameView {
	var viewer engine.Player
	var seated bool
	for _, p := range st.Players {
		if p.ID == viewerID {
			viewer, seated = p, true
			break
		}
	}
	over := st.Phase == engine.PhaseGameOver

	view := &GameView{
		GameID:   st.GameID,
		Phase:    st.Phase,
		Day:      st.DayCount,
		Speaker:  st.SpeakingPlayerID,
		Winner:   st.Winner,
		ViewerID: viewer.ID,
	}

	for _, p := range st.Players {
		pv := PlayerView{ID: p.ID, Name: p.Name, Alive: p.Alive, IsHuman: p.IsHuman, You: p.ID == viewer.ID}
		if roleVisible(viewer, p, over) {
			pv.Role = p.Role
		}
		view.Players = append(view.Players, pv)
	}

	view.Messages = append(view.Messages, st.Messages.Village...)
	if over || (seated && engine.CanReadChannel(viewer, engine.ChannelWolf)) {
		view.Messages = append(view.Messages, st.Messages.Wolf...)
	}
	sort.SliceStable(view.Messages, func(i, j int) bool {
		return view.Messages[i].Timestamp.Before(view.Messages[j].Timestamp)
	})

	if over || viewer.Role == engine.RoleModerator || viewer.Role == engine.RoleSeer {
		view.Findings = st.SeerFindings
	}
	if over || viewer.Role == engine.RoleModerator || viewer.Role == engine.RoleWitch {
		powers := st.Witch
		view.Witch = &powers
	}
	return view
}

func roleVisible(viewer, p engine.Player, over bool) bool {
	if over || p.ID == viewer.ID {
		return true
	}
	switch {
	case viewer.Role == engine.RoleModerator:
		return true
	case viewer.Role.WolfAligned() && p.Role.WolfAligned():
		return true
	}
	return false
}
