package game

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Inbound frame budget per session. Movement at the client tick rate plus
// the occasional action fits comfortably; a flooding client gets dropped
// frames, not a dropped room.
const (
	sessionRateLimit = rate.Limit(40)
	sessionRateBurst = 80
)

const outboxSize = 256

// session owns one websocket for one player: a read pump feeding the lobby
// and a write pump draining the outbox. The room only ever sees the Sender
// side, so tests swap in a mock.
type session struct {
	conn    NetworkSession
	player  *Player
	lobby   LobbyService
	limiter *rate.Limiter

	outbox    chan []byte
	pings     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn NetworkSession, lobby LobbyService) *session {
	return &session{
		conn:    conn,
		lobby:   lobby,
		limiter: rate.NewLimiter(sessionRateLimit, sessionRateBurst),
		outbox:  make(chan []byte, outboxSize),
		pings:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (s *session) bind(player *Player) {
	s.player = player
}

// Send enqueues an outbound frame. A slow consumer loses frames instead of
// stalling the reactor.
func (s *session) Send(data []byte) {
	select {
	case s.outbox <- data:
	default:
		log.Debug().Str("player", s.player.id).Msg("outbox full, frame dropped")
	}
}

func (s *session) Ping() {
	select {
	case s.pings <- struct{}{}:
	default:
	}
}

func (s *session) Close(reason string) {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close(reason)
	})
}

// ReadPump decodes inbound frames and forwards them to the lobby. Returns
// when the connection drops, after requesting the player's removal.
func (s *session) ReadPump() {
	defer func() {
		s.lobby.RequestRemoval(s.player)
		s.Close("")
	}()

	for {
		data, err := s.conn.Read()
		if err != nil {
			return
		}

		if !s.limiter.Allow() {
			continue
		}

		var packet ClientPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}

		s.lobby.Forward(s.player, packet)
	}
}

func (s *session) WritePump() {
loop:
	for {
		select {
		case data := <-s.outbox:
			if err := s.conn.Write(data); err != nil {
				break loop
			}
		case <-s.pings:
			if err := s.conn.Ping(); err != nil {
				break loop
			}
		case <-s.done:
			break loop
		}
	}
	s.lobby.RequestRemoval(s.player)
	s.Close("")
}
