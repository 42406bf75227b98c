package game

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog/log"
)

type roomJoinRequest struct {
	roomId  string
	player  *Player
	errChan chan error
}

// Lobby is the room directory and the single reactor: one goroutine
// (LobbyActor) processes every packet, join, removal, and timer tick for
// every room, so room state never sees concurrent access.
type Lobby struct {
	rooms       map[string]*Room
	playerRooms map[string]string

	settings Settings
	rng      *rand.Rand
	clock    Clock
	idGen    UniqueIdGenerator
	ticker   PeriodicTickerChannelCreator
	recorder MatchRecorder

	joinRequests chan roomJoinRequest
	inbox        chan packetEnvelope
	removals     chan *Player
	roomsReq     chan chan []RoomInfo
}

func NewLobby(settings Settings, rng *rand.Rand, clock Clock, idGen UniqueIdGenerator, ticker PeriodicTickerChannelCreator, recorder MatchRecorder) *Lobby {
	return &Lobby{
		rooms:        make(map[string]*Room),
		playerRooms:  make(map[string]string),
		settings:     settings,
		rng:          rng,
		clock:        clock,
		idGen:        idGen,
		ticker:       ticker,
		recorder:     recorder,
		joinRequests: make(chan roomJoinRequest, 32),
		inbox:        make(chan packetEnvelope, 1024),
		removals:     make(chan *Player, 64),
		roomsReq:     make(chan chan []RoomInfo, 32),
	}
}

// Join places the player into the room with the given id, creating the room
// if it does not exist yet. Blocks until the reactor has applied the join.
func (l *Lobby) Join(ctx context.Context, roomId string, player *Player) error {
	req := roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
	select {
	case l.joinRequests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Forward hands an inbound packet to the reactor. A full inbox drops the
// packet rather than blocking the caller's read pump.
func (l *Lobby) Forward(from *Player, packet ClientPacket) {
	select {
	case l.inbox <- packetEnvelope{packet: packet, from: from}:
	default:
		log.Warn().Str("player", from.id).Msg("lobby inbox full, packet dropped")
	}
}

// RequestRemoval asks the reactor to take the player out of their room.
// Safe to call more than once per player. The send blocks until the reactor
// accepts it: a dropped removal would leave a ghost in the roster forever,
// so unlike gameplay packets it must land.
func (l *Lobby) RequestRemoval(player *Player) {
	l.removals <- player
}

func (l *Lobby) ListRooms(ctx context.Context) []RoomInfo {
	respChan := make(chan []RoomInfo, 1)
	select {
	case l.roomsReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

// LobbyActor is the reactor loop. Run it on its own goroutine; started is
// closed once the loop is receiving.
func (l *Lobby) LobbyActor(started chan struct{}) {
	ticker := l.ticker.Create(tickInterval)
	pingTicker := l.ticker.Create(pingInterval)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, room := range l.rooms {
				room.Tick(now)
			}

		case <-pingTicker:
			for _, room := range l.rooms {
				room.PingPlayers()
			}

		case req := <-l.joinRequests:
			l.handleJoinRequest(req)

		case env := <-l.inbox:
			l.handlePacket(env)

		case player := <-l.removals:
			l.handleRemoval(player)

		case respChan := <-l.roomsReq:
			l.handleListRooms(respChan)
		}
	}
}

func (l *Lobby) getOrCreateRoom(roomId string) *Room {
	if room, exists := l.rooms[roomId]; exists {
		return room
	}
	room := NewRoom(roomId, l.settings, l.rng, l.idGen, l.recorder)
	l.rooms[roomId] = room
	log.Info().Str("room", roomId).Msg("room created")
	return room
}

func (l *Lobby) handleJoinRequest(req roomJoinRequest) {
	// A connection belongs to at most one room.
	if _, already := l.playerRooms[req.player.id]; already {
		req.errChan <- ErrAlreadyInRoom
		return
	}

	room := l.getOrCreateRoom(req.roomId)
	if err := room.AddPlayer(req.player); err != nil {
		// Don't leak a room that was created just for this failed join.
		if room.Empty() {
			delete(l.rooms, req.roomId)
		}
		req.errChan <- err
		return
	}

	l.playerRooms[req.player.id] = req.roomId
	req.errChan <- nil
}

func (l *Lobby) handlePacket(env packetEnvelope) {
	roomId, exists := l.playerRooms[env.from.id]
	if !exists {
		log.Debug().Str("player", env.from.id).Str("event", env.packet.Event).Msg("packet without room membership dropped")
		return
	}
	room, exists := l.rooms[roomId]
	if !exists {
		return
	}
	room.HandlePacket(l.clock.Now(), env.from, env.packet)
}

func (l *Lobby) handleRemoval(player *Player) {
	roomId, exists := l.playerRooms[player.id]
	if !exists {
		return
	}
	delete(l.playerRooms, player.id)

	room, exists := l.rooms[roomId]
	if !exists {
		return
	}
	room.RemovePlayer(l.clock.Now(), player.id)

	if room.Empty() {
		room.Shutdown()
		delete(l.rooms, roomId)
		log.Info().Str("room", roomId).Msg("empty room removed")
	}
}

func (l *Lobby) handleListRooms(respChan chan []RoomInfo) {
	infos := make([]RoomInfo, 0, len(l.rooms))
	for _, room := range l.rooms {
		infos = append(infos, room.Description())
	}
	respChan <- infos
}
