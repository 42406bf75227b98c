package game

import (
	"context"
	"time"
)

// NetworkSession abstracts the transport so the room logic can be tested
// without a real websocket.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Sender is the outbound half a Room sees of a connected player. The real
// implementation enqueues on the session's write pump.
type Sender interface {
	Send(data []byte)
	Ping()
	Close(reason string)
}

// LobbyService is the lobby surface the transport layer depends on.
type LobbyService interface {
	Join(ctx context.Context, roomId string, player *Player) error
	Forward(from *Player, packet ClientPacket)
	RequestRemoval(player *Player)
	ListRooms(ctx context.Context) []RoomInfo
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type Clock interface {
	Now() time.Time
}

// MatchRecorder receives the final roster of every finished match. Matches
// aborted for lack of players are not reported.
type MatchRecorder interface {
	RecordMatch(result MatchResult)
}

type MatchResult struct {
	RoomId  string
	Reason  string
	Players []PlayerResult
}

type PlayerResult struct {
	Id             string
	Name           string
	Impostor       bool
	Alive          bool
	Kills          int
	TasksAssigned  int
	TasksCompleted int
}
