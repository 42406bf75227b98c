package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lobbyFixture struct {
	lobby    *Lobby
	clock    *fakeClock
	tickChan chan time.Time
	pingChan chan time.Time
}

func newLobbyFixture(t *testing.T, settings Settings) *lobbyFixture {
	t.Helper()

	tickChan := make(chan time.Time)
	pingChan := make(chan time.Time)
	tickerGen := &MockPeriodicTickerChannelCreator{}
	tickerGen.On("Create", tickInterval).Return(tickChan)
	tickerGen.On("Create", pingInterval).Return(pingChan)

	clock := &fakeClock{now: testStart}
	lobby := NewLobby(settings, rand.New(rand.NewSource(7)), clock, &seqIdGenerator{}, tickerGen, nil)

	started := make(chan struct{})
	go lobby.LobbyActor(started)
	<-started

	return &lobbyFixture{lobby: lobby, clock: clock, tickChan: tickChan, pingChan: pingChan}
}

// barrier waits until the actor has drained everything queued before it.
// ListRooms is answered by the same loop, so its response orders after any
// previously forwarded packet or removal.
func (f *lobbyFixture) barrier(t *testing.T) []RoomInfo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return f.lobby.ListRooms(ctx)
}

func (f *lobbyFixture) join(t *testing.T, roomId, playerId string) (*Player, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	player := NewPlayer(playerId, "name-"+playerId, "#FF0000", "", sender)
	require.NoError(t, f.lobby.Join(context.Background(), roomId, player))
	return player, sender
}

func jsonData(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestLobby_JoinCreatesAndListsRoom(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	f.join(t, "den", "p1")
	f.join(t, "den", "p2")
	f.join(t, "attic", "p3")

	rooms := f.barrier(t)
	require.Len(t, rooms, 2)

	byId := make(map[string]RoomInfo)
	for _, info := range rooms {
		byId[info.Id] = info
	}
	assert.Equal(t, 2, byId["den"].Players)
	assert.Equal(t, 1, byId["attic"].Players)
	assert.Equal(t, "lobby", byId["den"].Phase)
	assert.Equal(t, 10, byId["den"].MaxPlayers)
}

func TestLobby_SecondJoinRejected(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	player, _ := f.join(t, "den", "p1")
	err := f.lobby.Join(context.Background(), "attic", player)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	rooms := f.barrier(t)
	assert.Len(t, rooms, 1, "the rejected join must not create a room")
}

func TestLobby_FullRoomRejectsJoin(t *testing.T) {
	t.Parallel()
	settings := DefaultSettings()
	settings.MaxPlayers = 1
	f := newLobbyFixture(t, settings)

	f.join(t, "den", "p1")

	late := NewPlayer("p2", "late", "", "", &fakeSender{})
	err := f.lobby.Join(context.Background(), "den", late)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestLobby_JoinHonorsContext(t *testing.T) {
	t.Parallel()
	// No actor is running, so the pending request is never answered and the
	// call must come back on the context instead.
	lobby := NewLobby(DefaultSettings(), rand.New(rand.NewSource(7)), &fakeClock{now: testStart}, &seqIdGenerator{}, &MockPeriodicTickerChannelCreator{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	player := NewPlayer("p1", "name", "", "", &fakeSender{})
	err := lobby.Join(ctx, "den", player)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLobby_ForwardRoutesToPlayersRoom(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	players := make([]*Player, 0, 4)
	senders := make([]*fakeSender, 0, 4)
	for i := 1; i <= 4; i++ {
		player, sender := f.join(t, "den", fmt.Sprintf("p%d", i))
		players = append(players, player)
		senders = append(senders, sender)
	}

	f.lobby.Forward(players[0], ClientPacket{Event: "startGame"})
	f.barrier(t)

	for _, sender := range senders {
		assert.Equal(t, 1, sender.countEvent(t, "gameStart"))
	}

	rooms := f.barrier(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, "playing", rooms[0].Phase)
}

func TestLobby_ForwardMovementReachesOthers(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	players := make([]*Player, 0, 4)
	senders := make([]*fakeSender, 0, 4)
	for i := 1; i <= 4; i++ {
		player, sender := f.join(t, "den", fmt.Sprintf("p%d", i))
		players = append(players, player)
		senders = append(senders, sender)
	}
	f.lobby.Forward(players[0], ClientPacket{Event: "startGame"})

	f.lobby.Forward(players[1], ClientPacket{
		Event: "playerMovement",
		Data:  jsonData(t, MovePayload{X: 120, Y: 130}),
	})
	f.barrier(t)

	assert.Equal(t, 0, senders[1].countEvent(t, "playerMovement"))
	assert.Equal(t, 1, senders[0].countEvent(t, "playerMovement"))

	var movement MovementPayload
	require.NoError(t, json.Unmarshal(senders[0].lastDataOf(t, "playerMovement"), &movement))
	assert.Equal(t, 120.0, movement.X)
	assert.Equal(t, 130.0, movement.Y)
}

func TestLobby_PacketWithoutMembershipDropped(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())
	f.join(t, "den", "p1")

	stranger := NewPlayer("ghost", "ghost", "", "", &fakeSender{})
	f.lobby.Forward(stranger, ClientPacket{Event: "startGame"})

	rooms := f.barrier(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, "lobby", rooms[0].Phase)
}

func TestLobby_MalformedPayloadDropped(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	players := make([]*Player, 0, 4)
	for i := 1; i <= 4; i++ {
		player, _ := f.join(t, "den", fmt.Sprintf("p%d", i))
		players = append(players, player)
	}
	f.lobby.Forward(players[0], ClientPacket{Event: "startGame"})

	f.lobby.Forward(players[1], ClientPacket{
		Event: "playerMovement",
		Data:  json.RawMessage(`"not-an-object"`),
	})
	f.lobby.Forward(players[1], ClientPacket{Event: "no-such-event"})

	rooms := f.barrier(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, "playing", rooms[0].Phase, "bad packets must not disturb the room")
}

func TestLobby_RemovalGarbageCollectsEmptyRoom(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	player, _ := f.join(t, "den", "p1")
	f.join(t, "den", "p2")

	f.lobby.RequestRemoval(player)
	rooms := f.barrier(t)
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].Players)

	// The freed slot is claimable again.
	rejoined, _ := f.join(t, "attic", "p1")

	f.lobby.RequestRemoval(rejoined)
	f.lobby.RequestRemoval(player) // repeated removal is a no-op
	rooms = f.barrier(t)
	require.Len(t, rooms, 1, "emptied rooms are garbage collected")
	assert.Equal(t, "den", rooms[0].Id)
}

func TestLobby_RemovalSurvivesFullBacklog(t *testing.T) {
	t.Parallel()
	// No actor is draining, so the backlog fills to channel capacity before
	// the victim disconnects. The removal must still be delivered once the
	// reactor catches up; losing it would leave a ghost in the roster.
	lobby := NewLobby(DefaultSettings(), rand.New(rand.NewSource(7)), &fakeClock{now: testStart}, &seqIdGenerator{}, &MockPeriodicTickerChannelCreator{}, nil)

	backlog := cap(lobby.removals)
	for i := 0; i < backlog; i++ {
		lobby.RequestRemoval(NewPlayer(fmt.Sprintf("q%d", i), "queued", "", "", &fakeSender{}))
	}

	victim := NewPlayer("victim", "victim", "", "", &fakeSender{})
	queued := make(chan struct{})
	go func() {
		lobby.RequestRemoval(victim)
		close(queued)
	}()

	delivered := false
	for i := 0; i < backlog+1; i++ {
		select {
		case player := <-lobby.removals:
			if player.Id() == "victim" {
				delivered = true
			}
		case <-time.After(time.Second):
			t.Fatal("removal backlog was not delivered")
		}
	}
	assert.True(t, delivered, "the removal behind a full backlog must land")

	select {
	case <-queued:
	case <-time.After(time.Second):
		t.Fatal("RequestRemoval never returned")
	}
}

func TestLobby_TickDrivesRoomState(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	players := make([]*Player, 0, 4)
	senders := make([]*fakeSender, 0, 4)
	for i := 1; i <= 4; i++ {
		player, sender := f.join(t, "den", fmt.Sprintf("p%d", i))
		players = append(players, player)
		senders = append(senders, sender)
	}
	f.lobby.Forward(players[0], ClientPacket{Event: "startGame"})
	f.barrier(t)

	f.tickChan <- testStart.Add(100 * time.Millisecond)
	f.tickChan <- testStart.Add(200 * time.Millisecond)
	f.barrier(t)

	assert.Equal(t, 2, senders[0].countEvent(t, "gameStateUpdate"))
}

func TestLobby_MeetingTimersRunOffTicks(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	players := make([]*Player, 0, 4)
	senders := make([]*fakeSender, 0, 4)
	for i := 1; i <= 4; i++ {
		player, sender := f.join(t, "den", fmt.Sprintf("p%d", i))
		players = append(players, player)
		senders = append(senders, sender)
	}
	f.lobby.Forward(players[0], ClientPacket{Event: "startGame"})
	f.barrier(t)

	// The meeting is stamped with the injected clock, the deadlines fire off
	// the tick channel's timestamps.
	f.lobby.Forward(players[1], ClientPacket{Event: "emergencyMeeting"})
	f.barrier(t)
	require.Equal(t, 1, senders[0].countEvent(t, "meetingStart"))

	f.tickChan <- testStart.Add(29 * time.Second)
	f.barrier(t)
	assert.Equal(t, 0, senders[0].countEvent(t, "votingStart"))

	f.tickChan <- testStart.Add(30 * time.Second)
	f.barrier(t)
	assert.Equal(t, 1, senders[0].countEvent(t, "votingStart"))
}

func TestLobby_PingTickerPingsEveryPlayer(t *testing.T) {
	t.Parallel()
	f := newLobbyFixture(t, DefaultSettings())

	_, sender1 := f.join(t, "den", "p1")
	_, sender2 := f.join(t, "attic", "p2")

	f.pingChan <- testStart
	f.barrier(t)

	assert.Equal(t, 1, sender1.pings)
	assert.Equal(t, 1, sender2.pings)
}
