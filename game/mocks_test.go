package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Sender ---

// fakeSender records everything a room sends to one player.
type fakeSender struct {
	frames [][]byte
	pings  int
	closed bool
}

func (f *fakeSender) Send(data []byte) { f.frames = append(f.frames, data) }
func (f *fakeSender) Ping()            { f.pings++ }
func (f *fakeSender) Close(string)     { f.closed = true }

func (f *fakeSender) packets(t *testing.T) []ServerPacket {
	t.Helper()
	out := make([]ServerPacket, 0, len(f.frames))
	for _, frame := range f.frames {
		var packet ServerPacket
		require.NoError(t, json.Unmarshal(frame, &packet))
		out = append(out, packet)
	}
	return out
}

func (f *fakeSender) countEvent(t *testing.T, event string) int {
	t.Helper()
	count := 0
	for _, packet := range f.packets(t) {
		if packet.Event == event {
			count++
		}
	}
	return count
}

func (f *fakeSender) lastDataOf(t *testing.T, event string) json.RawMessage {
	t.Helper()
	var data json.RawMessage
	for _, frame := range f.frames {
		var packet struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &packet))
		if packet.Event == event {
			data = packet.Data
		}
	}
	return data
}

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- Clock ---

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// --- MatchRecorder ---

type MockMatchRecorder struct {
	mock.Mock
}

func (m *MockMatchRecorder) RecordMatch(result MatchResult) {
	m.Called(result)
}

// --- LobbyService ---

type MockLobbyService struct {
	mock.Mock
}

func (m *MockLobbyService) Join(ctx context.Context, roomId string, player *Player) error {
	args := m.Called(ctx, roomId, player)
	return args.Error(0)
}

func (m *MockLobbyService) Forward(from *Player, packet ClientPacket) {
	m.Called(from, packet)
}

func (m *MockLobbyService) RequestRemoval(player *Player) {
	m.Called(player)
}

func (m *MockLobbyService) ListRooms(ctx context.Context) []RoomInfo {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]RoomInfo)
}

// --- id generator that counts up, for predictable body ids ---

type seqIdGenerator struct {
	next int
}

func (g *seqIdGenerator) Generate() string {
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

func (g *seqIdGenerator) Dispose(string) {}
