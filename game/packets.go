package game

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Wire protocol: JSON frames in the socket.io event shape,
// {"event": "...", "data": ...} in both directions.

type ClientPacket struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ServerPacket struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound events.
const (
	eventStartGame        = "startGame"
	eventPlayerMovement   = "playerMovement"
	eventKillPlayer       = "killPlayer"
	eventEmergencyMeeting = "emergencyMeeting"
	eventReportBody       = "reportBody"
	eventVote             = "vote"
	eventCompleteTask     = "completeTask"
	eventChatMessage      = "chatMessage"
)

// Outbound events.
const (
	eventJoinedRoom      = "joinedRoom"
	eventRoomFull        = "roomFull"
	eventPlayersUpdate   = "playersUpdate"
	eventGameStart       = "gameStart"
	eventGameStartFailed = "gameStartFailed"
	eventPlayerKilled    = "playerKilled"
	eventMeetingStart    = "meetingStart"
	eventVotingStart     = "votingStart"
	eventVoteUpdate      = "voteUpdate"
	eventVotingResults   = "votingResults"
	eventGameResume      = "gameResume"
	eventGameEnd         = "gameEnd"
	eventRoomReset       = "roomReset"
	eventGameStateUpdate = "gameStateUpdate"
	eventTaskCompleted   = "taskCompleted"
)

// Inbound payloads.

type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type KillPayload struct {
	TargetId string `json:"targetId"`
}

type ReportBodyPayload struct {
	BodyId string `json:"bodyId"`
}

type VotePayload struct {
	TargetId string `json:"targetId"`
}

type CompleteTaskPayload struct {
	TaskIndex int `json:"taskIndex"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

// Outbound payloads.

type PlayerSnapshot struct {
	Id      string  `json:"id"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	Hat     string  `json:"hat"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	IsAlive bool    `json:"isAlive"`
}

type JoinedRoomPayload struct {
	RoomId   string         `json:"roomId"`
	PlayerId string         `json:"playerId"`
	Player   PlayerSnapshot `json:"player"`
}

type MovementPayload struct {
	Id string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// RosterEntry is the gameStart roster line. IsImpostor is filtered per
// recipient: crewmates always see false, impostors see their team.
type RosterEntry struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Hat        string `json:"hat"`
	IsImpostor bool   `json:"isImpostor"`
}

type GameStartPayload struct {
	Role    string        `json:"role"`
	Tasks   []Task        `json:"tasks"`
	Players []RosterEntry `json:"players"`
}

type KilledPayload struct {
	KillerId string  `json:"killerId"`
	TargetId string  `json:"targetId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type BodySnapshot struct {
	Id         string  `json:"id"`
	PlayerId   string  `json:"playerId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	ReportedBy string  `json:"reportedBy,omitempty"`
}

type MeetingStartPayload struct {
	Type           string `json:"type"`
	Caller         string `json:"caller"`
	Body           string `json:"body,omitempty"`
	DiscussionTime int    `json:"discussionTime"`
	VotingTime     int    `json:"votingTime"`
}

type VotingResultsPayload struct {
	Eliminated string         `json:"eliminated,omitempty"`
	Tie        bool           `json:"tie"`
	VoteCounts map[string]int `json:"voteCounts"`
}

type FinalPlayer struct {
	Id             string `json:"id"`
	Name           string `json:"name"`
	IsImpostor     bool   `json:"isImpostor"`
	IsAlive        bool   `json:"isAlive"`
	Kills          int    `json:"kills"`
	CompletedTasks int    `json:"completedTasks"`
}

type GameEndPayload struct {
	Reason  string        `json:"reason"`
	Players []FinalPlayer `json:"players"`
}

type GameStatePayload struct {
	Phase     string         `json:"phase"`
	StartTime int64          `json:"startTime"`
	Bodies    []BodySnapshot `json:"bodies"`
}

type TaskCompletedPayload struct {
	PlayerId  string `json:"playerId"`
	TaskIndex int    `json:"taskIndex"`
}

type ChatMessagePayload struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// marshalPacket serializes an outbound frame. A marshalling failure is a
// programming error on our side, never the client's; log it and drop the
// frame instead of tearing anything down.
func marshalPacket(event string, data any) []byte {
	bytes, err := json.Marshal(ServerPacket{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal packet")
		return nil
	}
	return bytes
}

func MakePacketJoinedRoom(roomId string, player PlayerSnapshot) []byte {
	return marshalPacket(eventJoinedRoom, JoinedRoomPayload{RoomId: roomId, PlayerId: player.Id, Player: player})
}

func MakePacketRoomFull() []byte {
	return marshalPacket(eventRoomFull, nil)
}

func MakePacketPlayersUpdate(players []PlayerSnapshot) []byte {
	return marshalPacket(eventPlayersUpdate, players)
}

func MakePacketPlayerMovement(id string, x, y float64) []byte {
	return marshalPacket(eventPlayerMovement, MovementPayload{Id: id, X: x, Y: y})
}

func MakePacketGameStart(payload GameStartPayload) []byte {
	return marshalPacket(eventGameStart, payload)
}

func MakePacketGameStartFailed(reason string) []byte {
	return marshalPacket(eventGameStartFailed, map[string]string{"reason": reason})
}

func MakePacketPlayerKilled(killerId, targetId string, x, y float64) []byte {
	return marshalPacket(eventPlayerKilled, KilledPayload{KillerId: killerId, TargetId: targetId, X: x, Y: y})
}

func MakePacketMeetingStart(payload MeetingStartPayload) []byte {
	return marshalPacket(eventMeetingStart, payload)
}

func MakePacketVotingStart() []byte {
	return marshalPacket(eventVotingStart, nil)
}

func MakePacketVoteUpdate(votes map[string]string) []byte {
	return marshalPacket(eventVoteUpdate, votes)
}

func MakePacketVotingResults(payload VotingResultsPayload) []byte {
	return marshalPacket(eventVotingResults, payload)
}

func MakePacketGameResume() []byte {
	return marshalPacket(eventGameResume, nil)
}

func MakePacketGameEnd(payload GameEndPayload) []byte {
	return marshalPacket(eventGameEnd, payload)
}

func MakePacketRoomReset() []byte {
	return marshalPacket(eventRoomReset, nil)
}

func MakePacketGameStateUpdate(payload GameStatePayload) []byte {
	return marshalPacket(eventGameStateUpdate, payload)
}

func MakePacketTaskCompleted(playerId string, taskIndex int) []byte {
	return marshalPacket(eventTaskCompleted, TaskCompletedPayload{PlayerId: playerId, TaskIndex: taskIndex})
}

func MakePacketChatMessage(payload ChatMessagePayload) []byte {
	return marshalPacket(eventChatMessage, payload)
}
