package game

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

type packetEnvelope struct {
	packet ClientPacket
	from   *Player
}

// HandlePacket is the inbound wire boundary: it decodes the typed payload
// for the event and invokes the matching room operation. Malformed payloads
// and unknown events are dropped; a bad packet must never take down the
// reactor or touch room state.
func (r *Room) HandlePacket(now time.Time, from *Player, packet ClientPacket) {
	switch packet.Event {
	case eventStartGame:
		if err := r.StartGame(now); err != nil {
			from.send(MakePacketGameStartFailed(err.Error()))
		}

	case eventPlayerMovement:
		var payload MovePayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleMove(from.id, payload.X, payload.Y)

	case eventKillPlayer:
		var payload KillPayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleKill(now, from.id, payload.TargetId)

	case eventEmergencyMeeting:
		r.HandleEmergencyMeeting(now, from.id)

	case eventReportBody:
		var payload ReportBodyPayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleBodyReport(now, from.id, payload.BodyId)

	case eventVote:
		var payload VotePayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleVote(from.id, payload.TargetId)

	case eventCompleteTask:
		var payload CompleteTaskPayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleCompleteTask(now, from.id, payload.TaskIndex)

	case eventChatMessage:
		var payload ChatPayload
		if json.Unmarshal(packet.Data, &payload) != nil {
			return
		}
		r.HandleChat(now, from.id, payload.Message)

	default:
		log.Debug().Str("room", r.id).Str("event", packet.Event).Msg("dropped unknown event")
	}
}
