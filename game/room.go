package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

type RoomPhase int

const (
	PhaseLobby RoomPhase = iota
	PhasePlaying
	PhaseMeeting
	PhaseVoting
	PhaseEnded
)

func (p RoomPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlaying:
		return "playing"
	case PhaseMeeting:
		return "meeting"
	case PhaseVoting:
		return "voting"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// End-of-game reasons, also the wire values of gameEnd.reason.
const (
	ReasonImpostorsWin            = "impostors_win"
	ReasonCrewmatesWinElimination = "crewmates_win_elimination"
	ReasonCrewmatesWinTasks       = "crewmates_win_tasks"
	ReasonInsufficientPlayers     = "insufficient_players"
)

// VoteSkip is the sentinel vote target for abstaining.
const VoteSkip = "skip"

const meetingTypeEmergency = "emergency"
const meetingTypeBody = "body"

// Body marks a kill location. It is reportable exactly once.
type Body struct {
	Id         string
	PlayerId   string
	X, Y       float64
	ReportedBy string
}

// Room is the authoritative state machine for one match. All methods are
// synchronous and run to completion; they are only ever invoked from the
// lobby actor goroutine, so the struct needs no locking.
type Room struct {
	id       string
	phase    RoomPhase
	settings Settings

	players map[string]*Player
	// order keeps the join order: map iteration would randomize broadcasts
	// and make seeded role-shuffle tests impossible.
	order []string

	bodies []*Body
	votes  map[string]string

	startTime time.Time
	timers    timerSet

	rng      *rand.Rand
	idGen    UniqueIdGenerator
	recorder MatchRecorder
}

func NewRoom(id string, settings Settings, rng *rand.Rand, idGen UniqueIdGenerator, recorder MatchRecorder) *Room {
	return &Room{
		id:       id,
		phase:    PhaseLobby,
		settings: settings,
		players:  make(map[string]*Player),
		votes:    make(map[string]string),
		timers:   newTimerSet(),
		rng:      rng,
		idGen:    idGen,
		recorder: recorder,
	}
}

func (r *Room) Id() string       { return r.id }
func (r *Room) Phase() RoomPhase { return r.phase }
func (r *Room) Empty() bool      { return len(r.players) == 0 }

// RoomInfo is returned by the rooms listing endpoint.
type RoomInfo struct {
	Id         string `json:"id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Phase      string `json:"phase"`
}

func (r *Room) Description() RoomInfo {
	return RoomInfo{
		Id:         r.id,
		Players:    len(r.players),
		MaxPlayers: r.settings.MaxPlayers,
		Phase:      r.phase.String(),
	}
}

// AddPlayer joins a player to the roster. Joining is allowed in any phase;
// a mid-match joiner is a living crewmate with no tasks and does not affect
// win conditions until the next match.
func (r *Room) AddPlayer(player *Player) error {
	if len(r.players) >= r.settings.MaxPlayers {
		return ErrRoomFull
	}

	if player.color == "" {
		player.color = playerColors[r.rng.Intn(len(playerColors))]
	}

	r.players[player.id] = player
	r.order = append(r.order, player.id)

	log.Info().Str("room", r.id).Str("player", player.name).Int("count", len(r.players)).Msg("player joined")

	r.broadcastPlayersUpdate()
	player.send(MakePacketJoinedRoom(r.id, r.snapshotOf(player)))
	return nil
}

// RemovePlayer drops a player from the roster. A match that falls below
// three players while playing cannot continue and ends immediately.
func (r *Room) RemovePlayer(now time.Time, playerId string) {
	player, exists := r.players[playerId]
	if !exists {
		return
	}

	delete(r.players, playerId)
	for i, id := range r.order {
		if id == playerId {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Info().Str("room", r.id).Str("player", player.name).Int("count", len(r.players)).Msg("player left")

	r.broadcastPlayersUpdate()

	if len(r.players) < 3 && r.phase == PhasePlaying {
		r.endGame(now, ReasonInsufficientPlayers)
	}
}

// Shutdown invalidates every pending timer. Called right before the lobby
// garbage-collects the room so nothing can fire against a removed instance.
func (r *Room) Shutdown() {
	r.timers.invalidateAll()
}

// StartGame begins the match: roles, tasks, and the per-recipient start
// broadcast.
func (r *Room) StartGame(now time.Time) error {
	if r.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if len(r.players) < r.settings.MinPlayersToStart {
		return ErrNotEnoughPlayers
	}

	r.assignRoles()
	r.createTasks()
	r.phase = PhasePlaying
	r.startTime = now

	log.Info().Str("room", r.id).Int("players", len(r.players)).Msg("game started")

	r.broadcastGameStart()
	return nil
}

// assignRoles marks impostors on a uniform shuffle of the roster. The
// impostor count is capped at a third of the players and never below one.
func (r *Room) assignRoles() {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	count := min(r.settings.ImpostorsCount, len(ids)/3)
	if count < 1 {
		count = 1
	}
	for i := 0; i < count && i < len(ids); i++ {
		r.players[ids[i]].isImpostor = true
	}
}

func (r *Room) createTasks() {
	for _, player := range r.orderedPlayers() {
		if player.isImpostor {
			continue
		}
		taskCount := minTasksPerPlayer + r.rng.Intn(maxTasksPerPlayer-minTasksPerPlayer+1)
		player.tasks = make([]Task, 0, taskCount)
		for i := 0; i < taskCount; i++ {
			taskType := taskTypes[r.rng.Intn(len(taskTypes))]
			pos := taskPosition(taskType)
			player.tasks = append(player.tasks, Task{Type: taskType, X: pos.x, Y: pos.y})
		}
	}
}

// HandleMove clamps the position into map bounds and relays it to everyone
// but the mover.
func (r *Room) HandleMove(playerId string, x, y float64) {
	player, exists := r.players[playerId]
	if !exists || !player.isAlive {
		return
	}

	player.x = math.Max(boundsMinX, math.Min(boundsMaxX, x))
	player.y = math.Max(boundsMinY, math.Min(boundsMaxY, y))

	r.broadcastExcept(playerId, MakePacketPlayerMovement(playerId, player.x, player.y))
}

// HandleKill validates and applies a kill: impostor killer, living target,
// cooldown elapsed, target in range. Anything else is a silent no-op.
func (r *Room) HandleKill(now time.Time, killerId, targetId string) {
	killer, killerExists := r.players[killerId]
	target, targetExists := r.players[targetId]

	if !killerExists || !targetExists || !killer.isImpostor || !target.isAlive {
		return
	}
	if now.Sub(killer.lastKillTime) < r.settings.KillCooldown {
		return
	}
	if distance(killer.x, killer.y, target.x, target.y) > killRange {
		return
	}

	target.isAlive = false
	killer.kills++
	killer.lastKillTime = now

	r.bodies = append(r.bodies, &Body{
		Id:       r.idGen.Generate(),
		PlayerId: targetId,
		X:        target.x,
		Y:        target.y,
	})

	log.Debug().Str("room", r.id).Str("killer", killer.name).Str("target", target.name).Msg("kill")

	r.broadcast(MakePacketPlayerKilled(killerId, targetId, target.x, target.y))
	r.checkWinConditions(now)
}

// HandleEmergencyMeeting starts an emergency meeting if the caller is alive,
// in a running match, and has calls left.
func (r *Room) HandleEmergencyMeeting(now time.Time, callerId string) {
	if r.phase != PhasePlaying {
		return
	}
	caller, exists := r.players[callerId]
	if !exists || !caller.isAlive {
		return
	}
	if caller.emergencyMeetingsUsed >= r.settings.EmergencyMeetings {
		return
	}

	caller.emergencyMeetingsUsed++
	r.startMeeting(now, meetingTypeEmergency, caller, nil)
}

// HandleBodyReport consumes an unreported body and starts a meeting.
// First arrival wins; the loser of a report race fails the ReportedBy check.
func (r *Room) HandleBodyReport(now time.Time, reporterId, bodyId string) {
	if r.phase != PhasePlaying {
		return
	}
	reporter, exists := r.players[reporterId]
	if !exists || !reporter.isAlive {
		return
	}

	var body *Body
	for _, b := range r.bodies {
		if b.Id == bodyId {
			body = b
			break
		}
	}
	if body == nil || body.ReportedBy != "" {
		return
	}

	body.ReportedBy = reporterId
	r.startMeeting(now, meetingTypeBody, reporter, body)
}

func (r *Room) startMeeting(now time.Time, meetingType string, caller *Player, body *Body) {
	r.phase = PhaseMeeting
	clear(r.votes)

	payload := MeetingStartPayload{
		Type:           meetingType,
		Caller:         caller.name,
		DiscussionTime: int(r.settings.DiscussionTime.Seconds()),
		VotingTime:     int(r.settings.VotingTime.Seconds()),
	}
	if body != nil {
		if victim, exists := r.players[body.PlayerId]; exists {
			payload.Body = victim.name
		}
	}

	log.Info().Str("room", r.id).Str("type", meetingType).Str("caller", caller.name).Msg("meeting started")

	r.broadcast(MakePacketMeetingStart(payload))
	r.timers.schedule(timerDiscussion, now.Add(r.settings.DiscussionTime))
}

func (r *Room) beginVoting(now time.Time) {
	r.phase = PhaseVoting
	r.broadcast(MakePacketVotingStart())
	r.timers.schedule(timerVoting, now.Add(r.settings.VotingTime))
}

// HandleVote records a living player's vote. Re-voting overwrites the prior
// entry. The aggregate map is rebroadcast after every vote so clients render
// live ballots; votes are visible to everyone before results are in.
func (r *Room) HandleVote(voterId, targetId string) {
	if r.phase != PhaseVoting {
		return
	}
	voter, exists := r.players[voterId]
	if !exists || !voter.isAlive {
		return
	}

	r.votes[voterId] = targetId

	tally := make(map[string]string, len(r.votes))
	for voter, target := range r.votes {
		tally[voter] = target
	}
	r.broadcast(MakePacketVoteUpdate(tally))
}

// resolveVotes tallies the meeting. Plurality eliminates; any tie for the
// maximum, skip included, eliminates no one. The room stays frozen for a
// settle delay before play resumes.
func (r *Room) resolveVotes(now time.Time) {
	voteCounts := make(map[string]int)
	for _, targetId := range r.votes {
		voteCounts[targetId]++
	}

	maxVotes := 0
	eliminated := ""
	tie := false
	for candidate, votes := range voteCounts {
		if votes > maxVotes {
			maxVotes = votes
			eliminated = candidate
			tie = false
		} else if votes == maxVotes && votes > 0 {
			tie = true
		}
	}

	if !tie && eliminated != "" && eliminated != VoteSkip {
		if player, exists := r.players[eliminated]; exists {
			player.isAlive = false
			log.Info().Str("room", r.id).Str("player", player.name).Msg("voted out")
		}
	}

	r.broadcast(MakePacketVotingResults(VotingResultsPayload{
		Eliminated: eliminated,
		Tie:        tie,
		VoteCounts: voteCounts,
	}))

	// Win conditions are evaluated on the same tick as the elimination; the
	// settle delay only happens when the match goes on.
	r.checkWinConditions(now)
	if r.phase != PhaseEnded {
		r.timers.schedule(timerResume, now.Add(votingSettleDelay))
	}
}

func (r *Room) resumePlaying(now time.Time) {
	r.phase = PhasePlaying
	clear(r.votes)
	r.broadcast(MakePacketGameResume())
	r.checkWinConditions(now)
}

// HandleCompleteTask marks one of the player's tasks done. Completion is
// one-way; repeated packets for the same index are no-ops.
func (r *Room) HandleCompleteTask(now time.Time, playerId string, taskIndex int) {
	if r.phase != PhasePlaying {
		return
	}
	player, exists := r.players[playerId]
	if !exists || !player.isAlive || player.isImpostor {
		return
	}
	if taskIndex < 0 || taskIndex >= len(player.tasks) {
		return
	}
	if player.tasks[taskIndex].Completed {
		return
	}

	player.tasks[taskIndex].Completed = true
	player.completedTasks++

	r.broadcast(MakePacketTaskCompleted(playerId, taskIndex))
	r.checkWinConditions(now)
}

// HandleChat relays a chat line to the whole room, dead members included.
func (r *Room) HandleChat(now time.Time, playerId, message string) {
	player, exists := r.players[playerId]
	if !exists || message == "" {
		return
	}

	r.broadcast(MakePacketChatMessage(ChatMessagePayload{
		PlayerId:   playerId,
		PlayerName: player.name,
		Message:    message,
		Timestamp:  now.UnixMilli(),
	}))
}

// checkWinConditions evaluates the three win rules in order after every
// mutating event. The phase guard keeps a redundant check from emitting a
// second gameEnd.
func (r *Room) checkWinConditions(now time.Time) {
	if r.phase == PhaseEnded {
		return
	}

	aliveImpostors := 0
	aliveCrewmates := 0
	totalTasks := 0
	completedTasks := 0

	for _, player := range r.players {
		if !player.isAlive {
			continue
		}
		if player.isImpostor {
			aliveImpostors++
		} else {
			aliveCrewmates++
			totalTasks += len(player.tasks)
			completedTasks += player.completedTasks
		}
	}

	if aliveImpostors >= aliveCrewmates {
		r.endGame(now, ReasonImpostorsWin)
		return
	}
	if aliveImpostors == 0 {
		r.endGame(now, ReasonCrewmatesWinElimination)
		return
	}
	if totalTasks > 0 && completedTasks >= totalTasks {
		r.endGame(now, ReasonCrewmatesWinTasks)
	}
}

func (r *Room) endGame(now time.Time, reason string) {
	r.phase = PhaseEnded
	r.timers.invalidateAll()

	finalPlayers := make([]FinalPlayer, 0, len(r.players))
	for _, player := range r.orderedPlayers() {
		finalPlayers = append(finalPlayers, FinalPlayer{
			Id:             player.id,
			Name:           player.name,
			IsImpostor:     player.isImpostor,
			IsAlive:        player.isAlive,
			Kills:          player.kills,
			CompletedTasks: player.completedTasks,
		})
	}

	log.Info().Str("room", r.id).Str("reason", reason).Msg("game ended")

	r.broadcast(MakePacketGameEnd(GameEndPayload{Reason: reason, Players: finalPlayers}))

	if r.recorder != nil && reason != ReasonInsufficientPlayers {
		result := MatchResult{RoomId: r.id, Reason: reason}
		for _, player := range r.orderedPlayers() {
			result.Players = append(result.Players, PlayerResult{
				Id:             player.id,
				Name:           player.name,
				Impostor:       player.isImpostor,
				Alive:          player.isAlive,
				Kills:          player.kills,
				TasksAssigned:  len(player.tasks),
				TasksCompleted: player.completedTasks,
			})
		}
		r.recorder.RecordMatch(result)
	}

	r.timers.schedule(timerReset, now.Add(roomResetDelay))
}

// reset returns the room to the lobby for a rematch. Settings and roster
// survive, all per-match state does not.
func (r *Room) reset() {
	r.phase = PhaseLobby
	r.bodies = nil
	clear(r.votes)
	r.startTime = time.Time{}
	r.timers.invalidateAll()

	for _, player := range r.players {
		player.resetForLobby()
	}

	log.Info().Str("room", r.id).Msg("room reset")
	r.broadcast(MakePacketRoomReset())
}

// Tick drives every deadline-based transition and, while playing, the
// periodic state broadcast. Invoked at tickInterval from the lobby actor.
func (r *Room) Tick(now time.Time) {
	for _, purpose := range r.timers.due(now) {
		switch purpose {
		case timerDiscussion:
			if r.phase == PhaseMeeting {
				r.beginVoting(now)
			}
		case timerVoting:
			if r.phase == PhaseVoting {
				r.resolveVotes(now)
			}
		case timerResume:
			if r.phase == PhaseVoting {
				r.resumePlaying(now)
			}
		case timerReset:
			if r.phase == PhaseEnded {
				r.reset()
			}
		}
	}

	if r.phase == PhasePlaying {
		r.broadcastGameState()
	}
}

func (r *Room) PingPlayers() {
	for _, player := range r.orderedPlayers() {
		player.sender.Ping()
	}
}

// --- broadcast helpers ---

func (r *Room) orderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

func (r *Room) broadcast(data []byte) {
	if data == nil {
		return
	}
	for _, player := range r.orderedPlayers() {
		player.send(data)
	}
}

func (r *Room) broadcastExcept(playerId string, data []byte) {
	if data == nil {
		return
	}
	for _, player := range r.orderedPlayers() {
		if player.id != playerId {
			player.send(data)
		}
	}
}

func (r *Room) snapshotOf(p *Player) PlayerSnapshot {
	return PlayerSnapshot{
		Id:      p.id,
		Name:    p.name,
		Color:   p.color,
		Hat:     p.hat,
		X:       p.x,
		Y:       p.y,
		IsAlive: p.isAlive,
	}
}

func (r *Room) broadcastPlayersUpdate() {
	snapshots := make([]PlayerSnapshot, 0, len(r.players))
	for _, player := range r.orderedPlayers() {
		snapshots = append(snapshots, r.snapshotOf(player))
	}
	r.broadcast(MakePacketPlayersUpdate(snapshots))
}

// broadcastGameStart builds the payload per recipient. A crewmate learns
// only their own role; impostors additionally see who their teammates are.
func (r *Room) broadcastGameStart() {
	for _, recipient := range r.orderedPlayers() {
		roster := make([]RosterEntry, 0, len(r.players))
		for _, player := range r.orderedPlayers() {
			roster = append(roster, RosterEntry{
				Id:         player.id,
				Name:       player.name,
				Color:      player.color,
				Hat:        player.hat,
				IsImpostor: recipient.isImpostor && player.isImpostor,
			})
		}
		recipient.send(MakePacketGameStart(GameStartPayload{
			Role:    recipient.role(),
			Tasks:   recipient.tasks,
			Players: roster,
		}))
	}
}

func (r *Room) broadcastGameState() {
	bodies := make([]BodySnapshot, 0, len(r.bodies))
	for _, body := range r.bodies {
		bodies = append(bodies, BodySnapshot{
			Id:         body.Id,
			PlayerId:   body.PlayerId,
			X:          body.X,
			Y:          body.Y,
			ReportedBy: body.ReportedBy,
		})
	}
	r.broadcast(MakePacketGameStateUpdate(GameStatePayload{
		Phase:     r.phase.String(),
		StartTime: r.startTime.UnixMilli(),
		Bodies:    bodies,
	}))
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}
