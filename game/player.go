package game

import "time"

// Task is a crewmate objective. Completed never reverts within a match.
type Task struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Completed bool    `json:"completed"`
}

// Player is the per-member game state, owned exclusively by its Room. The
// transport is hidden behind the Sender interface so the room logic never
// touches a socket.
type Player struct {
	id    string
	name  string
	color string
	hat   string

	x, y float64

	isImpostor            bool
	isAlive               bool
	tasks                 []Task
	completedTasks        int
	kills                 int
	lastKillTime          time.Time
	emergencyMeetingsUsed int

	sender Sender
}

func NewPlayer(id, name, color, hat string, sender Sender) *Player {
	if hat == "" {
		hat = "none"
	}
	return &Player{
		id:      id,
		name:    name,
		color:   color,
		hat:     hat,
		x:       spawnX,
		y:       spawnY,
		isAlive: true,
		sender:  sender,
	}
}

func (p *Player) Id() string   { return p.id }
func (p *Player) Name() string { return p.name }

func (p *Player) send(data []byte) {
	if data == nil {
		return
	}
	p.sender.Send(data)
}

// resetForLobby restores the initial state between matches. Identity and
// cosmetics survive, everything gameplay-related does not.
func (p *Player) resetForLobby() {
	p.isImpostor = false
	p.isAlive = true
	p.tasks = nil
	p.completedTasks = 0
	p.kills = 0
	p.lastKillTime = time.Time{}
	p.emergencyMeetingsUsed = 0
	p.x = spawnX
	p.y = spawnY
}

func (p *Player) role() string {
	if p.isImpostor {
		return "impostor"
	}
	return "crewmate"
}
