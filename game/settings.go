package game

import "time"

// Settings is the per-room configuration. It is fixed at room creation and
// survives resets between matches.
type Settings struct {
	MaxPlayers        int
	ImpostorsCount    int
	MinPlayersToStart int
	DiscussionTime    time.Duration
	VotingTime        time.Duration
	KillCooldown      time.Duration
	EmergencyMeetings int
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:        10,
		ImpostorsCount:    2,
		MinPlayersToStart: 4,
		DiscussionTime:    30 * time.Second,
		VotingTime:        30 * time.Second,
		KillCooldown:      30 * time.Second,
		EmergencyMeetings: 3,
	}
}

// Map coordinate space. Positions are clamped on every movement update.
const (
	boundsMinX = 50.0
	boundsMaxX = 750.0
	boundsMinY = 50.0
	boundsMaxY = 550.0

	spawnX = 400.0
	spawnY = 300.0

	killRange = 50.0
)

const (
	votingSettleDelay = 5 * time.Second
	roomResetDelay    = 10 * time.Second

	tickInterval = 100 * time.Millisecond
	pingInterval = 30 * time.Second
)

// Crewmates receive between minTasksPerPlayer and maxTasksPerPlayer tasks.
const (
	minTasksPerPlayer = 4
	maxTasksPerPlayer = 6
)

var taskTypes = []string{
	"electrical", "medbay", "weapons", "shields", "navigation",
	"admin", "o2", "communications", "storage", "upperEngine", "lowerEngine",
}

type position struct {
	x, y float64
}

// Task locations are static map data, one spot per task type.
var taskPositions = map[string]position{
	"electrical":     {200, 400},
	"medbay":         {600, 200},
	"weapons":        {100, 100},
	"shields":        {150, 300},
	"navigation":     {700, 150},
	"admin":          {500, 350},
	"o2":             {300, 100},
	"communications": {650, 450},
	"storage":        {450, 500},
	"upperEngine":    {100, 200},
	"lowerEngine":    {100, 400},
}

func taskPosition(taskType string) position {
	if pos, ok := taskPositions[taskType]; ok {
		return pos
	}
	return position{spawnX, spawnY}
}

var playerColors = []string{
	"#FF0000", "#0000FF", "#00FF00", "#FFB3DA", "#FFA500",
	"#FFFF00", "#000000", "#FFFFFF", "#800080", "#964B00",
	"#00FFFF", "#C0C0C0", "#008000", "#FFC0CB", "#FF69B4", "#808080",
}
