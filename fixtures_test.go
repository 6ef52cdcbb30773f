package mooring

import (
	"time"

	"github.com/google/uuid"
)

type logLevel string

func (logLevel) EnumNames() []string { return []string{"debug", "info", "warn", "error"} }

type gameMode int

const (
	modeSurvival gameMode = iota
	modeCreative
	modeAdventure
)

func (gameMode) EnumNames() []string { return []string{"survival", "creative", "adventure"} }

type limits struct {
	MaxEntities int     `conf:"default:200,min:0" comment:"Entities per chunk"`
	Ratio       float64 `conf:"default:0.75"`
}

type world struct {
	Name   string `conf:"default:overworld"`
	Seed   int64
	Limits limits
}

type database struct {
	Host     string `conf:"default:localhost" comment:"Database host"`
	Port     int    `conf:"default:5432,min:1,max:65535"`
	Password string `conf:"secret"`
}

type serverConfig struct {
	Port     int           `conf:"default:25565,min:1,max:65535" comment:"Port to listen on"`
	Motd     string        `conf:"name:message-of-the-day,default:A Minecraft Server" comment:"Shown in the server list"`
	Level    logLevel      `conf:"default:info"`
	Mode     gameMode      `conf:"default:creative"`
	Timeout  time.Duration `conf:"default:30s"`
	Started  time.Time
	Admins   []string
	Ports    map[string]int
	Database database `comment:"Storage backend"`
	Worlds   []world
	Spawn    world
	ID       uuid.UUID

	internal string
	Ignored  string `conf:"-"`
}

var serverKeys = []string{
	"port", "message-of-the-day", "level", "mode", "timeout", "started",
	"admins", "ports", "database", "worlds", "spawn", "id",
}

// populated returns an instance with every field away from its default.
func populated() *serverConfig {
	return &serverConfig{
		Port:    8080,
		Motd:    "hello: world",
		Level:   "warn",
		Mode:    modeAdventure,
		Timeout: 90 * time.Second,
		Started: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Admins:  []string{"alice", "bob"},
		Ports:   map[string]int{"query": 25566, "rcon": 25575},
		Database: database{
			Host:     "db.internal",
			Port:     6432,
			Password: "hunter2",
		},
		Worlds: []world{
			{Name: "nether", Seed: -42, Limits: limits{MaxEntities: 50, Ratio: 0.5}},
			{Name: "end", Seed: 7, Limits: limits{MaxEntities: 10, Ratio: 1}},
		},
		Spawn: world{Name: "lobby", Seed: 1, Limits: limits{MaxEntities: 5, Ratio: 0.25}},
		ID:    uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
	}
}
