package constants

import "os"

const (
	OutDirEnv     = "PERFGRADE_OUT_DIR"
	DBPathEnv     = "PERFGRADE_DB_PATH"
	ListenAddrEnv = "PERFGRADE_LISTEN_ADDR"
	LogLevelEnv   = "LOG_LEVEL"
)

func GetOutDir() string {
	path := os.Getenv(OutDirEnv)
	if path != "" {
		return path
	}
	return "./out"
}

func GetDBPath() string {
	path := os.Getenv(DBPathEnv)
	if path != "" {
		return path
	}
	return "perfgrade.sqlite3"
}

func GetListenAddr() string {
	addr := os.Getenv(ListenAddrEnv)
	if addr != "" {
		return addr
	}
	return ":8080"
}

// rows before the first event in a converted take sheet
const TakeHeaderRows = 10

// Score sheet columns, 1-based.
const (
	LineNumberCol = iota + 1
	NoteCol
	DurationCol
	IncludeCol
	IncludeTLCol
	IncludeDynCol
	IncludeArtCol
	IncludeNDCol
	SpaceBarlineCol
	GraphWidthCol
	VelGraphWidthCol
	XAxisLimitCol
)

var ScoreHeaders = []string{"Line number", "Note", "Duration", "Include? (Y/N)",
	"Include TL", "Include Dyn.", "Include Art.", "Include N.D.", "Space for barline", "Graph Width",
	"Vel. Graph Width", "X-axis limit"}

const SentinelText = "end"

// Converted take sheet columns, 1-based.
const (
	TakeTrackCol = iota + 1
	TakeTicksCol
	TakeMillisCol
	TakeTypeCol
	TakeChannelCol
	TakeKeyCol
	TakeLetterNoteCol
	TakeVelocityCol
)

const DefaultWorkers = 4
