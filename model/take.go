package model

type EventKind uint8

const (
	Other EventKind = iota
	NoteOn
	// NoteOff is treated like Other by the aligner, it only marks note releases
	NoteOff
	EndOfStream
	StartOfStream
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note_on_c"
	case NoteOff:
		return "note_off_c"
	case EndOfStream:
		return "end_of_file"
	case StartOfStream:
		return "start_track"
	default:
		return "other"
	}
}

type Annotation struct {
	Matched              bool
	IncludeFlag          bool
	MatchedLineNumber    int
	MatchedDurationBeats float64
	Error                bool
}

type PerformanceEvent struct {
	// Row is the source row (tabular takes) or the position in the merged stream (MIDI)
	Row             int
	Kind            EventKind
	Channel         uint8
	Key             uint8
	Pitch           NoteName
	Velocity        int
	TimestampTicks  int64
	TimestampMillis float64

	// derived timing, see take.Derive
	HasIOI             bool
	IOITicks           int64
	IOIMillis          float64
	HasRelease         bool
	NoteDurationTicks  int64
	NoteDurationMillis float64
	HasArticulation    bool
	ArticulationMillis float64

	Annotation Annotation
}

// IsSounding reports whether the event takes part in matching. A note-on
// with velocity 0 is a note-off by MIDI convention.
func (e PerformanceEvent) IsSounding() bool {
	return e.Kind == NoteOn && e.Velocity > 0
}

type Take struct {
	Name    string
	IsModel bool
	Events  []PerformanceEvent
}

func (t Take) Clone() Take {
	events := make([]PerformanceEvent, len(t.Events))
	copy(events, t.Events)
	t.Events = events
	return t
}

type AlignmentResult struct {
	Success bool
	Take    Take

	// event indexes, -1 when there was none
	ForwardMismatch  int
	BackwardMismatch int
	UsedBackwardPass bool
}

func (r AlignmentResult) ErrorCount() int {
	var n int
	for _, e := range r.Take.Events {
		if e.Annotation.Error {
			n++
		}
	}
	return n
}
