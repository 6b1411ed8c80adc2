package take

import (
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/pitch"
)

func releases(on, e model.PerformanceEvent) bool {
	if e.Kind != model.NoteOff && !(e.Kind == model.NoteOn && e.Velocity == 0) {
		return false
	}
	return pitch.Equal(on.Pitch, e.Pitch)
}

// Derive fills IOI, note duration and articulation for every sounding
// note-on. IOI needs a following note, duration needs a release and
// articulation needs both.
func Derive(tk *model.Take) {
	events := tk.Events
	next := -1
	for i := len(events) - 1; i >= 0; i-- {
		e := &events[i]
		if !e.IsSounding() {
			continue
		}
		e.HasIOI, e.HasRelease, e.HasArticulation = false, false, false
		if next >= 0 {
			e.HasIOI = true
			e.IOITicks = events[next].TimestampTicks - e.TimestampTicks
			e.IOIMillis = events[next].TimestampMillis - e.TimestampMillis
		}
		for j := i + 1; j < len(events); j++ {
			if releases(*e, events[j]) {
				e.HasRelease = true
				e.NoteDurationTicks = events[j].TimestampTicks - e.TimestampTicks
				e.NoteDurationMillis = events[j].TimestampMillis - e.TimestampMillis
				if next >= 0 {
					e.HasArticulation = true
					e.ArticulationMillis = events[next].TimestampMillis - events[j].TimestampMillis
				}
				break
			}
		}
		next = i
	}
}
