package take

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jsphweid/perfgrade/model"
)

var annotatedHeader = []string{"Row", "Type", "Note", "Velocity", "Ticks", "Millis",
	"IOI (ms)", "Articulation (ms)", "Note duration (ms)", "Include", "Line number", "Duration", "Error"}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteAnnotated writes the event list with the alignment annotations next
// to each event, for inspecting where a take diverged.
func WriteAnnotated(w io.Writer, tk model.Take) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(annotatedHeader); err != nil {
		return err
	}
	for _, e := range tk.Events {
		rec := make([]string, len(annotatedHeader))
		rec[0] = strconv.Itoa(e.Row)
		rec[1] = e.Kind.String()
		rec[4] = strconv.FormatInt(e.TimestampTicks, 10)
		rec[5] = formatFloat(e.TimestampMillis)
		if e.Kind == model.NoteOn || e.Kind == model.NoteOff {
			rec[2] = string(e.Pitch)
			rec[3] = strconv.Itoa(e.Velocity)
		}
		if e.HasIOI {
			rec[6] = formatFloat(e.IOIMillis)
		}
		if e.HasArticulation {
			rec[7] = formatFloat(e.ArticulationMillis)
		}
		if e.HasRelease {
			rec[8] = formatFloat(e.NoteDurationMillis)
		}
		a := e.Annotation
		if a.Matched {
			rec[9] = "N"
			if a.IncludeFlag {
				rec[9] = "Y"
			}
			rec[10] = strconv.Itoa(a.MatchedLineNumber)
			rec[11] = formatFloat(a.MatchedDurationBeats)
		}
		if a.Error {
			rec[12] = "ERROR"
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
