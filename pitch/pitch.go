package pitch

import (
	"fmt"
	"strings"

	"github.com/jsphweid/perfgrade/model"
)

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Valid checks the score grammar: a letter A-G (any case), an octave digit
// 0-7 and an optional trailing sharp.
func Valid(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	letter := s[0]
	if (letter < 'A' || letter > 'G') && (letter < 'a' || letter > 'g') {
		return false
	}
	if s[1] < '0' || s[1] > '7' {
		return false
	}
	if len(s) == 3 && s[2] != '#' {
		return false
	}
	return true
}

func Parse(s string) (model.NoteName, error) {
	s = strings.TrimSpace(s)
	if !Valid(s) {
		return "", fmt.Errorf("invalid note %q", s)
	}
	return Normalize(s), nil
}

func Normalize(s string) model.NoteName {
	return model.NoteName(strings.ToUpper(strings.TrimSpace(s)))
}

func Equal(a, b model.NoteName) bool {
	return strings.EqualFold(strings.TrimSpace(string(a)), strings.TrimSpace(string(b)))
}

// FromKey names a MIDI key the way converted take sheets do: letter,
// octave, then the sharp. Key 60 is C4.
func FromKey(key uint8) model.NoteName {
	name := names[int(key)%12]
	octave := int(key)/12 - 1
	return model.NoteName(fmt.Sprintf("%c%d%s", name[0], octave, name[1:]))
}
