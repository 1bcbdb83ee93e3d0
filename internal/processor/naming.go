package processor

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/divVerent/midisplitter/internal/smf"
)

const maxNameLen = 64

// trackLabel returns a file name friendly label for track i.
func trackLabel(t smf.Track, i int) string {
	name, ok := t.Name()
	if !ok {
		return defaultLabel(i)
	}
	name = sanitizeName(decodeText(name))
	if name == "" {
		return defaultLabel(i)
	}
	return name
}

func defaultLabel(i int) string {
	return fmt.Sprintf("track-%d", i)
}

// decodeText interprets meta event text. Most files use ASCII or UTF-8;
// older ones use Windows-1252.
func decodeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "_")
	}
	return decoded
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = strings.Trim(strings.TrimSpace(s), ".")
	if utf8.RuneCountInString(s) > maxNameLen {
		s = string([]rune(s)[:maxNameLen])
	}
	return strings.TrimSpace(s)
}

// trackLabels returns unique labels for all tracks of f that also do not
// collide with any of the reserved labels. Labels compare case-insensitively.
func trackLabels(f *smf.File, reserved ...string) []string {
	labels := make([]string, len(f.Tracks))
	count := map[string]int{}
	for _, r := range reserved {
		count[strings.ToLower(r)]++
	}
	for i, t := range f.Tracks {
		labels[i] = trackLabel(t, i)
		count[strings.ToLower(labels[i])]++
	}
	taken := map[string]bool{}
	for _, r := range reserved {
		taken[strings.ToLower(r)] = true
	}
	// Labels seen only once keep their name; claim them first.
	for _, l := range labels {
		if count[strings.ToLower(l)] == 1 {
			taken[strings.ToLower(l)] = true
		}
	}
	for i, l := range labels {
		if count[strings.ToLower(l)] == 1 {
			continue
		}
		label := fmt.Sprintf("%s-%d", l, i)
		for n := 2; taken[strings.ToLower(label)]; n++ {
			label = fmt.Sprintf("%s-%d-%d", l, i, n)
		}
		taken[strings.ToLower(label)] = true
		labels[i] = label
	}
	return labels
}
