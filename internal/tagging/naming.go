package tagging

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrAmbiguous means more than one file claims the same track number.
var ErrAmbiguous = errors.New("tagging: several files match track")

// TrackName describes the name an encoded track file is given in a rip
// directory.
type TrackName struct {
	Artist      string // album artist, or "Compilation" name
	Album       string
	Disc        int // 0 = single disc
	Track       int
	TrackArtist string // only used for compilations
	Title       string
	Compilation bool
}

// Filename builds the encoded file name.
// This is a pure function.
//
// Format: Artist-Album-NN-Title.mp3
// Compilation: Album-NN-TrackArtist-Title.mp3
// Multi-disc adds CDN before NN.
func (n TrackName) Filename() string {
	var parts []string
	if n.Compilation {
		parts = append(parts, sanitize(n.Album))
	} else {
		parts = append(parts, sanitize(n.Artist), sanitize(n.Album))
	}
	if n.Disc > 0 {
		parts = append(parts, fmt.Sprintf("CD%d", n.Disc))
	}
	parts = append(parts, fmt.Sprintf("%02d", n.Track))
	if n.Compilation {
		parts = append(parts, sanitize(n.TrackArtist))
	}
	parts = append(parts, sanitize(n.Title))

	return strings.Join(parts, "-") + ".mp3"
}

// FindTrackFile picks the file in names that holds track n. An exact match
// on want wins; otherwise a name is a match when it is trackNN.mp3 or has
// a two-digit NN segment between separators.
func FindTrackFile(names []string, n int, want string) (string, error) {
	if want != "" && slices.Contains(names, want) {
		return want, nil
	}

	var found []string
	for _, name := range names {
		if num, ok := TrackNumber(name); ok && num == n {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w %d: %s", ErrAmbiguous, n, strings.Join(found, ", "))
	}
}

// TrackNumber extracts the track number from an MP3 file name.
func TrackNumber(name string) (int, bool) {
	if !strings.EqualFold(filepath.Ext(name), ".mp3") {
		return 0, false
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	if rest, ok := cutPrefixFold(base, "track"); ok {
		if n, err := strconv.Atoi(strings.TrimLeft(rest, " _-")); err == nil && n > 0 {
			return n, true
		}
	}

	// dash-separated parts first: "Now_42-05-Artist-Song" is track 5
	if n, ok := twoDigitSegment(strings.Split(base, "-")); ok {
		return n, true
	}
	return twoDigitSegment(strings.FieldsFunc(base, isSeparator))
}

func twoDigitSegment(segs []string) (int, bool) {
	for _, seg := range segs {
		seg = strings.TrimSpace(seg)
		if len(seg) == 2 && isDigits(seg) {
			if n, _ := strconv.Atoi(seg); n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func isSeparator(r rune) bool {
	return r == '-' || r == '_' || r == ' ' || r == '.'
}

func isDigits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// Characters that need shell quoting or are illegal in file names. Quotes
// are dropped, the rest become underscores.
const (
	dropped  = "'\"`"
	replaced = " /\\$!*?[](){}<>|&;"
)

// sanitize prepares a string for use in a filename.
// Non-ASCII letters are folded to ASCII (ō→o, é→e), runs of underscores
// collapse to one and leading/trailing underscores are trimmed.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range normalizeToASCII(s) {
		switch {
		case strings.ContainsRune(dropped, r):
		case strings.ContainsRune(replaced, r) || r == '_':
			if !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		default:
			b.WriteRune(r)
		}
	}

	return strings.Trim(b.String(), "_")
}

// normalizeToASCII decomposes with NFKD, drops the combining marks and
// anything left outside ASCII.
func normalizeToASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	result, _, _ := transform.String(t, s)
	return result
}
