package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackName_Filename(t *testing.T) {
	tests := []struct {
		name string
		in   TrackName
		want string
	}{
		{"basic", TrackName{Artist: "Artist", Album: "Album", Track: 1, Title: "Song"},
			"Artist-Album-01-Song.mp3"},
		{"spaces", TrackName{Artist: "The Who", Album: "Who's Next", Track: 3, Title: "Won't Get Fooled Again"},
			"The_Who-Whos_Next-03-Wont_Get_Fooled_Again.mp3"},
		{"slash", TrackName{Artist: "AC/DC", Album: "Back in Black", Track: 1, Title: "Hells Bells"},
			"AC_DC-Back_in_Black-01-Hells_Bells.mp3"},
		{"double quotes", TrackName{Artist: `Richard "Groove" Holmes`, Album: "Album", Track: 1, Title: "Song"},
			"Richard_Groove_Holmes-Album-01-Song.mp3"},
		{"smart quotes", TrackName{Artist: "Artist", Album: "Album", Track: 1, Title: "“Smart” ‘Quotes’"},
			"Artist-Album-01-Smart_Quotes.mp3"},
		{"shell safe", TrackName{Artist: "Test$Artist", Album: "Album!", Track: 1, Title: "Song?"},
			"Test_Artist-Album-01-Song.mp3"},
		{"collapses underscores", TrackName{Artist: "Artist", Album: "Album [Deluxe]", Track: 1, Title: "Track (Live)"},
			"Artist-Album_Deluxe-01-Track_Live.mp3"},
		{"keeps colon", TrackName{Artist: "Artist", Album: "Album: Subtitle", Track: 1, Title: "Song: Extended Mix"},
			"Artist-Album:_Subtitle-01-Song:_Extended_Mix.mp3"},
		{"non-ASCII", TrackName{Artist: "Tone-Lōc", Album: "Album", Track: 1, Title: "Café"},
			"Tone-Loc-Album-01-Cafe.mp3"},
		{"multi-disc", TrackName{Artist: "Artist", Album: "Album", Disc: 2, Track: 12, Title: "Song"},
			"Artist-Album-CD2-12-Song.mp3"},
		{"compilation", TrackName{Album: "Now 42", Track: 5, TrackArtist: "Artist A", Title: "Song", Compilation: true},
			"Now_42-05-Artist_A-Song.mp3"},
		{"compilation multi-disc", TrackName{Album: "Hits", Disc: 1, Track: 2, TrackArtist: "AC/DC", Title: "T.N.T.", Compilation: true},
			"Hits-CD1-02-AC_DC-T.N.T..mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Filename(); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitize_NeverNeedsQuoting(t *testing.T) {
	for _, s := range []string{"a'b\"c`d", "a b/c\\d", "$!*?[](){}<>|&;", "__a__b__"} {
		got := sanitize(s)
		assert.NotContains(t, got, "__", "sanitize(%q)", s)
		for _, c := range dropped + replaced {
			assert.NotContains(t, got, string(c), "sanitize(%q)", s)
		}
	}
}

func TestTrackNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"track07.mp3", 7, true},
		{"Track 12.MP3", 12, true},
		{"track_3.mp3", 3, true},
		{"Artist-Album-04-Song.mp3", 4, true},
		{"Artist-Album-CD2-11-Song.mp3", 11, true},
		{"01 - Intro.mp3", 1, true},
		{"dir/Now_42-05-Artist_A-Song.mp3", 5, true},
		{"Artist-Album-04-Song.flac", 0, false},
		{"Artist-Album-Song.mp3", 0, false},
		{"00-hidden.mp3", 0, false},
		{"10cc-Album-Song.mp3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TrackNumber(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindTrackFile(t *testing.T) {
	names := []string{
		"Artist-Album-01-Song.mp3",
		"Artist-Album-02-Other.mp3",
		"cover.jpg",
		"track03.mp3",
	}

	got, err := FindTrackFile(names, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "Artist-Album-02-Other.mp3", got)

	got, err = FindTrackFile(names, 3, "")
	require.NoError(t, err)
	assert.Equal(t, "track03.mp3", got)

	got, err = FindTrackFile(names, 4, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindTrackFile_ExactNameWins(t *testing.T) {
	names := []string{"Artist-Album-01-Song.mp3", "track01.mp3"}

	got, err := FindTrackFile(names, 1, "Artist-Album-01-Song.mp3")

	require.NoError(t, err)
	assert.Equal(t, "Artist-Album-01-Song.mp3", got)
}

func TestFindTrackFile_Ambiguous(t *testing.T) {
	names := []string{"Artist-Album-01-Song.mp3", "track01.mp3"}

	_, err := FindTrackFile(names, 1, "")

	assert.ErrorIs(t, err, ErrAmbiguous)
}
