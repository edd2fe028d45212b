package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/musicbrainz"
	"github.com/binaryphile/cdtoc/internal/tagging"
)

// testTOC: three audio tracks and a trailing data track.
func testTOC() *cdda.TableOfContents {
	return &cdda.TableOfContents{
		Device: "/dev/sr0",
		First:  1,
		Last:   4,
		Tracks: []cdda.RawTrack{
			{Number: cdda.LeadOutTrack, Address: 90000, ADR: 1},
			{Number: 1, Address: 0, ADR: 1, ISRC: "USRC17607839"},
			{Number: 2, Address: 18100, ADR: 1},
			{Number: 3, Address: 36350, ADR: 1, ISRC: "GBAYE6800011"},
			{Number: 4, Address: 54600, ADR: 1, Control: cdda.ControlData},
		},
		MCN: "0724384960650",
	}
}

func TestPlanTags(t *testing.T) {
	files := []string{"track01.mp3", "track02.mp3", "cover.mp3"}

	plan, err := planTags(testTOC(), files, nil)
	require.NoError(t, err)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "track01.mp3", plan.Steps[0].File)
	assert.Equal(t, "USRC17607839", plan.Steps[0].IDs.ISRC)
	assert.Equal(t, "0724384960650", plan.Steps[0].IDs.MCN)
	assert.Equal(t, 4, plan.Steps[0].IDs.TrackTotal)
	assert.Equal(t, "track02.mp3", plan.Steps[1].File)
	assert.Empty(t, plan.Steps[1].IDs.ISRC)

	assert.Equal(t, []int{3}, plan.Missing)
	assert.Equal(t, []int{4}, plan.Skipped)
}

func TestPlanTags_PrefersExpectedName(t *testing.T) {
	files := []string{"Band-Album-01-Intro.mp3", "01-old.mp3"}
	names := map[int]string{1: "Band-Album-01-Intro.mp3"}

	plan, err := planTags(testTOC(), files, names)
	require.NoError(t, err)

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "Band-Album-01-Intro.mp3", plan.Steps[0].File)
}

func TestPlanTags_Ambiguous(t *testing.T) {
	files := []string{"01-a.mp3", "01-b.mp3"}

	_, err := planTags(testTOC(), files, nil)
	assert.ErrorIs(t, err, tagging.ErrAmbiguous)
}

func TestTrackNames(t *testing.T) {
	release := &musicbrainz.Release{
		Artist: "Band",
		Title:  "Album",
		Tracks: []musicbrainz.Track{{Num: 1, Title: "Intro", Artist: "Band"}, {Num: 2, Title: "Outro", Artist: "Band"}},
	}

	names := trackNames(release)

	assert.Equal(t, "Band-Album-01-Intro.mp3", names[1])
	assert.Equal(t, "Band-Album-02-Outro.mp3", names[2])
}

func TestListMP3s(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "a.MP3", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755))

	names, err := listMP3s(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.MP3", "b.mp3"}, names)

	_, err = listMP3s(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestApplyPlan_DryRun(t *testing.T) {
	dir := t.TempDir()
	plan, err := planTags(testTOC(), []string{"track01.mp3"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, applyPlan(&buf, dir, plan, true))

	assert.Contains(t, buf.String(), "would tag 01 track01.mp3 (ISRC USRC17607839)")
	assert.Contains(t, buf.String(), "1 to tag, 2 missing, 1 data")
	assert.NoFileExists(t, filepath.Join(dir, "track01.mp3"))
}

func TestApplyPlan_Writes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "track01.mp3"), []byte("\xff\xfbfake mpeg frames"), 0o644))
	plan, err := planTags(testTOC(), []string{"track01.mp3"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, applyPlan(&buf, dir, plan, false))

	ids, err := tagging.ReadIdentifiers(filepath.Join(dir, "track01.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "USRC17607839", ids.ISRC)
	assert.Equal(t, cdda.DiscID(testTOC()), ids.DiscID)
	assert.Contains(t, buf.String(), "1 tagged")
}
