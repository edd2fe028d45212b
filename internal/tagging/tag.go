// Package tagging writes disc identifiers read from the drive into the
// ID3 tags of already encoded tracks.
package tagging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/binaryphile/cdtoc/internal/cdda"
)

// TXXX descriptions, as written by MusicBrainz Picard
const (
	DescBarcode = "BARCODE"
	DescDiscID  = "MusicBrainz Disc Id"
)

// Identifiers are the disc-derived values written to one track's file.
type Identifiers struct {
	Track      int
	TrackTotal int
	ISRC       string // empty when the disc carries none
	MCN        string // empty when the disc carries none
	DiscID     string
}

// BuildIdentifiers collects the identifiers for track n.
// This is a pure function: (TableOfContents, track) → Identifiers
func BuildIdentifiers(toc *cdda.TableOfContents, n int) (Identifiers, bool) {
	tr, ok := toc.Track(n)
	if !ok {
		return Identifiers{}, false
	}
	return Identifiers{
		Track:      n,
		TrackTotal: toc.Last,
		ISRC:       tr.ISRC,
		MCN:        toc.MCN,
		DiscID:     cdda.DiscID(toc),
	}, true
}

// Apply writes the identifiers to an MP3 file, keeping every other frame.
// Empty identifiers leave the existing frame alone.
// This is boundary code - performs file I/O.
func (ids Identifiers) Apply(path string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open mp3: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetVersion(4)

	if ids.ISRC != "" {
		tag.DeleteFrames("TSRC")
		tag.AddTextFrame("TSRC", id3v2.EncodingUTF8, ids.ISRC)
	}

	if ids.Track > 0 && tag.GetTextFrame("TRCK").Text == "" {
		value := strconv.Itoa(ids.Track)
		if ids.TrackTotal > 0 {
			value = fmt.Sprintf("%d/%d", ids.Track, ids.TrackTotal)
		}
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, value)
	}

	setUserText(tag, DescBarcode, ids.MCN)
	setUserText(tag, DescDiscID, ids.DiscID)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// setUserText replaces the TXXX frame with description desc.
func setUserText(tag *id3v2.Tag, desc, value string) {
	if value == "" {
		return
	}
	id := tag.CommonID("User defined text information frame")

	var keep []id3v2.UserDefinedTextFrame
	for _, f := range tag.GetFrames(id) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if ok && udtf.Description != desc {
			keep = append(keep, udtf)
		}
	}
	tag.DeleteFrames(id)
	for _, f := range keep {
		tag.AddUserDefinedTextFrame(f)
	}

	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: desc,
		Value:       value,
	})
}

// ReadIdentifiers reads back what Apply writes.
func ReadIdentifiers(path string) (Identifiers, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Identifiers{}, fmt.Errorf("open mp3: %w", err)
	}
	defer tag.Close()

	var ids Identifiers
	ids.ISRC = tag.GetTextFrame("TSRC").Text
	ids.Track, ids.TrackTotal = parsePosition(tag.GetTextFrame("TRCK").Text)

	for _, f := range tag.GetFrames(tag.CommonID("User defined text information frame")) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		switch udtf.Description {
		case DescBarcode:
			ids.MCN = udtf.Value
		case DescDiscID:
			ids.DiscID = udtf.Value
		}
	}
	return ids, nil
}

// parsePosition parses "N" or "N/Total".
func parsePosition(s string) (n, total int) {
	num, tot, _ := strings.Cut(s, "/")
	n, _ = strconv.Atoi(num)
	total, _ = strconv.Atoi(tot)
	return n, total
}
