package cdda

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SubmissionBaseURL is where a disc id is attached to a MusicBrainz release.
const SubmissionBaseURL = "https://musicbrainz.org/cdtoc/attach"

// DiscID computes the MusicBrainz disc ID from a TOC.
// This is a pure function: TableOfContents → 28-char disc ID string.
//
// Algorithm:
// 1. Format track data as hex ASCII string
// 2. SHA-1 hash the string
// 3. Base64 encode with MusicBrainz URL-safe substitutions
func DiscID(toc *TableOfContents) string {
	// Format: "%02X%02X" + "%08X" * 100
	// - First track number, last track number
	// - Index 0: leadout offset
	// - Index 1-99: track offsets (0 for unused)
	var sb strings.Builder

	fmt.Fprintf(&sb, "%02X", toc.First)
	fmt.Fprintf(&sb, "%02X", toc.Last)

	offsets := make([]int, 100)
	offsets[0] = toc.Offset(LeadOutTrack)
	for n := toc.First; n <= toc.Last && n <= 99; n++ {
		offsets[n] = toc.Offset(n)
	}

	for _, off := range offsets {
		fmt.Fprintf(&sb, "%08X", off)
	}

	hash := sha1.Sum([]byte(sb.String()))
	encoded := base64.StdEncoding.EncodeToString(hash[:])

	// + → .   / → _   = → -
	return strings.NewReplacer("+", ".", "/", "_", "=", "-").Replace(encoded)
}

// TOCString returns "first last leadout offset1 ... offsetN", the form the
// MusicBrainz web service accepts for fuzzy TOC lookups.
func TOCString(toc *TableOfContents) string {
	return strings.Join(tocFields(toc), " ")
}

// SubmissionURL returns the page that attaches this disc id to a release.
func SubmissionURL(toc *TableOfContents) string {
	// toc is '+' separated and must stay unescaped
	return SubmissionBaseURL +
		"?id=" + url.QueryEscape(DiscID(toc)) +
		"&tracks=" + strconv.Itoa(toc.Count()) +
		"&toc=" + strings.Join(tocFields(toc), "+")
}

func tocFields(toc *TableOfContents) []string {
	fields := []string{
		strconv.Itoa(toc.First),
		strconv.Itoa(toc.Last),
		strconv.Itoa(toc.Offset(LeadOutTrack)),
	}
	for n := toc.First; n <= toc.Last; n++ {
		fields = append(fields, strconv.Itoa(toc.Offset(n)))
	}
	return fields
}
