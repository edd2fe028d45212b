// Package musicbrainz looks up the releases a disc id belongs to.
package musicbrainz

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uploadedlobster.com/mbtypes"
	"go.uploadedlobster.com/musicbrainzws2"

	"github.com/binaryphile/cdtoc/internal/logging"
)

// RequestInterval is the MusicBrainz rate limit for anonymous clients.
const RequestInterval = time.Second

// Release is one edition a disc id is attached to.
type Release struct {
	MBID        string
	Title       string
	Artist      string // credited album artist, "Various Artists" on compilations
	Year        int
	Country     string
	TrackCount  int     // over all media
	DiscCount   int     // media in the release
	Tracks      []Track // only filled by GetReleaseTracks
	Compilation bool
}

// Track is one entry of a release's track list.
type Track struct {
	Num    int // position on its medium
	Title  string
	Artist string // the track credit, falling back to the album artist
}

// Client wraps the MusicBrainz web service and spaces requests out by
// RequestInterval.
type Client struct {
	client   *musicbrainzws2.Client
	log      *logging.Logger
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewClient identifies requests as appName/version with a contact URL, as
// the MusicBrainz service requires.
func NewClient(appName, version, contact string, log *logging.Logger) *Client {
	client := musicbrainzws2.NewClient(musicbrainzws2.AppInfo{
		Name:    appName,
		Version: version,
		URL:     contact,
	})
	return &Client{
		client:   client,
		log:      log.WithName("musicbrainz"),
		interval: RequestInterval,
	}
}

// Close releases client resources
func (c *Client) Close() error {
	return c.client.Close()
}

// wait blocks until a request may be sent without exceeding the rate limit.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if delay := c.interval - time.Since(c.last); !c.last.IsZero() && delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.last = time.Now()
	return nil
}

// LookupByDiscID looks up releases by MusicBrainz disc ID.
// Returns a list of matching releases (may be multiple pressings/editions).
func (c *Client) LookupByDiscID(ctx context.Context, discID string) ([]Release, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.log.Debug("looking up disc id", "discid", discID)

	filter := musicbrainzws2.DiscIDFilter{
		Includes: []string{"recordings", "artists", "release-groups"},
	}
	disc, err := c.client.LookupDiscID(ctx, discID, filter)
	if err != nil {
		return nil, fmt.Errorf("disc lookup %s: %w", discID, err)
	}

	releases := make([]Release, 0, len(disc.Releases))
	for _, r := range disc.Releases {
		releases = append(releases, newRelease(r))
	}
	c.log.Debug("disc id matched", "discid", discID, "releases", len(releases))

	return releases, nil
}

// GetReleaseTracks fetches full track information for a release.
// Call this after selecting a release from LookupByDiscID.
func (c *Client) GetReleaseTracks(ctx context.Context, mbid string) (*Release, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.log.Debug("fetching release", "mbid", mbid)

	filter := musicbrainzws2.IncludesFilter{
		Includes: []string{"recordings", "artists", "artist-credits"},
	}
	r, err := c.client.LookupRelease(ctx, mbtypes.MBID(mbid), filter)
	if err != nil {
		return nil, fmt.Errorf("release lookup %s: %w", mbid, err)
	}

	release := newRelease(r)
	for _, medium := range r.Media {
		for _, track := range medium.Tracks {
			release.Tracks = append(release.Tracks, Track{
				Num:    track.Position,
				Title:  track.Title,
				Artist: trackArtist(track, r.ArtistCredit),
			})
		}
	}

	return &release, nil
}

// Track returns track n, if the release has it.
func (r *Release) Track(n int) (Track, bool) {
	for _, t := range r.Tracks {
		if t.Num == n {
			return t, true
		}
	}
	return Track{}, false
}

// ReleaseURL is the release's MusicBrainz page.
func ReleaseURL(mbid string) string {
	return "https://musicbrainz.org/release/" + mbid
}

// SortReleasesByTrackMatch orders releases whose track count equals
// trackCount first, newest first within each group. The input is not
// modified.
func SortReleasesByTrackMatch(releases []Release, trackCount int) []Release {
	sorted := slices.Clone(releases)
	slices.SortStableFunc(sorted, func(a, b Release) int {
		am, bm := a.TrackCount == trackCount, b.TrackCount == trackCount
		if am != bm {
			if am {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Year, a.Year)
	})
	return sorted
}

func newRelease(r musicbrainzws2.Release) Release {
	return Release{
		MBID:        string(r.ID),
		Title:       r.Title,
		Artist:      artistName(r.ArtistCredit),
		Year:        r.Date.Year,
		Country:     string(r.CountryCode),
		TrackCount:  totalTracks(r.Media),
		DiscCount:   len(r.Media),
		Compilation: isCompilation(r.ArtistCredit),
	}
}

func artistName(credit musicbrainzws2.ArtistCredit) string {
	if len(credit) > 0 {
		return credit.String()
	}
	return "Unknown Artist"
}

func trackArtist(track musicbrainzws2.Track, albumCredit musicbrainzws2.ArtistCredit) string {
	switch {
	case len(track.ArtistCredit) > 0:
		return track.ArtistCredit.String()
	case len(track.Recording.ArtistCredit) > 0:
		return track.Recording.ArtistCredit.String()
	default:
		return artistName(albumCredit)
	}
}

func isCompilation(credit musicbrainzws2.ArtistCredit) bool {
	return len(credit) > 0 && artistName(credit) == "Various Artists"
}

func totalTracks(media []musicbrainzws2.Medium) (n int) {
	for _, m := range media {
		n += m.TrackCount
	}
	return n
}
