package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bgrewell/usage"
	"github.com/fatih/color"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/cdrom"
	"github.com/binaryphile/cdtoc/internal/logging"
	"github.com/binaryphile/cdtoc/internal/musicbrainz"
	"github.com/binaryphile/cdtoc/internal/scsi"
	"github.com/binaryphile/cdtoc/internal/tagging"
)

var version = "dev"

const contactURL = "https://github.com/binaryphile/cdtoc"

type config struct {
	dir     string
	device  string
	dryRun  bool
	lookup  bool
	usb     bool
	verbose int
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("cd-tag"),
		usage.WithApplicationDescription("Write the disc's ISRCs, catalog number and disc id into the ID3 tags of ripped MP3 files."),
	)
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	dryRun := u.AddBooleanOption("n", "dry-run", false, "Show what would be written", "", nil)
	useUSB := u.AddBooleanOption("u", "usb", false, "Talk to a USB drive directly (libusb)", "", nil)
	lookup := u.AddBooleanOption("l", "lookup", false, "Match files by their MusicBrainz track names", "", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Log each command", "", nil)
	trace := u.AddBooleanOption("t", "trace", false, "Log each command and its result", "", nil)
	dir := u.AddArgument(1, "dir", "Directory holding the track MP3s", "")
	device := u.AddArgument(2, "device", "Drive to read, e.g. /dev/sr0 or usb:0e8d:1887", "optional")

	if !u.Parse() {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if dir == nil || *dir == "" {
		u.PrintError(fmt.Errorf("the directory holding the MP3 files <dir> must be provided"))
		os.Exit(1)
	}

	cfg := config{
		dir:     *dir,
		dryRun:  *dryRun,
		lookup:  *lookup,
		usb:     *useUSB,
		verbose: logging.Verbosity(*verbose, *trace),
	}
	if device != nil && *device != "" {
		cfg.device = *device
	} else {
		cfg.device = os.Getenv("CDROM_DEVICE")
	}

	if err := run(cfg, os.Stdout); err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}

func run(c config, out io.Writer) error {
	log := logging.NewCLILogger(c.verbose).WithName("cd-tag")

	files, err := listMP3s(c.dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no MP3 files in %s", c.dir)
	}

	opts := []cdrom.Option{cdrom.WithLogger(log)}
	var platform cdrom.Platform
	if c.usb || scsi.IsUSBDeviceName(c.device) {
		platform = cdrom.NewUSB(opts...)
	} else {
		platform = cdrom.Native(opts...)
	}

	toc, err := platform.ReadTableOfContents(c.device, cdrom.FeatureAll)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Disc ID: %s (%d tracks)\n", cdda.DiscID(toc), toc.Count())

	var names map[int]string
	if c.lookup {
		names, err = expectedNames(toc, log)
		if err != nil {
			log.Info("MusicBrainz lookup failed, matching by track number", "error", err)
		}
	}

	plan, err := planTags(toc, files, names)
	if err != nil {
		return err
	}

	return applyPlan(out, c.dir, plan, c.dryRun)
}

func listMP3s(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// expectedNames looks the disc up and builds the file name each track would
// have been encoded under. Multi-disc releases return nil; their file names
// carry a disc number the drive cannot tell us.
func expectedNames(toc *cdda.TableOfContents, log *logging.Logger) (map[int]string, error) {
	client := musicbrainz.NewClient("cd-tag", version, contactURL, log)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	releases, err := client.LookupByDiscID(ctx, cdda.DiscID(toc))
	if err != nil {
		return nil, err
	}
	releases = musicbrainz.SortReleasesByTrackMatch(releases, toc.Count())
	if len(releases) == 0 {
		return nil, errors.New("no releases for disc id")
	}
	if releases[0].DiscCount != 1 {
		return nil, nil
	}

	release, err := client.GetReleaseTracks(ctx, releases[0].MBID)
	if err != nil {
		return nil, err
	}
	return trackNames(release), nil
}

func trackNames(release *musicbrainz.Release) map[int]string {
	names := make(map[int]string, len(release.Tracks))
	for _, t := range release.Tracks {
		names[t.Num] = tagging.TrackName{
			Artist:      release.Artist,
			Album:       release.Title,
			Track:       t.Num,
			TrackArtist: t.Artist,
			Title:       t.Title,
			Compilation: release.Compilation,
		}.Filename()
	}
	return names
}

type step struct {
	File string
	IDs  tagging.Identifiers
}

type tagPlan struct {
	Steps   []step
	Missing []int // audio tracks with no file
	Skipped []int // data tracks
}

// planTags pairs every audio track with its file.
// This is a pure function.
func planTags(toc *cdda.TableOfContents, files []string, names map[int]string) (tagPlan, error) {
	var plan tagPlan
	for n := toc.First; n <= toc.Last; n++ {
		track, _ := toc.Track(n)
		if track.IsData() {
			plan.Skipped = append(plan.Skipped, n)
			continue
		}

		file, err := tagging.FindTrackFile(files, n, names[n])
		if err != nil {
			return tagPlan{}, err
		}
		if file == "" {
			plan.Missing = append(plan.Missing, n)
			continue
		}

		ids, _ := tagging.BuildIdentifiers(toc, n)
		plan.Steps = append(plan.Steps, step{File: file, IDs: ids})
	}
	return plan, nil
}

func applyPlan(out io.Writer, dir string, plan tagPlan, dryRun bool) error {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, s := range plan.Steps {
		isrc := s.IDs.ISRC
		if isrc == "" {
			isrc = "-"
		}
		if dryRun {
			fmt.Fprintf(out, "  would tag %02d %s (ISRC %s)\n", s.IDs.Track, s.File, isrc)
			continue
		}
		if err := s.IDs.Apply(filepath.Join(dir, s.File)); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %02d %s (ISRC %s)\n", green("tagged"), s.IDs.Track, s.File, isrc)
	}
	for _, n := range plan.Missing {
		fmt.Fprintf(out, "  %s %02d no file\n", yellow("missing"), n)
	}
	for _, n := range plan.Skipped {
		fmt.Fprintf(out, "  skipped %02d data track\n", n)
	}

	verb := "tagged"
	if dryRun {
		verb = "to tag"
	}
	fmt.Fprintf(out, "\n%d %s, %d missing, %d data\n", len(plan.Steps), verb, len(plan.Missing), len(plan.Skipped))
	return nil
}
