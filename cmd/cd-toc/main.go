package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"
	"golang.org/x/term"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/cdrom"
	"github.com/binaryphile/cdtoc/internal/logging"
	"github.com/binaryphile/cdtoc/internal/musicbrainz"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

var version = "dev"

const contactURL = "https://github.com/binaryphile/cdtoc"

type config struct {
	device  string
	info    bool
	isrc    bool
	mcn     bool
	msf     bool
	json    bool
	lookup  bool
	usb     bool
	verbose int
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("cd-toc"),
		usage.WithApplicationDescription("Read the table of contents, ISRCs and catalog number of an audio CD straight from the drive."),
	)
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	info := u.AddBooleanOption("i", "info", false, "Identify the drive and check for a disc", "", nil)
	isrc := u.AddBooleanOption("s", "isrc", false, "Read the ISRC of every track", "", nil)
	mcn := u.AddBooleanOption("m", "mcn", false, "Read the media catalog number", "", nil)
	msf := u.AddBooleanOption("f", "msf", false, "Request minute/second/frame addresses", "", nil)
	asJSON := u.AddBooleanOption("j", "json", false, "Print JSON", "", nil)
	lookup := u.AddBooleanOption("l", "lookup", false, "Look the disc id up on MusicBrainz", "", nil)
	useUSB := u.AddBooleanOption("u", "usb", false, "Talk to a USB drive directly (libusb)", "", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Log each command", "", nil)
	trace := u.AddBooleanOption("t", "trace", false, "Log each command and its result", "", nil)
	device := u.AddArgument(1, "device", "Drive to read, e.g. /dev/sr0 or usb:0e8d:1887", "optional")

	if !u.Parse() {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	cfg := config{
		device:  resolveDevice(device, os.Getenv("CDROM_DEVICE")),
		info:    *info,
		isrc:    *isrc,
		mcn:     *mcn,
		msf:     *msf,
		json:    *asJSON,
		lookup:  *lookup,
		usb:     *useUSB,
		verbose: logging.Verbosity(*verbose, *trace),
	}

	if err := run(cfg, os.Stdout); err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}

// resolveDevice prefers the positional argument, then $CDROM_DEVICE.
// "" lets the platform pick.
func resolveDevice(arg *string, env string) string {
	if arg != nil && *arg != "" {
		return *arg
	}
	return env
}

func (c config) features() cdrom.Feature {
	f := cdrom.FeatureReadTOC
	if c.isrc {
		f |= cdrom.FeatureISRC
	}
	if c.mcn {
		f |= cdrom.FeatureMCN
	}
	return f
}

func selectPlatform(c config, log *logging.Logger) cdrom.Platform {
	opts := []cdrom.Option{cdrom.WithLogger(log), cdrom.WithMSF(c.msf)}
	if c.usb || scsi.IsUSBDeviceName(c.device) {
		return cdrom.NewUSB(opts...)
	}
	return cdrom.Native(opts...)
}

func run(c config, out io.Writer) error {
	log := logging.NewCLILogger(c.verbose).WithName("cd-toc")
	platform := selectPlatform(c, log)

	if c.info {
		return printDriveInfo(out, platform, c.device, log)
	}

	spinner := startSpinner(c)
	toc, err := platform.ReadTableOfContents(c.device, c.features())
	if err != nil {
		stopSpinner(spinner, err)
		return explain(err)
	}
	stopSpinner(spinner, nil)

	if c.json {
		if err := writeJSON(out, toc); err != nil {
			return err
		}
	} else {
		printTOC(out, toc)
	}

	if c.lookup {
		return lookupDisc(out, toc, log)
	}
	return nil
}

// explain adds a hint for the failures a user can fix.
func explain(err error) error {
	switch {
	case errors.Is(err, cdrom.ErrNoDevice):
		return fmt.Errorf("%w (name a device, set CDROM_DEVICE, or try --usb)", err)
	case errors.Is(err, cdrom.ErrUnsupported):
		return fmt.Errorf("%w (try --usb)", err)
	}
	return err
}

// startSpinner shows progress while the drive spins up. It stays off when
// stderr is not a terminal or log lines would interleave with it.
func startSpinner(c config) *yacspin.Spinner {
	if c.verbose > logging.LevelInfo || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}

	spinner, err := yacspin.New(yacspin.Config{
		Writer:            os.Stderr,
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " reading table of contents",
		Colors:            []string{"fgHiCyan"},
		StopColors:        []string{"fgHiGreen"},
		StopFailColors:    []string{"fgHiRed"},
		StopCharacter:     "✓",
		StopFailCharacter: "✗",
	})
	if err != nil {
		return nil
	}
	if err := spinner.Start(); err != nil {
		return nil
	}
	return spinner
}

func stopSpinner(spinner *yacspin.Spinner, err error) {
	if spinner == nil {
		return
	}
	if err != nil {
		spinner.StopFailMessage(" failed")
		_ = spinner.StopFail()
		return
	}
	spinner.StopMessage(" done")
	_ = spinner.Stop()
}

func printDriveInfo(out io.Writer, platform cdrom.Platform, device string, log *logging.Logger) error {
	t, err := platform.Open(device)
	if err != nil {
		return explain(err)
	}
	defer t.Close()

	info, err := cdrom.Identify(t, cdrom.WithLogger(log))
	if err != nil {
		return err
	}

	deviceType := "Unknown"
	if info.DeviceType == scsi.DeviceTypeMMC {
		deviceType = "CD-ROM"
	}
	fmt.Fprintf(out, "Device: %s\n", info.Device)
	fmt.Fprintf(out, "Drive:  %s %s (rev %s)\n", info.Vendor, info.Product, info.Revision)
	fmt.Fprintf(out, "Type:   %s\n", deviceType)
	if info.Ready {
		fmt.Fprintln(out, "Disc:   ready")
	} else {
		fmt.Fprintf(out, "Disc:   not ready (%v)\n", info.NotReady)
	}
	return nil
}

func printTOC(out io.Writer, toc *cdda.TableOfContents) {
	addr := "LBA"
	if toc.MSF {
		addr = "MSF"
	}

	fmt.Fprintf(out, "Table of Contents: %s\n", toc.Device)
	fmt.Fprintf(out, "%8s %6s %10s %10s %10s  %s\n", "Track", "Type", addr, "Length", "Duration", "ISRC")
	fmt.Fprintln(out, strings.Repeat("-", 64))

	for n := toc.First; n <= toc.Last; n++ {
		track, _ := toc.Track(n)

		trackType := "audio"
		if track.IsData() {
			trackType = "data"
		}

		length := toc.Len(n)
		duration := float64(length) / float64(cdda.FramesPerSecond)
		fmt.Fprintf(out, "%8d %6s %10s %10d %9.1fs  %s\n",
			track.Number, trackType, formatAddress(track.Address, toc.MSF), length, duration, track.ISRC)
	}

	leadOut := toc.LeadOut()
	fmt.Fprintf(out, "%8s %6s %10s\n", "Lead-out", "-", formatAddress(leadOut.Address, toc.MSF))

	fmt.Fprintln(out)
	if toc.MCN != "" {
		fmt.Fprintf(out, "MCN:     %s\n", toc.MCN)
	}
	fmt.Fprintf(out, "Disc ID: %s\n", cdda.DiscID(toc))
	fmt.Fprintf(out, "TOC:     %s\n", cdda.TOCString(toc))
	fmt.Fprintf(out, "Submit:  %s\n", cdda.SubmissionURL(toc))
}

func formatAddress(address int, msf bool) string {
	if !msf {
		return fmt.Sprint(address)
	}
	m, s, f := cdda.FramesToMSF(address)
	return fmt.Sprintf("%02d:%02d:%02d", m, s, f)
}

type tocJSON struct {
	*cdda.TableOfContents
	DiscID        string `json:"discid"`
	TOC           string `json:"toc"`
	SubmissionURL string `json:"submission_url"`
}

func writeJSON(out io.Writer, toc *cdda.TableOfContents) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(tocJSON{
		TableOfContents: toc,
		DiscID:          cdda.DiscID(toc),
		TOC:             cdda.TOCString(toc),
		SubmissionURL:   cdda.SubmissionURL(toc),
	})
}

func lookupDisc(out io.Writer, toc *cdda.TableOfContents, log *logging.Logger) error {
	client := musicbrainz.NewClient("cd-toc", version, contactURL, log)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	discID := cdda.DiscID(toc)
	releases, err := client.LookupByDiscID(ctx, discID)
	if err != nil {
		return fmt.Errorf("%w\nsubmit the disc at %s", err, cdda.SubmissionURL(toc))
	}

	printReleases(out, musicbrainz.SortReleasesByTrackMatch(releases, toc.Count()))
	return nil
}

func printReleases(out io.Writer, releases []musicbrainz.Release) {
	fmt.Fprintf(out, "\nMusicBrainz releases: %d\n", len(releases))
	for i, r := range releases {
		fmt.Fprintf(out, "%2d. %s - %s (%d, %s, %d tracks)\n    %s\n",
			i+1, r.Artist, r.Title, r.Year, r.Country, r.TrackCount, musicbrainz.ReleaseURL(r.MBID))
	}
}
