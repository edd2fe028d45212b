//go:build linux

package cdrom

import (
	"fmt"
	"os"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

// Linux reaches drives through the SG_IO ioctl on their block device.
type Linux struct {
	opts Options
}

// NewLinux returns the SG_IO platform.
func NewLinux(opts ...Option) *Linux {
	o := newOptions(opts)
	o.Logger = o.Logger.WithName("linux")
	return &Linux{opts: o}
}

// Native returns the platform for the running system.
func Native(opts ...Option) Platform {
	return NewLinux(opts...)
}

func (l *Linux) Features() Feature {
	return FeatureReadTOC | FeatureMCN | FeatureISRC
}

func (l *Linux) DefaultDevice() string {
	return l.opts.DefaultDevice
}

func (l *Linux) DeviceByIndex(n int) (string, error) {
	f, err := os.Open(l.opts.DriveInfoPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	defer f.Close()

	return ParseDriveList(f, n)
}

// Open opens device. With no device it tries DefaultDevice and then the
// first enumerated drive.
func (l *Linux) Open(device string) (scsi.Transport, error) {
	log := l.opts.Logger
	if device != "" {
		log.Debug("opening device", "device", device)
		return openSGIO(device)
	}

	h := scsi.OpenHandle(l.DefaultDevice())
	if h.Valid() {
		log.Info("using default device", "device", h.Path())
		return scsi.NewSGIO(h), nil
	}
	log.Debug("default device unavailable", "device", h.Path(), "error", h.Err())

	device, err := l.DeviceByIndex(0)
	if err != nil {
		return nil, err
	}
	log.Info("using first enumerated device", "device", device)
	return openSGIO(device)
}

func openSGIO(device string) (scsi.Transport, error) {
	t, err := scsi.OpenSGIO(device)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (l *Linux) ReadTableOfContents(device string, features Feature) (*cdda.TableOfContents, error) {
	return readTableOfContents(l, device, features, l.opts)
}
