package cdrom

import (
	"errors"
	"fmt"

	"github.com/google/gousb"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

// USB reaches drives directly over USB bulk-only transport, for hosts
// where no kernel driver exposes the drive. Devices are named
// "usb:VVVV:PPPP", or "usb" to probe scsi.KnownDrives.
type USB struct {
	opts Options
}

// NewUSB returns the USB platform.
func NewUSB(opts ...Option) *USB {
	o := newOptions(opts)
	o.Logger = o.Logger.WithName("usb")
	return &USB{opts: o}
}

func (u *USB) Features() Feature {
	return FeatureReadTOC | FeatureMCN | FeatureISRC
}

func (u *USB) DefaultDevice() string {
	return "usb"
}

// DeviceByIndex returns the n-th attached drive from scsi.KnownDrives.
func (u *USB) DeviceByIndex(n int) (string, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return knownDrive(desc.Vendor, desc.Product)
	})
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()
	if err != nil && len(devs) == 0 {
		return "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	if n < 0 || n >= len(devs) {
		return "", fmt.Errorf("%w: USB drive index %d of %d", ErrNoDevice, n, len(devs))
	}
	return scsi.USBDeviceName(devs[n].Desc.Vendor, devs[n].Desc.Product), nil
}

func knownDrive(vid, pid gousb.ID) bool {
	for _, k := range scsi.KnownDrives {
		if k.VendorID == vid && k.ProductID == pid {
			return true
		}
	}
	return false
}

// Open opens "usb:VVVV:PPPP", or probes the known drives for "" and "usb".
func (u *USB) Open(device string) (scsi.Transport, error) {
	if device == "" {
		device = u.DefaultDevice()
	}
	vid, pid, err := scsi.ParseUSBDeviceName(device)
	if err != nil {
		return nil, err
	}

	t, err := scsi.OpenUSB(vid, pid, u.opts.Logger)
	if errors.Is(err, scsi.ErrNoUSBDrive) {
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}
	if err != nil {
		return nil, &scsi.IOError{Op: "open device", Device: device, Err: err}
	}
	return t, nil
}

func (u *USB) ReadTableOfContents(device string, features Feature) (*cdda.TableOfContents, error) {
	return readTableOfContents(u, device, features, u.opts)
}
