package scsi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"

	"github.com/binaryphile/cdtoc/internal/logging"
)

// OpRequestSense fetches sense data after a failed command; bulk-only
// transport does not return it with the status.
const OpRequestSense = 0x03

const requestSenseLength = 18

// KnownDrive is a USB optical drive that is probed when no IDs are given.
type KnownDrive struct {
	VendorID  gousb.ID
	ProductID gousb.ID
	Name      string
}

// KnownDrives is probed in order by OpenUSB(0, 0).
var KnownDrives = []KnownDrive{
	{0x0e8d, 0x1887, "Hitachi-LG/MediaTek Slim Portable DVD Writer"},
	{0x152d, 0x2339, "JMicron USB CD/DVD"},
	{0x13fd, 0x0840, "Initio USB CD/DVD"},
	{0x1c6b, 0xa223, "Philips USB CD/DVD"},
}

// ErrNoUSBDrive is returned when no matching drive is attached.
var ErrNoUSBDrive = errors.New("no USB CD drive found")

// USBTransport submits commands to a USB drive through the bulk-only
// mass-storage protocol, bypassing the host kernel's storage driver.
type USBTransport struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epIn   *gousb.InEndpoint
	epOut  *gousb.OutEndpoint
	tag    uint32
	name   string
	log    *logging.Logger
}

// USBDeviceName formats the device string for a vendor/product pair.
func USBDeviceName(vid, pid gousb.ID) string {
	return fmt.Sprintf("usb:%04x:%04x", uint16(vid), uint16(pid))
}

// ParseUSBDeviceName parses "usb:VVVV:PPPP" (hex). "usb" alone means auto-detect
// and yields zero IDs.
func ParseUSBDeviceName(name string) (vid, pid gousb.ID, err error) {
	rest, ok := strings.CutPrefix(name, "usb")
	if !ok {
		return 0, 0, fmt.Errorf("not a USB device name: %q", name)
	}
	if rest == "" {
		return 0, 0, nil
	}
	parts := strings.Split(strings.TrimPrefix(rest, ":"), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("USB device name %q: want usb:VVVV:PPPP", name)
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(parts[0], "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("USB vendor ID %q: %w", parts[0], err)
	}
	p, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("USB product ID %q: %w", parts[1], err)
	}
	return gousb.ID(v), gousb.ID(p), nil
}

// IsUSBDeviceName reports whether name addresses a USB drive.
func IsUSBDeviceName(name string) bool {
	return name == "usb" || strings.HasPrefix(name, "usb:")
}

// OpenUSB opens a USB CD drive.
// If vendorID and productID are 0, KnownDrives is probed.
func OpenUSB(vendorID, productID gousb.ID, log *logging.Logger) (*USBTransport, error) {
	t := &USBTransport{ctx: gousb.NewContext(), tag: 1, log: log}

	driveName, err := t.openDrive(vendorID, productID)
	if err != nil {
		t.Close()
		return nil, err
	}

	// auto-detach is not available on every host
	if err := t.dev.SetAutoDetach(true); err != nil {
		log.Debug("kernel driver auto-detach unavailable", "error", err)
	}

	if t.config, err = t.dev.Config(1); err != nil {
		t.Close()
		return nil, fmt.Errorf("get config: %w", err)
	}
	if t.intf = massStorageInterface(t.config); t.intf == nil {
		t.Close()
		return nil, errors.New("no claimable interface")
	}
	if t.epIn, t.epOut = bulkEndpoints(t.intf); t.epIn == nil || t.epOut == nil {
		t.Close()
		return nil, errors.New("could not find USB bulk endpoints")
	}

	log.Info("opened USB drive", "drive", driveName, "device", t.name,
		"out", fmt.Sprintf("%#02x", uint8(t.epOut.Desc.Address)),
		"in", fmt.Sprintf("%#02x", uint8(t.epIn.Desc.Address)))
	return t, nil
}

// openDrive opens the drive with the given IDs, or the first of KnownDrives
// that is attached, and returns a human name for it.
func (d *USBTransport) openDrive(vid, pid gousb.ID) (string, error) {
	candidates := KnownDrives
	if vid != 0 && pid != 0 {
		candidates = []KnownDrive{{vid, pid, USBDeviceName(vid, pid)}}
	}

	var lastErr error
	for _, c := range candidates {
		dev, err := d.ctx.OpenDeviceWithVIDPID(c.VendorID, c.ProductID)
		if err != nil {
			lastErr = err
			continue
		}
		if dev != nil {
			d.dev = dev
			d.name = USBDeviceName(c.VendorID, c.ProductID)
			return c.Name, nil
		}
	}

	if vid != 0 && pid != 0 {
		if lastErr != nil {
			return "", fmt.Errorf("open device %s: %w", USBDeviceName(vid, pid), lastErr)
		}
		return "", fmt.Errorf("%w: %s", ErrNoUSBDrive, USBDeviceName(vid, pid))
	}
	return "", ErrNoUSBDrive
}

func bulkEndpoints(intf *gousb.Interface) (in *gousb.InEndpoint, out *gousb.OutEndpoint) {
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			if e, err := intf.InEndpoint(ep.Number); err == nil && in == nil {
				in = e
			}
		default:
			if e, err := intf.OutEndpoint(ep.Number); err == nil && out == nil {
				out = e
			}
		}
	}
	return in, out
}

// massStorageInterface claims the mass-storage interface (class 8), or the
// first claimable one for drives that report a vendor-specific class.
func massStorageInterface(config *gousb.Config) *gousb.Interface {
	for _, iface := range config.Desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class != gousb.ClassMassStorage {
				continue
			}
			if intf, err := config.Interface(iface.Number, alt.Alternate); err == nil {
				return intf
			}
		}
	}
	for _, iface := range config.Desc.Interfaces {
		if intf, err := config.Interface(iface.Number, 0); err == nil {
			return intf
		}
	}
	return nil
}

// Device returns "usb:VVVV:PPPP".
func (d *USBTransport) Device() string {
	return d.name
}

// Close releases the interface, config, device and context, innermost
// first. It may be called on a partly opened transport and more than once.
func (d *USBTransport) Close() error {
	var errs []error
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
	}
	if d.config != nil {
		errs = append(errs, d.config.Close())
		d.config = nil
	}
	if d.dev != nil {
		errs = append(errs, d.dev.Close())
		d.dev = nil
	}
	if d.ctx != nil {
		errs = append(errs, d.ctx.Close())
		d.ctx = nil
	}
	d.epIn, d.epOut = nil, nil
	return errors.Join(errs...)
}

// Do runs one command/data/status cycle. A failed command is followed by a
// REQUEST SENSE so the returned error carries the sense key.
func (d *USBTransport) Do(req Request) (*Response, error) {
	resp, err := d.exchange(req)
	if err != nil {
		return nil, &IOError{Op: req.Op, Device: d.name, Err: err}
	}
	if resp.OK() {
		return resp, nil
	}

	sense, err := d.exchange(NewRequest("request sense", []byte{OpRequestSense, 0, 0, 0, requestSenseLength, 0}, requestSenseLength))
	if err == nil && sense.OK() {
		resp.Sense = sense.Transferred()
	}
	return resp, &IOError{Op: req.Op, Device: d.name, Err: resp.checkError()}
}

func (d *USBTransport) exchange(req Request) (*Response, error) {
	if d.dev == nil {
		return nil, errors.New("device closed")
	}

	tag := d.tag
	d.tag++
	cbw, err := BuildCBW(tag, 0, req)
	if err != nil {
		return nil, err
	}

	timeout := req.timeout()
	start := time.Now()

	writeCtx, writeCancel := context.WithTimeout(context.Background(), timeout)
	defer writeCancel()
	n, err := d.epOut.WriteContext(writeCtx, cbw)
	if err != nil {
		return nil, fmt.Errorf("CBW write: %w", err)
	}
	if n != len(cbw) {
		return nil, fmt.Errorf("CBW short write: %d/%d bytes", n, len(cbw))
	}

	resp := &Response{Data: make([]byte, req.DataLen)}
	if req.Direction == FromDevice && req.DataLen > 0 {
		readCtx, readCancel := context.WithTimeout(context.Background(), timeout)
		defer readCancel()
		if _, err := d.epIn.ReadContext(readCtx, resp.Data); err != nil {
			// the device may still send a CSW after a stalled data phase
			d.log.Debug("data phase failed", "op", req.Op, "error", err)
		}
	}

	cswCtx, cswCancel := context.WithTimeout(context.Background(), timeout)
	defer cswCancel()
	cswBuf := make([]byte, CSWSize)
	if _, err := d.epIn.ReadContext(cswCtx, cswBuf); err != nil {
		return nil, fmt.Errorf("CSW read: %w", err)
	}
	csw, err := ParseCSW(cswBuf, tag)
	if err != nil {
		return nil, err
	}

	resp.Duration = time.Since(start)
	resp.Resid = int(csw.Residue)
	switch csw.Status {
	case StatusPassed:
	case StatusFailed:
		resp.Status = statusCheckCondition
		resp.Info = Info(InfoCheck)
	default:
		return nil, fmt.Errorf("phase error (CSW status %d)", csw.Status)
	}
	return resp, nil
}

// statusCheckCondition is the SCSI status byte for CHECK CONDITION.
const statusCheckCondition = 0x02
