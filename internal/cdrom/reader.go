// Package cdrom reads a disc's table of contents, ISRCs and media catalog
// number from a drive through a scsi.Transport.
package cdrom

import (
	"errors"
	"fmt"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/logging"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

var (
	// ErrNoDevice means no drive could be found to read from.
	ErrNoDevice = errors.New("cdrom: no cd-rom device found")

	// ErrUnsupported means the platform cannot perform a requested feature.
	ErrUnsupported = errors.New("cdrom: not supported")
)

// Read issues READ TOC and, when requested, one READ SUB-CHANNEL ISRC per
// track in ascending order followed by one READ SUB-CHANNEL MCN. Commands
// are sent one at a time; the first failure aborts the read.
//
// The transport stays open; closing it is the caller's job.
func Read(t scsi.Transport, features Feature, opts ...Option) (*cdda.TableOfContents, error) {
	return read(t, features, newOptions(opts))
}

func read(t scsi.Transport, features Feature, o Options) (*cdda.TableOfContents, error) {
	log := o.Logger.WithValues("device", t.Device())

	resp, err := submit(t, o, log, scsi.NewRequest("retrieve table of contents", scsi.BuildReadTOC(o.MSF), scsi.TOCAllocationLength))
	if err != nil {
		return nil, err
	}
	toc, err := cdda.DecodeTOC(resp.Transferred(), o.MSF)
	if err != nil {
		return nil, fmt.Errorf("retrieve table of contents on %s: %w", t.Device(), err)
	}
	toc.Device = t.Device()
	log.Debug("table of contents", "first", toc.First, "last", toc.Last, "leadout", toc.LeadOut().Address)

	if features.Has(FeatureISRC) {
		for n := toc.First; n <= toc.Last; n++ {
			op := fmt.Sprintf("retrieve ISRC for track %d", n)
			resp, err := submit(t, o, log, scsi.NewRequest(op, scsi.BuildReadISRC(byte(n)), scsi.SubChannelISRCLength))
			if err != nil {
				return nil, err
			}
			isrc, err := cdda.DecodeISRC(resp.Transferred())
			if err != nil {
				return nil, fmt.Errorf("%s on %s: %w", op, t.Device(), err)
			}
			toc.SetISRC(n, isrc)
		}
	}

	if features.Has(FeatureMCN) {
		const op = "retrieve media catalog number"
		resp, err := submit(t, o, log, scsi.NewRequest(op, scsi.BuildReadMCN(), scsi.SubChannelMCNLength))
		if err != nil {
			return nil, err
		}
		if toc.MCN, err = cdda.DecodeMCN(resp.Transferred()); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", op, t.Device(), err)
		}
	}

	if features.Has(FeatureCDText) {
		log.Debug("CD-TEXT requested, not implemented")
	}

	return toc, nil
}

func submit(t scsi.Transport, o Options, log *logging.Logger, req scsi.Request) (*scsi.Response, error) {
	req.Timeout = o.Timeout
	log.Debug("sending command", "op", req.Op, "opcode", fmt.Sprintf("%#02x", req.CDB[0]), "length", req.DataLen)

	resp, err := t.Do(req)
	if resp != nil {
		log.Trace("command result", "op", req.Op,
			"status", resp.Status, "host", resp.HostStatus, "driver", resp.DriverStatus,
			"resid", resp.Resid, "duration", resp.Duration, "io", resp.Info.IOMode())
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DriveInfo identifies a drive and reports whether it holds a readable disc.
type DriveInfo struct {
	Device string
	scsi.InquiryData
	Ready bool
	// NotReady is the sense error TEST UNIT READY reported, if any.
	NotReady error
}

// Identify sends INQUIRY and TEST UNIT READY. A drive that is not ready is
// not an error.
func Identify(t scsi.Transport, opts ...Option) (DriveInfo, error) {
	o := newOptions(opts)
	log := o.Logger.WithValues("device", t.Device())
	info := DriveInfo{Device: t.Device()}

	resp, err := submit(t, o, log, scsi.NewRequest("identify drive", scsi.BuildInquiry(), scsi.InquiryLength))
	if err != nil {
		return info, err
	}
	info.InquiryData = scsi.ParseInquiry(resp.Transferred())

	_, err = submit(t, o, log, scsi.NewRequest("test unit ready", scsi.BuildTestUnitReady(), 0))
	var sense *scsi.SenseError
	switch {
	case err == nil:
		info.Ready = true
	case errors.As(err, &sense):
		info.NotReady = sense
	default:
		return info, err
	}
	return info, nil
}
