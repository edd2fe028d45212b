//go:build !linux

package cdrom

import (
	"fmt"
	"runtime"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

// unsupported stands in for platforms without a passthrough implementation.
type unsupported struct{}

// Native returns the platform for the running system.
func Native(opts ...Option) Platform {
	return unsupported{}
}

func (unsupported) Features() Feature     { return 0 }
func (unsupported) DefaultDevice() string { return "" }

func (unsupported) DeviceByIndex(int) (string, error) {
	return "", fmt.Errorf("%w: device enumeration on %s", ErrUnsupported, runtime.GOOS)
}

func (unsupported) Open(string) (scsi.Transport, error) {
	return nil, fmt.Errorf("%w: SCSI passthrough on %s", ErrUnsupported, runtime.GOOS)
}

func (unsupported) ReadTableOfContents(string, Feature) (*cdda.TableOfContents, error) {
	return nil, fmt.Errorf("%w: SCSI passthrough on %s", ErrUnsupported, runtime.GOOS)
}
