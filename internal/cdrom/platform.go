package cdrom

import (
	"fmt"

	"github.com/binaryphile/cdtoc/internal/cdda"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

// Platform is one way of reaching optical drives on the running system.
type Platform interface {
	// Features lists what ReadTableOfContents can deliver.
	Features() Feature
	// DefaultDevice is tried first when no device is named.
	DefaultDevice() string
	// DeviceByIndex returns the n-th attached drive, most preferred first.
	// It fails with ErrNoDevice when n is out of range.
	DeviceByIndex(n int) (string, error)
	// Open resolves device ("" for the default) and opens a transport to it.
	Open(device string) (scsi.Transport, error)
	// ReadTableOfContents opens device, reads it and closes it again.
	ReadTableOfContents(device string, features Feature) (*cdda.TableOfContents, error)
}

// checkFeatures rejects anything the platform cannot deliver. CD-TEXT is
// always accepted and ignored.
func checkFeatures(p Platform, features Feature) error {
	if missing := features &^ (p.Features() | FeatureReadTOC | FeatureCDText); missing != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupported, missing)
	}
	return nil
}

func readTableOfContents(p Platform, device string, features Feature, o Options) (*cdda.TableOfContents, error) {
	if err := checkFeatures(p, features); err != nil {
		return nil, err
	}

	t, err := p.Open(device)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	return read(t, features, o)
}
