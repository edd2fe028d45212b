package cdrom

import (
	"time"

	"github.com/binaryphile/cdtoc/internal/logging"
	"github.com/binaryphile/cdtoc/internal/scsi"
)

// Defaults
const (
	DefaultDevice        = "/dev/cdrom"
	DefaultDriveInfoPath = "/proc/sys/dev/cdrom/info"
)

type Options struct {
	Logger        *logging.Logger
	Timeout       time.Duration // per command
	MSF           bool          // read TOC addresses as minute/second/frame
	DefaultDevice string
	DriveInfoPath string
}

type Option func(*Options)

func newOptions(opts []Option) Options {
	o := Options{
		Logger:        logging.Discard(),
		Timeout:       scsi.DefaultTimeout,
		DefaultDevice: DefaultDevice,
		DriveInfoPath: DefaultDriveInfoPath,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

func WithLogger(logger *logging.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTimeout bounds each command sent to the drive. Zero restores the default.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout <= 0 {
			timeout = scsi.DefaultTimeout
		}
		o.Timeout = timeout
	}
}

func WithMSF(msf bool) Option {
	return func(o *Options) {
		o.MSF = msf
	}
}

func WithDefaultDevice(device string) Option {
	return func(o *Options) {
		o.DefaultDevice = device
	}
}

func WithDriveInfoPath(path string) Option {
	return func(o *Options) {
		o.DriveInfoPath = path
	}
}
