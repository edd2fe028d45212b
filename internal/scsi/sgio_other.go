//go:build !linux

package scsi

// SGIO is only available on Linux.
type SGIO struct{}

// OpenSGIO reports ErrUnsupported outside Linux.
func OpenSGIO(path string) (*SGIO, error) {
	return nil, &IOError{Op: "open device", Device: path, Err: ErrUnsupported}
}

func (s *SGIO) Device() string { return "" }

func (s *SGIO) Close() error { return nil }

func (s *SGIO) Do(req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return nil, &IOError{Op: req.Op, Err: ErrUnsupported}
}
