package psu

import (
	"errors"
	"io"
)

// handleOpenError closes what Open had acquired and joins any error from
// closing with the original error. port is nil when opening it failed.
func handleOpenError(port io.Closer, logCloser io.Closer, err error) error {
	if port != nil {
		if e := port.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}
	if e := logCloser.Close(); e != nil {
		err = errors.Join(err, e)
	}
	return err
}
