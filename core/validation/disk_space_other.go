//go:build !linux && !darwin && !freebsd && !windows

package validation

import "errors"

func getDiskSpace(string) (int64, int64, error) {
	return 0, 0, errors.New("disk space not supported on this platform")
}
