//go:build linux || darwin || freebsd

package validation

import "golang.org/x/sys/unix"

func getDiskSpace(path string) (total int64, free int64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}

	// Bavail, not Bfree: space reserved for root is not ours to use.
	total = int64(stat.Blocks) * int64(stat.Bsize)
	free = int64(stat.Bavail) * int64(stat.Bsize)
	return total, free, nil
}
