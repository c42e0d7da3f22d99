package validation

import "fmt"

// DefaultMinFreeBytes is the free space the journal volume must keep.
const DefaultMinFreeBytes = 16 << 20

// DiskSpace reports the size of a volume.
type DiskSpace struct {
	Total int64
	Free  int64 // available to the current user
}

// GetDiskSpace returns the space of the volume holding path.
func GetDiskSpace(path string) (DiskSpace, error) {
	total, free, err := getDiskSpace(path)
	if err != nil {
		return DiskSpace{}, fmt.Errorf("disk space of %s: %w", path, err)
	}
	return DiskSpace{Total: total, Free: free}, nil
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
