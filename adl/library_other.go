//go:build !windows

package adl

import "fmt"

// LoadLibrary always fails: ADL ships only as a Windows DLL.
func LoadLibrary() (Library, error) {
	return nil, fmt.Errorf("%w: %s not supported on this platform", ErrLibraryUnavailable, libraryNames[0])
}
