// Package platform reports which platforms can host the native pigpio layer
// and how shared libraries are named there.
package platform

import (
	"fmt"
	"runtime"
)

// SupportsNative indicates whether the purego-backed pigpio layer can be built
// for this platform. libpigpio only exists for Linux, and purego callbacks
// need a 64-bit amd64 or arm64 target.
const SupportsNative = runtime.GOOS == "linux" &&
	(runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64")

// LibraryExtension is the file extension for shared libraries on this platform.
var LibraryExtension string

// LibraryPrefix is the prefix for shared library names on this platform.
var LibraryPrefix string

func init() {
	switch runtime.GOOS {
	case "darwin":
		LibraryExtension = ".dylib"
		LibraryPrefix = "lib"
	case "windows":
		LibraryExtension = ".dll"
		LibraryPrefix = ""
	default: // linux, freebsd, etc.
		LibraryExtension = ".so"
		LibraryPrefix = "lib"
	}
}

// FormatLibraryName returns the platform-specific library filename.
// If version is 0, returns the unversioned library name.
//
// Examples:
//   - Linux:   FormatLibraryName("pigpio", 1) -> "libpigpio.so.1"
//   - macOS:   FormatLibraryName("pigpio", 1) -> "libpigpio.1.dylib"
//   - Windows: FormatLibraryName("pigpio", 1) -> "pigpio-1.dll"
func FormatLibraryName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("%s%s.%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s%s-%d%s", LibraryPrefix, name, version, LibraryExtension)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	default: // linux, freebsd
		if version > 0 {
			return fmt.Sprintf("%s%s%s.%d", LibraryPrefix, name, LibraryExtension, version)
		}
		return fmt.Sprintf("%s%s%s", LibraryPrefix, name, LibraryExtension)
	}
}
