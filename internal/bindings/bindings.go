//go:build linux && (amd64 || arm64)

// Package bindings handles loading libpigpio and registering the function
// bindings the callback bridge needs using purego.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/gopigpio/internal/platform"
)

// ErrNotLoaded is returned when pigpio functions are called before Load().
var ErrNotLoaded = errors.New("pigpio: libpigpio not loaded")

// ErrLibraryNotFound is returned when libpigpio cannot be found.
var ErrLibraryNotFound = errors.New("pigpio: libpigpio not found")

// LibDirEnv names the environment variable that overrides the library search.
const LibDirEnv = "PIGPIO_LIB_DIR"

var libVersions = []int{1}

var (
	libPigpio uintptr
	libPath   string
	searchDir string

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

// Function bindings. Signatures follow pigpio.h.
var (
	gpioInitialise       func() int32
	gpioTerminate        func()
	gpioVersion          func() uint32
	gpioHardwareRevision func() uint32

	// int gpioSetAlertFunc(unsigned user_gpio, gpioAlertFunc_t f)
	gpioSetAlertFunc func(userGPIO uint32, f uintptr) int32
	// int gpioSetISRFunc(unsigned gpio, unsigned edge, int timeout, gpioISRFunc_t f)
	gpioSetISRFunc func(gpio, edge uint32, timeout int32, f uintptr) int32
	// int eventSetFunc(unsigned event, eventFunc_t f)
	eventSetFunc func(event uint32, f uintptr) int32
	// int eventTrigger(unsigned event)
	eventTrigger func(event uint32) int32
	// int gpioSetSignalFunc(unsigned signum, gpioSignalFunc_t f)
	gpioSetSignalFunc func(signum uint32, f uintptr) int32
)

// IsLoaded returns true if libpigpio has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Path returns where libpigpio was loaded from, or "" if it is not loaded.
func Path() string {
	return libPath
}

// Load loads libpigpio and registers all function bindings.
// It is safe to call multiple times; subsequent calls are no-ops.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	path, err := FindLibrary("pigpio", libVersions)
	if err != nil {
		// Let the dynamic loader try its own search path.
		path = platform.FormatLibraryName("pigpio", libVersions[0])
	}

	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLibraryNotFound, path, err)
	}
	libPigpio = lib
	libPath = path

	purego.RegisterLibFunc(&gpioInitialise, lib, "gpioInitialise")
	purego.RegisterLibFunc(&gpioTerminate, lib, "gpioTerminate")
	purego.RegisterLibFunc(&gpioVersion, lib, "gpioVersion")
	purego.RegisterLibFunc(&gpioHardwareRevision, lib, "gpioHardwareRevision")
	purego.RegisterLibFunc(&gpioSetAlertFunc, lib, "gpioSetAlertFunc")
	purego.RegisterLibFunc(&gpioSetISRFunc, lib, "gpioSetISRFunc")
	purego.RegisterLibFunc(&gpioSetSignalFunc, lib, "gpioSetSignalFunc")

	// The event API appeared in pigpio V66.
	registerOptionalLibFunc(&eventSetFunc, lib, "eventSetFunc")
	registerOptionalLibFunc(&eventTrigger, lib, "eventTrigger")
	return nil
}

func registerOptionalLibFunc(fptr any, handle uintptr, name string) {
	defer func() {
		_ = recover() // purego.RegisterLibFunc panics if symbol is missing
	}()
	purego.RegisterLibFunc(fptr, handle, name)
}

// SetSearchDir restricts the library search to dir, taking precedence over
// PIGPIO_LIB_DIR. It must be called before Load.
func SetSearchDir(dir string) {
	searchDir = dir
}

// FindLibrary searches for a library and returns its full path.
// If a search dir or PIGPIO_LIB_DIR is set only that directory is searched.
func FindLibrary(name string, versions []int) (string, error) {
	var names []string
	for _, ver := range versions {
		names = append(names, platform.FormatLibraryName(name, ver))
	}
	names = append(names, platform.FormatLibraryName(name, 0))

	dir := searchDir
	if dir == "" {
		dir = os.Getenv(LibDirEnv)
	}
	if dir != "" {
		for _, n := range names {
			path := filepath.Join(dir, n)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("%w: %s=%s does not contain %s", ErrLibraryNotFound, LibDirEnv, dir, names[0])
	}

	for _, searchPath := range LibrarySearchPaths() {
		for _, n := range names {
			path := filepath.Join(searchPath, n)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// LibrarySearchPaths returns the directories searched for libpigpio.
func LibrarySearchPaths() []string {
	var paths []string
	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		paths = append(paths, filepath.SplitList(ldPath)...)
	}
	paths = append(paths,
		"/usr/local/lib",
		"/usr/lib",
		"/lib",
	)
	switch runtime.GOARCH {
	case "arm64":
		paths = append(paths, "/usr/lib/aarch64-linux-gnu", "/lib/aarch64-linux-gnu")
	case "amd64":
		paths = append(paths, "/usr/lib/x86_64-linux-gnu", "/lib/x86_64-linux-gnu")
	}
	return paths
}

// Initialise calls gpioInitialise and returns its result (pigpio version or
// a negative error code).
func Initialise() (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	return gpioInitialise(), nil
}

// Terminate calls gpioTerminate, which stops every callback thread.
func Terminate() {
	if loaded {
		gpioTerminate()
	}
}

// Version returns the pigpio library version, or 0 if not loaded.
func Version() uint32 {
	if !loaded {
		return 0
	}
	return gpioVersion()
}

// HardwareRevision returns the board revision, or 0 if not loaded.
func HardwareRevision() uint32 {
	if !loaded {
		return 0
	}
	return gpioHardwareRevision()
}

// SetAlertFunc installs or, with cb == 0, removes a level alert callback.
func SetAlertFunc(userGPIO uint32, cb uintptr) (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	return gpioSetAlertFunc(userGPIO, cb), nil
}

// SetISRFunc installs or, with cb == 0, removes an edge interrupt callback.
func SetISRFunc(gpio, edge uint32, timeout int32, cb uintptr) (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	return gpioSetISRFunc(gpio, edge, timeout, cb), nil
}

// SetEventFunc installs or, with cb == 0, removes a generic event callback.
func SetEventFunc(event uint32, cb uintptr) (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	if eventSetFunc == nil {
		return 0, errors.New("pigpio: eventSetFunc symbol not available in libpigpio")
	}
	return eventSetFunc(event, cb), nil
}

// TriggerEvent signals a generic event.
func TriggerEvent(event uint32) (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	if eventTrigger == nil {
		return 0, errors.New("pigpio: eventTrigger symbol not available in libpigpio")
	}
	return eventTrigger(event), nil
}

// SetSignalFunc installs or, with cb == 0, removes an OS signal callback.
func SetSignalFunc(signum uint32, cb uintptr) (int32, error) {
	if !loaded {
		return 0, ErrNotLoaded
	}
	return gpioSetSignalFunc(signum, cb), nil
}
