package sentiment

import (
	"os"
	"path/filepath"
	"runtime"
)

// libraryNames maps GOOS to the ONNX runtime shared library filename.
var libraryNames = map[string]string{
	"linux":  "libonnxruntime.so",
	"darwin": "libonnxruntime.dylib",
}

// libraryName returns the shared library filename for the given OS.
func libraryName(goos string) string {
	if name, ok := libraryNames[goos]; ok {
		return name
	}
	return "libonnxruntime.so" // fallback
}

// managedInstallDir returns the directory where a locally installed ONNX
// runtime is expected.
func managedInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "feelwrite", "lib")
}

// RuntimeLibraryPath returns the path to the ONNX runtime library.
// Checks in order:
//  1. ONNX_PATH environment variable
//  2. Managed install at ~/.config/feelwrite/lib/
//
// Returns empty string if not found.
func RuntimeLibraryPath() string {
	if envPath := os.Getenv("ONNX_PATH"); envPath != "" {
		return envPath
	}

	managedPath := filepath.Join(managedInstallDir(), libraryName(runtime.GOOS))
	if _, err := os.Stat(managedPath); err == nil {
		return managedPath
	}

	return ""
}

// RuntimeAvailable reports whether an ONNX runtime library was found.
func RuntimeAvailable() bool {
	return RuntimeLibraryPath() != ""
}
