package platform

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// OSReleasePath is where systemd-era distributions describe themselves.
const OSReleasePath = "/etc/os-release"

// Current returns the runtime.GOOS value ("darwin", "windows", "linux", …).
func Current() string {
	return runtime.GOOS
}

// ExpandPath expands a leading "~/" and environment variables in path.
func ExpandPath(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// ReadOSRelease parses an os-release file into its KEY=value pairs.
// Quoted values are unquoted; comments and blank lines are ignored.
func ReadOSRelease(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	release := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		release[key] = strings.Trim(value, `"'`)
	}
	return release, scanner.Err()
}

// ArchBased reports whether the release describes Arch Linux or a derivative
// (Manjaro, EndeavourOS, …), i.e. a system where pacman and the AUR apply.
func ArchBased(release map[string]string) bool {
	if release["ID"] == "arch" {
		return true
	}
	return slices.Contains(strings.Fields(release["ID_LIKE"]), "arch")
}
