// Package lockfile reads the connection descriptor the game client writes
// while it is running.
package lockfile

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"lol-autopilot/internal/constants"
)

var (
	ErrNotFound  = errors.New("lockfile not found")
	ErrMalformed = errors.New("malformed lockfile")
)

// Descriptor is the parsed lockfile: name:pid:port:password:protocol.
type Descriptor struct {
	PID      int
	Port     int
	Password string
	Protocol string
}

func (d Descriptor) BaseURL() string {
	return fmt.Sprintf("%s://127.0.0.1:%d", d.Protocol, d.Port)
}

func (d Descriptor) AuthHeader() string {
	creds := constants.LockfileUser + ":" + d.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// DefaultPath is the lockfile location of a default client install.
func DefaultPath() string {
	if runtime.GOOS == "windows" {
		return "C:/Riot Games/League of Legends/lockfile"
	}
	return "/Applications/League of Legends.app/Contents/LoL/lockfile"
}

func Parse(path string) (Descriptor, error) {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w at %s: open the client or set LOCKFILE_PATH", ErrNotFound, path)
		}
		return Descriptor{}, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return ParseContents(string(data))
}

func ParseContents(contents string) (Descriptor, error) {
	parts := strings.Split(strings.TrimSpace(contents), ":")
	if len(parts) < 5 {
		return Descriptor{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformed, len(parts))
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: pid %q", ErrMalformed, parts[1])
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: port %q", ErrMalformed, parts[2])
	}
	if parts[3] == "" {
		return Descriptor{}, fmt.Errorf("%w: empty password", ErrMalformed)
	}

	protocol := parts[4]
	if protocol == "" {
		protocol = "https"
	}

	return Descriptor{PID: pid, Port: port, Password: parts[3], Protocol: protocol}, nil
}
