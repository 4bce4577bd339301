package opcontrol

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ControlInfo is written to bouncer.json so CLI commands can find a
// running supervisor's control socket regardless of which directory
// they're invoked from.
type ControlInfo struct {
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	LogPath    string    `json:"log_path"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

// controlInfoFile is the name of the discovery file inside the project's
// .bouncer directory.
const controlInfoFile = "bouncer.json"

// projectMarkers identify a project root when walking up from the
// current directory.
var projectMarkers = []string{".git", ".bouncer"}

// FindProjectRoot walks up from startDir looking for a project marker.
// Returns startDir's absolute form if no marker is found.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	dir := absDir
	for {
		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir
		}
		dir = parent
	}
}

// FindControlInfo searches for bouncer.json starting from the project
// root containing startDir.
func FindControlInfo(startDir string) (*ControlInfo, error) {
	root := FindProjectRoot(startDir)
	path := ControlInfoPath(root)
	info, err := ReadControlInfo(path)
	if err == nil {
		return info, nil
	}
	return nil, fmt.Errorf("bouncer not running (checked %s)", path)
}

// WriteControlInfo writes the discovery file to path.
func WriteControlInfo(path string, info *ControlInfo) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal control info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write control info: %w", err)
	}
	return nil
}

// ReadControlInfo reads the discovery file from path.
func ReadControlInfo(path string) (*ControlInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read control info: %w", err)
	}
	var info ControlInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal control info: %w", err)
	}
	return &info, nil
}

// RemoveControlInfo removes the discovery file, ignoring a not-exist error.
func RemoveControlInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove control info: %w", err)
	}
	return nil
}

// ControlInfoPath returns the path to bouncer.json under projectRoot's
// .bouncer directory.
func ControlInfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".bouncer", controlInfoFile)
}
