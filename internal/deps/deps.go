package deps

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Requirement defines an external tool the wizard relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	MinVersion  string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	MinVersion  string
	Available   bool
	Path        string
	Version     string
	Detail      string
}

// VersionMismatch reports whether the dependency was found but below its
// minimum version. Mismatches warn; they never block startup.
func (s Status) VersionMismatch() bool {
	return s.Available && s.MinVersion != "" && s.Version != "" &&
		CompareVersions(s.Version, s.MinVersion) < 0
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Requirements carrying a minimum version are probed for their version string.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
			MinVersion:  strings.TrimSpace(req.MinVersion),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path

		if status.MinVersion != "" {
			version, probeErr := ProbeVersion(ctx, path)
			if probeErr != nil {
				status.Detail = fmt.Sprintf("version probe failed: %v", probeErr)
			} else {
				status.Version = version
				if status.VersionMismatch() {
					status.Detail = fmt.Sprintf("version %s is below minimum %s", version, status.MinVersion)
				}
			}
		}
		results = append(results, status)
	}
	return results
}

// PandocRequirement describes the optional pandoc dependency used for PDF
// codebook rendering.
func PandocRequirement(binary string) Requirement {
	if strings.TrimSpace(binary) == "" {
		binary = "pandoc"
	}
	return Requirement{
		Name:        "Pandoc",
		Command:     binary,
		Description: "Renders PDF codebooks from markdown",
		Optional:    true,
		MinVersion:  "2.0",
	}
}

// BrowserRequirement describes the platform opener used to launch the wizard
// URL. An explicit command overrides the platform default.
func BrowserRequirement(command string) Requirement {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		switch runtime.GOOS {
		case "darwin":
			cmd = "open"
		case "windows":
			cmd = "rundll32"
		default:
			cmd = "xdg-open"
		}
	}
	return Requirement{
		Name:        "Browser opener",
		Command:     cmd,
		Description: "Opens the wizard URL in a browser",
		Optional:    true,
	}
}
