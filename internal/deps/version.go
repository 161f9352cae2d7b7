package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const versionProbeTimeout = 5 * time.Second

// ProbeVersion runs "<command> --version" and extracts the first version
// token from its output.
func ProbeVersion(ctx context.Context, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, command, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", command, err)
	}
	version := ParseVersionOutput(string(output))
	if version == "" {
		return "", fmt.Errorf("no version token in %s --version output", command)
	}
	return version, nil
}

// ParseVersionOutput extracts the first major.minor[.patch] token from tool
// output. Trailing non-numeric characters on a token are ignored, so
// "2.19.2-1ubuntu1" parses as "2.19.2".
func ParseVersionOutput(output string) string {
	for _, line := range strings.Split(output, "\n") {
		for _, field := range strings.Fields(line) {
			if version := parseVersionToken(field); version != "" {
				return version
			}
		}
	}
	return ""
}

func parseVersionToken(token string) string {
	token = strings.TrimPrefix(token, "v")
	parts := strings.SplitN(token, ".", 4)
	if len(parts) < 2 {
		return ""
	}
	numbers := make([]string, 0, 3)
	for i, part := range parts {
		if i >= 3 {
			break
		}
		digits := leadingDigits(part)
		if digits == "" {
			break
		}
		numbers = append(numbers, digits)
		// A part with a non-numeric suffix ends the version token.
		if digits != part {
			break
		}
	}
	if len(numbers) < 2 {
		return ""
	}
	return strings.Join(numbers, ".")
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}

// CompareVersions compares two dotted version strings numerically. It
// returns -1, 0, or 1 as a is lower than, equal to, or higher than b.
// Missing segments compare as zero.
func CompareVersions(a, b string) int {
	segsA := strings.Split(a, ".")
	segsB := strings.Split(b, ".")
	length := len(segsA)
	if len(segsB) > length {
		length = len(segsB)
	}
	for i := 0; i < length; i++ {
		numA := versionSegment(segsA, i)
		numB := versionSegment(segsB, i)
		switch {
		case numA < numB:
			return -1
		case numA > numB:
			return 1
		}
	}
	return 0
}

func versionSegment(segments []string, index int) int {
	if index >= len(segments) {
		return 0
	}
	digits := leadingDigits(strings.TrimSpace(segments[index]))
	if digits == "" {
		return 0
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return value
}
