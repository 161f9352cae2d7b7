package main

import (
	"fmt"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
)

func checkKind(check api.PreflightView) statusKind {
	switch {
	case check.Passed:
		return statusOK
	case check.Fatal:
		return statusError
	default:
		return statusWarn
	}
}

func serverStateLine(status api.ServerStatus, colorize bool) string {
	if status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		return renderStatusLine("Server", statusOK, detail, colorize)
	}
	return renderStatusLine("Server", statusInfo, "Not running (start it with 'psychds wizard')", colorize)
}

func sessionCountDetail(count int) string {
	if count == 1 {
		return "1 draft session"
	}
	return fmt.Sprintf("%d draft sessions", count)
}
