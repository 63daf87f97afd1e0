package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 18

var statusLabels = map[statusKind]string{
	statusInfo:  "INFO",
	statusOK:    "OK",
	statusWarn:  "WARN",
	statusError: "FAIL",
}

var statusColors = map[statusKind]string{
	statusInfo:  ansiBlue,
	statusOK:    ansiGreen,
	statusWarn:  ansiYellow,
	statusError: ansiRed,
}

// renderStatusLine formats "  label: [KIND] message", colored when the
// destination is a terminal.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	status := "[" + statusLabels[kind] + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if colorize {
		return statusColors[kind] + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
