// Package display renders snapshot records and reservations for the terminal.
package display

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/thatjpcsguy/crossport/internal/registry"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// Record prints the detail block for one process bound to a port. branch
// is shown next to the project root when non-empty.
func Record(w io.Writer, rec snapshot.ProcessRecord, branch string) {
	fmt.Fprintf(w, "%s\n", green(fmt.Sprintf("port %d", rec.Port)))
	field(w, "pid", fmt.Sprint(rec.PID))
	field(w, "user", rec.User)
	field(w, "cmd", rec.Command)
	field(w, "cwd", rec.Cwd)

	if rec.ProjectRoot != "" {
		project := rec.ProjectRoot + " (git"
		if branch != "" {
			project += ": " + branch
		}
		field(w, "project", project+")")
	}
	if rec.Container != "" {
		field(w, "container", rec.Container)
	}

	field(w, "kind", cyan("["+rec.Kind.String()+"]"))
	fmt.Fprintln(w)
}

func field(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %-9s: %s\n", name, value)
}

// Free prints the line for a port nothing listens on
func Free(w io.Writer, port uint16) {
	fmt.Fprintf(w, "Port %d: free\n", port)
}

// Scan prints a table of records, one row each
func Scan(w io.Writer, records []snapshot.ProcessRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No listening ports found in range.")
		return
	}

	row := "%-6v %-8v %-8v %-8v %-8v %v\n"
	fmt.Fprintf(w, row, "PORT", "PID", "USER", "CMD", "KIND", "PROJ")
	for _, rec := range records {
		fmt.Fprintf(w, row,
			rec.Port,
			rec.PID,
			Truncate(rec.User, 8),
			Truncate(rec.Command, 8),
			rec.Kind,
			Project(rec),
		)
	}
}

// Project is the short project label of a record: the container name
// when mapped, otherwise the base name of its project root.
func Project(rec snapshot.ProcessRecord) string {
	if rec.Container != "" {
		return rec.Container
	}
	if rec.ProjectRoot == "" {
		return ""
	}
	return filepath.Base(rec.ProjectRoot)
}

// Truncate shortens s to max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// Reservations prints the reserved ports, flagging expired entries
func Reservations(w io.Writer, reservations []registry.Reservation, now time.Time) {
	if len(reservations) == 0 {
		fmt.Fprintln(w, "No port reservations found")
		return
	}

	fmt.Fprintln(w, "Port Reservations")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)

	for _, res := range reservations {
		fmt.Fprintf(w, "%s\n", green(res.Name))
		fmt.Fprintf(w, "  Port:     %d\n", res.Port)
		fmt.Fprintf(w, "  Created:  %s\n", res.CreatedAt.Local().Format("2006-01-02 15:04:05"))

		if res.Expired(now) {
			daysAgo := int(now.Sub(res.ExpiresAt).Hours() / 24)
			fmt.Fprintf(w, "  Expires:  %s\n", red(fmt.Sprintf("expired %d days ago", daysAgo)))
		} else {
			daysLeft := int(res.ExpiresAt.Sub(now).Hours() / 24)
			fmt.Fprintf(w, "  Expires:  in %d days\n", daysLeft)
		}

		fmt.Fprintln(w)
	}
}

// Skipped prints a yellow notice for a record the kill command passed over
func Skipped(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, yellow(fmt.Sprintf(format, args...)))
}
