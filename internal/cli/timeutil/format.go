// Package timeutil formats timestamps for CLI listings.
package timeutil

import (
	"fmt"
	"time"
)

const displayFormat = "2006-01-02 15:04:05"

// Display renders a timestamp in local time, or "never" when nil.
func Display(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(displayFormat)
}

// Ago renders how long ago t was, with a single coarse unit.
func Ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	}
}
