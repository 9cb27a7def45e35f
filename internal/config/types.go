// Package config holds the validated run configuration and the defaults it is
// built from.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StopServicesMode selects when a service-backed target is stopped before it
// is killed.
type StopServicesMode int

const (
	StopServicesNone StopServicesMode = iota
	StopServicesAll
	StopServicesRecovery
)

func (m StopServicesMode) String() string {
	switch m {
	case StopServicesAll:
		return "all"
	case StopServicesRecovery:
		return "recovery"
	default:
		return "none"
	}
}

// ParseStopServicesMode parses none, all or recovery, ignoring case.
func ParseStopServicesMode(s string) (StopServicesMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return StopServicesNone, nil
	case "all":
		return StopServicesAll, nil
	case "recovery":
		return StopServicesRecovery, nil
	}
	return StopServicesNone, fmt.Errorf("unknown stop services option %q", s)
}

// OutputMode selects which report lines are written.
type OutputMode int

const (
	// OutputResult writes one summary line per target.
	OutputResult OutputMode = iota
	// OutputProgress writes the per-step messages and no summary.
	OutputProgress
)

func (m OutputMode) String() string {
	if m == OutputProgress {
		return "progress"
	}
	return "result"
}

// ParseOutputMode parses progress or result, ignoring case.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "progress":
		return OutputProgress, nil
	case "result":
		return OutputResult, nil
	}
	return OutputResult, fmt.Errorf("unknown output type %q", s)
}

// Configuration is the fully validated input of a run.
type Configuration struct {
	PathPatterns     []*regexp.Regexp
	ArgumentPatterns []*regexp.Regexp
	StopServices     StopServicesMode
	StopTimeout      time.Duration
	DryRun           bool
	Output           OutputMode
	Verbose          bool
}

// NeedsServices reports whether service correlation is required.
func (c Configuration) NeedsServices() bool {
	return c.StopServices != StopServicesNone
}
