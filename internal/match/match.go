// Package match selects the processes a run acts on.
package match

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"prockill/internal/cmdline"
	"prockill/internal/config"
	"prockill/internal/snapshot"
)

// Candidate is a process selected for termination, with its derived arguments
// and the service it backs, if any.
type Candidate struct {
	Process   snapshot.ProcessRecord
	Arguments string
	Service   *snapshot.ServiceRecord
}

// IsService reports whether a service is attached.
func (c Candidate) IsService() bool {
	return c.Service != nil
}

// Matcher filters and orders snapshot processes.
type Matcher struct {
	// SelfPID is excluded from every result.
	SelfPID int
}

// New returns a Matcher that excludes the current process.
func New() *Matcher {
	return &Matcher{SelfPID: os.Getpid()}
}

// Match returns the processes of snap accepted by cfg, ordered by directory,
// then service-backed before plain processes, then file name.
func (m *Matcher) Match(snap snapshot.Snapshot, cfg config.Configuration) []Candidate {
	var out []Candidate
	for _, proc := range snap.Processes {
		if proc.PID == m.SelfPID || proc.CommandLine == "" {
			continue
		}
		args := cmdline.SplitArguments(proc.CommandLine, proc.ExecutablePath)
		if !anyMatch(cfg.PathPatterns, proc.ExecutablePath) || !anyMatch(cfg.ArgumentPatterns, args) {
			continue
		}
		out = append(out, Candidate{
			Process:   proc,
			Arguments: args,
			Service:   FindService(snap.Services, proc.ExecutablePath),
		})
	}

	Sort(out)
	return out
}

// FindService returns the first running service whose executable path contains
// processPath, or nil.
func FindService(services []snapshot.ServiceRecord, processPath string) *snapshot.ServiceRecord {
	if processPath == "" {
		return nil
	}
	for i := range services {
		svc := services[i]
		if svc.IsRunning && svc.ExecutablePath != "" && strings.Contains(svc.ExecutablePath, processPath) {
			return &svc
		}
	}
	return nil
}

// Sort orders candidates in place by directory, service attachment and file
// name. Equal keys keep their snapshot order.
func Sort(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(candidates[i], candidates[j])
	})
}

// Less is the candidate ordering used by Sort.
func Less(a, b Candidate) bool {
	if da, db := cmdline.Dir(a.Process.ExecutablePath), cmdline.Dir(b.Process.ExecutablePath); da != db {
		return da < db
	}
	if a.IsService() != b.IsService() {
		return a.IsService()
	}
	return cmdline.FileName(a.Process.ExecutablePath) < cmdline.FileName(b.Process.ExecutablePath)
}

func anyMatch(patterns []*regexp.Regexp, input string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, re := range patterns {
		if re.MatchString(input) {
			return true
		}
	}
	return false
}
