package app

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"prockill/internal/config"
	"prockill/internal/runner"
	"prockill/internal/snapshot"
	"prockill/internal/terminate"
)

type stubProcesses struct {
	records []snapshot.ProcessRecord
	err     error
}

func (s stubProcesses) Processes(context.Context) ([]snapshot.ProcessRecord, error) {
	return s.records, s.err
}

type stubServices struct {
	records []snapshot.ServiceRecord
	stops   []string
	closed  bool
}

func (s *stubServices) Services(context.Context) ([]snapshot.ServiceRecord, error) {
	return s.records, nil
}

func (s *stubServices) Stop(_ context.Context, name string) error {
	s.stops = append(s.stops, name)
	return nil
}

func (s *stubServices) Close() error {
	s.closed = true
	return nil
}

type stubControl struct {
	killErr map[int]error
	killed  []int
}

func (s *stubControl) Kill(_ context.Context, pid int) error {
	s.killed = append(s.killed, pid)
	return s.killErr[pid]
}

func (s *stubControl) Exited(context.Context, int) (bool, error) {
	return false, nil
}

func (s *stubControl) WaitExit(context.Context, int, time.Duration) (bool, error) {
	return true, nil
}

type stubRunner struct {
	ok  bool
	out string
}

func (s stubRunner) Run(context.Context, string, ...string) (bool, string) {
	return s.ok, s.out
}

type platformStubs struct {
	processes stubProcesses
	services  *stubServices
	openErr   error
	control   *stubControl
	runner    stubRunner
	opened    int
}

func stubPlatform(t *testing.T, stubs *platformStubs) {
	t.Helper()
	if stubs.control == nil {
		stubs.control = &stubControl{}
	}
	selfPID = func() int { return 1 }
	processSource = func() snapshot.ProcessSource { return stubs.processes }
	openServiceManager = func(context.Context, *zap.Logger) (serviceManager, error) {
		stubs.opened++
		if stubs.openErr != nil {
			return nil, stubs.openErr
		}
		return stubs.services, nil
	}
	processControl = func(*zap.Logger) terminate.ProcessControl { return stubs.control }
	commandRunner = func(*zap.Logger) runner.Runner { return stubs.runner }
	recoveryQuery = terminate.RecoveryQuery{
		Executable: "recovery",
		Marker:     regexp.MustCompile(`RESTART`),
	}
	t.Cleanup(resetPlatformDeps)
}

func pathConfig(t *testing.T, pattern string) config.Configuration {
	t.Helper()
	return config.Configuration{
		PathPatterns: []*regexp.Regexp{regexp.MustCompile(`(?i)` + pattern)},
		StopTimeout:  time.Second,
	}
}

func TestPlanMatchesAndSkipsSelf(t *testing.T) {
	stubPlatform(t, &platformStubs{
		processes: stubProcesses{records: []snapshot.ProcessRecord{
			{PID: 1, ExecutablePath: `/usr/bin/prockill`, CommandLine: "prockill --path bin"},
			{PID: 20, ExecutablePath: `/usr/bin/sleep`, CommandLine: "sleep 100"},
			{PID: 30, ExecutablePath: `/opt/app/worker`, CommandLine: "worker"},
		}},
	})

	targets, err := New(Options{}).Plan(context.Background(), pathConfig(t, `/usr/bin/`))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if len(targets) != 1 || targets[0].Process.PID != 20 {
		t.Fatalf("unexpected targets %+v", targets)
	}
	if targets[0].Arguments != "100" {
		t.Fatalf("expected arguments %q, got %q", "100", targets[0].Arguments)
	}
}

func TestPlanDoesNotOpenServicesWhenNotNeeded(t *testing.T) {
	stubs := &platformStubs{}
	stubPlatform(t, stubs)

	if _, err := New(Options{}).Plan(context.Background(), pathConfig(t, `x`)); err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if stubs.opened != 0 {
		t.Fatalf("service manager opened %d times", stubs.opened)
	}
}

func TestPlanPropagatesServiceManagerError(t *testing.T) {
	expected := errors.New("bus unavailable")
	stubPlatform(t, &platformStubs{openErr: expected})

	cfg := pathConfig(t, `x`)
	cfg.StopServices = config.StopServicesAll
	_, err := New(Options{}).Plan(context.Background(), cfg)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestPlanPropagatesSnapshotError(t *testing.T) {
	expected := errors.New("access denied")
	stubPlatform(t, &platformStubs{processes: stubProcesses{err: expected}})

	_, err := New(Options{}).Plan(context.Background(), pathConfig(t, `x`))
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestKillNoMatches(t *testing.T) {
	stubPlatform(t, &platformStubs{})

	planned := -1
	res, err := New(Options{}).Kill(context.Background(), KillParams{
		Config:  pathConfig(t, `nothing`),
		Planned: func(n int) { planned = n },
	})
	if err != nil {
		t.Fatalf("Kill error: %v", err)
	}
	if res.Message != "No processes match the provided patterns" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if planned != 0 {
		t.Fatalf("expected planned callback with 0, got %d", planned)
	}
}

func TestKillStopsServiceAndKillsProcess(t *testing.T) {
	services := &stubServices{records: []snapshot.ServiceRecord{
		{Name: "web.service", IsRunning: true, ExecutablePath: "/srv/web/server"},
	}}
	stubs := &platformStubs{
		processes: stubProcesses{records: []snapshot.ProcessRecord{
			{PID: 10, ExecutablePath: "/srv/web/server", CommandLine: "/srv/web/server -p 80"},
			{PID: 11, ExecutablePath: "/srv/web/helper", CommandLine: "/srv/web/helper"},
		}},
		services: services,
	}
	stubPlatform(t, stubs)

	cfg := pathConfig(t, `^/srv/web/`)
	cfg.StopServices = config.StopServicesAll

	var out bytes.Buffer
	res, err := New(Options{Out: &out}).Kill(context.Background(), KillParams{Config: cfg})
	if err != nil {
		t.Fatalf("Kill error: %v", err)
	}
	if res.TotalMatches != 2 || res.Failures != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Results[0].Outcome != terminate.Stopped || res.Results[1].Outcome != terminate.Killed {
		t.Fatalf("unexpected outcomes %v, %v", res.Results[0].Outcome, res.Results[1].Outcome)
	}
	if len(services.stops) != 1 || services.stops[0] != "web.service" {
		t.Fatalf("unexpected stops %v", services.stops)
	}
	if len(stubs.control.killed) != 1 || stubs.control.killed[0] != 11 {
		t.Fatalf("unexpected kills %v", stubs.control.killed)
	}
	if !services.closed {
		t.Fatalf("expected service manager to be closed")
	}
	want := "STOPPED: Service PID 10 - /srv/web/server\n KILLED: Process PID 11 - /srv/web/helper\n"
	if got := out.String(); got != want {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestKillReportsFailures(t *testing.T) {
	stubs := &platformStubs{
		processes: stubProcesses{records: []snapshot.ProcessRecord{
			{PID: 10, ExecutablePath: "/opt/a", CommandLine: "a"},
			{PID: 11, ExecutablePath: "/opt/b", CommandLine: "b"},
		}},
		control: &stubControl{killErr: map[int]error{10: errors.New("denied")}},
	}
	stubPlatform(t, stubs)

	res, err := New(Options{}).Kill(context.Background(), KillParams{Config: pathConfig(t, `^/opt/`)})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 targets failed") {
		t.Fatalf("expected failure summary, got %v", err)
	}
	if res.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", res.Failures)
	}
	if len(stubs.control.killed) != 2 {
		t.Fatalf("expected both targets attempted, got %v", stubs.control.killed)
	}
}

func TestKillDryRunTouchesNothing(t *testing.T) {
	services := &stubServices{records: []snapshot.ServiceRecord{
		{Name: "web", IsRunning: true, ExecutablePath: "/srv/web"},
	}}
	stubs := &platformStubs{
		processes: stubProcesses{records: []snapshot.ProcessRecord{
			{PID: 10, ExecutablePath: "/srv/web", CommandLine: "web"},
		}},
		services: services,
		runner:   stubRunner{ok: true, out: "RESTART"},
	}
	stubPlatform(t, stubs)

	cfg := pathConfig(t, `web`)
	cfg.StopServices = config.StopServicesRecovery
	cfg.DryRun = true
	cfg.Output = config.OutputProgress

	var out bytes.Buffer
	res, err := New(Options{Out: &out}).Kill(context.Background(), KillParams{Config: cfg})
	if err != nil {
		t.Fatalf("Kill error: %v", err)
	}
	if res.Results[0].Outcome != terminate.DryRun {
		t.Fatalf("expected dry run outcome, got %v", res.Results[0].Outcome)
	}
	if len(services.stops) != 0 || len(stubs.control.killed) != 0 {
		t.Fatalf("dry run acted: stops=%v kills=%v", services.stops, stubs.control.killed)
	}
	if !strings.Contains(out.String(), "Would stop service 'web' because it has recovery options...") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
