package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Options carries raw command-line values. Empty strings mean "not given".
type Options struct {
	Paths        []string
	Args         []string
	StopServices string
	StopTimeout  string
	DryRun       bool
	Output       string
	Verbose      bool
}

// Build validates opts and turns them into a Configuration, falling back to
// defs for values that were not given.
func Build(opts Options, defs Defaults) (Configuration, error) {
	cfg := Configuration{
		StopServices: defs.StopServices,
		StopTimeout:  defs.StopTimeout,
		DryRun:       opts.DryRun,
		Output:       defs.Output,
		Verbose:      opts.Verbose,
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}

	var err error
	if cfg.PathPatterns, err = compilePatterns(opts.Paths); err != nil {
		return cfg, fmt.Errorf("invalid path pattern: %w", err)
	}
	if cfg.ArgumentPatterns, err = compilePatterns(opts.Args); err != nil {
		return cfg, fmt.Errorf("invalid args pattern: %w", err)
	}
	if len(cfg.PathPatterns) == 0 && len(cfg.ArgumentPatterns) == 0 {
		return cfg, errors.New("either --path or --args must be provided")
	}

	if v := unquote(opts.StopServices); v != "" {
		if cfg.StopServices, err = ParseStopServicesMode(v); err != nil {
			return cfg, errors.New("the specified stop services value is not a valid option")
		}
	}

	if v := unquote(opts.StopTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return cfg, errors.New("the specified stop timeout value is not a valid number")
		}
		cfg.StopTimeout = time.Duration(secs) * time.Second
	}

	if v := unquote(opts.Output); v != "" {
		if cfg.Output, err = ParseOutputMode(v); err != nil {
			return cfg, errors.New("the specified output value is not a valid type")
		}
	}

	return cfg, nil
}

func compilePatterns(raw []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		p = unquote(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `'"`)
}
