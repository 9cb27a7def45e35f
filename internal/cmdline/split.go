// Package cmdline derives the argument part of a raw process command line.
package cmdline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SplitArguments removes the leading invocation of executablePath from
// commandLine and returns what follows it. The invocation may be written as the
// absolute path (optionally with the \??\ device prefix), the same path with
// forward slashes, ./name or .\name, the bare file name, or the file name without
// extension, each optionally wrapped in double quotes. Matching ignores case.
//
// When nothing matches, commandLine is returned as-is.
func SplitArguments(commandLine, executablePath string) string {
	if executablePath == "" {
		return commandLine
	}
	re, err := invocationPattern(executablePath)
	if err != nil {
		return commandLine
	}
	return re.ReplaceAllLiteralString(commandLine, "")
}

func invocationPattern(executablePath string) (*regexp.Regexp, error) {
	escapedPath := quoteLiteral(executablePath)
	fileName := FileName(executablePath)

	var b strings.Builder
	b.WriteString(`(?i)^"?(?:`)
	b.WriteString(`(?:\\\?\?\\)?` + escapedPath)
	b.WriteString(`|` + strings.ReplaceAll(escapedPath, `\\`, `/`))
	b.WriteString(`|(?:\.\\|\./)?` + quoteLiteral(fileName))
	b.WriteString(`|` + quoteLiteral(trimExtension(fileName)))
	b.WriteString(`)"?(?:\s+|$)`)
	return regexp.Compile(b.String())
}

// quoteLiteral is regexp.QuoteMeta for arbitrary bytes. Each invalid UTF-8 byte
// becomes U+FFFD, which is how the matcher decodes that byte in the input.
func quoteLiteral(s string) string {
	if utf8.ValidString(s) {
		return regexp.QuoteMeta(s)
	}
	var b strings.Builder
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\x{FFFD}`)
		} else {
			b.WriteString(regexp.QuoteMeta(s[:size]))
		}
		s = s[size:]
	}
	return b.String()
}

// FileName returns the last element of path, treating both '/' and '\' as
// separators.
func FileName(path string) string {
	return path[lastSeparator(path)+1:]
}

// Dir returns everything before the last separator of path, or "" when path has
// no separator. A root-level file keeps the root itself as its directory.
func Dir(path string) string {
	i := lastSeparator(path)
	switch {
	case i < 0:
		return ""
	case i == 0:
		return path[:1]
	case i == 2 && path[1] == ':':
		return path[:3]
	}
	return path[:i]
}

func lastSeparator(path string) int {
	return strings.LastIndexAny(path, `/\`)
}

func trimExtension(fileName string) string {
	if i := strings.LastIndexByte(fileName, '.'); i > 0 {
		return fileName[:i]
	}
	return fileName
}
