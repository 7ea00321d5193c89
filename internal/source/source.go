// Package source locates and reads log input files.
//
// Inputs are named by doublestar glob patterns and may be compressed;
// the compression is chosen by file extension (.gz, .zst, .br).
package source

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxBytes caps the decompressed size of one input.
const DefaultMaxBytes int64 = 512 << 20

var (
	// ErrTooLarge is returned when an input exceeds the size cap.
	ErrTooLarge = errors.New("input exceeds size limit")

	// ErrNoMatch is returned when no pattern matches a regular file.
	ErrNoMatch = errors.New("no input files match")
)

// Read reads the file at path, decompressing by extension. At most
// maxBytes of decompressed data are accepted; maxBytes <= 0 means
// DefaultMaxBytes.
func Read(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadFrom(f, Compression(path), maxBytes)
}

// Compression names the codec implied by the file extension: "gzip",
// "zstd", "br", or "" for none.
func Compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	case ".br":
		return "br"
	default:
		return ""
	}
}

// ReadFrom reads r through the named codec, enforcing the size cap.
func ReadFrom(r io.Reader, codec string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var body io.Reader
	switch codec {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	case "zstd":
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd reader: %w", err)
		}
		defer zr.Close()
		body = zr
	case "br":
		body = brotli.NewReader(r)
	case "", "identity":
		body = r
	default:
		return nil, fmt.Errorf("unsupported compression %q", codec)
	}

	// Read one byte past the cap to tell "exactly at the limit" from "over".
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", codecName(codec), err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return data, nil
}

func codecName(codec string) string {
	if codec == "" {
		return "plain"
	}
	return codec
}

// Discover returns the deduplicated absolute paths of regular files
// matching any of the patterns, in pattern order.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				result = append(result, abs)
			}
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, strings.Join(patterns, ", "))
	}
	return result, nil
}

// Matches reports whether path matches any of the patterns.
func Matches(path string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			continue
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
	}
	return false
}

// WatchDirs returns the static directory prefix of each pattern, the
// directories a file watcher must observe to see matching files change.
func WatchDirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			continue
		}
		dir := staticPrefix(pattern)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// staticPrefix returns the directory before the first glob character.
func staticPrefix(pattern string) string {
	for i, c := range pattern {
		if c == '*' || c == '?' || c == '[' || c == '{' {
			return filepath.Dir(pattern[:i])
		}
	}
	return filepath.Dir(pattern)
}

func absPattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return pattern, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, pattern), nil
}
