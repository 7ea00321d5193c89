package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"loglens/internal/decoder"
	"loglens/internal/source"
)

// stdinArg names standard input as an input.
const stdinArg = "-"

// loadInputs reads and decodes every input named by patterns and merges
// the results in order. With more than one file, soft errors name the
// file they came from.
func (a *app) loadInputs(ctx context.Context, stdin io.Reader, patterns []string) (*decoder.Result, error) {
	mode, err := a.cfg.Decoder.Mode()
	if err != nil {
		return nil, err
	}
	delim, err := a.cfg.Decoder.DelimiterRune()
	if err != nil {
		return nil, err
	}
	limit, err := a.cfg.Decoder.Limit()
	if err != nil {
		return nil, err
	}

	decode := func(path string, data []byte) (*decoder.Result, error) {
		return decoder.New(decoder.Options{Mode: mode, Delimiter: delim, Path: path}, a.logger).Decode(data)
	}

	if len(patterns) == 1 && patterns[0] == stdinArg {
		data, err := source.ReadFrom(stdin, "", limit)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return decode("", data)
	}

	paths, err := source.Discover(patterns)
	if err != nil {
		return nil, err
	}

	merged := &decoder.Result{Mode: mode}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := source.Read(path, limit)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		res, err := decode(path, data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if i == 0 {
			merged.Mode = res.Mode
		}
		for _, e := range res.Errors {
			if len(paths) > 1 {
				e.Message = filepath.Base(path) + ": " + e.Message
			}
			merged.Errors = append(merged.Errors, e)
		}
		merged.Records = append(merged.Records, res.Records...)
	}
	a.logger.Debug("inputs loaded", "files", len(paths), "records", len(merged.Records))
	return merged, nil
}
