// Package lighthouse runs the Google Lighthouse CLI against a domain and
// turns the audits of its JSON report into rows.
//
// https://developers.google.com/web/tools/lighthouse
package lighthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/CZERTAINLY/lighthouse/internal/log"
	"github.com/CZERTAINLY/lighthouse/internal/model"
	"github.com/CZERTAINLY/lighthouse/internal/runner"
)

// Executor runs a command and returns its standard output.
type Executor interface {
	Output(ctx context.Context, cmd runner.Command) ([]byte, error)
}

// Config is read once at process start and never changes afterwards.
type Config struct {
	Binary      string   // path or name of the lighthouse executable
	ChromePath  string   // exported as CHROME_PATH to lighthouse when set
	ChromeFlags []string // passed via --chrome-flags
	Audits      []string // passed via --only-audits
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Binary:      model.DefaultBinary,
		ChromeFlags: slices.Clone(model.DefaultChromeFlags),
		Audits:      slices.Clone(model.DefaultAudits),
	}
}

// ConfigFromModel builds Config from the (merged) configuration file.
func ConfigFromModel(cfg *model.Lighthouse) (Config, error) {
	ret := DefaultConfig()
	if cfg == nil {
		return ret, nil
	}
	if b := model.Get(cfg.Binary); b != "" {
		ret.Binary = b
	}
	ret.ChromePath = model.Get(cfg.ChromePath)
	if cfg.ChromeFlags != nil {
		ret.ChromeFlags = slices.Clone(cfg.ChromeFlags)
	}
	if len(cfg.Audits) > 0 {
		ret.Audits = slices.Clone(cfg.Audits)
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return Config{}, fmt.Errorf("parsing lighthouse.timeout: %w", err)
	}
	ret.Timeout = timeout
	return ret, nil
}

// Environment is the per scan data handed over by the caller.
type Environment map[string]string

type Options struct {
	CacheDir string // defaults to model.DefaultCacheDir
}

type Status int

const (
	StatusSuccess Status = iota
	StatusExecError
	StatusParseError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusExecError:
		return "exec_error"
	case StatusParseError:
		return "parse_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result of one scan. Audits is empty unless Status is StatusSuccess; Err
// wraps model.ErrExec or model.ErrParse otherwise.
type Result struct {
	Domain  string
	URL     string
	Audits  model.Audits
	Status  Status
	Err     error
	Started time.Time
	Stopped time.Time
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Scanner is an immutable wrapper around the lighthouse binary, so a single
// value can be used from many goroutines.
type Scanner struct {
	cfg    Config
	exec   Executor
	lookup CanonicalLookup
}

// New creates a scanner. A nil lookup disables canonical endpoints.
func New(cfg Config, exec Executor, lookup CanonicalLookup) Scanner {
	return Scanner{
		cfg:    cfg,
		exec:   exec,
		lookup: lookup,
	}
}

func (s Scanner) WithBinary(path string) Scanner {
	s.cfg.Binary = path
	return s
}

func (s Scanner) WithChromePath(path string) Scanner {
	s.cfg.ChromePath = path
	return s
}

func (s Scanner) WithAudits(audits ...string) Scanner {
	s.cfg.Audits = slices.Clone(audits)
	return s
}

func (s Scanner) Config() Config {
	ret := s.cfg
	ret.ChromeFlags = slices.Clone(s.cfg.ChromeFlags)
	ret.Audits = slices.Clone(s.cfg.Audits)
	return ret
}

// Command returns the lighthouse invocation auditing url.
func (s Scanner) Command(url string) runner.Command {
	args := make([]string, 0, 4+len(s.cfg.Audits))
	args = append(args,
		url,
		"--quiet",
		"--output=json",
	)
	if len(s.cfg.ChromeFlags) > 0 {
		args = append(args, "--chrome-flags="+strings.Join(s.cfg.ChromeFlags, " "))
	}
	for _, audit := range s.cfg.Audits {
		args = append(args, "--only-audits="+audit)
	}

	var env []string
	if s.cfg.ChromePath != "" {
		env = append(env, "CHROME_PATH="+s.cfg.ChromePath)
	}

	return runner.Command{
		Path:    s.cfg.Binary,
		Args:    args,
		Env:     env,
		Timeout: s.cfg.Timeout,
	}
}

// Scan audits domain and blocks until lighthouse finishes. It never panics on
// bad output: failures are reported through Result.Status and Result.Err.
func (s Scanner) Scan(ctx context.Context, domain string, env Environment, opts Options) Result {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = model.DefaultCacheDir
	}

	url := ResolveTarget(domain, cacheDir, s.lookup)
	ctx = log.ContextAttrs(
		ctx,
		slog.String("scanner", "lighthouse"),
		slog.String("domain", domain),
		slog.String("url", url),
	)
	if len(env) > 0 {
		ctx = log.ContextAttrs(ctx, envAttrs(env))
	}

	result := Result{
		Domain:  domain,
		URL:     url,
		Started: time.Now().UTC(),
	}

	cmd := s.Command(url)
	slog.DebugContext(ctx, "running lighthouse", "cmd", cmd.String(), "cache_dir", cacheDir)
	raw, err := s.exec.Output(ctx, cmd)
	if err != nil {
		result.Status = StatusExecError
		result.Err = fmt.Errorf("%w: %w", model.ErrExec, err)
		result.Stopped = time.Now().UTC()
		return result
	}
	slog.DebugContext(ctx, "lighthouse finished", "elapsed", time.Since(result.Started).String())

	audits, err := ParseReport(raw)
	if err != nil {
		result.Status = StatusParseError
		result.Err = err
		result.Stopped = time.Now().UTC()
		return result
	}

	result.Status = StatusSuccess
	result.Audits = audits
	result.Stopped = time.Now().UTC()
	return result
}

type report struct {
	Audits *model.Audits `json:"audits"`
}

// ParseReport extracts the audits member of a lighthouse JSON report. The
// returned error wraps model.ErrParse.
func ParseReport(raw []byte) (model.Audits, error) {
	var r report
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.Audits{}, fmt.Errorf("%w: %w", model.ErrParse, err)
	}
	// "audits": null leaves the pointer nil as well
	if r.Audits == nil {
		return model.Audits{}, fmt.Errorf("%w: %w", model.ErrParse, model.ErrNoAudits)
	}
	return *r.Audits, nil
}

func envAttrs(env Environment) slog.Attr {
	attrs := make([]slog.Attr, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		attrs = append(attrs, slog.String(k, env[k]))
	}
	return slog.Attr{Key: "environment", Value: slog.GroupValue(attrs...)}
}
