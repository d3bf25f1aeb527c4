package model

import (
	"io"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

const (
	FormatCSV   = "csv"
	FormatTable = "table"

	DefaultBinary   = "lighthouse"
	DefaultCacheDir = "./cache"
	DefaultWorkers  = 1
)

// DefaultAudits are the Lighthouse audits requested by every scan unless
// the configuration says otherwise.
var DefaultAudits = []string{
	"color-contrast",
	"font-size",
	"image-alt",
	"input-image-alt",
	"performance-budget",
	"tap-targets",
	"timing-budget",
	"total-byte-weight",
	"unminified-css",
	"unminified-javascript",
	"uses-text-compression",
	"viewport",
}

// DefaultChromeFlags run the browser without a display and sandbox.
var DefaultChromeFlags = []string{"--headless", "--no-sandbox"}

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
	// cue.Context is not safe for concurrent use
	cueMu sync.Mutex
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

type Config struct {
	Version    int         `json:"version" yaml:"version"` // fixed 0 for now
	Lighthouse *Lighthouse `json:"lighthouse,omitempty" yaml:"lighthouse,omitempty"`
	Scan       *Scan       `json:"scan,omitempty" yaml:"scan,omitempty"`
	Service    *Service    `json:"service,omitempty" yaml:"service,omitempty"`
}

// Lighthouse describes how the external binary is invoked.
type Lighthouse struct {
	Binary      *string  `json:"binary,omitempty" yaml:"binary,omitempty"`           // path or name, $LIGHTHOUSE_PATH
	ChromePath  *string  `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"` // $CHROME_PATH
	ChromeFlags []string `json:"chrome_flags,omitempty" yaml:"chrome_flags,omitempty"`
	Audits      []string `json:"audits,omitempty" yaml:"audits,omitempty"`   // nil => DefaultAudits
	Timeout     *string  `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration, nil => no timeout
}

// Scan settings shared by all scanned domains.
type Scan struct {
	CacheDir *string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	Workers  *int    `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Service settings: logging, output and the scan ledger.
type Service struct {
	Verbose *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Format  *string `json:"format,omitempty" yaml:"format,omitempty"` // "csv"|"table"
	Dir     *string `json:"dir,omitempty" yaml:"dir,omitempty"`       // output directory, nil => stdout
	Ledger  *string `json:"ledger,omitempty" yaml:"ledger,omitempty"` // sqlite path, nil => disabled
}

// DefaultConfig returns a configuration with every field populated.
func DefaultConfig() Config {
	return Config{
		Version: 0,
		Lighthouse: &Lighthouse{
			Binary:      Ptr(DefaultBinary),
			ChromeFlags: append([]string(nil), DefaultChromeFlags...),
			Audits:      append([]string(nil), DefaultAudits...),
		},
		Scan: &Scan{
			CacheDir: Ptr(DefaultCacheDir),
			Workers:  Ptr(DefaultWorkers),
		},
		Service: &Service{
			Verbose: Ptr(false),
			Format:  Ptr(FormatCSV),
		},
	}
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	cueMu.Lock()
	defer cueMu.Unlock()

	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}

	return out, nil
}

// Merge returns c with every unset field taken from dflt.
func (c Config) Merge(dflt Config) Config {
	ret := c
	ret.Lighthouse = mergeLighthouse(c.Lighthouse, dflt.Lighthouse)
	ret.Scan = mergeScan(c.Scan, dflt.Scan)
	ret.Service = mergeService(c.Service, dflt.Service)
	return ret
}

func mergeLighthouse(c, d *Lighthouse) *Lighthouse {
	if c == nil {
		return d
	}
	if d == nil {
		return c
	}
	ret := *c
	ret.Binary = or(c.Binary, d.Binary)
	ret.ChromePath = or(c.ChromePath, d.ChromePath)
	ret.Timeout = or(c.Timeout, d.Timeout)
	if c.ChromeFlags == nil {
		ret.ChromeFlags = d.ChromeFlags
	}
	if c.Audits == nil {
		ret.Audits = d.Audits
	}
	return &ret
}

func mergeScan(c, d *Scan) *Scan {
	if c == nil {
		return d
	}
	if d == nil {
		return c
	}
	return &Scan{
		CacheDir: or(c.CacheDir, d.CacheDir),
		Workers:  or(c.Workers, d.Workers),
	}
}

func mergeService(c, d *Service) *Service {
	if c == nil {
		return d
	}
	if d == nil {
		return c
	}
	return &Service{
		Verbose: or(c.Verbose, d.Verbose),
		Format:  or(c.Format, d.Format),
		Dir:     or(c.Dir, d.Dir),
		Ledger:  or(c.Ledger, d.Ledger),
	}
}

// TimeoutDuration parses Lighthouse.Timeout; zero means no timeout.
func (l *Lighthouse) TimeoutDuration() (time.Duration, error) {
	if l == nil || l.Timeout == nil || *l.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(*l.Timeout)
}

// Get dereferences an optional config value, returning the zero value for nil.
func Get[T any](pt *T) T {
	var zero T
	if pt == nil {
		return zero
	}
	return *pt
}

// Ptr returns a pointer to v, for optional config fields.
func Ptr[T any](v T) *T {
	return &v
}

func or[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
