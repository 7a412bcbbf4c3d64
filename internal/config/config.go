// Package config holds the compiler's options, loadable from a
// fict.config.yaml file via gopkg.in/yaml.v3 or constructed programmatically
// by library callers of internal/pipeline.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WarningLevel is one of off/warn/error.
type WarningLevel string

const (
	LevelOff   WarningLevel = "off"
	LevelWarn  WarningLevel = "warn"
	LevelError WarningLevel = "error"
)

// WarningsAsErrors is the bool-or-code-list union for treating warnings as
// fatal errors.
type WarningsAsErrors struct {
	All   bool
	Codes []string
}

// UnmarshalYAML accepts either `true`/`false` or a string list.
func (w *WarningsAsErrors) UnmarshalYAML(value *yaml.Node) error {
	var asBool bool
	if err := value.Decode(&asBool); err == nil {
		w.All = asBool
		return nil
	}
	var asList []string
	if err := value.Decode(&asList); err != nil {
		return err
	}
	w.Codes = asList
	return nil
}

// Promotes reports whether code should be promoted to an error.
func (w WarningsAsErrors) Promotes(code string) bool {
	if w.All {
		return true
	}
	for _, c := range w.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// Options is the full set of compiler options a host can configure.
type Options struct {
	Dev                bool                    `yaml:"dev"`
	FineGrainedDom      bool                    `yaml:"fineGrainedDom"`
	Optimize           bool                    `yaml:"optimize"`
	OptimizeLevel      string                  `yaml:"optimizeLevel"` // "safe" | "full"
	InlineDerivedMemos bool                    `yaml:"inlineDerivedMemos"`
	LazyConditional    bool                    `yaml:"lazyConditional"`
	GetterCache        bool                    `yaml:"getterCache"`
	ReactiveScopes     []string                `yaml:"reactiveScopes"`
	WarningLevels      map[string]WarningLevel `yaml:"warningLevels"`
	WarningsAsErrors   WarningsAsErrors        `yaml:"warningsAsErrors"`

	// OnWarn, unlike the other fields, is not YAML-serializable; library
	// callers set it directly. CLI callers leave it nil and collect
	// warnings from pipeline.Result.Warnings instead.
	OnWarn func(Warning) `yaml:"-"`
}

// Warning is one diagnostic surfaced by a non-fatal pass.
type Warning struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Line    int          `json:"line"`
	Column  int          `json:"column"`
	Level   WarningLevel `json:"level"`
}

// Default returns the options in effect when the host supplies none:
// dev=true, fineGrainedDom=true, everything else off.
func Default() Options {
	return Options{
		Dev:            true,
		FineGrainedDom: true,
		OptimizeLevel:  "safe",
		WarningLevels:  map[string]WarningLevel{},
	}
}

// Load reads and parses a fict.config.yaml file, starting from Default()
// and overlaying whatever the file specifies.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	if opts.OptimizeLevel == "" {
		opts.OptimizeLevel = "safe"
	}
	return opts, nil
}

// ReactiveScopeSet turns ReactiveScopes into a lookup set for internal/hir.
func (o Options) ReactiveScopeSet() map[string]bool {
	set := make(map[string]bool, len(o.ReactiveScopes))
	for _, name := range o.ReactiveScopes {
		set[name] = true
	}
	return set
}

// LevelFor resolves the effective severity for a diagnostic code: an
// explicit warningLevels entry wins; otherwise "warn".
func (o Options) LevelFor(code string) WarningLevel {
	if lvl, ok := o.WarningLevels[code]; ok {
		return lvl
	}
	return LevelWarn
}
