// Package config loads the optional kattis-points configuration file.
//
// The file is CUE (or JSON, which CUE accepts) checked against the embedded
// #Config schema:
//
//	rules:    "rules/tddd95.yaml"
//	data:     "export.json"
//	db:       "passes.db"
//	format:   "text"
//	detailed: true
//	groups: [{title: "LAB1", prefix: "LAB1"}, {title: "UPG1", prefix: "UPG1"}]
//	addr: ":8080"
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSrc string

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "kattis.cue"

// Defaults for fields the file leaves out.
const (
	DefaultFormat = "text"
	DefaultAddr   = ":8080"
)

// Group is a report group: goals whose id starts with Prefix.
type Group struct {
	Title  string `json:"title"`
	Prefix string `json:"prefix"`
}

// Config is the resolved configuration.
type Config struct {
	Rules    string  `json:"rules"`
	Data     string  `json:"data"`
	DB       string  `json:"db"`
	Format   string  `json:"format"`
	Filter   string  `json:"filter"`
	Detailed bool    `json:"detailed"`
	Groups   []Group `json:"groups"`
	Addr     string  `json:"addr"`

	// Path is the file the configuration came from, empty for defaults.
	Path string `json:"-"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{Format: DefaultFormat, Addr: DefaultAddr}
}

// Error reports an unreadable or invalid config file.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads path. An empty path falls back to DefaultFile in the working
// directory, and to Default() when that file does not exist either.
// Relative paths inside the file are resolved against its directory.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "cannot read file", Err: err}
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path

	base := filepath.Dir(path)
	for _, p := range []*string{&cfg.Rules, &cfg.Data, &cfg.DB} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return cfg, nil
}

// Parse validates a config document against #Config and applies defaults.
func Parse(data []byte, name string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, &Error{Path: name, Message: err.Error(), Err: err}
	}

	checked := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Path: name, Message: err.Error(), Err: err}
	}

	js, err := checked.MarshalJSON()
	if err != nil {
		return nil, &Error{Path: name, Message: err.Error(), Err: err}
	}
	cfg := Default()
	if err := json.Unmarshal(js, cfg); err != nil {
		return nil, &Error{Path: name, Message: err.Error(), Err: err}
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return cfg, nil
}
