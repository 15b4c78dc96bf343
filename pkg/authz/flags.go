package authz

import (
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Mode represents the global enforcement mode.
type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeShadow   Mode = "shadow"
	ModeEnforce  Mode = "enforce"
)

// FlagProvider supplies the current enforcement mode.
type FlagProvider interface {
	Mode() Mode
}

type staticFlagProvider struct {
	mode Mode
}

// NewStaticFlagProvider pins the enforcement mode.
func NewStaticFlagProvider(mode Mode) FlagProvider {
	return staticFlagProvider{mode: sanitizeMode(mode)}
}

func (s staticFlagProvider) Mode() Mode {
	return s.mode
}

// FileFlagProvider loads authz flags from a YAML file on every call, so an
// operator can flip modes without a restart. A missing file yields the
// fallback mode; a malformed one keeps the last good value.
type FileFlagProvider struct {
	path     string
	fallback Mode
	lastMode Mode
	mu       sync.Mutex
}

// NewFileFlagProvider returns a provider backed by a YAML config file.
func NewFileFlagProvider(path string, fallback Mode) FlagProvider {
	return &FileFlagProvider{
		path:     path,
		fallback: sanitizeMode(fallback),
	}
}

func (p *FileFlagProvider) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastMode == "" {
		p.lastMode = p.fallback
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p.lastMode
	}

	var cfg struct {
		Mode string `yaml:"mode"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return p.lastMode
	}
	p.lastMode = sanitizeMode(Mode(cfg.Mode))
	return p.lastMode
}

func sanitizeMode(mode Mode) Mode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(ModeDisabled):
		return ModeDisabled
	case string(ModeShadow):
		return ModeShadow
	default:
		return ModeEnforce
	}
}
