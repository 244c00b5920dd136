package config

import (
	"strconv"
	"strings"
)

// Source supplies raw string values for registered options. A miss
// returns ok false and the lookup falls through to the next source.
type Source interface {
	LookupValue(key string) (string, bool)
	Name() string
}

// Option is a single registered setting. The typed value fields are
// filled in by Load; the accessors return zero values until then, so a
// read before startup finishes fails loudly instead of with a half
// loaded default.
type Option struct {
	Name        string
	Description string

	// Origin names the source the loaded value came from, "default"
	// when nothing overrode it.
	Origin string

	defaultValue interface{}
	manager      *Manager

	str  string
	num  int
	flag bool
}

func (opt *Option) load() {
	raw, found := "", false
	opt.Origin = "default"

	for _, source := range opt.manager.sources {
		if v, ok := source.LookupValue(opt.Name); ok {
			raw, found = v, true
			opt.Origin = source.Name()
			break
		}
	}

	// the default's type decides how overrides are parsed; an override
	// that doesn't parse keeps the default rather than zeroing it
	switch def := opt.defaultValue.(type) {
	case string:
		opt.str = def
		if found {
			opt.str = raw
		}
	case int:
		opt.num = def
		if found {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				opt.num = int(n)
			}
		}
		opt.str = strconv.Itoa(opt.num)
	case bool:
		opt.flag = def
		if found {
			opt.flag = parseBool(raw)
		}
	}
}

func (opt *Option) GetString() string {
	return opt.str
}

func (opt *Option) GetInt() int {
	return opt.num
}

func (opt *Option) GetBool() bool {
	return opt.flag
}

// Manager holds the registered options and the sources feeding them.
// Sources are kept newest first: a source added later overrides the
// ones added before it.
type Manager struct {
	sources []Source
	Options map[string]*Option
}

func NewManager() *Manager {
	return &Manager{
		Options: make(map[string]*Option),
	}
}

func (m *Manager) AddSource(source Source) {
	m.sources = append([]Source{source}, m.sources...)
}

func (m *Manager) RegisterOption(name, desc string, defaultValue interface{}) *Option {
	opt := &Option{
		Name:         name,
		Description:  desc,
		defaultValue: defaultValue,
		manager:      m,
	}

	m.Options[name] = opt
	return opt
}

func (m *Manager) Load() {
	for _, opt := range m.Options {
		opt.load()
	}
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "on", "enabled", "1":
		return true
	}

	return false
}
