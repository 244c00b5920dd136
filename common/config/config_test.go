package config

import (
	"testing"
)

type mapSource struct {
	name   string
	values map[string]string
}

func (s *mapSource) LookupValue(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *mapSource) Name() string {
	return s.name
}

func TestOptionDefaults(t *testing.T) {
	m := NewManager()
	host := m.RegisterOption("svc.host", "", "localhost")
	conns := m.RegisterOption("svc.conns", "", 10)
	debug := m.RegisterOption("svc.debug", "", false)

	m.Load()

	if host.GetString() != "localhost" || conns.GetInt() != 10 || debug.GetBool() {
		t.Errorf("defaults = %q %d %v", host.GetString(), conns.GetInt(), debug.GetBool())
	}
	if host.Origin != "default" {
		t.Errorf("origin = %q, want default", host.Origin)
	}
}

func TestAccessorsBeforeLoad(t *testing.T) {
	m := NewManager()
	opt := m.RegisterOption("svc.host", "", "localhost")

	if opt.GetString() != "" {
		t.Errorf("value before Load = %q, want empty", opt.GetString())
	}
}

func TestSourcePrecedence(t *testing.T) {
	m := NewManager()
	opt := m.RegisterOption("svc.host", "", "localhost")
	other := m.RegisterOption("svc.port", "", "5432")

	m.AddSource(&mapSource{name: "base", values: map[string]string{
		"svc.host": "base-host",
		"svc.port": "9999",
	}})
	m.AddSource(&mapSource{name: "override", values: map[string]string{
		"svc.host": "override-host",
	}})

	m.Load()

	// the source added last wins
	if opt.GetString() != "override-host" || opt.Origin != "override" {
		t.Errorf("value = %q from %q, want override-host from override", opt.GetString(), opt.Origin)
	}
	// a miss in the override falls through to the earlier source
	if other.GetString() != "9999" || other.Origin != "base" {
		t.Errorf("value = %q from %q, want 9999 from base", other.GetString(), other.Origin)
	}
}

func TestTypedParsing(t *testing.T) {
	m := NewManager()
	conns := m.RegisterOption("svc.conns", "", 10)
	bad := m.RegisterOption("svc.bad_conns", "", 10)
	flag := m.RegisterOption("svc.flag", "", false)
	offFlag := m.RegisterOption("svc.off_flag", "", true)

	m.AddSource(&mapSource{name: "src", values: map[string]string{
		"svc.conns":     "42",
		"svc.bad_conns": "not a number",
		"svc.flag":      "yes",
		"svc.off_flag":  "0",
	}})

	m.Load()

	if conns.GetInt() != 42 {
		t.Errorf("conns = %d, want 42", conns.GetInt())
	}
	// unparsable override keeps the default
	if bad.GetInt() != 10 {
		t.Errorf("bad conns = %d, want the default 10", bad.GetInt())
	}
	if !flag.GetBool() {
		t.Error("yes not parsed as true")
	}
	if offFlag.GetBool() {
		t.Error("0 not parsed as false")
	}
}
