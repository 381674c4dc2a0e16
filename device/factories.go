package device

import (
	"context"
	"strconv"
	"time"

	"devaccess/bus"
	"devaccess/catalogue"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/port/dummy"
	"devaccess/port/rebot"
	"devaccess/rebotwire"
	"devaccess/recovery"
	"devaccess/x/devlog"
)

// CatalogueLoader resolves a descriptor's map parameter into an
// already-parsed catalogue. Map-file parsing itself is an external
// collaborator; the application supplies whatever loader fits its file
// formats.
type CatalogueLoader func(mapRef string) (*catalogue.Numeric, error)

// FactoryConfig carries the shared collaborators every stock backend
// factory needs.
type FactoryConfig struct {
	LoadCatalogue CatalogueLoader
	Logger        devlog.Logger // nil selects devlog.Nop
	Bus           *bus.Bus      // nil disables link-state publication
}

func (cfg FactoryConfig) logger() devlog.Logger {
	if cfg.Logger == nil {
		return devlog.Nop()
	}
	return cfg.Logger
}

func (cfg FactoryConfig) monitor(kind, instance string) *recovery.Monitor {
	if cfg.Bus == nil {
		return nil
	}
	conn := cfg.Bus.NewConnection("backend/" + kind + "/" + instance)
	return recovery.NewMonitor(conn, bus.T("devaccess", "link", kind, instance))
}

func (cfg FactoryConfig) catalogueFor(d Descriptor) (*catalogue.Numeric, error) {
	mapRef, ok := d.Param("map")
	if !ok {
		return nil, deverr.NewLogicf("device", "%s descriptor needs a map parameter", d.Kind)
	}
	if cfg.LoadCatalogue == nil {
		return nil, deverr.NewLogic("device", "no catalogue loader configured")
	}
	return cfg.LoadCatalogue(mapRef)
}

// NewDefaultRegistry builds a Registry with the stock backend kinds wired:
// "dummy" and "rebot" everywhere, plus "uio" and "shareddummy" on
// platforms that support them.
func NewDefaultRegistry(cfg FactoryConfig) *Registry {
	r := NewRegistry()
	r.RegisterBackend("dummy", dummyFactory(cfg))
	r.RegisterBackend("rebot", rebotFactory(cfg))
	registerPlatformBackends(r, cfg)
	return r
}

func newBackend(cfg FactoryConfig, d Descriptor, cat *catalogue.Numeric,
	openFn func(ctx context.Context) (port.RawMemoryPort, error),
	closeFn func(port.RawMemoryPort) error) *Numeric {
	n := NewNumeric(cat, openFn, closeFn, cfg.monitor(d.Kind, d.Address))
	n.SetLogger(cfg.logger())
	return n
}

// dummyFactory keeps one in-process port per backend instance so register
// contents survive a close/reopen cycle, which is what lets recovery
// replay land on the same memory the faulted session wrote.
func dummyFactory(cfg FactoryConfig) Factory {
	return func(d Descriptor) (Backend, error) {
		cat, err := cfg.catalogueFor(d)
		if err != nil {
			return nil, err
		}
		p := dummy.New(cat.BarWordSizes())
		p.Close() // starts closed; Open reopens
		openFn := func(context.Context) (port.RawMemoryPort, error) {
			p.Reopen()
			return p, nil
		}
		closeFn := func(port.RawMemoryPort) error {
			p.Close()
			return nil
		}
		return newBackend(cfg, d, cat, openFn, closeFn), nil
	}
}

func rebotFactory(cfg FactoryConfig) Factory {
	return func(d Descriptor) (Backend, error) {
		cat, err := cfg.catalogueFor(d)
		if err != nil {
			return nil, err
		}
		addr := d.Address
		if ip, ok := d.Param("ip"); ok {
			p, hasPort := d.Param("port")
			if !hasPort {
				return nil, deverr.NewLogic("device", "rebot descriptor needs both ip and port")
			}
			addr = ip + ":" + p
		}
		if addr == "" {
			return nil, deverr.NewLogic("device", "rebot descriptor needs an address")
		}
		timeout := time.Duration(0)
		if t, ok := d.Param("timeout"); ok {
			seconds, err := strconv.Atoi(t)
			if err != nil || seconds <= 0 {
				return nil, deverr.NewLogicf("device", "invalid rebot timeout %q", t)
			}
			timeout = time.Duration(seconds) * time.Second
		}
		openFn := func(context.Context) (port.RawMemoryPort, error) {
			client, err := rebotwire.Dial(addr, timeout)
			if err != nil {
				return nil, err
			}
			return rebot.New(client), nil
		}
		closeFn := func(p port.RawMemoryPort) error {
			return p.(*rebot.Port).Close()
		}
		return newBackend(cfg, d, cat, openFn, closeFn), nil
	}
}
