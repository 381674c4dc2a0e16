//go:build linux

package device

import (
	"context"

	"devaccess/deverr"
	"devaccess/port"
	"devaccess/port/shareddummy"
	"devaccess/port/uio"
)

func registerPlatformBackends(r *Registry, cfg FactoryConfig) {
	r.RegisterBackend("uio", uioFactory(cfg))
	r.RegisterBackend("shareddummy", sharedDummyFactory(cfg))
}

func uioFactory(cfg FactoryConfig) Factory {
	return func(d Descriptor) (Backend, error) {
		cat, err := cfg.catalogueFor(d)
		if err != nil {
			return nil, err
		}
		node := d.Address
		if dev, ok := d.Param("device"); ok {
			node = dev
		}
		if node == "" {
			return nil, deverr.NewLogic("device", "uio descriptor needs a device node")
		}
		barSizes := map[int]int{}
		for bar, words := range cat.BarWordSizes() {
			barSizes[bar] = 4 * words
		}
		openFn := func(context.Context) (port.RawMemoryPort, error) {
			return uio.Open(node, barSizes)
		}
		closeFn := func(p port.RawMemoryPort) error {
			return p.(*uio.Port).Close()
		}
		return newBackend(cfg, d, cat, openFn, closeFn), nil
	}
}

func sharedDummyFactory(cfg FactoryConfig) Factory {
	return func(d Descriptor) (Backend, error) {
		cat, err := cfg.catalogueFor(d)
		if err != nil {
			return nil, err
		}
		mapRef, _ := d.Param("map")
		instance := d.Address
		if i, ok := d.Param("instance"); ok {
			instance = i
		}
		name := shareddummy.SegmentName(instance, mapRef)
		sizes := cat.BarWordSizes()
		openFn := func(context.Context) (port.RawMemoryPort, error) {
			return shareddummy.Open(name, sizes)
		}
		closeFn := func(p port.RawMemoryPort) error {
			return p.(*shareddummy.Port).Close()
		}
		return newBackend(cfg, d, cat, openFn, closeFn), nil
	}
}
