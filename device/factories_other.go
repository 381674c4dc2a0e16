//go:build !linux

package device

func registerPlatformBackends(*Registry, FactoryConfig) {}
