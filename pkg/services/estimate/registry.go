package estimate

import (
	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/services/impact"
	"github.com/de-tools/impact-atlas/pkg/services/impact/boavizta"
	"github.com/de-tools/impact-atlas/pkg/services/impact/shell"
)

// NewModelRegistry registers the built-in models against a shared estimation client.
func NewModelRegistry(client *boavizta.Client, remote config.RemoteSettings) impact.Registry {
	lenient := boavizta.WithLenientResponse(remote.LenientResponse)

	return impact.NewRegistry(map[string]impact.ModelFactory{
		boavizta.CPUIdentifier: func() impact.Model { return boavizta.NewCPUModel(client, lenient) },
		boavizta.RAMIdentifier: func() impact.Model { return boavizta.NewRAMModel(client, lenient) },
		shell.Identifier:       func() impact.Model { return shell.NewModel() },
	})
}

func NewClient(remote config.RemoteSettings) *boavizta.Client {
	return boavizta.NewClient(boavizta.Options{
		BaseURL: remote.BaseURL,
		Timeout: remote.Timeout,
	})
}
