//go:build wireinject

package main

import (
	"github.com/google/wire"

	"jan-server/services/assistant-api/internal/domain"
	"jan-server/services/assistant-api/internal/infrastructure"
	"jan-server/services/assistant-api/internal/interfaces"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
