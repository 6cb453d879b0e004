//go:build wireinject

package main

import (
	"github.com/google/wire"

	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/infrastructure"
	"arbor-server/chat-api/internal/interfaces"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers"
	"arbor-server/chat-api/internal/interfaces/httpserver/routes"
)

func CreateApplication() (*Application, error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		handlers.HandlerProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
