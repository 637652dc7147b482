package interfaces

import (
	"github.com/google/wire"

	"jan-server/services/assistant-api/internal/interfaces/httpserver"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/handlers"
	v1 "jan-server/services/assistant-api/internal/interfaces/httpserver/routes/v1"
)

var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	v1.NewRoutes,
	httpserver.NewHttpServer,
)
