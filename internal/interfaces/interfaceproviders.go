package interfaces

import (
	"github.com/google/wire"

	"arbor-server/chat-api/internal/interfaces/httpserver"
)

var InterfacesProvider = wire.NewSet(
	httpserver.NewHttpServer,
)
