package routes

import (
	"net/http"

	"orchid/commons/routes"
	"orchid/internal/dto"
	"orchid/internal/handler"
	"orchid/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitExecutionRoutes(
	router *gin.Engine,
	executionHandler *handler.ExecutionHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListExecutionsRequest, dto.ListExecutionsResponse]{
			Path:        "/executions",
			Method:      http.MethodGet,
			ServiceFunc: executionHandler.ListExecutionsService,
			RequireAuth: false,
		},
	)
}
