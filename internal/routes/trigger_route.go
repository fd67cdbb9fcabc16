package routes

import (
	"net/http"

	"orchid/commons/routes"
	"orchid/internal/dto"
	"orchid/internal/handler"
	"orchid/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitTriggerRoutes(
	router *gin.Engine,
	triggerHandler *handler.TriggerHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.TriggerRequest, dto.TriggerResponse]{
			Path:        "/trigger",
			Method:      http.MethodPost,
			ServiceFunc: triggerHandler.TriggerService,
			RequireAuth: false,
		},
	)
}
