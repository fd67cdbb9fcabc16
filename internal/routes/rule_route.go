package routes

import (
	"net/http"

	"orchid/commons/routes"
	"orchid/internal/dto"
	"orchid/internal/handler"
	"orchid/internal/logger"

	"github.com/gin-gonic/gin"
)

func InitRuleRoutes(
	router *gin.Engine,
	ruleHandler *handler.RuleHandler,
	log logger.Logger,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	deps := routes.RouteDependencies{
		Logger: log,
	}

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.CreateRuleRequest, dto.RuleResponse]{
			Path:        "/rules",
			Method:      http.MethodPost,
			ServiceFunc: ruleHandler.CreateRuleService,
			RequireAuth: false,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.ListRulesRequest, dto.ListRulesResponse]{
			Path:        "/rules",
			Method:      http.MethodGet,
			ServiceFunc: ruleHandler.ListRulesService,
			RequireAuth: false,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.GetRuleRequest, dto.RuleResponse]{
			Path:        "/rules/:id",
			Method:      http.MethodGet,
			ServiceFunc: ruleHandler.GetRuleService,
			RequireAuth: false,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.UpdateRuleRequest, dto.RuleResponse]{
			Path:        "/rules/:id",
			Method:      http.MethodPut,
			ServiceFunc: ruleHandler.UpdateRuleService,
			RequireAuth: false,
		},
	)

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.DeleteRuleRequest, dto.DeleteRuleResponse]{
			Path:        "/rules/:id",
			Method:      http.MethodDelete,
			ServiceFunc: ruleHandler.DeleteRuleService,
			RequireAuth: false,
		},
	)
}
