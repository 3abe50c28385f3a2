package router

import (
	"net/http"
	"strings"

	"chatbot-backend/internal/api"
	"chatbot-backend/internal/api/endpoints"
	"chatbot-backend/internal/api/middleware"
	botservice "chatbot-backend/internal/service/bot"
)

func BotClientRoutes(prefix string, service *botservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		botEndpoints := endpoints.NewBotEndpoints(service)
		collection := strings.TrimRight(prefix, "/") + "/bots"
		base := collection + "/{botId}"

		mux.HandleFunc(collection, s.MakeHTTPHandleFunc(botEndpoints.Bots, middleware.RequireUserJWT))
		mux.HandleFunc(base, s.MakeHTTPHandleFunc(botEndpoints.Bot, middleware.RequireUserJWT))
		mux.HandleFunc(base+"/deploy", s.MakeHTTPHandleFunc(botEndpoints.Deployment, middleware.RequireUserJWT))
		mux.HandleFunc(base+"/analytics", s.MakeHTTPHandleFunc(botEndpoints.Analytics, middleware.RequireUserJWT))
	}
}

func BotPublicRoutes(prefix string, service *botservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		botEndpoints := endpoints.NewBotEndpoints(service)
		base := strings.TrimRight(prefix, "/")

		mux.HandleFunc(base+"/bots/{botId}/widget", s.MakeHTTPHandleFunc(botEndpoints.PublicWidget))
	}
}
