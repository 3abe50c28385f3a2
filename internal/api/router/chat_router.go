package router

import (
	"net/http"
	"strings"

	"chatbot-backend/internal/api"
	"chatbot-backend/internal/api/endpoints"
	chatservice "chatbot-backend/internal/service/chat"
)

func ChatPublicRoutes(prefix string, service *chatservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatEndpoints := endpoints.NewChatEndpoints(service)
		base := strings.TrimRight(prefix, "/")

		mux.HandleFunc(base+"/chat/{botId}", s.MakeHTTPHandleFunc(chatEndpoints.Chat))
	}
}
