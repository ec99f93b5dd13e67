package feed

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GameResponse is the body of GET /game.
type GameResponse struct {
	Height int64         `json:"height"`
	Game   race.GameView `json:"game"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Height int64  `json:"height"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "tapnad feed"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Committed state and events of the Bitcoin vs Ethereum tap race.")

	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	getGame, _ := r.NewOperationContext(http.MethodGet, "/game")
	getGame.SetSummary("Race snapshot")
	getGame.SetDescription("Phase, teams, progress and result as of the last committed block.")
	getGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getGame)

	getResults, _ := r.NewOperationContext(http.MethodGet, "/results")
	getResults.SetSummary("Finished races")
	getResults.AddRespStructure([]race.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getResults)

	getEvents, _ := r.NewOperationContext(http.MethodGet, "/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events named after the race event type (PlayerJoined, GameStarted, TapRecorded, GameFinished, GameReset).")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
