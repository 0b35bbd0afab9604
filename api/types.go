package api

import (
	"github.com/saqr-syn/portfolio-backend/models"
	"github.com/saqr-syn/portfolio-backend/session"
	"github.com/saqr-syn/portfolio-backend/votes"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	siteHandler    siteHandler
	projectHandler projectHandler
	voteHandler    voteHandler
	commentHandler commentHandler
	contactHandler contactHandler
	eventsHandler  eventsHandler
	oauthHandler   oauthHandler
	mediaHandler   mediaHandler
	healthHandler  healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error     string `json:"error" example:"Internal Server Error"`
	Status    string `json:"status" example:"error"`
	Field     string `json:"field,omitempty" example:"star"`
	Details   string `json:"details,omitempty" example:"Additional error details"`
	Cause     string `json:"cause,omitempty" example:"Underlying error cause"`
	Retryable bool   `json:"retryable,omitempty"`
}

// RatingResponse is the display form of a vote aggregate.
type RatingResponse struct {
	Votes   votes.State `json:"votes"`
	Average float64     `json:"average"`
	Rating  float64     `json:"rating"`
}

func ratingOf(state votes.State) RatingResponse {
	avg := votes.Average(state)
	return RatingResponse{Votes: state, Average: avg, Rating: votes.Round(avg)}
}

// HomeResponse feeds the locale landing page.
type HomeResponse struct {
	Locale     string            `json:"locale"`
	Dir        string            `json:"dir"`
	Featured   []*models.Project `json:"featured"`
	Tags       []string          `json:"tags"`
	NextCursor string            `json:"nextCursor,omitempty"`
	HasMore    bool              `json:"hasMore"`
}

// ProjectListResponse is one catalog page after tag and text filtering.
// Seq echoes the client's request tag so it can drop stale responses.
type ProjectListResponse struct {
	Locale     string            `json:"locale,omitempty"`
	Dir        string            `json:"dir,omitempty"`
	Seq        uint64            `json:"seq,omitempty"`
	Items      []*models.Project `json:"items"`
	Tags       []string          `json:"tags"`
	NextCursor string            `json:"nextCursor,omitempty"`
	HasMore    bool              `json:"hasMore"`
	Degraded   bool              `json:"degraded,omitempty"`
}

type ProjectDetailResponse struct {
	Locale          string            `json:"locale"`
	Dir             string            `json:"dir"`
	Project         *models.Project   `json:"project"`
	Rating          RatingResponse    `json:"rating"`
	Views           int64             `json:"views"`
	Comments        []*models.Comment `json:"comments"`
	PendingStages   []models.Stage    `json:"pendingStages"`
	CompletedStages []models.Stage    `json:"completedStages"`
}

type MeResponse struct {
	Identity session.Identity `json:"identity"`
	IsAdmin  bool             `json:"isAdmin"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	StartedAt string `json:"startedAt"`
	Uptime    string `json:"uptime"`
}
