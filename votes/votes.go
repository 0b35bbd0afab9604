// Package votes enforces one star rating per identity and keeps the running average of a project.
package votes

import (
	"math"

	"github.com/saqr-syn/portfolio-backend/errs"
	"github.com/saqr-syn/portfolio-backend/models"
)

const (
	MinStar = 1
	MaxStar = 5
)

// State is the vote aggregate. Count always equals len(Users).
type State struct {
	Total int64    `json:"total"`
	Count int64    `json:"count"`
	Users []string `json:"users"`
}

func FromModel(v models.Votes) State {
	return State{Total: v.Total, Count: v.Count, Users: append([]string(nil), v.Users...)}
}

func (s State) Has(identity string) bool {
	for _, u := range s.Users {
		if u == identity {
			return true
		}
	}
	return false
}

// Average is Total/Count, or 0 when nobody has voted yet.
func Average(s State) float64 {
	if s.Count <= 0 {
		return 0
	}
	return float64(s.Total) / float64(s.Count)
}

// Round rounds half-up to one decimal. Use it only for display; compare unrounded averages.
func Round(avg float64) float64 {
	return math.Floor(avg*10+0.5) / 10
}

func ValidStar(star int) bool {
	return star >= MinStar && star <= MaxStar
}

// CastVote returns the state after identity votes star. On error the input state is the valid one.
func CastVote(s State, identity string, star int) (State, error) {
	if identity == "" {
		return s, errs.NewAuthRequiredError("vote")
	}
	if !ValidStar(star) {
		return s, errs.NewInvalidStarError()
	}
	if s.Has(identity) {
		return s, errs.NewAlreadyVotedError()
	}

	users := make([]string, len(s.Users), len(s.Users)+1)
	copy(users, s.Users)
	return State{
		Total: s.Total + int64(star),
		Count: s.Count + 1,
		Users: append(users, identity),
	}, nil
}
