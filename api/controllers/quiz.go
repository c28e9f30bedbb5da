package controllers

import (
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/quiz"
	"github.com/plywoodshop/storefront/pkg/logger"
)

type quizRequest struct {
	Usage     string `json:"usage" validate:"required,notblank"`
	Moisture  string `json:"moisture" validate:"required,notblank"`
	Thickness string `json:"thickness"`
	Finish    string `json:"finish"`
	Budget    *int   `json:"budget,omitempty" validate:"omitempty,min=0"`
}

// QuizRecommend turns the wizard answers into product recommendations.
func QuizRecommend(svc quiz.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quizRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", quiz.DefaultLimit, 1, 24)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Recommend(r.Context(), quiz.Answers{
			Usage:     payload.Usage,
			Moisture:  payload.Moisture,
			Thickness: payload.Thickness,
			Finish:    payload.Finish,
			Budget:    payload.Budget,
		}, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
