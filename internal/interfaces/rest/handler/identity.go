package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/course"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
)

// currentLearner identity of the verified token, nil for anonymous requests
func currentLearner(c echo.Context, ju *auth.JWTUtil) *course.Learner {
	claims := ju.GetContextToken(c)
	if claims == nil || claims.UID == "" {
		return nil
	}
	return &course.Learner{
		ID:        claims.UID,
		Name:      claims.Name,
		AvatarURL: claims.Image,
	}
}

// currentLearnerID empty for anonymous requests
func currentLearnerID(c echo.Context, ju *auth.JWTUtil) string {
	if l := currentLearner(c, ju); l != nil {
		return l.ID
	}
	return ""
}
