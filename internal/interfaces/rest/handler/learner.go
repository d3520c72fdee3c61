package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
	"github.com/pot-code/lingo-server/internal/infrastructure/validate"
	"github.com/pot-code/lingo-server/internal/learner"
)

// LearnerHandler learner identity operations
type LearnerHandler struct {
	JWTUtil        *auth.JWTUtil
	KVStore        driver.KeyValueDB
	LearnerUseCase learner.LearnerUseCase
	Validator      validate.Validator
}

// NewLearnerHandler create a learner controller instance
func NewLearnerHandler(
	JWTUtil *auth.JWTUtil,
	KVStore driver.KeyValueDB,
	LearnerUseCase learner.LearnerUseCase,
	Validator validate.Validator,
) *LearnerHandler {
	return &LearnerHandler{
		JWTUtil:        JWTUtil,
		KVStore:        KVStore,
		LearnerUseCase: LearnerUseCase,
		Validator:      Validator,
	}
}

// HandleSignIn verify credential and issue JWT cookie
func (lh *LearnerHandler) HandleSignIn(c echo.Context) (err error) {
	post := new(learner.LearnerModel)
	if err = c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind learner entity"))
	}
	invalid := lh.Validator.AllEmpty([]string{"username", "email"}, post.Username, post.Email)
	invalid = append(invalid, lh.Validator.Empty("password", post.Password)...)
	if len(invalid) > 0 {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate credential", invalid))
	}
	if post.Email == "" {
		post.Email = post.Username
	}

	lm, err := lh.LearnerUseCase.SignIn(c.Request().Context(), post)
	if err != nil {
		switch {
		case errors.Is(err, learner.ErrNoSuchLearner):
			return c.JSON(http.StatusUnauthorized, NewRESTStandardError(http.StatusUnauthorized, err.Error()))
		case errors.Is(err, learner.ErrTooManyRetry):
			return c.JSON(http.StatusForbidden, NewRESTStandardError(http.StatusForbidden, err.Error()))
		}
		return err
	}

	tokenStr, err := lh.JWTUtil.GenerateTokenStr(lm)
	if err != nil {
		return err
	}
	lh.JWTUtil.SetClientToken(c, tokenStr)
	return c.JSON(http.StatusOK, lm)
}

// HandleSignUp register a learner
func (lh *LearnerHandler) HandleSignUp(c echo.Context) (err error) {
	post := new(learner.LearnerModel)
	if err = c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind learner entity"))
	}

	// validation
	if err := lh.Validator.Struct(post); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}

	lm, err := lh.LearnerUseCase.SignUp(c.Request().Context(), post)
	if err != nil {
		if errors.Is(err, learner.ErrDuplicatedLearner) {
			return c.JSON(http.StatusConflict, NewRESTStandardError(http.StatusConflict, err.Error()))
		}
		return err
	}
	return c.JSON(http.StatusCreated, lm)
}

// HandleSignOut clear cookie and blacklist the token until it expires
func (lh *LearnerHandler) HandleSignOut(c echo.Context) (err error) {
	ju := lh.JWTUtil
	kv := lh.KVStore

	if tokenStr, err := ju.ExtractToken(c); err == nil {
		if token, err := ju.Validate(tokenStr); err == nil {
			ju.ClearClientToken(c)
			if err := kv.SetEX(c.Request().Context(), tokenStr, "", token.TimeRemaining()); err != nil {
				return err
			}
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.NoContent(http.StatusOK)
}

// HandleLearnerExists check whether username or email is taken
func (lh *LearnerHandler) HandleLearnerExists(c echo.Context) (err error) {
	post := new(learner.LearnerModel)
	post.Username = c.QueryParam("username")
	post.Email = c.QueryParam("email")

	if err := lh.Validator.AllEmpty([]string{"username", "email"}, post.Username, post.Email); err != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", err))
	}

	existing, err := lh.LearnerUseCase.Exists(c.Request().Context(), post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existing)
}
