package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/course"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
	"github.com/pot-code/lingo-server/internal/infrastructure/validate"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/middleware"
	"golang.org/x/sync/errgroup"
)

type CourseHandler struct {
	courseUseCase course.CourseUseCase
	validator     validate.Validator
	jwtUtil       *auth.JWTUtil
}

func NewCourseHandler(
	CourseUseCase course.CourseUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *CourseHandler {
	return &CourseHandler{CourseUseCase, Validator, JWTUtil}
}

// CoursesPayload course list with the learner's active course
type CoursesPayload struct {
	Courses        []*course.CourseModel `json:"courses"`
	ActiveCourseID *int                  `json:"active_course_id"`
}

// HandleGetCourses list all courses
func (ch *CourseHandler) HandleGetCourses(c echo.Context) (err error) {
	ctx := c.Request().Context()
	payload := &CoursesPayload{Courses: ch.courseUseCase.GetCourses(ctx)}
	if progress := ch.courseUseCase.GetProgress(ctx, middleware.GetScope(c), currentLearnerID(c, ch.jwtUtil)); progress != nil {
		payload.ActiveCourseID = progress.ActiveCourseID
	}
	return c.JSON(http.StatusOK, payload)
}

// HandleGetProgress progress of the learner, null for anonymous learners or before any selection
func (ch *CourseHandler) HandleGetProgress(c echo.Context) (err error) {
	progress := ch.courseUseCase.GetProgress(c.Request().Context(), middleware.GetScope(c), currentLearnerID(c, ch.jwtUtil))
	return c.JSON(http.StatusOK, progress)
}

type selectCourseRequest struct {
	CourseID int `json:"course_id"`
}

// HandleSelectCourse set active course of the learner
func (ch *CourseHandler) HandleSelectCourse(c echo.Context) (err error) {
	post := new(selectCourseRequest)
	if err = c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind course selection"))
	}
	if err := ch.validator.Var("course_id", post.CourseID, "required,min=1"); err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", err))
	}

	err = ch.courseUseCase.SelectCourse(c.Request().Context(), middleware.GetScope(c), currentLearner(c, ch.jwtUtil), post.CourseID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, course.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, NewRESTStandardError(http.StatusUnauthorized, err.Error()))
	case errors.Is(err, course.ErrNoSuchCourse):
		return c.JSON(http.StatusNotFound, NewRESTStandardError(http.StatusNotFound, err.Error()))
	}
	return err
}

// LearnPayload everything the learn page renders
type LearnPayload struct {
	Progress         *course.ProgressModel  `json:"progress"`
	Units            []*course.UnitModel    `json:"units"`
	CourseProgress   *course.CourseProgress `json:"course_progress"`
	LessonPercentage int                    `json:"lesson_percentage"`
}

// HandleGetLearn fan out the readers of the learn page, they share the request scope
func (ch *CourseHandler) HandleGetLearn(c echo.Context) (err error) {
	var (
		cu        = ch.courseUseCase
		scope     = middleware.GetScope(c)
		learnerID = currentLearnerID(c, ch.jwtUtil)
		payload   = new(LearnPayload)
	)

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		payload.Progress = cu.GetProgress(ctx, scope, learnerID)
		return nil
	})
	g.Go(func() error {
		payload.Units = cu.GetUnits(ctx, scope, learnerID)
		return nil
	})
	g.Go(func() error {
		payload.CourseProgress = cu.ResolveActiveLesson(ctx, scope, learnerID)
		return nil
	})
	g.Go(func() error {
		payload.LessonPercentage = cu.GetLessonPercentage(ctx, scope, learnerID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payload)
}

// HandleGetLesson lesson with challenges, options and completion, "active" resolves the resume lesson
func (ch *CourseHandler) HandleGetLesson(c echo.Context) (err error) {
	lessonID := 0
	if param := c.Param("id"); param != "active" {
		lessonID, err = strconv.Atoi(param)
		if err != nil || lessonID < 1 {
			return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params",
				validate.FieldErrors{validate.NewFieldError("id", "id must be a positive integer or 'active'")}))
		}
	}

	lesson := ch.courseUseCase.GetLesson(c.Request().Context(), middleware.GetScope(c), currentLearnerID(c, ch.jwtUtil), lessonID)
	if lesson == nil {
		return c.JSON(http.StatusNotFound, NewRESTStandardError(http.StatusNotFound, "No such lesson"))
	}
	return c.JSON(http.StatusOK, lesson)
}
