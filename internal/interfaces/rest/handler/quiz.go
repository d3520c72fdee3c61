package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/lingo-server/internal/course"
	"github.com/pot-code/lingo-server/internal/infrastructure/auth"
	"github.com/pot-code/lingo-server/internal/infrastructure/logging"
	"github.com/pot-code/lingo-server/internal/interfaces/rest/middleware"
	"github.com/pot-code/lingo-server/internal/quiz"
	"go.uber.org/zap"
)

// quiz message types
const (
	quizMessageState  = "state"
	quizMessageResult = "result"
	quizMessageError  = "error"
)

type QuizHandler struct {
	courseUseCase course.CourseUseCase
	jwtUtil       *auth.JWTUtil
	policy        quiz.ReviewPolicy
}

func NewQuizHandler(
	CourseUseCase course.CourseUseCase,
	JWTUtil *auth.JWTUtil,
	Policy quiz.ReviewPolicy,
) *QuizHandler {
	return &QuizHandler{CourseUseCase, JWTUtil, Policy}
}

type quizAnswer struct {
	OptionID int `json:"option_id"`
}

type quizState struct {
	LessonID    int                    `json:"lesson_id"`
	Title       string                 `json:"title"`
	Challenge   *course.ChallengeModel `json:"challenge"`
	ActiveIndex int                    `json:"active_index"`
	Total       int                    `json:"total"`
	Hearts      int                    `json:"hearts"`
	Percentage  int                    `json:"percentage"`
	State       quiz.State             `json:"state"`
}

type quizMessage struct {
	Type   string       `json:"type"`
	State  *quizState   `json:"state,omitempty"`
	Result *quiz.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// HandleQuiz run a quiz session over the connection, answers are persisted as they are graded
func (qh *QuizHandler) HandleQuiz(c echo.Context, conn *websocket.Conn) error {
	var (
		ctx       = c.Request().Context()
		cu        = qh.courseUseCase
		scope     = middleware.GetScope(c)
		learnerID = currentLearnerID(c, qh.jwtUtil)
		logger    = logging.ExtractLoggerFromContext(ctx)
	)

	lessonID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return closeWithError(conn, "lesson id must be an integer")
	}
	progress := cu.GetProgress(ctx, scope, learnerID)
	if progress == nil {
		return closeWithError(conn, course.ErrNoSuchProgress.Error())
	}
	lesson := cu.GetLesson(ctx, scope, learnerID, lessonID)
	if lesson == nil {
		return closeWithError(conn, "No such lesson")
	}
	session, err := quiz.NewSession(lesson.Challenges, progress.Hearts, qh.policy)
	if err != nil {
		return closeWithError(conn, err.Error())
	}

	if err := conn.WriteJSON(&quizMessage{Type: quizMessageState, State: newQuizState(lesson.ID, session)}); err != nil {
		return err
	}
	for session.State() == quiz.InProgress {
		answer := new(quizAnswer)
		if err := conn.ReadJSON(answer); err != nil {
			if !isMalformedJSON(err) {
				return err
			}
			if err := conn.WriteJSON(&quizMessage{Type: quizMessageError, Error: "malformed answer"}); err != nil {
				return err
			}
			continue
		}

		result, err := session.Answer(answer.OptionID)
		if errors.Is(err, quiz.ErrUnknownOption) {
			if err := conn.WriteJSON(&quizMessage{Type: quizMessageError, Error: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if result.Correct {
			err = cu.CompleteChallenge(ctx, scope, learnerID, result.ChallengeID)
		} else {
			_, err = cu.ReduceHearts(ctx, scope, learnerID)
		}
		if err != nil {
			logger.Error("failed to persist quiz answer",
				zap.String("learner.id", learnerID), zap.Int("challenge.id", result.ChallengeID), zap.Error(err))
			return err
		}

		if err := conn.WriteJSON(&quizMessage{
			Type:   quizMessageResult,
			Result: result,
			State:  newQuizState(lesson.ID, session),
		}); err != nil {
			return err
		}
	}

	return conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(session.State())),
		time.Now().Add(time.Second))
}

func newQuizState(lessonID int, s *quiz.Session) *quizState {
	return &quizState{
		LessonID:    lessonID,
		Title:       s.Title(),
		Challenge:   s.Challenge(),
		ActiveIndex: s.ActiveIndex(),
		Total:       s.Len(),
		Hearts:      s.Hearts(),
		Percentage:  s.Percentage(),
		State:       s.State(),
	}
}

func closeWithError(conn *websocket.Conn, reason string) error {
	if err := conn.WriteJSON(&quizMessage{Type: quizMessageError, Error: reason}); err != nil {
		return err
	}
	return conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func isMalformedJSON(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
