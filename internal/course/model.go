package course

import (
	"context"
	"errors"
)

// challenge types
const (
	ChallengeSelect = "SELECT"
	ChallengeAssist = "ASSIST"
)

type CourseModel struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageSrc string `json:"image_src"`
}

// ProgressModel one row per learner, holds the active course and counters
type ProgressModel struct {
	UserID         string       `json:"user_id"`
	UserName       string       `json:"user_name"`
	UserImageSrc   string       `json:"user_image_src"`
	ActiveCourseID *int         `json:"active_course_id"`
	ActiveCourse   *CourseModel `json:"active_course"`
	Hearts         int          `json:"hearts"`
	Points         int          `json:"points"`
}

type UnitModel struct {
	ID          int            `json:"id"`
	CourseID    int            `json:"course_id"`
	Order       int            `json:"order"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Lessons     []*LessonModel `json:"lessons"`
}

type LessonModel struct {
	ID         int               `json:"id"`
	UnitID     int               `json:"unit_id"`
	Order      int               `json:"order"`
	Title      string            `json:"title"`
	Unit       *UnitModel        `json:"unit,omitempty"`
	Challenges []*ChallengeModel `json:"challenges"`
}

type ChallengeModel struct {
	ID          int                     `json:"id"`
	LessonID    int                     `json:"lesson_id"`
	Type        string                  `json:"type"`
	Question    string                  `json:"question"`
	Order       int                     `json:"order"`
	Options     []*ChallengeOptionModel `json:"options,omitempty"`
	IsCompleted bool                    `json:"is_completed"`

	// number of progress rows the learner has for this challenge
	attempts int
}

// Attempted reports whether the learner has any progress row for the challenge
func (cm *ChallengeModel) Attempted() bool {
	return cm.attempts > 0
}

type ChallengeOptionModel struct {
	ID          int    `json:"id"`
	ChallengeID int    `json:"challenge_id"`
	Text        string `json:"text"`
	Correct     bool   `json:"-"` // answer key, graded server side only
	ImageSrc    string `json:"image_src,omitempty"`
	AudioSrc    string `json:"audio_src,omitempty"`
}

type ChallengeProgressModel struct {
	ID          int    `json:"id"`
	ChallengeID int    `json:"challenge_id"`
	UserID      string `json:"user_id"`
	Completed   bool   `json:"completed"`
}

// CourseProgress where a learner should resume the active course
type CourseProgress struct {
	ActiveLesson   *LessonModel `json:"active_lesson"`
	ActiveLessonID int          `json:"active_lesson_id"`
}

// Learner identity and profile supplied by the identity boundary
type Learner struct {
	ID        string
	Name      string
	AvatarURL string
}

var (
	// ErrUnauthorized no learner identity available for a write
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrNoSuchCourse referenced course does not exist
	ErrNoSuchCourse = errors.New("No such course")
	// ErrNoSuchChallenge referenced challenge does not exist
	ErrNoSuchChallenge = errors.New("No such challenge")
	// ErrNoSuchProgress learner has not selected any course yet
	ErrNoSuchProgress = errors.New("No progress found, select a course first")
	// ErrDuplicatedProgress unique key constraint violation on user_progress.user_id
	ErrDuplicatedProgress = errors.New("Progress of the learner already exists")
)

type CourseRepository interface {
	GetCourses(ctx context.Context) ([]*CourseModel, error)
	GetCourseByID(ctx context.Context, courseID int) (*CourseModel, error)
	GetProgressByUser(ctx context.Context, userID string) (*ProgressModel, error)
	GetUnitsByCourse(ctx context.Context, courseID int) ([]*UnitModel, error)
	GetLessonsByCourse(ctx context.Context, courseID int) ([]*LessonModel, error)
	GetLessonByID(ctx context.Context, lessonID int) (*LessonModel, error)
	GetChallengesByCourse(ctx context.Context, courseID int) ([]*ChallengeModel, error)
	GetChallengesByLesson(ctx context.Context, lessonID int) ([]*ChallengeModel, error)
	GetChallengeByID(ctx context.Context, challengeID int) (*ChallengeModel, error)
	GetOptionsByLesson(ctx context.Context, lessonID int) ([]*ChallengeOptionModel, error)
	GetChallengeProgressByCourse(ctx context.Context, courseID int, userID string) ([]*ChallengeProgressModel, error)
	GetChallengeProgressByLesson(ctx context.Context, lessonID int, userID string) ([]*ChallengeProgressModel, error)
	CountChallengeProgress(ctx context.Context, challengeID int, userID string) (int, error)
	InsertProgress(ctx context.Context, progress *ProgressModel) error
	UpdateActiveCourse(ctx context.Context, progress *ProgressModel) error
	CompleteChallengeProgress(ctx context.Context, challengeID int, userID string) error
	InsertChallengeProgress(ctx context.Context, cp *ChallengeProgressModel) error
	AddPoints(ctx context.Context, userID string, points int) error
	ReduceHearts(ctx context.Context, userID string) error
}

type CourseUseCase interface {
	GetCourses(ctx context.Context) []*CourseModel
	GetCourseByID(ctx context.Context, courseID int) *CourseModel
	GetProgress(ctx context.Context, scope *Scope, learnerID string) *ProgressModel
	GetCatalog(ctx context.Context, scope *Scope, courseID int, learnerID string) []*UnitModel
	GetUnits(ctx context.Context, scope *Scope, learnerID string) []*UnitModel
	GetLesson(ctx context.Context, scope *Scope, learnerID string, lessonID int) *LessonModel
	ResolveActiveLesson(ctx context.Context, scope *Scope, learnerID string) *CourseProgress
	GetLessonPercentage(ctx context.Context, scope *Scope, learnerID string) int
	SelectCourse(ctx context.Context, scope *Scope, learner *Learner, courseID int) error
	CompleteChallenge(ctx context.Context, scope *Scope, learnerID string, challengeID int) error
	ReduceHearts(ctx context.Context, scope *Scope, learnerID string) (int, error)
}
