package course

import (
	"context"
	"errors"

	"github.com/pot-code/lingo-server/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// Options tunables of the course use case
type Options struct {
	DefaultHearts      int    // hearts of a newly created progress
	DefaultPoints      int    // points of a newly created progress
	PointsPerChallenge int    // points rewarded for a completed challenge
	DefaultUserName    string // used when the learner profile has no name
	DefaultUserImage   string // used when the learner profile has no avatar
}

// DefaultOptions values used by the application when nothing is configured
var DefaultOptions = Options{
	DefaultHearts:      5,
	DefaultPoints:      0,
	PointsPerChallenge: 10,
	DefaultUserName:    "User",
	DefaultUserImage:   "/mascot.svg",
}

// CourseUseCaseImpl ...
type CourseUseCaseImpl struct {
	CourseRepository CourseRepository
	Options          Options
}

var _ CourseUseCase = &CourseUseCaseImpl{}

// NewCourseUseCase ...
func NewCourseUseCase(
	CourseRepository CourseRepository,
	Options Options,
) *CourseUseCaseImpl {
	return &CourseUseCaseImpl{CourseRepository, Options}
}

// GetCourses list all courses, empty on store failure
func (cu *CourseUseCaseImpl) GetCourses(ctx context.Context) []*CourseModel {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.GetCourses", "service")
	defer apmSpan.End()

	courses, err := cu.CourseRepository.GetCourses(ctx)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Error("failed to read courses", zap.Error(err))
		return make([]*CourseModel, 0)
	}
	return courses
}

// GetCourseByID nil if the course doesn't exist or can't be read
func (cu *CourseUseCaseImpl) GetCourseByID(ctx context.Context, courseID int) *CourseModel {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.GetCourseByID", "service")
	defer apmSpan.End()

	course, err := cu.CourseRepository.GetCourseByID(ctx, courseID)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Error("failed to read course",
			zap.Int("course.id", courseID), zap.Error(err))
		return nil
	}
	return course
}

// GetProgress progress of the learner, nil if unauthenticated or no progress yet
func (cu *CourseUseCaseImpl) GetProgress(ctx context.Context, scope *Scope, learnerID string) *ProgressModel {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.GetProgress", "service")
	defer apmSpan.End()

	if learnerID == "" {
		return nil
	}
	key := scopeKey{kind: scopeProgress, learnerID: learnerID}
	v := scope.load(key, func() interface{} {
		progress, err := cu.CourseRepository.GetProgressByUser(ctx, learnerID)
		if err != nil {
			logging.ExtractLoggerFromContext(ctx).Error("failed to read progress",
				zap.String("learner.id", learnerID), zap.Error(err))
			return (*ProgressModel)(nil)
		}
		return progress
	})
	progress, _ := v.(*ProgressModel)
	return progress
}

// GetCatalog units of the course with lessons and challenges, completion flags belong to the learner
func (cu *CourseUseCaseImpl) GetCatalog(ctx context.Context, scope *Scope, courseID int, learnerID string) []*UnitModel {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.GetCatalog", "service")
	defer apmSpan.End()

	if learnerID == "" || courseID == 0 {
		return make([]*UnitModel, 0)
	}
	key := scopeKey{kind: scopeCatalog, learnerID: learnerID, courseID: courseID}
	v := scope.load(key, func() interface{} {
		units, err := cu.loadCatalog(ctx, courseID, learnerID)
		if err != nil {
			logging.ExtractLoggerFromContext(ctx).Error("failed to read catalog",
				zap.String("learner.id", learnerID), zap.Int("course.id", courseID), zap.Error(err))
			return make([]*UnitModel, 0)
		}
		return units
	})
	units, _ := v.([]*UnitModel)
	if units == nil {
		units = make([]*UnitModel, 0)
	}
	return units
}

// GetUnits catalog of the learner's active course
func (cu *CourseUseCaseImpl) GetUnits(ctx context.Context, scope *Scope, learnerID string) []*UnitModel {
	progress := cu.GetProgress(ctx, scope, learnerID)
	if progress == nil || progress.ActiveCourseID == nil {
		return make([]*UnitModel, 0)
	}
	return cu.GetCatalog(ctx, scope, *progress.ActiveCourseID, learnerID)
}

func (cu *CourseUseCaseImpl) loadCatalog(ctx context.Context, courseID int, learnerID string) ([]*UnitModel, error) {
	repo := cu.CourseRepository
	units, err := repo.GetUnitsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := repo.GetLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	challenges, err := repo.GetChallengesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	progress, err := repo.GetChallengeProgressByCourse(ctx, courseID, learnerID)
	if err != nil {
		return nil, err
	}
	annotateCompletion(challenges, progress, learnerID)
	return assembleCatalog(units, lessons, challenges), nil
}

// ResolveActiveLesson first lesson the learner hasn't finished, nil when there is none.
//
// The catalog is always read from the store, completion may change between calls.
func (cu *CourseUseCaseImpl) ResolveActiveLesson(ctx context.Context, scope *Scope, learnerID string) *CourseProgress {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.ResolveActiveLesson", "service")
	defer apmSpan.End()

	progress := cu.GetProgress(ctx, scope, learnerID)
	if progress == nil || progress.ActiveCourseID == nil {
		return nil
	}
	units, err := cu.loadCatalog(ctx, *progress.ActiveCourseID, learnerID)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Error("failed to resolve active lesson",
			zap.String("learner.id", learnerID), zap.Error(err))
		return nil
	}

	unit, lesson := firstUncompletedLesson(units)
	if lesson == nil {
		return nil
	}
	parent := *unit
	parent.Lessons = nil
	active := *lesson
	active.Unit = &parent
	return &CourseProgress{
		ActiveLesson:   &active,
		ActiveLessonID: active.ID,
	}
}

// GetLessonPercentage completion of the active lesson in percent, 0 without an active lesson
func (cu *CourseUseCaseImpl) GetLessonPercentage(ctx context.Context, scope *Scope, learnerID string) int {
	cp := cu.ResolveActiveLesson(ctx, scope, learnerID)
	if cp == nil {
		return 0
	}
	return lessonPercentage(cp.ActiveLesson)
}

// GetLesson lesson with ordered challenges, options and completion of the learner.
//
// lessonID 0 stands for the active lesson. nil if unauthenticated, missing or unreadable.
func (cu *CourseUseCaseImpl) GetLesson(ctx context.Context, scope *Scope, learnerID string, lessonID int) *LessonModel {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.GetLesson", "service")
	defer apmSpan.End()

	if learnerID == "" {
		return nil
	}
	if lessonID == 0 {
		cp := cu.ResolveActiveLesson(ctx, scope, learnerID)
		if cp == nil {
			return nil
		}
		lessonID = cp.ActiveLessonID
	}

	lesson, err := cu.loadLesson(ctx, lessonID, learnerID)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Error("failed to read lesson",
			zap.String("learner.id", learnerID), zap.Int("lesson.id", lessonID), zap.Error(err))
		return nil
	}
	return lesson
}

func (cu *CourseUseCaseImpl) loadLesson(ctx context.Context, lessonID int, learnerID string) (*LessonModel, error) {
	repo := cu.CourseRepository
	lesson, err := repo.GetLessonByID(ctx, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	challenges, err := repo.GetChallengesByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	options, err := repo.GetOptionsByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	progress, err := repo.GetChallengeProgressByLesson(ctx, lessonID, learnerID)
	if err != nil {
		return nil, err
	}

	attachOptions(challenges, options)
	annotateCompletion(challenges, progress, learnerID)
	sortChallenges(challenges)
	lesson.Challenges = challenges
	return lesson, nil
}

// SelectCourse make courseID the active course of the learner, creating the progress on first selection
func (cu *CourseUseCaseImpl) SelectCourse(ctx context.Context, scope *Scope, learner *Learner, courseID int) error {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.SelectCourse", "service")
	defer apmSpan.End()

	if learner == nil || learner.ID == "" {
		return ErrUnauthorized
	}
	repo := cu.CourseRepository
	course, err := repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrNoSuchCourse
	}

	progress := &ProgressModel{
		UserID:         learner.ID,
		UserName:       learner.Name,
		UserImageSrc:   learner.AvatarURL,
		ActiveCourseID: &course.ID,
		Hearts:         cu.Options.DefaultHearts,
		Points:         cu.Options.DefaultPoints,
	}
	if progress.UserName == "" {
		progress.UserName = cu.Options.DefaultUserName
	}
	if progress.UserImageSrc == "" {
		progress.UserImageSrc = cu.Options.DefaultUserImage
	}

	existing, err := repo.GetProgressByUser(ctx, learner.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		err = repo.UpdateActiveCourse(ctx, progress)
	} else {
		err = repo.InsertProgress(ctx, progress)
		if errors.Is(err, ErrDuplicatedProgress) {
			// lost the race against a concurrent selection
			err = repo.UpdateActiveCourse(ctx, progress)
		}
	}
	if err != nil {
		return err
	}

	scope.Invalidate(learner.ID)
	return nil
}

// CompleteChallenge mark the challenge completed for the learner and reward points
func (cu *CourseUseCaseImpl) CompleteChallenge(ctx context.Context, scope *Scope, learnerID string, challengeID int) error {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.CompleteChallenge", "service")
	defer apmSpan.End()

	if learnerID == "" {
		return ErrUnauthorized
	}
	repo := cu.CourseRepository
	challenge, err := repo.GetChallengeByID(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return ErrNoSuchChallenge
	}
	progress, err := repo.GetProgressByUser(ctx, learnerID)
	if err != nil {
		return err
	}
	if progress == nil {
		return ErrNoSuchProgress
	}

	count, err := repo.CountChallengeProgress(ctx, challengeID, learnerID)
	if err != nil {
		return err
	}
	if count > 0 {
		err = repo.CompleteChallengeProgress(ctx, challengeID, learnerID)
	} else {
		err = repo.InsertChallengeProgress(ctx, &ChallengeProgressModel{
			ChallengeID: challengeID,
			UserID:      learnerID,
			Completed:   true,
		})
	}
	if err != nil {
		return err
	}
	if err := repo.AddPoints(ctx, learnerID, cu.Options.PointsPerChallenge); err != nil {
		return err
	}

	scope.Invalidate(learnerID)
	return nil
}

// ReduceHearts take one heart from the learner, returns hearts left as stored after the update
func (cu *CourseUseCaseImpl) ReduceHearts(ctx context.Context, scope *Scope, learnerID string) (int, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCaseImpl.ReduceHearts", "service")
	defer apmSpan.End()

	if learnerID == "" {
		return 0, ErrUnauthorized
	}
	repo := cu.CourseRepository
	if err := repo.ReduceHearts(ctx, learnerID); err != nil {
		return 0, err
	}
	scope.Invalidate(learnerID)

	// another session of the same learner may have charged a heart in between
	progress, err := repo.GetProgressByUser(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	if progress == nil {
		return 0, ErrNoSuchProgress
	}
	return progress.Hearts, nil
}
