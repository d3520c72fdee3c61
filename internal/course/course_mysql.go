package course

import (
	"context"
	"database/sql"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
)

// CourseMySQL course repository over any driver.ITransactionalDB, queries are written in postgres
// flavor and rewritten by the mysql/sqlite wrappers.
//
// Rows must be closed before the next query is issued, sqlite in-memory databases run on a single connection.
type CourseMySQL struct {
	Conn driver.ITransactionalDB
}

var _ CourseRepository = &CourseMySQL{}

func NewCourseRepository(Conn driver.ITransactionalDB) *CourseMySQL {
	return &CourseMySQL{Conn}
}

func (repo *CourseMySQL) GetCourses(ctx context.Context) ([]*CourseModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT id, title, image_src
FROM courses
ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]*CourseModel, 0)
	for rows.Next() {
		cm := new(CourseModel)
		if err := rows.Scan(&cm.ID, &cm.Title, &cm.ImageSrc); err != nil {
			return nil, err
		}
		courses = append(courses, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, rows.Close()
}

// GetCourseByID nil if course doesn't exist
func (repo *CourseMySQL) GetCourseByID(ctx context.Context, courseID int) (*CourseModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT id, title, image_src
FROM courses
WHERE id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		cm := new(CourseModel)
		if err := rows.Scan(&cm.ID, &cm.Title, &cm.ImageSrc); err != nil {
			return nil, err
		}
		return cm, nil
	}
	return nil, rows.Err()
}

// GetProgressByUser nil if the learner has no progress row, the active course is joined in
func (repo *CourseMySQL) GetProgressByUser(ctx context.Context, userID string) (*ProgressModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT up.user_id, up.user_name, up.user_image_src, up.active_course_id, up.hearts, up.points,
       c.id, c.title, c.image_src
FROM user_progress up
LEFT JOIN courses c ON c.id = up.active_course_id
WHERE up.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		pm          = new(ProgressModel)
		activeID    sql.NullInt64
		courseID    sql.NullInt64
		courseTitle sql.NullString
		courseImage sql.NullString
	)
	if err := rows.Scan(&pm.UserID, &pm.UserName, &pm.UserImageSrc, &activeID, &pm.Hearts, &pm.Points,
		&courseID, &courseTitle, &courseImage); err != nil {
		return nil, err
	}
	if activeID.Valid {
		id := int(activeID.Int64)
		pm.ActiveCourseID = &id
	}
	if courseID.Valid {
		pm.ActiveCourse = &CourseModel{
			ID:       int(courseID.Int64),
			Title:    courseTitle.String,
			ImageSrc: courseImage.String,
		}
	}
	return pm, nil
}

func (repo *CourseMySQL) GetUnitsByCourse(ctx context.Context, courseID int) ([]*UnitModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT id, course_id, title, description, "order"
FROM units
WHERE course_id = $1
ORDER BY "order", id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]*UnitModel, 0)
	for rows.Next() {
		um := new(UnitModel)
		if err := rows.Scan(&um.ID, &um.CourseID, &um.Title, &um.Description, &um.Order); err != nil {
			return nil, err
		}
		units = append(units, um)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, rows.Close()
}

func (repo *CourseMySQL) GetLessonsByCourse(ctx context.Context, courseID int) ([]*LessonModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT l.id, l.unit_id, l.title, l."order"
FROM lessons l
INNER JOIN units u ON u.id = l.unit_id
WHERE u.course_id = $1
ORDER BY l."order", l.id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := make([]*LessonModel, 0)
	for rows.Next() {
		lm := new(LessonModel)
		if err := rows.Scan(&lm.ID, &lm.UnitID, &lm.Title, &lm.Order); err != nil {
			return nil, err
		}
		lessons = append(lessons, lm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lessons, rows.Close()
}

// GetLessonByID nil if lesson doesn't exist, Unit is populated
func (repo *CourseMySQL) GetLessonByID(ctx context.Context, lessonID int) (*LessonModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT l.id, l.unit_id, l.title, l."order",
       u.id, u.course_id, u.title, u.description, u."order"
FROM lessons l
INNER JOIN units u ON u.id = l.unit_id
WHERE l.id = $1`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		lm := &LessonModel{Unit: new(UnitModel)}
		um := lm.Unit
		if err := rows.Scan(&lm.ID, &lm.UnitID, &lm.Title, &lm.Order,
			&um.ID, &um.CourseID, &um.Title, &um.Description, &um.Order); err != nil {
			return nil, err
		}
		return lm, nil
	}
	return nil, rows.Err()
}

func (repo *CourseMySQL) GetChallengesByCourse(ctx context.Context, courseID int) ([]*ChallengeModel, error) {
	return repo.queryChallenges(ctx, `
SELECT ch.id, ch.lesson_id, ch.type, ch.question, ch."order"
FROM challenges ch
INNER JOIN lessons l ON l.id = ch.lesson_id
INNER JOIN units u ON u.id = l.unit_id
WHERE u.course_id = $1
ORDER BY ch."order", ch.id`, courseID)
}

func (repo *CourseMySQL) GetChallengesByLesson(ctx context.Context, lessonID int) ([]*ChallengeModel, error) {
	return repo.queryChallenges(ctx, `
SELECT id, lesson_id, type, question, "order"
FROM challenges
WHERE lesson_id = $1
ORDER BY "order", id`, lessonID)
}

// GetChallengeByID nil if challenge doesn't exist
func (repo *CourseMySQL) GetChallengeByID(ctx context.Context, challengeID int) (*ChallengeModel, error) {
	challenges, err := repo.queryChallenges(ctx, `
SELECT id, lesson_id, type, question, "order"
FROM challenges
WHERE id = $1`, challengeID)
	if err != nil || len(challenges) == 0 {
		return nil, err
	}
	return challenges[0], nil
}

func (repo *CourseMySQL) queryChallenges(ctx context.Context, query string, args ...interface{}) ([]*ChallengeModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := make([]*ChallengeModel, 0)
	for rows.Next() {
		cm := new(ChallengeModel)
		if err := rows.Scan(&cm.ID, &cm.LessonID, &cm.Type, &cm.Question, &cm.Order); err != nil {
			return nil, err
		}
		challenges = append(challenges, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, rows.Close()
}

func (repo *CourseMySQL) GetOptionsByLesson(ctx context.Context, lessonID int) ([]*ChallengeOptionModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT o.id, o.challenge_id, o.text, o.correct, o.image_src, o.audio_src
FROM challenge_options o
INNER JOIN challenges ch ON ch.id = o.challenge_id
WHERE ch.lesson_id = $1
ORDER BY o.id`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := make([]*ChallengeOptionModel, 0)
	for rows.Next() {
		var (
			om       = new(ChallengeOptionModel)
			imageSrc sql.NullString
			audioSrc sql.NullString
		)
		if err := rows.Scan(&om.ID, &om.ChallengeID, &om.Text, &om.Correct, &imageSrc, &audioSrc); err != nil {
			return nil, err
		}
		om.ImageSrc = imageSrc.String
		om.AudioSrc = audioSrc.String
		options = append(options, om)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return options, rows.Close()
}

func (repo *CourseMySQL) GetChallengeProgressByCourse(ctx context.Context, courseID int, userID string) ([]*ChallengeProgressModel, error) {
	return repo.queryChallengeProgress(ctx, `
SELECT cp.id, cp.challenge_id, cp.user_id, cp.completed
FROM challenge_progress cp
INNER JOIN challenges ch ON ch.id = cp.challenge_id
INNER JOIN lessons l ON l.id = ch.lesson_id
INNER JOIN units u ON u.id = l.unit_id
WHERE u.course_id = $1 AND cp.user_id = $2
ORDER BY cp.id`, courseID, userID)
}

func (repo *CourseMySQL) GetChallengeProgressByLesson(ctx context.Context, lessonID int, userID string) ([]*ChallengeProgressModel, error) {
	return repo.queryChallengeProgress(ctx, `
SELECT cp.id, cp.challenge_id, cp.user_id, cp.completed
FROM challenge_progress cp
INNER JOIN challenges ch ON ch.id = cp.challenge_id
WHERE ch.lesson_id = $1 AND cp.user_id = $2
ORDER BY cp.id`, lessonID, userID)
}

func (repo *CourseMySQL) queryChallengeProgress(ctx context.Context, query string, args ...interface{}) ([]*ChallengeProgressModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := make([]*ChallengeProgressModel, 0)
	for rows.Next() {
		cp := new(ChallengeProgressModel)
		if err := rows.Scan(&cp.ID, &cp.ChallengeID, &cp.UserID, &cp.Completed); err != nil {
			return nil, err
		}
		progress = append(progress, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return progress, rows.Close()
}

func (repo *CourseMySQL) CountChallengeProgress(ctx context.Context, challengeID int, userID string) (int, error) {
	rows, err := repo.Conn.QueryContext(ctx, `
SELECT COUNT(*)
FROM challenge_progress
WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return count, rows.Close()
}

// InsertProgress returns ErrDuplicatedProgress if the learner already has a progress row
func (repo *CourseMySQL) InsertProgress(ctx context.Context, progress *ProgressModel) error {
	_, err := repo.Conn.ExecContext(ctx, `
INSERT INTO user_progress(user_id, user_name, user_image_src, active_course_id, hearts, points)
VALUES($1, $2, $3, $4, $5, $6)`,
		progress.UserID, progress.UserName, progress.UserImageSrc, nullableInt(progress.ActiveCourseID),
		progress.Hearts, progress.Points)

	if driver.IsUniqueViolation(err) {
		return ErrDuplicatedProgress
	}
	return err
}

// UpdateActiveCourse set active course and profile, counters are left untouched
func (repo *CourseMySQL) UpdateActiveCourse(ctx context.Context, progress *ProgressModel) error {
	_, err := repo.Conn.ExecContext(ctx, `
UPDATE user_progress
SET active_course_id = $1,
    user_name = $2,
    user_image_src = $3
WHERE user_id = $4`,
		nullableInt(progress.ActiveCourseID), progress.UserName, progress.UserImageSrc, progress.UserID)
	return err
}

func (repo *CourseMySQL) CompleteChallengeProgress(ctx context.Context, challengeID int, userID string) error {
	_, err := repo.Conn.ExecContext(ctx, `
UPDATE challenge_progress
SET completed = $1
WHERE challenge_id = $2 AND user_id = $3`, true, challengeID, userID)
	return err
}

func (repo *CourseMySQL) InsertChallengeProgress(ctx context.Context, cp *ChallengeProgressModel) error {
	_, err := repo.Conn.ExecContext(ctx, `
INSERT INTO challenge_progress(challenge_id, user_id, completed)
VALUES($1, $2, $3)`, cp.ChallengeID, cp.UserID, cp.Completed)
	return err
}

func (repo *CourseMySQL) AddPoints(ctx context.Context, userID string, points int) error {
	_, err := repo.Conn.ExecContext(ctx, `
UPDATE user_progress
SET points = points + $1
WHERE user_id = $2`, points, userID)
	return err
}

// ReduceHearts decrease hearts by one, never below zero
func (repo *CourseMySQL) ReduceHearts(ctx context.Context, userID string) error {
	_, err := repo.Conn.ExecContext(ctx, `
UPDATE user_progress
SET hearts = CASE WHEN hearts > 0 THEN hearts - 1 ELSE 0 END
WHERE user_id = $1`, userID)
	return err
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
