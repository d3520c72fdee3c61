package testutil

import (
	"context"
	"testing"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
)

func exec(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, what, query string, args ...interface{}) {
	tb.Helper()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		tb.Fatalf("seed %s: %v", what, err)
	}
}

func SeedCourse(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, id int, title string) {
	tb.Helper()
	exec(tb, ctx, db, "course",
		`INSERT INTO courses(id, title, image_src) VALUES($1, $2, $3)`, id, title, "/"+title+".svg")
}

func SeedUnit(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, id, courseID, order int) {
	tb.Helper()
	exec(tb, ctx, db, "unit",
		`INSERT INTO units(id, course_id, title, description, "order") VALUES($1, $2, $3, $4, $5)`,
		id, courseID, "Unit", "Learn the basics", order)
}

func SeedLesson(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, id, unitID, order int) {
	tb.Helper()
	exec(tb, ctx, db, "lesson",
		`INSERT INTO lessons(id, unit_id, title, "order") VALUES($1, $2, $3, $4)`, id, unitID, "Nouns", order)
}

func SeedChallenge(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, id, lessonID, order int, typ string) {
	tb.Helper()
	exec(tb, ctx, db, "challenge",
		`INSERT INTO challenges(id, lesson_id, type, question, "order") VALUES($1, $2, $3, $4, $5)`,
		id, lessonID, typ, "Which one of these is \"the man\"?", order)
}

func SeedOption(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, id, challengeID int, correct bool) {
	tb.Helper()
	exec(tb, ctx, db, "challenge option",
		`INSERT INTO challenge_options(id, challenge_id, text, correct, image_src, audio_src) VALUES($1, $2, $3, $4, $5, NULL)`,
		id, challengeID, "el hombre", correct, "/man.svg")
}

func SeedChallengeProgress(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, userID string, challengeID int, completed bool) {
	tb.Helper()
	exec(tb, ctx, db, "challenge progress",
		`INSERT INTO challenge_progress(user_id, challenge_id, completed) VALUES($1, $2, $3)`, userID, challengeID, completed)
}

func SeedProgress(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, userID string, courseID, hearts, points int) {
	tb.Helper()
	exec(tb, ctx, db, "progress",
		`INSERT INTO user_progress(user_id, user_name, user_image_src, active_course_id, hearts, points) VALUES($1, $2, $3, $4, $5, $6)`,
		userID, "learner", "/learner.svg", courseID, hearts, points)
}
