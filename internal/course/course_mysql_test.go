package course

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
	"github.com/pot-code/lingo-server/internal/testutil"
)

var errStreamBroken = errors.New("connection reset mid stream")

// brokenStreamDB row streams of queries containing match stop after rows rows and report errStreamBroken
type brokenStreamDB struct {
	driver.ITransactionalDB
	match string
	rows  int
}

func (db *brokenStreamDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	rows, err := db.ITransactionalDB.QueryContext(ctx, query, args...)
	if err != nil || !strings.Contains(query, db.match) {
		return rows, err
	}
	return &brokenRows{ISQLRows: rows, left: db.rows}, nil
}

type brokenRows struct {
	driver.ISQLRows
	left int
	err  error
}

func (br *brokenRows) Next() bool {
	if br.left == 0 {
		br.err = errStreamBroken
		return false
	}
	br.left--
	return br.ISQLRows.Next()
}

func (br *brokenRows) Err() error {
	if br.err != nil {
		return br.err
	}
	return br.ISQLRows.Err()
}

func TestCourseMySQL_TruncatedStreamIsAnError(t *testing.T) {
	ctx := testutil.Context(t)
	db := testutil.DB(t)
	seedCourse(t, ctx, db)
	testutil.SeedProgress(t, ctx, db, "a", 1, 5, 0)

	repo := NewCourseRepository(&brokenStreamDB{ITransactionalDB: db, match: "FROM challenges", rows: 1})
	challenges, err := repo.GetChallengesByCourse(ctx, 1)
	if !errors.Is(err, errStreamBroken) {
		t.Fatalf("GetChallengesByCourse() = %d challenges, error %v, want errStreamBroken", len(challenges), err)
	}
	if challenges != nil {
		t.Errorf("GetChallengesByCourse() returned %d challenges along with the error", len(challenges))
	}

	repo = NewCourseRepository(&brokenStreamDB{ITransactionalDB: db, match: "FROM courses", rows: 0})
	if course, err := repo.GetCourseByID(ctx, 1); !errors.Is(err, errStreamBroken) {
		t.Errorf("GetCourseByID() = %+v, %v, want errStreamBroken instead of not found", course, err)
	}

	repo = NewCourseRepository(&brokenStreamDB{ITransactionalDB: db, match: "FROM user_progress", rows: 0})
	if progress, err := repo.GetProgressByUser(ctx, "a"); !errors.Is(err, errStreamBroken) {
		t.Errorf("GetProgressByUser() = %+v, %v, want errStreamBroken instead of no progress", progress, err)
	}
}

func TestReaders_TruncatedCatalogDegrades(t *testing.T) {
	ctx := testutil.Context(t)
	db := testutil.DB(t)
	seedCourse(t, ctx, db)
	testutil.SeedProgress(t, ctx, db, "a", 1, 5, 0)
	testutil.SeedChallengeProgress(t, ctx, db, "a", 211, true)

	broken := &brokenStreamDB{ITransactionalDB: db, match: "FROM challenges", rows: 1}
	cu := NewCourseUseCase(NewCourseRepository(broken), DefaultOptions)

	if units := cu.GetCatalog(ctx, NewScope(), 1, "a"); len(units) != 0 {
		t.Errorf("GetCatalog() = %d units from a truncated read, want empty list", len(units))
	}
	// with only challenge 111 read, lessons 21 and 22 would look empty and lesson 11 would be resumed
	if cp := cu.ResolveActiveLesson(ctx, nil, "a"); cp != nil {
		t.Errorf("ResolveActiveLesson() = lesson %d from a truncated read, want nil", cp.ActiveLessonID)
	}
}
