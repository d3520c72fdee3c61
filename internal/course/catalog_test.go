package course

import (
	"testing"
)

func challenge(id, lessonID, order int) *ChallengeModel {
	return &ChallengeModel{ID: id, LessonID: lessonID, Order: order, Type: ChallengeSelect}
}

func row(challengeID int, userID string, completed bool) *ChallengeProgressModel {
	return &ChallengeProgressModel{ChallengeID: challengeID, UserID: userID, Completed: completed}
}

func TestAnnotateCompletion(t *testing.T) {
	tests := []struct {
		name     string
		progress []*ChallengeProgressModel
		want     bool
	}{
		{"no rows", nil, false},
		{"single completed row", []*ChallengeProgressModel{row(1, "a", true)}, true},
		{"all rows completed", []*ChallengeProgressModel{row(1, "a", true), row(1, "a", true)}, true},
		{"mixed rows", []*ChallengeProgressModel{row(1, "a", true), row(1, "a", false)}, false},
		{"only uncompleted rows", []*ChallengeProgressModel{row(1, "a", false)}, false},
		{"rows of another learner", []*ChallengeProgressModel{row(1, "b", true)}, false},
		{"rows of another challenge", []*ChallengeProgressModel{row(2, "a", true)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := challenge(1, 1, 1)
			annotateCompletion([]*ChallengeModel{c}, tt.progress, "a")
			if c.IsCompleted != tt.want {
				t.Errorf("IsCompleted = %v, want %v", c.IsCompleted, tt.want)
			}
		})
	}
}

func TestAnnotateCompletion_Attempted(t *testing.T) {
	attempted, fresh := challenge(1, 1, 1), challenge(2, 1, 2)
	annotateCompletion([]*ChallengeModel{attempted, fresh}, []*ChallengeProgressModel{row(1, "a", false)}, "a")

	if !attempted.Attempted() {
		t.Error("challenge with an uncompleted row should count as attempted")
	}
	if fresh.Attempted() {
		t.Error("challenge without rows should not count as attempted")
	}
}

func TestAssembleCatalog_Ordering(t *testing.T) {
	units := []*UnitModel{
		{ID: 1, Order: 3},
		{ID: 2, Order: 1},
		{ID: 3, Order: 2},
	}
	lessons := []*LessonModel{
		{ID: 10, UnitID: 2, Order: 2},
		{ID: 11, UnitID: 2, Order: 1},
		{ID: 12, UnitID: 1, Order: 1},
		{ID: 13, UnitID: 99, Order: 1}, // orphan
	}
	challenges := []*ChallengeModel{
		challenge(100, 11, 2),
		challenge(101, 11, 1),
		challenge(102, 10, 1),
	}

	got := assembleCatalog(units, lessons, challenges)

	var unitIDs []int
	for _, u := range got {
		unitIDs = append(unitIDs, u.ID)
	}
	assertInts(t, "unit order", unitIDs, []int{2, 3, 1})

	var lessonIDs []int
	for _, l := range got[0].Lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	assertInts(t, "lesson order", lessonIDs, []int{11, 10})

	var challengeIDs []int
	for _, c := range got[0].Lessons[0].Challenges {
		challengeIDs = append(challengeIDs, c.ID)
	}
	assertInts(t, "challenge order", challengeIDs, []int{101, 100})

	if got[1].Lessons == nil || len(got[1].Lessons) != 0 {
		t.Errorf("unit without lessons should carry an empty list, got %v", got[1].Lessons)
	}
}

func TestAssembleCatalog_StableOnEqualOrder(t *testing.T) {
	units := []*UnitModel{{ID: 5, Order: 1}, {ID: 4, Order: 1}}
	got := assembleCatalog(units, nil, nil)
	assertInts(t, "unit order", []int{got[0].ID, got[1].ID}, []int{4, 5})
}

// L1 fully completed, L2 with one never attempted challenge, L3 untouched
func resumeFixture(progress []*ChallengeProgressModel) []*UnitModel {
	units := []*UnitModel{{ID: 1, Order: 1}}
	lessons := []*LessonModel{
		{ID: 3, UnitID: 1, Order: 3},
		{ID: 1, UnitID: 1, Order: 1},
		{ID: 2, UnitID: 1, Order: 2},
	}
	challenges := []*ChallengeModel{
		challenge(10, 1, 1), challenge(11, 1, 2),
		challenge(20, 2, 1), challenge(21, 2, 2),
		challenge(30, 3, 1),
	}
	annotateCompletion(challenges, progress, "a")
	return assembleCatalog(units, lessons, challenges)
}

func TestFirstUncompletedLesson(t *testing.T) {
	units := resumeFixture([]*ChallengeProgressModel{
		row(10, "a", true), row(11, "a", true),
		row(20, "a", true),
	})
	unit, lesson := firstUncompletedLesson(units)
	if lesson == nil {
		t.Fatal("expected an active lesson")
	}
	if lesson.ID != 2 {
		t.Errorf("active lesson = %d, want 2", lesson.ID)
	}
	if unit.ID != 1 {
		t.Errorf("active unit = %d, want 1", unit.ID)
	}
}

func TestFirstUncompletedLesson_AttemptedCountsAsStarted(t *testing.T) {
	// a failed attempt still moves the resume point forward
	units := resumeFixture([]*ChallengeProgressModel{
		row(10, "a", false), row(11, "a", true),
	})
	_, lesson := firstUncompletedLesson(units)
	if lesson == nil || lesson.ID != 2 {
		t.Errorf("active lesson = %v, want 2", lesson)
	}
}

func TestFirstUncompletedLesson_AllCompleted(t *testing.T) {
	units := resumeFixture([]*ChallengeProgressModel{
		row(10, "a", true), row(11, "a", true),
		row(20, "a", true), row(21, "a", true),
		row(30, "a", true),
	})
	if _, lesson := firstUncompletedLesson(units); lesson != nil {
		t.Errorf("expected no active lesson, got %d", lesson.ID)
	}
}

func TestFirstUncompletedLesson_EmptyLessonIsSkipped(t *testing.T) {
	units := assembleCatalog(
		[]*UnitModel{{ID: 1, Order: 1}},
		[]*LessonModel{{ID: 1, UnitID: 1, Order: 1}, {ID: 2, UnitID: 1, Order: 2}},
		[]*ChallengeModel{challenge(20, 2, 1)},
	)
	_, lesson := firstUncompletedLesson(units)
	if lesson == nil || lesson.ID != 2 {
		t.Errorf("active lesson = %v, want 2", lesson)
	}
	if _, lesson := firstUncompletedLesson(nil); lesson != nil {
		t.Error("empty course should have no active lesson")
	}
}

func TestLessonPercentage(t *testing.T) {
	lesson := &LessonModel{Challenges: []*ChallengeModel{
		{IsCompleted: true}, {IsCompleted: false}, {IsCompleted: false},
	}}
	if got := lessonPercentage(lesson); got != 33 {
		t.Errorf("lessonPercentage() = %d, want 33", got)
	}
	lesson.Challenges[1].IsCompleted = true
	if got := lessonPercentage(lesson); got != 67 {
		t.Errorf("lessonPercentage() = %d, want 67", got)
	}
	if got := lessonPercentage(&LessonModel{}); got != 0 {
		t.Errorf("lessonPercentage(empty) = %d, want 0", got)
	}
	if got := lessonPercentage(nil); got != 0 {
		t.Errorf("lessonPercentage(nil) = %d, want 0", got)
	}
}

func assertInts(t *testing.T, what string, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, got, want)
		}
	}
}
