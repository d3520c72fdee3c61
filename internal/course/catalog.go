package course

import (
	"math"
	"sort"
)

// annotateCompletion set IsCompleted on every challenge from the learner's progress rows.
//
// A challenge is completed only when it has at least one row and all of its rows are completed.
func annotateCompletion(challenges []*ChallengeModel, progress []*ChallengeProgressModel, learnerID string) {
	type tally struct {
		rows      int
		completed int
	}
	tallies := make(map[int]*tally, len(challenges))
	for _, cp := range progress {
		if cp.UserID != learnerID {
			continue
		}
		t, ok := tallies[cp.ChallengeID]
		if !ok {
			t = new(tally)
			tallies[cp.ChallengeID] = t
		}
		t.rows++
		if cp.Completed {
			t.completed++
		}
	}
	for _, c := range challenges {
		c.attempts = 0
		c.IsCompleted = false
		if t, ok := tallies[c.ID]; ok {
			c.attempts = t.rows
			c.IsCompleted = t.rows > 0 && t.rows == t.completed
		}
	}
}

// assembleCatalog nest lessons into units and challenges into lessons, everything ordered by "order"
func assembleCatalog(units []*UnitModel, lessons []*LessonModel, challenges []*ChallengeModel) []*UnitModel {
	unitByID := make(map[int]*UnitModel, len(units))
	for _, u := range units {
		u.Lessons = make([]*LessonModel, 0)
		unitByID[u.ID] = u
	}
	lessonByID := make(map[int]*LessonModel, len(lessons))
	for _, l := range lessons {
		u, ok := unitByID[l.UnitID]
		if !ok {
			continue
		}
		l.Challenges = make([]*ChallengeModel, 0)
		lessonByID[l.ID] = l
		u.Lessons = append(u.Lessons, l)
	}
	for _, c := range challenges {
		if l, ok := lessonByID[c.LessonID]; ok {
			l.Challenges = append(l.Challenges, c)
		}
	}

	sortUnits(units)
	for _, u := range units {
		sortLessons(u.Lessons)
		for _, l := range u.Lessons {
			sortChallenges(l.Challenges)
		}
	}
	return units
}

func sortUnits(units []*UnitModel) {
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Order != units[j].Order {
			return units[i].Order < units[j].Order
		}
		return units[i].ID < units[j].ID
	})
}

func sortLessons(lessons []*LessonModel) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].ID < lessons[j].ID
	})
}

func sortChallenges(challenges []*ChallengeModel) {
	sort.SliceStable(challenges, func(i, j int) bool {
		if challenges[i].Order != challenges[j].Order {
			return challenges[i].Order < challenges[j].Order
		}
		return challenges[i].ID < challenges[j].ID
	})
}

// attachOptions group options under their challenges, keeping the store order
func attachOptions(challenges []*ChallengeModel, options []*ChallengeOptionModel) {
	byID := make(map[int]*ChallengeModel, len(challenges))
	for _, c := range challenges {
		c.Options = make([]*ChallengeOptionModel, 0)
		byID[c.ID] = c
	}
	for _, o := range options {
		if c, ok := byID[o.ChallengeID]; ok {
			c.Options = append(c.Options, o)
		}
	}
}

// isLessonUncompleted a lesson is uncompleted when any of its challenges was never attempted
func isLessonUncompleted(lesson *LessonModel) bool {
	for _, c := range lesson.Challenges {
		if !c.Attempted() {
			return true
		}
	}
	return false
}

// firstUncompletedLesson scan lessons in (unit.order, lesson.order) sequence, units must be sorted
func firstUncompletedLesson(units []*UnitModel) (*UnitModel, *LessonModel) {
	for _, u := range units {
		for _, l := range u.Lessons {
			if isLessonUncompleted(l) {
				return u, l
			}
		}
	}
	return nil, nil
}

// lessonPercentage completed challenges of the lesson in percent, rounded
func lessonPercentage(lesson *LessonModel) int {
	if lesson == nil || len(lesson.Challenges) == 0 {
		return 0
	}
	completed := 0
	for _, c := range lesson.Challenges {
		if c.IsCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(lesson.Challenges)) * 100))
}
