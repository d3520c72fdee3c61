package quiz

import (
	"errors"
	"fmt"
	"math"

	"github.com/pot-code/lingo-server/internal/course"
)

// ReviewPolicy decides where a session over a fully completed lesson starts
type ReviewPolicy string

// review policies
const (
	ReviewFromStart ReviewPolicy = "review_from_start"
	ReviewFromEnd   ReviewPolicy = "review_from_end"
	BlockReentry    ReviewPolicy = "block_reentry"
)

// ParseReviewPolicy empty string yields ReviewFromEnd
func ParseReviewPolicy(s string) (ReviewPolicy, error) {
	switch p := ReviewPolicy(s); p {
	case "":
		return ReviewFromEnd, nil
	case ReviewFromStart, ReviewFromEnd, BlockReentry:
		return p, nil
	}
	return "", fmt.Errorf("unknown review policy: %q", s)
}

// State of a quiz session
type State string

// session states
const (
	InProgress      State = "in_progress"
	HeartsExhausted State = "hearts_exhausted"
	Completed       State = "completed"
)

// AssistTitle shown instead of the question for ASSIST challenges
const AssistTitle = "Select the correct meaning"

var (
	// ErrNoChallenges lesson has nothing to answer
	ErrNoChallenges = errors.New("Lesson has no challenges")
	// ErrLessonCompleted lesson is completed and re-entry is blocked
	ErrLessonCompleted = errors.New("Lesson is already completed")
	// ErrSessionClosed answer submitted outside InProgress
	ErrSessionClosed = errors.New("Quiz session is closed")
	// ErrUnknownOption option doesn't belong to the current challenge
	ErrUnknownOption = errors.New("Option doesn't belong to the current challenge")
)

// Result outcome of one answer
type Result struct {
	ChallengeID int   `json:"challenge_id"`
	Correct     bool  `json:"correct"`
	Hearts      int   `json:"hearts"`
	Percentage  int   `json:"percentage"`
	State       State `json:"state"`
}

// Session walks a learner through the challenges of one lesson.
//
// Session is not safe for concurrent use.
type Session struct {
	challenges  []*course.ChallengeModel
	activeIndex int
	hearts      int
	percentage  int
	state       State
}

// NewSession start at the first uncompleted challenge, policy decides for a fully completed lesson
func NewSession(challenges []*course.ChallengeModel, hearts int, policy ReviewPolicy) (*Session, error) {
	if len(challenges) == 0 {
		return nil, ErrNoChallenges
	}
	if hearts < 0 {
		hearts = 0
	}

	index, completed := -1, 0
	for i, c := range challenges {
		if c.IsCompleted {
			completed++
		} else if index == -1 {
			index = i
		}
	}
	if index == -1 {
		switch policy {
		case ReviewFromStart:
			index = 0
		case BlockReentry:
			return nil, ErrLessonCompleted
		default:
			index = len(challenges) - 1
		}
	}

	s := &Session{
		challenges:  challenges,
		activeIndex: index,
		hearts:      hearts,
		percentage:  percent(completed, len(challenges)),
		state:       InProgress,
	}
	if hearts == 0 {
		s.state = HeartsExhausted
	}
	return s, nil
}

// Answer grade optionID against the current challenge
func (s *Session) Answer(optionID int) (*Result, error) {
	if s.state != InProgress {
		return nil, ErrSessionClosed
	}
	current := s.challenges[s.activeIndex]
	var option *course.ChallengeOptionModel
	for _, o := range current.Options {
		if o.ID == optionID {
			option = o
			break
		}
	}
	if option == nil {
		return nil, ErrUnknownOption
	}

	if option.Correct {
		s.percentage = percent(s.activeIndex+1, len(s.challenges))
		s.activeIndex++
		if s.activeIndex >= len(s.challenges) {
			s.activeIndex = len(s.challenges) - 1
			s.state = Completed
		}
	} else {
		if s.hearts > 0 {
			s.hearts--
		}
		if s.hearts == 0 {
			s.state = HeartsExhausted
		}
	}
	return &Result{
		ChallengeID: current.ID,
		Correct:     option.Correct,
		Hearts:      s.hearts,
		Percentage:  s.percentage,
		State:       s.state,
	}, nil
}

// Challenge current challenge
func (s *Session) Challenge() *course.ChallengeModel {
	return s.challenges[s.activeIndex]
}

// Title of the current challenge
func (s *Session) Title() string {
	c := s.Challenge()
	if c.Type == course.ChallengeAssist {
		return AssistTitle
	}
	return c.Question
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Hearts() int {
	return s.hearts
}

func (s *Session) Percentage() int {
	return s.percentage
}

// Len number of challenges in the session
func (s *Session) Len() int {
	return len(s.challenges)
}

// ActiveIndex cursor into the challenges
func (s *Session) ActiveIndex() int {
	return s.activeIndex
}

func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}
