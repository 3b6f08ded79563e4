package domain

import (
	"time"
)

// QuizSession is one user's timed attempt at an exam.
//
// The timer state machine: in progress (unpaused) <-> paused -> completed.
// Completion is terminal. All transitions take the current time explicitly
// so the arithmetic is testable.
type QuizSession struct {
	ID                 string
	UserID             string
	ExamID             string
	StartedAt          time.Time
	CompletedAt        time.Time // zero until completed
	IsCompleted        bool
	Score              float64
	TotalQuestions     int
	CorrectAnswers     int
	TimeTakenSeconds   int
	TokensGranted      bool
	IsPaused           bool
	PausedAt           time.Time // zero unless currently paused
	TotalPausedSeconds int
}

// Pause stops the timer. It is a no-op (returning false) on a completed
// or already-paused session.
func (s *QuizSession) Pause(now time.Time) bool {
	if s.IsPaused || s.IsCompleted {
		return false
	}
	s.IsPaused = true
	s.PausedAt = now
	return true
}

// Resume restarts the timer, folding the elapsed pause into the running
// total. It is a no-op (returning false) unless the session is paused.
func (s *QuizSession) Resume(now time.Time) bool {
	if !s.IsPaused || s.IsCompleted {
		return false
	}
	if !s.PausedAt.IsZero() {
		s.TotalPausedSeconds += int(now.Sub(s.PausedAt).Seconds())
	}
	s.IsPaused = false
	s.PausedAt = time.Time{}
	return true
}

// RemainingTime returns the seconds left on the clock: the exam duration
// minus wall-clock time since start, with all paused time (including an
// in-progress pause) credited back. Floored at zero; zero once completed.
func (s *QuizSession) RemainingTime(now time.Time, examDuration time.Duration) int {
	if s.IsCompleted {
		return 0
	}

	elapsed := now.Sub(s.StartedAt).Seconds()

	var currentPause float64
	if s.IsPaused && !s.PausedAt.IsZero() {
		currentPause = now.Sub(s.PausedAt).Seconds()
	}

	actualElapsed := elapsed - float64(s.TotalPausedSeconds) - currentPause
	remaining := examDuration.Seconds() - actualElapsed
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// CalculateScore recomputes the score as a percentage of the exam's
// current active question count, not just the attempted ones. The counts
// are stored on the session so result views can render them directly.
func (s *QuizSession) CalculateScore(activeQuestionCount, correctAnswers int) float64 {
	if activeQuestionCount == 0 {
		s.CorrectAnswers = 0
		s.TotalQuestions = 0
		s.Score = 0
		return 0
	}
	s.CorrectAnswers = correctAnswers
	s.TotalQuestions = activeQuestionCount
	s.Score = float64(correctAnswers) / float64(activeQuestionCount) * 100
	return s.Score
}

// Complete stamps the completion time and flips the completed flag.
// Returns false if the session was already completed. The caller
// recomputes the score separately since it needs repository counts.
func (s *QuizSession) Complete(now time.Time) bool {
	if s.IsCompleted {
		return false
	}
	if s.IsPaused {
		s.Resume(now)
	}
	s.IsCompleted = true
	s.CompletedAt = now
	if !s.StartedAt.IsZero() {
		s.TimeTakenSeconds = int(now.Sub(s.StartedAt).Seconds())
	}
	return true
}

// Passed reports whether the session's score meets the exam threshold.
func (s *QuizSession) Passed(passingScore int) bool {
	return s.Score >= float64(passingScore)
}

// UserAnswer is the selected-choice set for one (session, question) pair.
// Re-submitting replaces the prior selection rather than duplicating.
type UserAnswer struct {
	ID                string
	QuizSessionID     string
	QuestionID        string
	SelectedChoiceIDs []string
	IsCorrect         bool
	AnsweredAt        time.Time
}

// BookmarkedQuestion marks a question a user saved for later review.
type BookmarkedQuestion struct {
	ID         string
	UserID     string
	QuestionID string
	CreatedAt  time.Time
}
