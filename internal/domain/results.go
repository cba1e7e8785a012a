package domain

// QuestionResult is the per-question line item of the final results.
type QuestionResult struct {
	Question   Question `json:"question"`
	UserAnswer string   `json:"userAnswer"`
	IsCorrect  bool     `json:"isCorrect"`
}

// Results is handed to the caller once, when the last question has been
// answered and the mode's completion hook has run.
type Results struct {
	TotalQuestions   int              `json:"totalQuestions"`
	CorrectAnswers   int              `json:"correctAnswers"`
	IncorrectAnswers int              `json:"incorrectAnswers"`
	Score            int              `json:"score"`
	TimeTaken        int              `json:"timeTaken"` // wall-clock seconds for the session
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
	Questions        []QuestionResult `json:"questions"`
	ModeSummary      map[string]any   `json:"modeSummary,omitempty"`
}
