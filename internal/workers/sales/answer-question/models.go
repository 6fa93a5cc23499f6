package answerquestion

import "sales-assistant/internal/models"

type Input struct {
	Question string `json:"question"`
}

// Output is written back to the process instance. Interpreter failures are data here,
// not job failures.
type Output struct {
	SalesAnswer        *models.AnswerResult `json:"salesAnswer"`
	SalesAnswerSuccess bool                 `json:"salesAnswerSuccess"`
	SalesAnswerOutcome string               `json:"salesAnswerOutcome"`
}
