package model

import "github.com/rotisserie/eris"

// AnswerSource records which stage of the question chain produced an answer.
type AnswerSource string

const (
	SourceCachedAnswer AnswerSource = "CachedAnswer"
	SourceCompanyData  AnswerSource = "CompanyData"
	SourceWebSearch    AnswerSource = "WebSearch"
)

// QuestionResponse answers a question about the company behind a URL.
type QuestionResponse struct {
	Answer          string       `json:"answer"`
	ConfidenceScore float64      `json:"confidence_score"`
	Source          AnswerSource `json:"source"`
}

// Validate checks the confidence range and the source enum.
func (q *QuestionResponse) Validate() error {
	if q == nil {
		return eris.New("question response: nil")
	}
	if err := ValidateConfidence("confidence_score", q.ConfidenceScore); err != nil {
		return err
	}
	switch q.Source {
	case SourceCachedAnswer, SourceCompanyData, SourceWebSearch:
		return nil
	default:
		return eris.Errorf("question response: unknown source %q", q.Source)
	}
}

// DirectQuestionResponse answers a question without website context.
type DirectQuestionResponse struct {
	Answer          string  `json:"answer"`
	ConfidenceScore float64 `json:"confidence_score"`
}
