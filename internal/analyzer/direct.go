package analyzer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
	"github.com/sells-group/company-analyzer/internal/monitoring"
)

// Asker answers context-free questions with a single completion call. It
// never reads or writes the cache.
type Asker struct {
	completer llm.Completer
	metrics   *monitoring.Metrics
}

// NewAsker creates an Asker. metrics may be nil.
func NewAsker(completer llm.Completer, metrics *monitoring.Metrics) *Asker {
	return &Asker{completer: completer, metrics: metrics}
}

// Ask answers question at the given temperature, which must lie in [0,1].
func (a *Asker) Ask(ctx context.Context, question string, temperature float64) (*model.DirectQuestionResponse, error) {
	resp, err := a.ask(ctx, question, temperature)
	if err != nil {
		a.metrics.Failure("ask", string(KindOf(err)))
		return nil, err
	}
	return resp, nil
}

func (a *Asker) ask(ctx context.Context, question string, temperature float64) (*model.DirectQuestionResponse, error) {
	if math.IsNaN(temperature) || temperature < 0 || temperature > 1 {
		return nil, fail("ask", KindInvalidParameter, eris.Errorf("temperature %v is outside [0,1]", temperature))
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fail("ask", KindInvalidParameter, eris.New("question is empty"))
	}

	start := time.Now()
	reply, err := a.completer.Complete(ctx, llm.Request{
		Prompt:      directPrompt(question),
		Temperature: &temperature,
		Op:          "ask",
	})
	a.metrics.Completion(a.completer.Name(), "ask", time.Since(start))
	if err != nil {
		return nil, fail("ask", KindLLMError, err)
	}

	s, err := parseStrict[synthesis](reply, answerSchema)
	if err != nil {
		return nil, fail("ask", KindSchemaValidationFailed, err)
	}
	return &model.DirectQuestionResponse{Answer: s.Answer, ConfidenceScore: s.ConfidenceScore}, nil
}
