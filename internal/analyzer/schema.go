package analyzer

import (
	"bytes"
	"embed"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/company-analyzer/internal/llm"
	"github.com/sells-group/company-analyzer/internal/model"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	businessDetailsSchema = mustSchema("schemas/business_details.json")
	answerSchema          = mustSchema("schemas/answer.json")
)

type compiledSchema struct {
	raw    string
	schema *gojsonschema.Schema
}

func mustSchema(name string) compiledSchema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(eris.Wrapf(err, "analyzer: compile schema %s", name))
	}
	return compiledSchema{raw: string(data), schema: s}
}

// synthesis is the completion reply shape for question answers.
type synthesis struct {
	Answer          string  `json:"answer"`
	ConfidenceScore float64 `json:"confidence_score"`
}

func (s *synthesis) Validate() error {
	return model.ValidateConfidence("confidence_score", s.ConfidenceScore)
}

// parseStrict decodes a model reply into T. The reply must satisfy the JSON
// schema, carry no unknown fields and pass T's own validation; nothing is
// coerced.
func parseStrict[T any](reply string, cs compiledSchema) (T, error) {
	var v T
	doc := llm.CleanJSON(reply)

	result, err := cs.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return v, eris.Wrap(err, "analyzer: reply is not valid json")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return v, eris.Errorf("analyzer: reply violates schema: %s", strings.Join(msgs, "; "))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, eris.Wrap(err, "analyzer: decode reply")
	}
	if val, ok := any(&v).(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			var zero T
			return zero, eris.Wrap(err, "analyzer: reply out of range")
		}
	}
	return v, nil
}
