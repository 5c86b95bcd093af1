package analyzer

import (
	"regexp"
	"strings"

	"github.com/sells-group/company-analyzer/internal/model"
)

// fieldRule answers questions about one BusinessDetails field. Rules are
// evaluated in table order and the first rule with a keyword match and a
// known value wins.
type fieldRule struct {
	field    string
	keywords *regexp.Regexp
	answer   func(d *model.BusinessDetails) (string, float64, bool)
}

var fieldRules = []fieldRule{
	{
		field:    "industry",
		keywords: regexp.MustCompile(`\b(industry|industries|sector|business type)\b`),
		answer: func(d *model.BusinessDetails) (string, float64, bool) {
			return d.Industry.Industry, d.Industry.ConfidenceScore, known(d.Industry.Industry)
		},
	},
	{
		field:    "company_size",
		keywords: regexp.MustCompile(`\b(size|employees?|how big|how many people)\b`),
		answer: func(d *model.BusinessDetails) (string, float64, bool) {
			size := d.CompanySize
			if size.SizeCategory == model.SizeUnknown || !known(string(size.SizeCategory)) {
				return "", 0, false
			}
			ans := string(size.SizeCategory)
			if known(size.EmployeeRange) {
				ans += " (" + size.EmployeeRange + " employees)"
			}
			return ans, size.ConfidenceScore, true
		},
	},
	{
		field:    "location",
		keywords: regexp.MustCompile(`\b(location|headquarters|headquartered|where|based)\b`),
		answer: func(d *model.BusinessDetails) (string, float64, bool) {
			return d.Location.Headquarters, d.Location.ConfidenceScore, known(d.Location.Headquarters)
		},
	},
}

func known(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "unknown") && !strings.EqualFold(v, "not found")
}

// matchField answers question from a structured field of d. The confidence
// is the field's own extraction confidence.
func matchField(question string, d *model.BusinessDetails) (*model.QuestionResponse, string, bool) {
	if d == nil {
		return nil, "", false
	}
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))
	for _, r := range fieldRules {
		if !r.keywords.MatchString(q) {
			continue
		}
		ans, conf, ok := r.answer(d)
		if !ok {
			continue
		}
		return &model.QuestionResponse{
			Answer:          ans,
			ConfidenceScore: conf,
			Source:          model.SourceCompanyData,
		}, r.field, true
	}
	return nil, "", false
}
