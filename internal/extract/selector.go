package extract

import (
	_ "embed"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/company-analyzer/internal/model"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// PatternGroup is a named set of URL signatures.
type PatternGroup struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// PatternFile is the on-disk form of the selector registry.
type PatternFile struct {
	Scripted []PatternGroup `yaml:"scripted"`
}

type compiledGroup struct {
	name string
	res  []*regexp.Regexp
}

// Selector chooses an extractor kind from a URL without fetching it.
type Selector struct {
	scripted []compiledGroup
}

// DefaultSelector returns a Selector over the embedded pattern registry.
func DefaultSelector() *Selector {
	s, err := ParsePatterns(defaultPatterns)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadPatterns reads a registry file. An empty path uses the embedded
// registry.
func LoadPatterns(path string) (*Selector, error) {
	if path == "" {
		return DefaultSelector(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read patterns %s", path)
	}
	return ParsePatterns(data)
}

// ParsePatterns compiles a YAML registry.
func ParsePatterns(data []byte) (*Selector, error) {
	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, eris.Wrap(err, "extract: parse patterns")
	}
	s := &Selector{}
	for _, g := range pf.Scripted {
		cg := compiledGroup{name: g.Name}
		for _, p := range g.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, eris.Wrapf(err, "extract: compile pattern %q in %s", p, g.Name)
			}
			cg.res = append(cg.res, re)
		}
		s.scripted = append(s.scripted, cg)
	}
	return s, nil
}

// Select returns ExtractorScripted when raw matches a registry pattern and
// ExtractorStatic otherwise. It performs no I/O.
func (s *Selector) Select(raw string) (model.ExtractorKind, error) {
	kind, _, err := s.Explain(raw)
	return kind, err
}

// Explain is Select plus the name of the matching pattern group, if any.
func (s *Selector) Explain(raw string) (model.ExtractorKind, string, error) {
	if err := validateURL(raw); err != nil {
		return "", "", err
	}
	for _, g := range s.scripted {
		for _, re := range g.res {
			if re.MatchString(raw) {
				return model.ExtractorScripted, g.name, nil
			}
		}
	}
	return model.ExtractorStatic, "", nil
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return eris.Wrapf(ErrInvalidURL, "%q: %v", raw, err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return eris.Wrapf(ErrInvalidURL, "%q: scheme must be http or https", raw)
	}
	if u.Hostname() == "" {
		return eris.Wrapf(ErrInvalidURL, "%q: missing host", raw)
	}
	return nil
}
