package eligibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/eligibility-sync/internal/core"
	"github.com/target/eligibility-sync/internal/domain/model"
)

// Expressions are the JMESPath queries that locate each outcome field.
type Expressions struct {
	Class   string
	Outcome string
	Note    string
}

// JMESPathExtractor reads class, outcome and note from a JSON response.
type JMESPathExtractor struct {
	class   jmespath.JMESPath
	outcome jmespath.JMESPath
	note    jmespath.JMESPath
}

var _ core.OutcomeExtractor = (*JMESPathExtractor)(nil)

// NewJMESPathExtractor compiles the expressions once.
func NewJMESPathExtractor(exprs Expressions) (*JMESPathExtractor, error) {
	compile := func(name, expr string) (jmespath.JMESPath, error) {
		if strings.TrimSpace(expr) == "" {
			return nil, fmt.Errorf("%s expression is required", name)
		}
		c, err := jmespath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s expression %q: %w", name, expr, err)
		}
		return c, nil
	}

	class, err1 := compile("class", exprs.Class)
	outcome, err2 := compile("outcome", exprs.Outcome)
	note, err3 := compile("note", exprs.Note)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}
	return &JMESPathExtractor{class: class, outcome: outcome, note: note}, nil
}

// Extract implements core.OutcomeExtractor. Fields the expressions do not
// resolve are left empty so the caller can drop the row.
func (e *JMESPathExtractor) Extract(raw []byte) (model.Outcome, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Outcome{}, fmt.Errorf("decode eligibility response: %w", err)
	}

	var out model.Outcome
	var errs []error
	for _, f := range []struct {
		name string
		expr jmespath.JMESPath
		dst  *string
	}{
		{"class", e.class, &out.Class},
		{"outcome", e.outcome, &out.Outcome},
		{"note", e.note, &out.Note},
	} {
		v, err := f.expr.Search(doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}
		*f.dst = stringify(v)
	}
	return out, errors.Join(errs...)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
