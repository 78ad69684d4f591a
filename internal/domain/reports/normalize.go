package reports

import (
	"fmt"
	"strings"
	"unicode"
)

// RawParameter is one test parameter as decoded from the extraction
// payload. Key style varies between extractor versions, so lookups are
// case and separator insensitive.
type RawParameter map[string]interface{}

// NormalizeParameters converts raw extracted parameters into
// TestParameters. Parameters missing both a name and a tag are dropped
// and recorded as failures; everything else is kept, with the status
// recomputed from the value and range. Source-supplied statuses are
// ignored.
func NormalizeParameters(raw []RawParameter) ([]TestParameter, []NormalizationFailure) {
	params := make([]TestParameter, 0, len(raw))
	var failures []NormalizationFailure
	for i, r := range raw {
		p, err := normalizeOne(r)
		if err != nil {
			failures = append(failures, NormalizationFailure{Index: i, Reason: err.Error()})
			continue
		}
		params = append(params, p)
	}
	return params, failures
}

func normalizeOne(r RawParameter) (TestParameter, error) {
	name := r.str("parameter_name")
	tag := r.str("parameter_tag")
	if name == "" && tag == "" {
		return TestParameter{}, fmt.Errorf("parameter has neither parameter_name nor parameter_tag")
	}
	if tag == "" {
		tag = slugifyTag(name)
	}
	if name == "" {
		name = tag
	}

	p := TestParameter{
		ParameterName:        name,
		ParameterTag:         tag,
		Value:                r.str("value"),
		Unit:                 r.str("unit"),
		FullForm:             r.str("full_form"),
		Method:               r.str("method"),
		Notes:                r.str("notes"),
		ClinicalSignificance: r.str("clinical_significance"),
	}
	if rng, ok := r.lookup("reference_range"); ok {
		if m, ok := rng.(map[string]interface{}); ok {
			sub := RawParameter(m)
			p.ReferenceRange = ReferenceRange{
				LowerLimit: sub.num("lower_limit"),
				UpperLimit: sub.num("upper_limit"),
				RangeText:  sub.str("range_text"),
			}
		}
	}
	status, nonNumeric := Classify(p.Value, p.ReferenceRange)
	p.Status = status
	p.NonNumeric = nonNumeric
	return p, nil
}

// lookup finds a key ignoring case, underscores and hyphens, so
// "parameter_name", "parameterName" and "PARAMETER-NAME" all match.
func (r RawParameter) lookup(key string) (interface{}, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	want := foldKey(key)
	for k, v := range r {
		if foldKey(k) == want {
			return v, true
		}
	}
	return nil, false
}

func (r RawParameter) str(key string) string {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}

func (r RawParameter) num(key string) *float64 {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		if f, ok := parseNumeric(t); ok {
			return &f
		}
	}
	return nil
}

func foldKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// slugifyTag derives a stable UPPERCASE_SNAKE_CASE tag from a display
// name: "Mean Corpuscular Volume" -> "MEAN_CORPUSCULAR_VOLUME".
func slugifyTag(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
