package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hl7-message-forge/internal/dataset"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

// fallbackRule pairs a predicate over the field context with a value
// generator. Rules are checked in order; the first match wins, so the
// more specific name heuristics sit above the bare data-type rules.
type fallbackRule struct {
	name     string
	matches  func(fc *domain.FieldContext) bool
	generate func(fc *domain.FieldContext) string
}

// FallbackResolver is the chain's floor: it accepts any field and
// produces a type-plausible value from the field's data type and name.
// It exists so unmodeled fields degrade to plausible noise instead of
// empty holes in required positions.
type FallbackResolver struct {
	rules []fallbackRule
}

func NewFallbackResolver() *FallbackResolver {
	return &FallbackResolver{rules: defaultFallbackRules()}
}

func (r *FallbackResolver) Name() string  { return "fallback" }
func (r *FallbackResolver) Priority() int { return priorityFallback }

func (r *FallbackResolver) CanResolve(fc *domain.FieldContext) bool { return true }

func (r *FallbackResolver) Resolve(fc *domain.FieldContext) string {
	for _, rule := range r.rules {
		if rule.matches(fc) {
			return rule.generate(fc)
		}
	}
	return ""
}

func defaultFallbackRules() []fallbackRule {
	return []fallbackRule{
		{
			name: "name_phone",
			matches: func(fc *domain.FieldContext) bool {
				return strings.Contains(fc.Field.Name, "Phone")
			},
			generate: func(fc *domain.FieldContext) string {
				return dataset.Phone(fc.Generation.Rand)
			},
		},
		{
			name: "name_address",
			matches: func(fc *domain.FieldContext) bool {
				return strings.Contains(fc.Field.Name, "Address") || strings.Contains(fc.Field.Name, "Street")
			},
			generate: func(fc *domain.FieldContext) string {
				return dataset.StreetAddress(fc.Generation.Rand)
			},
		},
		{
			name: "name_person",
			matches: func(fc *domain.FieldContext) bool {
				return strings.Contains(fc.Field.Name, "Name")
			},
			generate: func(fc *domain.FieldContext) string {
				return dataset.Pick(fc.Generation.Rand, dataset.FamilyNames)
			},
		},
		{
			name: "name_identifier",
			matches: func(fc *domain.FieldContext) bool {
				return strings.Contains(fc.Field.Name, "ID") || strings.Contains(fc.Field.Name, "Number")
			},
			generate: func(fc *domain.FieldContext) string {
				return randomDigits(fc.Generation, 8)
			},
		},
		{
			name: "type_numeric",
			matches: func(fc *domain.FieldContext) bool {
				return fc.Field.DataType == "NM" || fc.Field.DataType == "SI"
			},
			generate: func(fc *domain.FieldContext) string {
				return fmt.Sprintf("%d", 1+fc.Generation.Rand.Intn(100))
			},
		},
		{
			name: "type_date",
			matches: func(fc *domain.FieldContext) bool {
				return fc.Field.DataType == "DT"
			},
			generate: func(fc *domain.FieldContext) string {
				return hl7.FormatDate(recentDate(fc.Generation))
			},
		},
		{
			name: "type_timestamp",
			matches: func(fc *domain.FieldContext) bool {
				return isTimestampType(fc.Field.DataType)
			},
			generate: func(fc *domain.FieldContext) string {
				return hl7.FormatTimestamp(recentDate(fc.Generation))
			},
		},
		{
			name: "type_coded",
			matches: func(fc *domain.FieldContext) bool {
				return fc.Field.DataType == "ID" || fc.Field.DataType == "IS"
			},
			generate: func(fc *domain.FieldContext) string {
				return randomLetters(fc.Generation, 1)
			},
		},
		{
			name:    "type_string",
			matches: func(fc *domain.FieldContext) bool { return true },
			generate: func(fc *domain.FieldContext) string {
				return randomLetters(fc.Generation, 6)
			},
		},
	}
}

func randomDigits(gc *domain.GenerationContext, n int) string {
	var b strings.Builder
	b.Grow(n)
	// Lead with a non-zero digit so numeric identifiers keep their width.
	b.WriteByte(byte('1' + gc.Rand.Intn(9)))
	for i := 1; i < n; i++ {
		b.WriteByte(byte('0' + gc.Rand.Intn(10)))
	}
	return b.String()
}

func randomLetters(gc *domain.GenerationContext, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('A' + gc.Rand.Intn(26)))
	}
	return b.String()
}

func randomGivenName(gc *domain.GenerationContext) string {
	if gc.Rand.Intn(2) == 0 {
		return dataset.Pick(gc.Rand, dataset.GivenNamesFemale)
	}
	return dataset.Pick(gc.Rand, dataset.GivenNamesMale)
}

// randomBirthDate lands between 18 and 90 years before now.
func randomBirthDate(gc *domain.GenerationContext) time.Time {
	years := 18 + gc.Rand.Intn(72)
	days := gc.Rand.Intn(365)
	return time.Now().AddDate(-years, 0, -days)
}

// recentDate lands within the 30 days before the encounter start, or
// before now when no encounter anchors the message.
func recentDate(gc *domain.GenerationContext) time.Time {
	base := time.Now()
	if ts, ok := gc.Timestamp(encounterStartPath); ok {
		base = ts
	} else if gc.Bundle != nil && gc.Bundle.Encounter != nil && !gc.Bundle.Encounter.AdmitTime.IsZero() {
		base = gc.Bundle.Encounter.AdmitTime
	}
	return base.Add(-time.Duration(gc.Rand.Intn(30*24)) * time.Hour)
}

// formatAnalyteValue draws a value inside the analyte's plausible span,
// formatted to match the magnitude of the reference range.
func formatAnalyteValue(gc *domain.GenerationContext, test dataset.LabTest) string {
	v := test.Low + gc.Rand.Float64()*(test.High-test.Low)
	if test.High <= 20 {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.0f", v)
}

// splitPersonName breaks a display name into family and given parts.
// Accepts "SMITH, JOHN" and "JOHN SMITH" forms.
func splitPersonName(name string) (family, given string) {
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
	}
}
