package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/domain"
)

// StandardsResolver supplies values dictated by HL7 semantics rather
// than clinical context: draws from the field's bound code table,
// sequence numbers for Set ID fields, and coherent timestamps through
// the temporal tracker.
type StandardsResolver struct {
	provider domain.SchemaProvider
	temporal *TemporalTracker
	log      *logrus.Logger
}

func NewStandardsResolver(provider domain.SchemaProvider, temporal *TemporalTracker, log *logrus.Logger) *StandardsResolver {
	return &StandardsResolver{
		provider: provider,
		temporal: temporal,
		log:      log,
	}
}

func (r *StandardsResolver) Name() string  { return "standards" }
func (r *StandardsResolver) Priority() int { return priorityStandards }

func (r *StandardsResolver) CanResolve(fc *domain.FieldContext) bool {
	f := fc.Field
	switch {
	case f.Table != "":
		return true
	case isSetID(f):
		return true
	case isTimestampType(f.DataType):
		// Birth timestamps belong to the demographic layer, which
		// knows the patient's actual date of birth.
		return !strings.Contains(f.Name, "Birth")
	}
	return false
}

func (r *StandardsResolver) Resolve(fc *domain.FieldContext) string {
	f := fc.Field

	if isSetID(f) {
		occ := fc.Occurrence
		if occ < 1 {
			occ = 1
		}
		return strconv.Itoa(occ)
	}

	if f.Table != "" {
		if code, ok := r.drawFromTable(fc); ok {
			return code
		}
	}

	if isTimestampType(f.DataType) {
		return r.temporal.Format(fc)
	}

	return ""
}

// drawFromTable picks a code from the field's bound table. Patient sex
// stays aligned with the bundle instead of being drawn at random so
// names and table codes agree.
func (r *StandardsResolver) drawFromTable(fc *domain.FieldContext) (string, bool) {
	if fc.Field.Table == "0001" {
		if b := fc.Generation.Bundle; b != nil && b.Patient != nil && b.Patient.Sex != "" {
			return b.Patient.Sex, true
		}
	}

	table, err := r.provider.CodeTable(context.Background(), fc.Field.Table)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"path":  fc.FieldPath(),
			"table": fc.Field.Table,
		}).Debug("Code table unavailable, deferring to lower resolvers")
		return "", false
	}
	if len(table.Entries) == 0 {
		return "", false
	}
	entry := table.Entries[fc.Generation.Rand.Intn(len(table.Entries))]
	return entry.Code, true
}

func isSetID(f *domain.FieldDefinition) bool {
	return f.DataType == "SI" && strings.HasPrefix(f.Name, "Set ID")
}

func isTimestampType(dataType string) bool {
	return dataType == "TS" || dataType == "DTM"
}
