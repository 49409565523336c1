package clinical

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func TestGenerateBundleComplete(t *testing.T) {
	gen := NewGenerator(testLogger())
	bundle, err := gen.Generate(context.Background(), "ADT^A01", nil)
	require.NoError(t, err)

	require.NotNil(t, bundle.Patient)
	assert.NotEmpty(t, bundle.Patient.MRN)
	assert.NotEmpty(t, bundle.Patient.FamilyName)
	assert.Contains(t, []string{"F", "M"}, bundle.Patient.Sex)
	assert.Len(t, bundle.Patient.PostalCode, 5)

	require.NotNil(t, bundle.Encounter)
	assert.NotEmpty(t, bundle.Encounter.VisitNumber)
	assert.Nil(t, bundle.Encounter.DischargeTime)

	require.NotNil(t, bundle.Observation)
	assert.NotEmpty(t, bundle.Observation.Code)
	require.NotNil(t, bundle.Prescription)
}

func TestGenerateAdmitWithinLastThirtyDays(t *testing.T) {
	gen := NewGenerator(testLogger())
	for i := 0; i < 30; i++ {
		bundle, err := gen.Generate(context.Background(), "ADT^A01", nil)
		require.NoError(t, err)

		admit := bundle.Encounter.AdmitTime
		assert.True(t, admit.Before(time.Now().Add(time.Minute)))
		assert.True(t, admit.After(time.Now().AddDate(0, 0, -31)))
		assert.False(t, bundle.Observation.ObservedAt.Before(admit))
	}
}

func TestGenerateDischargeForEndVisit(t *testing.T) {
	gen := NewGenerator(testLogger())
	bundle, err := gen.Generate(context.Background(), "ADT^A03", nil)
	require.NoError(t, err)

	require.NotNil(t, bundle.Encounter.DischargeTime)
	gap := bundle.Encounter.DischargeTime.Sub(bundle.Encounter.AdmitTime)
	assert.GreaterOrEqual(t, gap, 24*time.Hour)
	assert.LessOrEqual(t, gap, 240*time.Hour)
}

func TestGenerateSeedReproducesIdentity(t *testing.T) {
	gen := NewGenerator(testLogger())
	seed := int64(7)

	a, err := gen.Generate(context.Background(), "ADT^A01", &seed)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), "ADT^A01", &seed)
	require.NoError(t, err)

	assert.Equal(t, a.Patient.MRN, b.Patient.MRN)
	assert.Equal(t, a.Patient.FamilyName, b.Patient.FamilyName)
	assert.Equal(t, a.Patient.ID, b.Patient.ID)
	assert.Equal(t, a.Encounter.VisitNumber, b.Encounter.VisitNumber)

	other := int64(8)
	c, err := gen.Generate(context.Background(), "ADT^A01", &other)
	require.NoError(t, err)
	assert.NotEqual(t,
		a.Patient.MRN+a.Patient.FamilyName+a.Encounter.VisitNumber,
		c.Patient.MRN+c.Patient.FamilyName+c.Encounter.VisitNumber)
}
