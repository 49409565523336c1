package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/internal/schema"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	return NewDefaultComposer(schema.NewEmbeddedStore(testLogger()), testLogger())
}

func testBundle() *domain.Bundle {
	admit := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)
	discharge := admit.Add(72 * time.Hour)
	return &domain.Bundle{
		Patient: &domain.Patient{
			ID:          "0f1d3a",
			MRN:         "584662",
			FamilyName:  "MILLER",
			GivenName:   "SUSAN",
			MiddleName:  "K",
			DateOfBirth: time.Date(1962, 7, 4, 0, 0, 0, 0, time.UTC),
			Sex:         "F",
			Street:      "221 OAK ST",
			City:        "MADISON",
			State:       "WI",
			PostalCode:  "53703",
			HomePhone:   "(608)555-0142",
			SSN:         "444556666",
		},
		Encounter: &domain.Encounter{
			ID:              "enc-1",
			VisitNumber:     "V2000134",
			PatientClass:    "I",
			Location:        "4W",
			AttendingID:     "10442",
			AttendingName:   "WELBY, MARCUS",
			AdmitTime:       admit,
			DischargeTime:   &discharge,
			HospitalService: "MED",
		},
		Observation: &domain.Observation{
			ID:         "obs-1",
			Code:       "2345-7",
			Name:       "GLUCOSE",
			Value:      "104",
			Units:      "mg/dL",
			RefRange:   "70-99",
			ObservedAt: admit.Add(2 * time.Hour),
		},
	}
}

func segmentLines(msg string) []string {
	return strings.Split(msg, "\r")
}

func hasSegment(msg, code string) bool {
	for _, line := range segmentLines(msg) {
		if line == code || strings.HasPrefix(line, code+"|") {
			return true
		}
	}
	return false
}

func TestComposeDeterministicWithSeed(t *testing.T) {
	composer := newTestComposer(t)
	seed := int64(42)
	opts := &domain.GenerationOptions{Seed: &seed}

	first, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
	require.NoError(t, err)
	second, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must reproduce the message byte for byte")

	otherSeed := int64(43)
	third, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), &domain.GenerationOptions{Seed: &otherSeed})
	require.NoError(t, err)
	assert.NotEqual(t, first, third, "different seeds should diverge")
}

func TestComposeRequiredSegmentsAlwaysPresent(t *testing.T) {
	composer := newTestComposer(t)
	for i := 0; i < 25; i++ {
		msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), nil)
		require.NoError(t, err)
		for _, code := range []string{"MSH", "EVN", "PID", "PV1"} {
			assert.True(t, hasSegment(msg, code), "required segment %s missing:\n%s", code, msg)
		}
	}
}

func TestComposeHeaderStructure(t *testing.T) {
	composer := newTestComposer(t)
	msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), nil)
	require.NoError(t, err)

	header := segmentLines(msg)[0]
	require.True(t, strings.HasPrefix(header, `MSH|^~\&|`), "header: %s", header)

	fields := strings.Split(header, "|")
	// fields[0] is the code, fields[1] is MSH.2, so MSH.n sits at n-1.
	require.GreaterOrEqual(t, len(fields), 12)
	assert.Equal(t, "ADT^A01", fields[8])
	assert.NotEmpty(t, fields[9], "control ID")
	assert.Equal(t, "P", fields[10])
	assert.Equal(t, "2.3", fields[11])

	ts, err := time.Parse("20060102150405", fields[6])
	require.NoError(t, err)
	admit := testBundle().Encounter.AdmitTime
	assert.False(t, ts.Before(admit), "message time precedes encounter start")
	assert.True(t, ts.Before(admit.Add(3*time.Hour)))
}

func TestComposeOptionalSegmentInclusionRate(t *testing.T) {
	composer := newTestComposer(t)
	const runs = 300
	included := 0
	for i := 0; i < runs; i++ {
		msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), nil)
		require.NoError(t, err)
		if hasSegment(msg, "NK1") {
			included++
		}
	}
	rate := float64(included) / runs
	assert.InDelta(t, 0.6, rate, 0.1, "optional segment inclusion rate drifted")
}

func TestComposeInclusionOverrides(t *testing.T) {
	composer := newTestComposer(t)
	opts := &domain.GenerationOptions{
		SegmentInclusionProbabilities: map[string]float64{
			"NK1": 1.0,
			"AL1": 0.0,
		},
	}
	for i := 0; i < 20; i++ {
		msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
		require.NoError(t, err)
		assert.True(t, hasSegment(msg, "NK1"))
		assert.False(t, hasSegment(msg, "AL1"))
	}
}

func TestComposeRepeatCounts(t *testing.T) {
	composer := newTestComposer(t)
	opts := &domain.GenerationOptions{
		SegmentInclusionProbabilities: map[string]float64{"OBX": 1.0},
		SegmentRepeatCounts:           map[string]int{"OBX": 3},
		OptionalFieldProbability:      1.0,
	}
	msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
	require.NoError(t, err)

	var setIDs []string
	for _, line := range segmentLines(msg) {
		if strings.HasPrefix(line, "OBX|") {
			setIDs = append(setIDs, strings.Split(line, "|")[1])
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, setIDs)
}

func TestComposeLockedValues(t *testing.T) {
	composer := newTestComposer(t)
	opts := &domain.GenerationOptions{
		LockedValues: map[string]string{
			"PID.5":  "DOE^JANE^^^^^L",
			"MSH.10": "MSG00001",
		},
	}
	msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
	require.NoError(t, err)

	header := strings.Split(segmentLines(msg)[0], "|")
	assert.Equal(t, "MSG00001", header[9])

	var pid string
	for _, line := range segmentLines(msg) {
		if strings.HasPrefix(line, "PID|") {
			pid = line
			break
		}
	}
	require.NotEmpty(t, pid)
	assert.Equal(t, "DOE^JANE^^^^^L", strings.Split(pid, "|")[5])
}

func TestComposePatientIdentityFromBundle(t *testing.T) {
	composer := newTestComposer(t)
	msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), nil)
	require.NoError(t, err)

	var pid string
	for _, line := range segmentLines(msg) {
		if strings.HasPrefix(line, "PID|") {
			pid = line
			break
		}
	}
	require.NotEmpty(t, pid)
	fields := strings.Split(pid, "|")
	assert.Contains(t, fields[3], "584662", "PID.3 must carry the bundle MRN")
	assert.True(t, strings.HasPrefix(fields[5], "MILLER^SUSAN"), "PID.5: %s", fields[5])
}

func TestComposeBareSegmentWithoutDefinition(t *testing.T) {
	composer := newTestComposer(t)
	opts := &domain.GenerationOptions{
		SegmentInclusionProbabilities: map[string]float64{
			"INSURANCE": 1.0,
			"IN2":       1.0,
		},
	}
	msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
	require.NoError(t, err)

	assert.Contains(t, segmentLines(msg), "IN2", "undefined segment should degrade to its bare code")
	assert.True(t, hasSegment(msg, "IN1"))
}

func TestComposeExcludedGroupSkipsMembers(t *testing.T) {
	composer := newTestComposer(t)
	opts := &domain.GenerationOptions{
		SegmentInclusionProbabilities: map[string]float64{"INSURANCE": 0.0},
	}
	for i := 0; i < 10; i++ {
		msg, err := composer.Compose(context.Background(), "ADT^A01", testBundle(), opts)
		require.NoError(t, err)
		assert.False(t, hasSegment(msg, "IN1"), "group member leaked past excluded group")
	}
}

func TestComposeUnknownTriggerEvent(t *testing.T) {
	composer := newTestComposer(t)
	_, err := composer.Compose(context.Background(), "ADT^A99", testBundle(), nil)
	require.Error(t, err)

	var compErr *domain.CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "ADT^A99", compErr.TriggerEvent)
	assert.ErrorIs(t, err, domain.ErrSchemaNotFound)
}

func TestComposeMalformedMessageType(t *testing.T) {
	composer := newTestComposer(t)
	for _, mt := range []string{"", "ADT", "^A01", "ADT^"} {
		_, err := composer.Compose(context.Background(), mt, testBundle(), nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidMessageType), "message type %q", mt)
	}
}

func TestComposeObservationResult(t *testing.T) {
	composer := newTestComposer(t)
	msg, err := composer.Compose(context.Background(), "ORU^R01", testBundle(), &domain.GenerationOptions{
		OptionalFieldProbability: 1.0,
		SegmentInclusionProbabilities: map[string]float64{
			"ORDER_OBSERVATION": 1.0,
			"OBX":               1.0,
		},
	})
	require.NoError(t, err)
	require.True(t, hasSegment(msg, "OBR"))
	require.True(t, hasSegment(msg, "OBX"))

	for _, line := range segmentLines(msg) {
		if strings.HasPrefix(line, "OBX|") {
			fields := strings.Split(line, "|")
			assert.Contains(t, fields[3], "2345-7", "OBX.3 should carry the bundle analyte")
			assert.Equal(t, "104", fields[5], "OBX.5 should carry the bundle value")
			break
		}
	}
}

func TestTriggerCode(t *testing.T) {
	tests := []struct {
		messageType string
		want        string
		wantErr     bool
	}{
		{"ADT^A01", "adt_a01", false},
		{"ORU^R01", "oru_r01", false},
		{"adt^a03", "adt_a03", false},
		{"ADT", "", true},
		{"^A01", "", true},
		{"ADT^", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := TriggerCode(tt.messageType)
		if tt.wantErr {
			assert.Error(t, err, tt.messageType)
			continue
		}
		require.NoError(t, err, tt.messageType)
		assert.Equal(t, tt.want, got)
	}
}
