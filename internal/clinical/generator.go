// Package clinical synthesizes the seed bundles that message
// composition draws from: a patient, their encounter and, where the
// message family wants them, an order and a result.
package clinical

import (
	"context"
	"fmt"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/dataset"
	"github.com/hl7-message-forge/internal/domain"
)

// Generator builds internally consistent clinical bundles. It
// implements domain.BundleGenerator.
type Generator struct {
	log *logrus.Logger
}

func NewGenerator(log *logrus.Logger) *Generator {
	return &Generator{log: log}
}

// Generate synthesizes one bundle. The same seed reproduces the same
// bundle relative to the current clock; the admit time always falls
// within the thirty days before now.
func (g *Generator) Generate(ctx context.Context, messageType string, seed *int64) (*domain.Bundle, error) {
	opts := &domain.GenerationOptions{Seed: seed}
	rng := opts.Rand()

	patient := g.patient(rng)
	encounter := g.encounter(rng, messageType)

	bundle := &domain.Bundle{
		Patient:   patient,
		Encounter: encounter,
	}

	test := dataset.Pick(rng, dataset.LabTests)
	bundle.Observation = g.observation(rng, test, encounter)
	bundle.Prescription = g.prescription(rng, encounter)

	g.log.WithFields(logrus.Fields{
		"message_type": messageType,
		"mrn":          patient.MRN,
		"visit":        encounter.VisitNumber,
	}).Debug("Generated clinical bundle")

	return bundle, nil
}

func (g *Generator) patient(rng *mrand.Rand) *domain.Patient {
	sex := "F"
	given := dataset.Pick(rng, dataset.GivenNamesFemale)
	if rng.Intn(2) == 0 {
		sex = "M"
		given = dataset.Pick(rng, dataset.GivenNamesMale)
	}

	city := dataset.Pick(rng, dataset.Cities)
	years := 18 + rng.Intn(72)
	dob := time.Now().AddDate(-years, 0, -rng.Intn(365)).Truncate(24 * time.Hour)

	return &domain.Patient{
		ID:          newID(rng),
		MRN:         digits(rng, 6),
		FamilyName:  dataset.Pick(rng, dataset.FamilyNames),
		GivenName:   given,
		MiddleName:  string(rune('A' + rng.Intn(26))),
		DateOfBirth: dob,
		Sex:         sex,
		Street:      dataset.StreetAddress(rng),
		City:        city.Name,
		State:       city.State,
		PostalCode:  dataset.Zip(rng, city),
		HomePhone:   dataset.Phone(rng),
		SSN:         fmt.Sprintf("%s%s", digits(rng, 3), digits(rng, 6)),
	}
}

func (g *Generator) encounter(rng *mrand.Rand, messageType string) *domain.Encounter {
	admit := time.Now().
		Add(-time.Duration(rng.Intn(30*24*60)) * time.Minute).
		Truncate(time.Minute)

	enc := &domain.Encounter{
		ID:              newID(rng),
		VisitNumber:     "V" + digits(rng, 7),
		PatientClass:    "I",
		Location:        fmt.Sprintf("%dW", 1+rng.Intn(9)),
		AttendingID:     digits(rng, 5),
		AttendingName:   fmt.Sprintf("%s, %s", dataset.Pick(rng, dataset.FamilyNames), dataset.Pick(rng, dataset.GivenNamesMale)),
		AdmitTime:       admit,
		AdmissionType:   "E",
		HospitalService: "MED",
	}

	// Discharge messages need the stay already closed out.
	if strings.Contains(strings.ToUpper(messageType), "A03") {
		discharge := admit.Add(time.Duration(24+rng.Intn(216)) * time.Hour)
		enc.DischargeTime = &discharge
	}
	return enc
}

func (g *Generator) observation(rng *mrand.Rand, test dataset.LabTest, enc *domain.Encounter) *domain.Observation {
	value := test.Low + rng.Float64()*(test.High-test.Low)
	format := "%.0f"
	if test.High <= 20 {
		format = "%.1f"
	}
	return &domain.Observation{
		ID:         newID(rng),
		Code:       test.Code,
		Name:       test.Name,
		Value:      fmt.Sprintf(format, value),
		Units:      test.Units,
		RefRange:   test.RefRange,
		ObservedAt: enc.AdmitTime.Add(time.Duration(rng.Intn(240)) * time.Minute),
	}
}

func (g *Generator) prescription(rng *mrand.Rand, enc *domain.Encounter) *domain.Prescription {
	return &domain.Prescription{
		ID:           newID(rng),
		OrderNumber:  digits(rng, 9),
		OrderedAt:    enc.AdmitTime.Add(time.Duration(rng.Intn(120)) * time.Minute),
		OrderingID:   enc.AttendingID,
		OrderingName: enc.AttendingName,
	}
}

func newID(rng *mrand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func digits(rng *mrand.Rand, n int) string {
	var b strings.Builder
	b.Grow(n)
	b.WriteByte(byte('1' + rng.Intn(9)))
	for i := 1; i < n; i++ {
		b.WriteByte(byte('0' + rng.Intn(10)))
	}
	return b.String()
}
