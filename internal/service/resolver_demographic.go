package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hl7-message-forge/internal/dataset"
	"github.com/hl7-message-forge/internal/domain"
	"github.com/hl7-message-forge/pkg/hl7"
)

// DemographicResolver fills fields from the clinical bundle and, where
// the bundle is silent, from the curated demographic pools. It is the
// composite-aware workhorse of the chain: whole names, addresses,
// phone numbers and coded concepts come out of it as coherent units.
type DemographicResolver struct {
	log *logrus.Logger
}

func NewDemographicResolver(log *logrus.Logger) *DemographicResolver {
	return &DemographicResolver{log: log}
}

func (r *DemographicResolver) Name() string  { return "demographic" }
func (r *DemographicResolver) Priority() int { return priorityDemographic }

func (r *DemographicResolver) CanResolve(fc *domain.FieldContext) bool {
	name := fc.Field.Name
	switch {
	case strings.Contains(name, "Birth"):
		return true
	case strings.Contains(name, "SSN"):
		return fc.Generation.Bundle != nil && fc.Generation.Bundle.Patient != nil
	case fc.SegmentCode == "OBX" && strings.Contains(name, "Observation Value"):
		return true
	case fc.SegmentCode == "OBX" && strings.Contains(name, "References Range"):
		return true
	case fc.SegmentCode == "PV1" && strings.Contains(name, "Hospital Service"):
		return fc.Generation.Bundle != nil && fc.Generation.Bundle.Encounter != nil &&
			fc.Generation.Bundle.Encounter.HospitalService != ""
	}
	return false
}

func (r *DemographicResolver) Resolve(fc *domain.FieldContext) string {
	gc := fc.Generation
	name := fc.Field.Name

	switch {
	case strings.Contains(name, "Birth"):
		if p := patientOf(gc); p != nil && !p.DateOfBirth.IsZero() {
			return hl7.FormatDate(p.DateOfBirth)
		}
		return hl7.FormatDate(randomBirthDate(gc))

	case strings.Contains(name, "SSN"):
		return patientOf(gc).SSN

	case fc.SegmentCode == "OBX" && strings.Contains(name, "Observation Value"):
		if o := observationOf(gc); o != nil && o.Value != "" {
			return o.Value
		}
		test := dataset.Pick(gc.Rand, dataset.LabTests)
		return formatAnalyteValue(gc, test)

	case fc.SegmentCode == "OBX" && strings.Contains(name, "References Range"):
		if o := observationOf(gc); o != nil && o.RefRange != "" {
			return o.RefRange
		}
		return dataset.Pick(gc.Rand, dataset.LabTests).RefRange

	case fc.SegmentCode == "PV1" && strings.Contains(name, "Hospital Service"):
		return gc.Bundle.Encounter.HospitalService
	}
	return ""
}

// compositeTypes names the data types this resolver can populate as a
// coherent whole.
var compositeTypes = map[string]bool{
	"XPN": true, "XAD": true, "XTN": true, "CX": true, "CE": true,
	"XCN": true, "XON": true, "PL": true, "EI": true,
}

func (r *DemographicResolver) CanResolveComposite(fc *domain.FieldContext, dataType *domain.DataTypeDefinition) bool {
	if !compositeTypes[dataType.Code] {
		return false
	}
	if dataType.Code == "CE" {
		// Coded concepts are only coherent where a concept pool exists.
		switch fc.SegmentCode {
		case "DG1", "AL1", "OBX", "OBR":
			return true
		default:
			return false
		}
	}
	return true
}

func (r *DemographicResolver) ResolveComposite(fc *domain.FieldContext, dataType *domain.DataTypeDefinition) (map[int]string, bool) {
	gc := fc.Generation
	switch dataType.Code {
	case "XPN":
		return r.personName(fc), true
	case "XAD":
		return r.address(fc), true
	case "XTN":
		return r.telecom(fc), true
	case "CX":
		return r.identifier(fc), true
	case "CE":
		return r.codedConcept(fc)
	case "XCN":
		return r.provider(fc), true
	case "XON":
		return map[int]string{1: dataset.Pick(gc.Rand, dataset.Facilities)}, true
	case "PL":
		return r.location(fc), true
	case "EI":
		return r.entityID(fc), true
	}
	return nil, false
}

// personName emits the patient's own name in PID and a synthesized
// relative's name elsewhere (NK1, guarantor fields).
func (r *DemographicResolver) personName(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	if fc.SegmentCode == "PID" {
		if p := patientOf(gc); p != nil {
			name := map[int]string{
				1: p.FamilyName,
				2: p.GivenName,
				7: "L",
			}
			if p.MiddleName != "" {
				name[3] = p.MiddleName
			}
			return name
		}
	}
	family := dataset.Pick(gc.Rand, dataset.FamilyNames)
	// A next of kin usually shares the patient's family name.
	if fc.SegmentCode == "NK1" {
		if p := patientOf(gc); p != nil && p.FamilyName != "" {
			family = p.FamilyName
		}
	}
	return map[int]string{
		1: family,
		2: randomGivenName(gc),
		7: "L",
	}
}

func (r *DemographicResolver) address(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	if fc.SegmentCode == "PID" {
		if p := patientOf(gc); p != nil && p.Street != "" {
			return map[int]string{
				1: p.Street,
				3: p.City,
				4: p.State,
				5: p.PostalCode,
				7: "H",
			}
		}
	}
	city := dataset.Pick(gc.Rand, dataset.Cities)
	return map[int]string{
		1: dataset.StreetAddress(gc.Rand),
		3: city.Name,
		4: city.State,
		5: dataset.Zip(gc.Rand, city),
		7: "H",
	}
}

func (r *DemographicResolver) telecom(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	use, equip := "PRN", "PH"
	if strings.Contains(fc.Field.Name, "Business") || strings.Contains(fc.Field.Name, "Work") {
		use = "WPN"
	}
	number := dataset.Phone(gc.Rand)
	if use == "PRN" && fc.SegmentCode == "PID" {
		if p := patientOf(gc); p != nil && p.HomePhone != "" {
			number = p.HomePhone
		}
	}
	return map[int]string{1: number, 2: use, 3: equip}
}

// identifier keeps the patient list consistent: PID.3 always carries
// the bundle MRN, visit-number fields carry the encounter's number.
func (r *DemographicResolver) identifier(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	name := fc.Field.Name

	if strings.Contains(name, "Visit Number") || strings.Contains(name, "Account Number") {
		if e := encounterOf(gc); e != nil && e.VisitNumber != "" {
			return map[int]string{1: e.VisitNumber, 5: "VN"}
		}
		return map[int]string{1: randomDigits(gc, 8), 5: "VN"}
	}

	if fc.SegmentCode == "PID" {
		if p := patientOf(gc); p != nil && p.MRN != "" {
			return map[int]string{
				1: p.MRN,
				4: dataset.Pick(gc.Rand, dataset.Facilities),
				5: "MR",
			}
		}
	}
	return map[int]string{1: randomDigits(gc, 7), 5: "MR"}
}

// codedConcept draws a code/text pair from the pool matching the
// segment so both components describe the same concept.
func (r *DemographicResolver) codedConcept(fc *domain.FieldContext) (map[int]string, bool) {
	gc := fc.Generation
	switch fc.SegmentCode {
	case "DG1":
		d := dataset.Pick(gc.Rand, dataset.Diagnoses)
		return map[int]string{1: d.Code, 2: d.Description, 3: "I9"}, true
	case "AL1":
		a := dataset.Pick(gc.Rand, dataset.Allergens)
		return map[int]string{1: a.Code, 2: a.Description, 3: "L"}, true
	case "OBX":
		if strings.Contains(fc.Field.Name, "Units") {
			units := dataset.Pick(gc.Rand, dataset.LabTests).Units
			if o := observationOf(gc); o != nil && o.Units != "" {
				units = o.Units
			}
			return map[int]string{1: units, 2: units, 3: "ISO+"}, true
		}
		if o := observationOf(gc); o != nil && o.Code != "" {
			return map[int]string{1: o.Code, 2: o.Name, 3: "LN"}, true
		}
		t := dataset.Pick(gc.Rand, dataset.LabTests)
		return map[int]string{1: t.Code, 2: t.Name, 3: "LN"}, true
	case "OBR":
		t := dataset.Pick(gc.Rand, dataset.LabTests)
		return map[int]string{1: t.Code, 2: t.Name, 3: "LN"}, true
	}
	return nil, false
}

// provider emits the attending physician from the encounter when one
// is present so PV1 and OBR name the same clinician.
func (r *DemographicResolver) provider(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	if e := encounterOf(gc); e != nil && e.AttendingName != "" {
		family, given := splitPersonName(e.AttendingName)
		id := e.AttendingID
		if id == "" {
			id = randomDigits(gc, 5)
		}
		return map[int]string{1: id, 2: family, 3: given}
	}
	return map[int]string{
		1: randomDigits(gc, 5),
		2: dataset.Pick(gc.Rand, dataset.FamilyNames),
		3: randomGivenName(gc),
	}
}

func (r *DemographicResolver) location(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	ward := fmt.Sprintf("%dW", 1+gc.Rand.Intn(9))
	if e := encounterOf(gc); e != nil && e.Location != "" {
		ward = e.Location
	}
	room := fmt.Sprintf("%d", 100+gc.Rand.Intn(400))
	bed := string(rune('A' + gc.Rand.Intn(2)))
	return map[int]string{1: ward, 2: room, 3: bed, 4: dataset.Pick(gc.Rand, dataset.Facilities)}
}

func (r *DemographicResolver) entityID(fc *domain.FieldContext) map[int]string {
	gc := fc.Generation
	if fc.SegmentCode == "OBR" && gc.Bundle != nil {
		if p := gc.Bundle.Prescription; p != nil && p.OrderNumber != "" {
			return map[int]string{1: p.OrderNumber}
		}
	}
	return map[int]string{1: randomDigits(gc, 9)}
}

func patientOf(gc *domain.GenerationContext) *domain.Patient {
	if gc.Bundle == nil {
		return nil
	}
	return gc.Bundle.Patient
}

func encounterOf(gc *domain.GenerationContext) *domain.Encounter {
	if gc.Bundle == nil {
		return nil
	}
	return gc.Bundle.Encounter
}

func observationOf(gc *domain.GenerationContext) *domain.Observation {
	if gc.Bundle == nil {
		return nil
	}
	return gc.Bundle.Observation
}
