package domain

import (
	"time"
)

// Patient is the demographic seed for message generation. All clinical seed
// data is fully formed before composition begins and is never mutated by the
// engine.
type Patient struct {
	ID            string    `json:"id"`
	MRN           string    `json:"mrn"`
	FamilyName    string    `json:"family_name"`
	GivenName     string    `json:"given_name"`
	MiddleName    string    `json:"middle_name,omitempty"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	Sex           string    `json:"sex"`
	Race          string    `json:"race,omitempty"`
	MaritalStatus string    `json:"marital_status,omitempty"`
	Street        string    `json:"street,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	HomePhone     string    `json:"home_phone,omitempty"`
	SSN           string    `json:"ssn,omitempty"`
}

// Encounter is a hospital visit tied to the patient.
type Encounter struct {
	ID              string     `json:"id"`
	VisitNumber     string     `json:"visit_number"`
	PatientClass    string     `json:"patient_class"`
	Location        string     `json:"location,omitempty"`
	AttendingID     string     `json:"attending_id,omitempty"`
	AttendingName   string     `json:"attending_name,omitempty"`
	AdmitTime       time.Time  `json:"admit_time"`
	DischargeTime   *time.Time `json:"discharge_time,omitempty"`
	AdmissionType   string     `json:"admission_type,omitempty"`
	HospitalService string     `json:"hospital_service,omitempty"`
}

// Prescription is a medication order tied to the encounter.
type Prescription struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"order_number"`
	MedicationCode string    `json:"medication_code"`
	MedicationName string    `json:"medication_name"`
	Dose           string    `json:"dose,omitempty"`
	Route          string    `json:"route,omitempty"`
	Frequency      string    `json:"frequency,omitempty"`
	OrderedAt      time.Time `json:"ordered_at"`
	OrderingID     string    `json:"ordering_id,omitempty"`
	OrderingName   string    `json:"ordering_name,omitempty"`
}

// Observation is a single result value, e.g. one lab analyte.
type Observation struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Units      string    `json:"units,omitempty"`
	RefRange   string    `json:"ref_range,omitempty"`
	Abnormal   string    `json:"abnormal,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Bundle carries one patient plus the optional encounter, prescription and
// observation that seed a single message. The engine treats it as read-only.
type Bundle struct {
	Patient      *Patient      `json:"patient"`
	Encounter    *Encounter    `json:"encounter,omitempty"`
	Prescription *Prescription `json:"prescription,omitempty"`
	Observation  *Observation  `json:"observation,omitempty"`
}
