// Package dataset holds the curated realistic-value pools that demographic
// resolution draws from. The pools are small deliberate subsets of public
// census-style frequency data; they exist to make generated messages look
// plausible, not to be statistically representative.
package dataset

import (
	"fmt"
	"math/rand"
)

// FamilyNames is a pool of common surnames.
var FamilyNames = []string{
	"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "GARCIA", "MILLER",
	"DAVIS", "RODRIGUEZ", "MARTINEZ", "HERNANDEZ", "LOPEZ", "GONZALEZ",
	"WILSON", "ANDERSON", "THOMAS", "TAYLOR", "MOORE", "JACKSON", "MARTIN",
	"LEE", "THOMPSON", "WHITE", "HARRIS", "CLARK", "LEWIS", "ROBINSON",
	"WALKER", "YOUNG", "ALLEN", "KING", "WRIGHT", "SCOTT", "NGUYEN",
}

// GivenNamesFemale is a pool of common female given names.
var GivenNamesFemale = []string{
	"MARY", "PATRICIA", "JENNIFER", "LINDA", "ELIZABETH", "BARBARA",
	"SUSAN", "JESSICA", "SARAH", "KAREN", "LISA", "NANCY", "BETTY",
	"MARGARET", "SANDRA", "ASHLEY", "EMILY", "DONNA", "MICHELLE", "CAROL",
}

// GivenNamesMale is a pool of common male given names.
var GivenNamesMale = []string{
	"JAMES", "ROBERT", "JOHN", "MICHAEL", "DAVID", "WILLIAM", "RICHARD",
	"JOSEPH", "THOMAS", "CHARLES", "CHRISTOPHER", "DANIEL", "MATTHEW",
	"ANTHONY", "MARK", "DONALD", "STEVEN", "PAUL", "ANDREW", "JOSHUA",
}

// Streets is a pool of street names without numbers.
var Streets = []string{
	"MAIN ST", "OAK AVE", "MAPLE DR", "CEDAR LN", "PARK AVE", "ELM ST",
	"WASHINGTON BLVD", "LAKE VIEW DR", "HILLCREST RD", "RIVERSIDE DR",
	"SUNSET BLVD", "HIGHLAND AVE", "FOREST LN", "MEADOW CT", "SPRING ST",
}

// City pairs each city with its state and a representative postal prefix.
type City struct {
	Name      string
	State     string
	ZipPrefix string
}

// Cities is a pool of city/state/zip-prefix triples kept internally
// consistent so a generated address never pairs a city with the wrong state.
var Cities = []City{
	{Name: "SPRINGFIELD", State: "IL", ZipPrefix: "627"},
	{Name: "PORTLAND", State: "OR", ZipPrefix: "972"},
	{Name: "MADISON", State: "WI", ZipPrefix: "537"},
	{Name: "COLUMBUS", State: "OH", ZipPrefix: "432"},
	{Name: "AUSTIN", State: "TX", ZipPrefix: "787"},
	{Name: "DENVER", State: "CO", ZipPrefix: "802"},
	{Name: "ATLANTA", State: "GA", ZipPrefix: "303"},
	{Name: "PHOENIX", State: "AZ", ZipPrefix: "850"},
	{Name: "NASHVILLE", State: "TN", ZipPrefix: "372"},
	{Name: "RALEIGH", State: "NC", ZipPrefix: "276"},
}

// AreaCodes is a pool of North American area codes matching the cities
// above loosely enough for test data.
var AreaCodes = []string{
	"217", "503", "608", "614", "512", "303", "404", "602", "615", "919",
}

// Facilities is a pool of sending/receiving facility mnemonics.
var Facilities = []string{
	"GENHOS", "STLUKE", "MERCYMED", "RIVERVIEW", "LAKESIDE", "NORTHCARE",
}

// Applications is a pool of sending/receiving application mnemonics.
var Applications = []string{
	"ADT1", "LABADT", "RADIS", "PHARMSYS", "EMRLINK", "ORDERSYS",
}

// LabTests pairs LOINC-style codes with display names and plausible value
// ranges so coded observation fields stay internally coherent.
type LabTest struct {
	Code     string
	Name     string
	Units    string
	Low      float64
	High     float64
	RefRange string
}

// LabTests is a pool of common laboratory analytes.
var LabTests = []LabTest{
	{Code: "2345-7", Name: "GLUCOSE", Units: "mg/dL", Low: 65, High: 180, RefRange: "70-99"},
	{Code: "2160-0", Name: "CREATININE", Units: "mg/dL", Low: 0.5, High: 2.4, RefRange: "0.6-1.2"},
	{Code: "718-7", Name: "HEMOGLOBIN", Units: "g/dL", Low: 9.5, High: 18.0, RefRange: "12.0-16.0"},
	{Code: "2951-2", Name: "SODIUM", Units: "mmol/L", Low: 128, High: 150, RefRange: "136-145"},
	{Code: "2823-3", Name: "POTASSIUM", Units: "mmol/L", Low: 3.0, High: 5.9, RefRange: "3.5-5.1"},
	{Code: "1920-8", Name: "AST", Units: "U/L", Low: 8, High: 120, RefRange: "10-40"},
}

// Diagnosis pairs an ICD-9 style code with its description.
type Diagnosis struct {
	Code        string
	Description string
}

// Diagnoses is a pool of common admission diagnoses.
var Diagnoses = []Diagnosis{
	{Code: "428.0", Description: "CONGESTIVE HEART FAILURE"},
	{Code: "486", Description: "PNEUMONIA ORGANISM UNSPECIFIED"},
	{Code: "250.00", Description: "DIABETES MELLITUS TYPE II"},
	{Code: "401.9", Description: "ESSENTIAL HYPERTENSION"},
	{Code: "786.50", Description: "CHEST PAIN UNSPECIFIED"},
	{Code: "599.0", Description: "URINARY TRACT INFECTION"},
	{Code: "491.21", Description: "COPD WITH ACUTE EXACERBATION"},
}

// Allergens pairs an allergen code with its description.
type Allergen struct {
	Code        string
	Description string
}

// Allergens is a pool of common drug allergies.
var Allergens = []Allergen{
	{Code: "70618", Description: "PENICILLIN"},
	{Code: "5640", Description: "IBUPROFEN"},
	{Code: "2670", Description: "CODEINE"},
	{Code: "10831", Description: "SULFAMETHOXAZOLE"},
	{Code: "1191", Description: "ASPIRIN"},
}

// Pick returns a uniformly random element of pool using r.
func Pick[T any](r *rand.Rand, pool []T) T {
	return pool[r.Intn(len(pool))]
}

// Phone renders a plausible North American phone number.
func Phone(r *rand.Rand) string {
	area := Pick(r, AreaCodes)
	return fmt.Sprintf("(%s)%03d-%04d", area, 200+r.Intn(800), r.Intn(10000))
}

// StreetAddress renders a numbered street address.
func StreetAddress(r *rand.Rand) string {
	return fmt.Sprintf("%d %s", 1+r.Intn(9899), Pick(r, Streets))
}

// Zip renders a postal code consistent with the given city.
func Zip(r *rand.Rand, c City) string {
	return fmt.Sprintf("%s%02d", c.ZipPrefix, r.Intn(100))
}
