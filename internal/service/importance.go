package service

import (
	"github.com/hl7-message-forge/internal/domain"
)

// componentTiers ranks the optional components of the common composite
// data types. Required components are always populated; tiers gate only
// the optional ones, so a name without a family name or an address
// without a city cannot happen while rarely useful parts (name type
// codes, county codes) stay sparse, the way real feeds look.
var componentTiers = map[string]map[int]domain.ImportanceTier{
	"XPN": {
		1: domain.CRITICAL,   // family name
		2: domain.CRITICAL,   // given name
		3: domain.IMPORTANT,  // middle initial or name
		4: domain.INCIDENTAL, // suffix
		5: domain.INCIDENTAL, // prefix
		6: domain.INCIDENTAL, // degree
		7: domain.IMPORTANT,  // name type code
	},
	"XAD": {
		1: domain.CRITICAL,   // street address
		2: domain.INCIDENTAL, // other designation
		3: domain.CRITICAL,   // city
		4: domain.CRITICAL,   // state
		5: domain.CRITICAL,   // zip
		6: domain.INCIDENTAL, // country
		7: domain.IMPORTANT,  // address type
		8: domain.INCIDENTAL, // other geographic designation
		9: domain.INCIDENTAL, // county code
	},
	"XTN": {
		1: domain.CRITICAL,   // telephone number
		2: domain.IMPORTANT,  // telecommunication use code
		3: domain.IMPORTANT,  // telecommunication equipment type
		4: domain.INCIDENTAL, // email address
	},
	"CX": {
		1: domain.CRITICAL,   // id number
		2: domain.INCIDENTAL, // check digit
		3: domain.INCIDENTAL, // check digit scheme
		4: domain.IMPORTANT,  // assigning authority
		5: domain.IMPORTANT,  // identifier type code
		6: domain.INCIDENTAL, // assigning facility
	},
	"CE": {
		1: domain.CRITICAL,   // identifier
		2: domain.CRITICAL,   // text
		3: domain.IMPORTANT,  // name of coding system
		4: domain.INCIDENTAL, // alternate identifier
		5: domain.INCIDENTAL, // alternate text
		6: domain.INCIDENTAL, // name of alternate coding system
	},
	"XCN": {
		1: domain.CRITICAL,   // id number
		2: domain.CRITICAL,   // family name
		3: domain.CRITICAL,   // given name
		4: domain.IMPORTANT,  // middle initial or name
		5: domain.INCIDENTAL, // suffix
		6: domain.INCIDENTAL, // prefix
		7: domain.INCIDENTAL, // degree
	},
	"XON": {
		1: domain.CRITICAL,   // organization name
		2: domain.INCIDENTAL, // organization name type code
		3: domain.IMPORTANT,  // id number
	},
}

// ImportanceClassifier assigns a population tier to a composite
// component based on its parent data type and position. Unknown
// components default to incidental, keeping unmodeled tails sparse.
type ImportanceClassifier struct{}

func NewImportanceClassifier() *ImportanceClassifier {
	return &ImportanceClassifier{}
}

func (c *ImportanceClassifier) Tier(dataType string, position int) domain.ImportanceTier {
	if tiers, ok := componentTiers[dataType]; ok {
		if tier, ok := tiers[position]; ok {
			return tier
		}
	}
	return domain.INCIDENTAL
}
