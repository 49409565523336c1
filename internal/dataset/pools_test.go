package dataset

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
)

func TestPick_CoversPool(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		seen[Pick(r, Facilities)] = true
	}

	if len(seen) != len(Facilities) {
		t.Errorf("Expected all %d facilities to appear over 500 draws, saw %d", len(Facilities), len(seen))
	}
}

func TestPhone_Format(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	pattern := regexp.MustCompile(`^\(\d{3}\)\d{3}-\d{4}$`)

	for i := 0; i < 50; i++ {
		p := Phone(r)
		if !pattern.MatchString(p) {
			t.Fatalf("Phone %q does not match (nnn)nnn-nnnn", p)
		}
	}
}

func TestZip_MatchesCityPrefix(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for _, c := range Cities {
		z := Zip(r, c)
		if !strings.HasPrefix(z, c.ZipPrefix) {
			t.Errorf("Zip %q for %s should start with %s", z, c.Name, c.ZipPrefix)
		}
		if len(z) != 5 {
			t.Errorf("Zip %q should be five digits", z)
		}
	}
}

func TestLabTests_RangesAreSane(t *testing.T) {
	for _, lt := range LabTests {
		if lt.Low >= lt.High {
			t.Errorf("Lab test %s has inverted range %v-%v", lt.Name, lt.Low, lt.High)
		}
		if lt.Code == "" || lt.Units == "" {
			t.Errorf("Lab test %s is missing code or units", lt.Name)
		}
	}
}
