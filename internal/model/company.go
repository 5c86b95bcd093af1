package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// SizeCategory is the coarse headcount bucket of a company.
type SizeCategory string

const (
	SizeSmall      SizeCategory = "Small"
	SizeMedium     SizeCategory = "Medium"
	SizeLarge      SizeCategory = "Large"
	SizeEnterprise SizeCategory = "Enterprise"
	SizeUnknown    SizeCategory = "Unknown"
)

// AllSizeCategories returns every accepted size category.
func AllSizeCategories() []SizeCategory {
	return []SizeCategory{SizeSmall, SizeMedium, SizeLarge, SizeEnterprise, SizeUnknown}
}

// Valid reports whether s is one of the accepted categories.
func (s SizeCategory) Valid() bool {
	for _, c := range AllSizeCategories() {
		if s == c {
			return true
		}
	}
	return false
}

// Industry holds the industry classification of a company.
type Industry struct {
	Industry        string   `json:"industry"`
	ConfidenceScore float64  `json:"confidence_score"`
	SubIndustries   []string `json:"sub_industries"`
}

// CompanySize holds the estimated size of a company.
type CompanySize struct {
	SizeCategory    SizeCategory `json:"size_category"`
	EmployeeRange   string       `json:"employee_range"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// Location holds where a company is based and operates.
type Location struct {
	Headquarters         string   `json:"headquarters"`
	Offices              []string `json:"offices"`
	CountriesOfOperation []string `json:"countries_of_operation"`
	ConfidenceScore      float64  `json:"confidence_score"`
}

// BusinessDetails is the structured company profile produced by analyzing a
// website. Absent evidence is expressed as Unknown or empty fields.
type BusinessDetails struct {
	CompanyName      string      `json:"company_name,omitempty"`
	WebsiteURL       string      `json:"website_url,omitempty"`
	Industry         Industry    `json:"industry"`
	CompanySize      CompanySize `json:"company_size"`
	Location         Location    `json:"location"`
	Description      string      `json:"description"`
	ProductsServices []string    `json:"products_services"`
	Technologies     []string    `json:"technologies"`
	FoundedYear      *int        `json:"founded_year,omitempty"`
}

// Validate checks the range and enum invariants of the profile. It never
// adjusts a value.
func (b *BusinessDetails) Validate() error {
	if b == nil {
		return eris.New("business details: nil")
	}
	if err := ValidateConfidence("industry.confidence_score", b.Industry.ConfidenceScore); err != nil {
		return err
	}
	if err := ValidateConfidence("company_size.confidence_score", b.CompanySize.ConfidenceScore); err != nil {
		return err
	}
	if err := ValidateConfidence("location.confidence_score", b.Location.ConfidenceScore); err != nil {
		return err
	}
	if !b.CompanySize.SizeCategory.Valid() {
		return eris.Errorf("business details: company_size.size_category %q is not a known category", b.CompanySize.SizeCategory)
	}
	return nil
}

// ValidateConfidence rejects scores outside [0,1], including NaN.
func ValidateConfidence(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return eris.Errorf("%s: %v is outside [0,1]", field, v)
	}
	return nil
}
