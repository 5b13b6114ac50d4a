package courier

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse staff phone numbers written without a
// country prefix.
const DefaultPhoneRegion = "KR"

// AdminProfile is the administrator record kept with an admin session. The
// machine stores it as issued by the backend; see Validate for the stricter
// checks applied at the edges.
type AdminProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

// StaffProfile is the delivery staff record kept with a staff session.
type StaffProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	TenantID string `json:"tenant_id,omitempty"`
	QRCode   string `json:"qr_code,omitempty"`
}

func validPhone(region string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		_, err := NormalizePhone(s, region)
		return err
	}
}

// Validate implements validation.Validatable.
func (p *AdminProfile) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ID, validation.Required, is.UUID),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Name, validation.RuneLength(0, 100)),
	)
}

// Validate implements validation.Validatable using DefaultPhoneRegion.
func (p *StaffProfile) Validate() error {
	return p.ValidateInRegion(DefaultPhoneRegion)
}

// ValidateInRegion validates the profile, reading phone numbers without a
// country prefix in region.
func (p *StaffProfile) ValidateInRegion(region string) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ID, validation.Required, is.UUID),
		validation.Field(&p.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&p.Phone, validation.Required, validation.By(validPhone(region))),
	)
}

func (p *AdminProfile) clone() *AdminProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (p *StaffProfile) clone() *StaffProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// NormalizePhone parses a phone number and formats it as E.164. Numbers
// without a country prefix are read in region.
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
