package identitysdk

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/aussiebroadwan/identity/pkg/idx"
)

var (
	// Optional leading +, then digits or hyphens.
	rePhone = regexp.MustCompile(`^\+?[0-9\-]{1,20}$`)
	// Ten digit business registration number.
	reBusinessNum = regexp.MustCompile(`^[0-9]{10}$`)
	reOTP         = regexp.MustCompile(`^[0-9]{6}$`)
)

func isAccountID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := idx.Parse(s); err != nil {
		return errors.New("must be a valid account id")
	}
	return nil
}

// Validate checks the partner sign-up form.
func (r PartnerSignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginID, validation.Required, validation.Length(1, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 100)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.CompanyName, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&r.Address, validation.Required, validation.RuneLength(1, 1000)),
		validation.Field(&r.Phone, validation.Required, validation.Match(rePhone)),
		validation.Field(&r.CompanyNum, validation.Required, validation.Match(rePhone)),
		validation.Field(&r.BusinessNum, validation.Required, validation.Match(reBusinessNum)),
	)
}

func (r PartnerLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginID, validation.Required, validation.Length(1, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 100)),
	)
}

func (r PartnerRejectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.RuneLength(1, 100)),
	)
}

// Validate checks the profile completion form. FCMToken is optional.
func (r UserProfileCompletionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountID, validation.Required, validation.By(isAccountID)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&r.Phone, validation.Required, validation.Match(rePhone)),
		validation.Field(&r.FCMToken, validation.RuneLength(0, 255)),
	)
}

func (r AdminSignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginID, validation.Required, validation.RuneLength(4, 50)),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 100)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.Department, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.Phone, validation.Required, validation.Match(rePhone)),
		validation.Field(&r.AdminRole, validation.Required,
			validation.In(AdminRoleSuper, AdminRoleContent, AdminRoleMonitor)),
	)
}

func (r AdminBootstrapRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginID, validation.Required, validation.RuneLength(4, 50)),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 100)),
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.Department, validation.Required, validation.RuneLength(1, 20)),
		validation.Field(&r.Phone, validation.Required, validation.Match(rePhone)),
	)
}

func (r AdminLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginID, validation.Required, validation.RuneLength(4, 50)),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(8, 100)),
		validation.Field(&r.OTP, validation.Match(reOTP)),
	)
}

func (r TOTPConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Match(reOTP)),
	)
}
