package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gcl-lms/web/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	selfRoleTag  = "selfrole"
	selfRoleText = "you may only register as a student or a teacher"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdLetterDigitTag  = "pwdletterdigit"
	pwdLetterDigitText = "password must contain at least 1 letter and 1 digit"

	pwdUpperDigitTag  = "pwdupperdigit"
	pwdUpperDigitText = "password must contain at least 1 uppercase character and 1 digit"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// Registration embeds NewUser with the restrictions of self sign-up.
type Registration struct {
	NewUser
}

func (r *Registration) Validate(validate *validator.Validate) error {
	if err := r.NewUser.Validate(validate); err != nil {
		return err
	}
	if err := validate.Var(r.Role, selfRoleTag); err != nil {
		return core.NewValidationError(errors.New(selfRoleText), core.FieldError{Field: "rol", Error: selfRoleText})
	}
	return nil
}

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(selfRoleTag, selfRoleValidation)
	core.RegisterCustomTranslation(validate, translator, selfRoleTag, selfRoleText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ChangePassword{}, ResetPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdLetterDigitTag, pwdLetterDigitText)
	core.RegisterCustomTranslation(validate, translator, pwdUpperDigitTag, pwdUpperDigitText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// roleValidation accepts any known spelling of a role.
func roleValidation(fl validator.FieldLevel) bool {
	_, ok := ParseRole(fl.Field().String())
	return ok
}

func selfRoleValidation(fl validator.FieldLevel) bool {
	role, ok := ParseRole(fl.Field().String())
	return ok && (role == RoleStudent || role == RoleTeacher)
}

// userStructValidation applies the password policies to the user forms.
func userStructValidation(sl validator.StructLevel) {
	switch form := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(form.Password, pwdLetterDigitTag, sl, form.Name, form.Username, form.Email)
	case UpdateUser:
		if form.Password != "" {
			validatePassword(form.Password, pwdLetterDigitTag, sl, form.Name, form.Username, form.Email)
		}
	case ChangePassword:
		validatePassword(form.Password, pwdLetterDigitTag, sl)
	case ResetPassword:
		validatePassword(form.Password, pwdUpperDigitTag, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - complexity: depends on the form (see pwdLetterDigitTag & pwdUpperDigitTag)
// - no user attrs similarity
func validatePassword(pwd, complexityTag string, sl validator.StructLevel, attrs ...string) {
	if pwd == "" { // reported by `required`
		return
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var hasLetter, hasUpper, hasDigit bool
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		switch {
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsUpper(char):
			hasUpper = true
			hasLetter = true
		case unicode.IsLetter(char):
			hasLetter = true
		}
	}

	switch complexityTag {
	case pwdLetterDigitTag:
		if !(hasLetter && hasDigit) {
			reportErr(complexityTag)
			return
		}
	case pwdUpperDigitTag:
		if !(hasUpper && hasDigit) {
			reportErr(complexityTag)
			return
		}
	}

	for _, attr := range attrs {
		if similarity(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

func similarity(pwd, usrAttr string) float64 {
	if usrAttr == "" {
		return 0
	}
	return difflib.NewMatcher(
		strings.Split(strings.ToLower(pwd), ""),
		strings.Split(strings.ToLower(usrAttr), ""),
	).QuickRatio()
}
