package services

import (
	"unicode/utf8"

	"github.com/yukikurage/civic-proposals-api/internal/constants"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), constants.BcryptCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// checkPassword applies the policy and returns a ValidationError carrying the check on failure.
func checkPassword(policy security.PasswordPolicy, password string) (security.PasswordCheck, error) {
	check := policy.Check(password)
	if !check.Valid {
		return check, &ValidationError{Message: "Password does not meet the security requirements", Details: check}
	}
	return check, nil
}

// cleanName sanitizes a required name-like field and records problems under field.
func cleanName(errs fieldErrors, field, raw string, required bool) string {
	value := security.SanitizeText(raw)
	switch {
	case value == "" && required:
		errs.add(field, "is required")
	case utf8.RuneCountInString(value) > constants.MaxNameLength:
		errs.add(field, "is too long")
	}
	return value
}

func cleanBio(errs fieldErrors, raw string) string {
	value := security.SanitizeText(raw)
	if utf8.RuneCountInString(value) > constants.MaxBioLength {
		errs.add("bio", "must be at most 500 characters")
	}
	return value
}
