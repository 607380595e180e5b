package validator

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"uploadit/internal/application/services"
	"uploadit/internal/interface/api/rest/dto/auth"
	"uploadit/internal/interface/api/rest/dto/filerecord"
)

const maxNameLen = 255

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

func ValidateCredentials(r auth.Credentials) map[string]string {
	errs := make(map[string]string)

	email := strings.ToLower(strings.TrimSpace(r.Email))
	if email == "" {
		errs["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "invalid email format"
	}

	// the password is not trimmed
	if strings.TrimSpace(r.Password) == "" {
		errs["password"] = "password is required"
	} else if l := utf8.RuneCountInString(r.Password); l < services.MinPasswordLen || len(r.Password) > services.MaxPasswordLen {
		errs["password"] = "password length must be 6-72 characters"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateCode returns the normalized code, ok=false when it cannot have been issued.
func ValidateCode(code string) (string, bool) {
	code = services.NormalizeCode(code)
	return code, services.IsValidCode(code)
}

func ValidateRename(r filerecord.RenameRequest) map[string]string {
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return map[string]string{"name": "name is required"}
	case utf8.RuneCountInString(name) > maxNameLen:
		return map[string]string{"name": "name must be at most 255 characters"}
	case strings.ContainsAny(name, "/\\"):
		return map[string]string{"name": "name must not contain path separators"}
	}
	return nil
}
