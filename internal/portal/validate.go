package portal

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var letterPattern = regexp.MustCompile(`^[\p{Cyrillic}a-zA-Z\-]+$`)

const (
	minAge = 1
	maxAge = 150

	// bcrypt refuses longer input.
	maxPasswordBytes = 72
)

func upperTrim(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func validateLetters(field, value string) error {
	if !letterPattern.MatchString(value) {
		return fmt.Errorf("%w: %s should contain only letters", ErrInvalidInput, field)
	}
	return nil
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return strings.ToLower(email), nil
}

func required(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}
	return nil
}

func (u *NewUser) normalize() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Surname = strings.TrimSpace(u.Surname)
	if err := validateLetters("name", u.Name); err != nil {
		return err
	}
	if err := validateLetters("surname", u.Surname); err != nil {
		return err
	}
	email, err := validateEmail(u.Email)
	if err != nil {
		return err
	}
	u.Email = email
	if u.Age < minAge || u.Age > maxAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidInput, minAge, maxAge)
	}
	if u.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(u.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

func (p *ProfileUpdate) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Surname = strings.TrimSpace(p.Surname)
	if err := validateLetters("name", p.Name); err != nil {
		return err
	}
	if err := validateLetters("surname", p.Surname); err != nil {
		return err
	}
	email, err := validateEmail(p.Email)
	if err != nil {
		return err
	}
	p.Email = email
	return nil
}
