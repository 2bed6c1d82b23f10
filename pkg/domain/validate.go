package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRe  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	mobileRe = regexp.MustCompile(`^\+?\d[\d\s\-]{7,}\d$`)
)

// ValidateEmail accepts a syntactically valid email address.
func ValidateEmail(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(v) {
		return "", &ValidationError{Field: "email", Reason: "that does not look like a valid email address"}
	}
	return v, nil
}

// ValidateMobile accepts a phone number with at least 9 digits, keeping
// an optional leading country code.
func ValidateMobile(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if !mobileRe.MatchString(v) {
		return "", &ValidationError{Field: "mobile", Reason: "a mobile number needs at least 9 digits, optionally starting with +"}
	}
	// Normalize separators away, keep the leading plus.
	var b strings.Builder
	for i, r := range v {
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// ValidateAge accepts ages between 1 and 120.
func ValidateAge(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 120 {
		return "", &ValidationError{Field: "age", Reason: "age should be a number between 1 and 120"}
	}
	return strconv.Itoa(n), nil
}

// ValidateName accepts any text of two or more characters.
func ValidateName(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) < 2 {
		return "", &ValidationError{Field: "name", Reason: "a name needs at least 2 characters"}
	}
	return v, nil
}

// ValidateText accepts any non-empty text.
func ValidateText(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", &ValidationError{Reason: "this field cannot be empty"}
	}
	return v, nil
}

// builtinValidators maps validator kinds referenced by configuration
// files to implementations.
var builtinValidators = map[string]Validator{
	"email":  ValidateEmail,
	"mobile": ValidateMobile,
	"age":    ValidateAge,
	"name":   ValidateName,
	"text":   ValidateText,
}

// ValidatorByKind resolves a named builtin validator.
func ValidatorByKind(kind string) (Validator, error) {
	v, ok := builtinValidators[kind]
	if !ok {
		return nil, fmt.Errorf("unknown validator kind %q", kind)
	}
	return v, nil
}

// DefaultSchema is the stock lead-intake declaration: name, email and
// mobile are required; age and city are optional and skippable.
func DefaultSchema() *Schema {
	s, err := NewSchema(
		Field{Name: "name", Required: true, Question: "What's your full name?", Validate: ValidateName},
		Field{Name: "email", Required: true, Question: "What's your email address?", Validate: ValidateEmail},
		Field{Name: "mobile", Required: true, Question: "What's your mobile number? (Include country code if possible)", Validate: ValidateMobile},
		Field{Name: "age", Required: false, Question: "What's your age? (You can type 'skip')", Validate: ValidateAge},
		Field{Name: "city", Required: false, Question: "Which city are you in? (You can type 'skip')", Validate: ValidateText},
	)
	if err != nil {
		panic(err) // static declaration, cannot fail
	}
	return s
}
