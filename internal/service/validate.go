package service

import (
	"regexp"
	"strings"
	"unicode"
)

// Validation messages shown to users. Uniqueness messages are filled in by
// the operations that can observe the store.
const (
	msgFieldRequired     = "This field is required."
	msgUsernameLength    = "Username must be between 3 and 50 characters."
	msgUsernameAlnum     = "Username must contain only letters and numbers."
	msgUsernameTaken     = "This username is already taken."
	msgEmailInvalid      = "Please enter a valid email address."
	msgEmailTaken        = "This email is already taken, please select another one."
	msgPasswordLength    = "Password must be between 6 and 100 characters."
	msgPasswordNeedDigit = "Make sure your password has a number in it."
	msgPasswordNeedLower = "Make sure your password has a letter in it."
	msgPasswordNeedUpper = "Make sure your password has a capital letter in it."
	msgPasswordsDiffer   = "Passwords do not match."
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func checkUsername(ve *ValidationError, username string) {
	if username == "" {
		ve.add("username", msgFieldRequired)
		return
	}
	if len(username) < 3 || len(username) > 50 {
		ve.add("username", msgUsernameLength)
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			ve.add("username", msgUsernameAlnum)
			break
		}
	}
}

func checkEmail(ve *ValidationError, email string) {
	if email == "" {
		ve.add("email", msgFieldRequired)
		return
	}
	if len(email) < 5 || len(email) > 100 || !emailRx.MatchString(email) {
		ve.add("email", msgEmailInvalid)
	}
}

// checkPassword enforces the strength policy: length plus at least one
// digit, one lower-case and one capital letter.
func checkPassword(ve *ValidationError, password, confirm string) {
	if password == "" {
		ve.add("password", msgFieldRequired)
		return
	}
	if len(password) < 6 || len(password) > 100 {
		ve.add("password", msgPasswordLength)
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		ve.add("password", msgPasswordNeedDigit)
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		ve.add("password", msgPasswordNeedLower)
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		ve.add("password", msgPasswordNeedUpper)
	}
	if confirm != password {
		ve.add("password_confirm", msgPasswordsDiffer)
	}
}
