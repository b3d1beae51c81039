package user

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

type User struct {
	ID        int        `json:"userId"`
	Email     string     `json:"email"`
	Password  string     `json:"password,omitempty"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// PasswordProblems lists every rule password breaks. An empty result means
// the password is acceptable.
func PasswordProblems(password string) []string {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var problems []string
	if len([]rune(password)) < 8 {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one number")
	}
	return problems
}

func sanitizeUser(user User) User {
	user.Password = ""
	return user
}
