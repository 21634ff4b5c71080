package identity

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// User maps to the users table. Both doctors and patients authenticate
// through the same table, distinguished by role.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           string    `db:"role" json:"role"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  *string   `db:"license_number" json:"licenseNumber,omitempty"`
	Age            *int      `db:"age" json:"age,omitempty"`
	Gender         *string   `db:"gender" json:"gender,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Only well-known consumer mail providers are accepted for account email.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@(gmail\.com|yahoo\.com|outlook\.com|hotmail\.com|icloud\.com)$`)

// ValidEmail reports whether the address is on the provider allow-list.
// Callers lowercase addresses before validation and storage.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`\d`)
)

// ValidPassword enforces the minimum password rule: 8+ characters with at
// least one letter and one digit.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLetter.MatchString(password) && hasDigit.MatchString(password)
}
