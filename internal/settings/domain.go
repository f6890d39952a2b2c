// Package settings stores shop preferences and the app lock PIN.
package settings

import (
	"strconv"
	"time"
)

// Preference keys as stored in the settings table.
const (
	KeyLanguage         = "language"
	KeyCurrency         = "currency"
	KeyTheme            = "theme"
	KeyBiometricEnabled = "biometricEnabled"
	KeyAutoBackup       = "autoBackup"
)

// Preferences is the typed view over the settings table.
type Preferences struct {
	Language         string `json:"language"`
	Currency         string `json:"currency"`
	Theme            string `json:"theme"`
	BiometricEnabled bool   `json:"biometricEnabled"`
	AutoBackup       bool   `json:"autoBackup"`
}

// DefaultPreferences applies to keys never written.
func DefaultPreferences() Preferences {
	return Preferences{Language: "en", Currency: "PKR", Theme: "light", AutoBackup: true}
}

func (p *Preferences) apply(key, value string) {
	switch key {
	case KeyLanguage:
		p.Language = value
	case KeyCurrency:
		p.Currency = value
	case KeyTheme:
		p.Theme = value
	case KeyBiometricEnabled:
		p.BiometricEnabled, _ = strconv.ParseBool(value)
	case KeyAutoBackup:
		p.AutoBackup, _ = strconv.ParseBool(value)
	}
}

// preferenceRules holds the validator tag each key's value must satisfy.
var preferenceRules = map[string]string{
	KeyLanguage:         "required,oneof=en ur",
	KeyCurrency:         "required,len=3,alpha,uppercase",
	KeyTheme:            "required,oneof=light dark",
	KeyBiometricEnabled: "required,boolean",
	KeyAutoBackup:       "required,boolean",
}

// Security is the state of the app lock.
type Security struct {
	LockEnabled bool       `json:"lock_enabled"`
	HasPIN      bool       `json:"has_pin"`
	LastAuth    *time.Time `json:"last_auth"`
}

// SecurityRecord is the stored user_security singleton.
type SecurityRecord struct {
	PINHash     *string    `db:"pin_hash"`
	LastAuth    *time.Time `db:"last_auth"`
	LockEnabled bool       `db:"lock_enabled"`
}

// PINInput carries a PIN to set or verify.
type PINInput struct {
	PIN string `json:"pin" validate:"required,numeric,min=4,max=8"`
}
