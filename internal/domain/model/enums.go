package model

// CredentialStatus is the display classification of a credential.
// Precedence: breached > expired > expiring_soon > expiring > safe. An
// unresolved breach always outranks expiry state regardless of password age.
type CredentialStatus string

const (
	StatusBreached     CredentialStatus = "breached"
	StatusExpired      CredentialStatus = "expired"
	StatusExpiringSoon CredentialStatus = "expiring_soon" // 7 days or less
	StatusExpiring     CredentialStatus = "expiring"      // 30 days or less
	StatusSafe         CredentialStatus = "safe"
)
