package types

const redacted = "[redacted]"

// SecretString holds a credential (database DSN, Redis password) and never
// prints or serializes its value. Call Unmask where the raw value is required.
type SecretString string

func (s SecretString) String() string {
	return redacted
}

func (s SecretString) GoString() string {
	return redacted
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Unmask returns the plaintext value.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether no secret was configured.
func (s SecretString) IsZero() bool {
	return s == ""
}
