package models

import (
	"time"
)

// MFADevice is an admin's enrolled TOTP authenticator.
type MFADevice struct {
	ID                  string
	UserID              string
	DeviceName          string
	TOTPSecretEncrypted []byte // AES-256-GCM ciphertext
	TOTPSecretNonce     []byte // GCM nonce (12 bytes)
	LastUsedAt          *time.Time
	CreatedAt           time.Time
	VerifiedAt          *time.Time // set once the first code is confirmed
}

// IsVerified checks if the device has been verified
func (d *MFADevice) IsVerified() bool {
	return d.VerifiedAt != nil
}

// MFAStatus represents the MFA status for a user
type MFAStatus struct {
	Enabled    bool       `json:"mfa_enabled"`
	DeviceName string     `json:"device_name,omitempty"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
}

// MFASetupResponse contains setup information for MFA enrollment
type MFASetupResponse struct {
	DeviceID string `json:"device_id"`
	Secret   string `json:"secret"`  // base32, for manual entry
	QRCode   string `json:"qr_code"` // PNG data URL
}
