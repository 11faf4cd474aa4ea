package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit actions recorded for admin decisions
const (
	AuditApproveLobbyist    = "approve_lobbyist"
	AuditRejectLobbyist     = "reject_lobbyist"
	AuditApproveClaim       = "approve_claim"
	AuditRejectClaim        = "reject_claim"
	AuditApproveRoleUpgrade = "approve_role_upgrade"
	AuditRejectRoleUpgrade  = "reject_role_upgrade"
	AuditApproveMerge       = "approve_merge"
	AuditRejectMerge        = "reject_merge"
	AuditSuspendUser        = "suspend_user"
	AuditUnsuspendUser      = "unsuspend_user"
	AuditDeleteUser         = "delete_user"
	AuditEditUser           = "edit_user"
	AuditEditLobbyist       = "edit_lobbyist"
	AuditDeleteLobbyist     = "delete_lobbyist"
	AuditUpdateTier         = "update_lobbyist_tier"
	AuditResubmitProfile    = "resubmit_profile"
	AuditMFAEnroll          = "mfa_enroll"
)

// Audit target types
const (
	AuditTargetUser        = "user"
	AuditTargetLobbyist    = "lobbyist"
	AuditTargetClaim       = "claim_request"
	AuditTargetRoleUpgrade = "role_upgrade_request"
	AuditTargetMerge       = "merge_request"
)

type AuditLog struct {
	ID         string        `json:"id"`
	ActorID    *string       `json:"actor_id"`
	Action     string        `json:"action"`
	TargetType string        `json:"target_type"`
	TargetID   string        `json:"target_id"`
	Success    bool          `json:"success"`
	IPAddress  *string       `json:"ip_address,omitempty"`
	Metadata   AuditMetadata `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]any

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value any) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported audit metadata type %T", value)
	}

	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*am = m
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(am))
}
