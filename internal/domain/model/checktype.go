package model

import "fmt"

// CheckType identifies a compliance check category. Each check type owns an
// independent evidence history.
type CheckType string

const (
	// CheckProjectPITREnabled verifies point-in-time-recovery is enabled per project.
	CheckProjectPITREnabled CheckType = "PROJECT_PITR_ENABLED"
	// CheckUserMFAEnabled verifies users have at least one registered MFA factor.
	CheckUserMFAEnabled CheckType = "USER_MFA_ENABLED"
	// CheckTableRLSEnabled verifies row-level security is enabled per public table.
	CheckTableRLSEnabled CheckType = "TABLE_RLS_ENABLED"
)

// Column is one snapshot table column: the entity field key and the label
// shown to reviewers. Order within a header is significant.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// CheckDefinition describes a registered check type: its display name and the
// fixed snapshot header for the entity type it summarizes.
type CheckDefinition struct {
	Type        CheckType
	DisplayName string
	Header      []Column
}

// checkCatalog is the closed registry of supported checks. Adding a check type
// means adding an entry here plus a snapshot-builder case; nothing else changes.
var checkCatalog = map[CheckType]CheckDefinition{
	CheckProjectPITREnabled: {
		Type:        CheckProjectPITREnabled,
		DisplayName: "Project PITR Enabled",
		Header: []Column{
			{Key: "name", Label: "Name"},
			{Key: "pitr_enabled", Label: "PITR Enabled"},
		},
	},
	CheckUserMFAEnabled: {
		Type:        CheckUserMFAEnabled,
		DisplayName: "User MFA Enabled",
		Header: []Column{
			{Key: "email", Label: "Email"},
			{Key: "phone", Label: "Phone"},
			{Key: "mfa_enabled", Label: "MFA Enabled"},
		},
	},
	CheckTableRLSEnabled: {
		Type:        CheckTableRLSEnabled,
		DisplayName: "Table RLS Enabled",
		Header: []Column{
			{Key: "name", Label: "Name"},
			{Key: "project_name", Label: "Project Name"},
			{Key: "rls_enabled", Label: "RLS Enabled"},
		},
	},
}

// AllCheckTypes returns the registered check types in stable order.
func AllCheckTypes() []CheckType {
	return []CheckType{CheckProjectPITREnabled, CheckUserMFAEnabled, CheckTableRLSEnabled}
}

// Valid reports whether ct is a registered check type.
func (ct CheckType) Valid() bool {
	_, ok := checkCatalog[ct]
	return ok
}

// Definition returns the catalog entry for ct.
func (ct CheckType) Definition() (CheckDefinition, error) {
	def, ok := checkCatalog[ct]
	if !ok {
		return CheckDefinition{}, fmt.Errorf("unknown check type %q", string(ct))
	}
	return def, nil
}
