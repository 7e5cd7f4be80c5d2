package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes for the dex rewards core.
const (
	// Record store errors
	ErrCodeRecordNotFound     = "RECORD_NOT_FOUND"
	ErrCodeRecordDecodeFailed = "RECORD_DECODE_FAILED"
	ErrCodeStorageWriteFailed = "STORAGE_WRITE_FAILED"

	// Migration errors
	ErrCodeMigrationBackupFailed     = "MIGRATION_BACKUP_FAILED"
	ErrCodeMigrationValidationFailed = "MIGRATION_VALIDATION_FAILED"
	ErrCodeMigrationFailed           = "MIGRATION_FAILED"
	ErrCodeBackupNotFound            = "BACKUP_NOT_FOUND"

	// Configuration errors
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeCatalogInvalid = "CATALOG_INVALID"
)

// DexError represents an error in the dex rewards core. Expected claim
// outcomes (no such tier, not yet eligible, already claimed) are not errors
// and are represented as domain.ClaimOutcome values instead.
type DexError struct {
	Code    string
	Message string
	Err     error
}

func (e *DexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DexError) Unwrap() error {
	return e.Err
}

// NewDexError creates a new DexError.
func NewDexError(code, message string, err error) *DexError {
	return &DexError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err is a DexError carrying the given code.
func HasCode(err error, code string) bool {
	var dexErr *DexError
	if stderrors.As(err, &dexErr) {
		return dexErr.Code == code
	}
	return false
}

// Domain-specific error constructors

// ErrRecordNotFound indicates no persisted document exists for the player.
// This is a valid empty state, not a failure.
func ErrRecordNotFound(playerID string) *DexError {
	return &DexError{
		Code:    ErrCodeRecordNotFound,
		Message: fmt.Sprintf("no record for player: %s", playerID),
	}
}

// IsNotFound reports whether err is a record-not-found error.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeRecordNotFound)
}

// ErrRecordDecodeFailed indicates a persisted document is present but
// malformed.
func ErrRecordDecodeFailed(file string, err error) *DexError {
	return &DexError{
		Code:    ErrCodeRecordDecodeFailed,
		Message: fmt.Sprintf("failed to decode record file: %s", file),
		Err:     err,
	}
}

// ErrStorageWriteFailed indicates a save failed. The in-memory record remains
// the source of truth until the next successful save.
func ErrStorageWriteFailed(file string, err error) *DexError {
	return &DexError{
		Code:    ErrCodeStorageWriteFailed,
		Message: fmt.Sprintf("failed to write record file: %s", file),
		Err:     err,
	}
}

// ErrMigrationBackupFailed indicates the pre-migration backup could not be
// created. The original file is left untouched.
func ErrMigrationBackupFailed(file string, err error) *DexError {
	return &DexError{
		Code:    ErrCodeMigrationBackupFailed,
		Message: fmt.Sprintf("failed to back up record before migration: %s", file),
		Err:     err,
	}
}

// ErrMigrationValidationFailed indicates the transformed document is missing
// required fields. The original file is left untouched.
func ErrMigrationValidationFailed(file, reason string) *DexError {
	return &DexError{
		Code:    ErrCodeMigrationValidationFailed,
		Message: fmt.Sprintf("migrated record failed validation (%s): %s", reason, file),
	}
}

// ErrMigrationFailed wraps any other per-record migration failure.
func ErrMigrationFailed(file string, err error) *DexError {
	return &DexError{
		Code:    ErrCodeMigrationFailed,
		Message: fmt.Sprintf("failed to migrate record file: %s", file),
		Err:     err,
	}
}

// ErrBackupNotFound indicates recovery was requested but no backup sibling
// exists for the record.
func ErrBackupNotFound(file string) *DexError {
	return &DexError{
		Code:    ErrCodeBackupNotFound,
		Message: fmt.Sprintf("no backup files found for recovery: %s", file),
	}
}

// ErrConfigInvalid returns an error for invalid module settings.
func ErrConfigInvalid(reason string) *DexError {
	return &DexError{
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
	}
}

// ErrCatalogInvalid returns an error for an invalid reward catalog document.
func ErrCatalogInvalid(reason string, err error) *DexError {
	return &DexError{
		Code:    ErrCodeCatalogInvalid,
		Message: fmt.Sprintf("invalid reward catalog: %s", reason),
		Err:     err,
	}
}
