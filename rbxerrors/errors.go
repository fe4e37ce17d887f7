package rbxerrors

import (
	"errors"
	"strings"
)

// Ledger (L) Errors
var (
	ErrLAssetNotSupported   = errors.New("L1|AssetNotSupported: Asset is not in the supported asset list.")
	ErrLBelowMinimumDeposit = errors.New("L2|BelowMinimumDeposit: Deposit amount is below the asset minimum.")
	ErrLWrongAmount         = errors.New("L3|WrongAmount: Amount must be greater than zero.")
	ErrLInsufficientFunds   = errors.New("L4|InsufficientFunds: Account balance is below the requested amount.")
	ErrLReentrancyDetected  = errors.New("L5|ReentrancyDetected: Reentrancy guard is already locked.")
	ErrLInvalidAsset        = errors.New("L6|InvalidAsset: Asset address is the zero address.")
	ErrLTooManyAssets       = errors.New("L7|TooManyAssets: Supported asset list is full.")
	ErrLAccountNotFound     = errors.New("L8|AccountNotFound: No account stored at the given address.")
	ErrLAlreadyInitialized  = errors.New("L9|AlreadyInitialized: State account already exists.")
)

// Withdrawal (W) Errors
var (
	ErrWInvalidSignature           = errors.New("W1|InvalidSignature: Recovered signer does not match the authorization key.")
	ErrWInvalidSignatureFormat     = errors.New("W2|InvalidSignatureFormat: Recovery id must be 0, 1, 27 or 28.")
	ErrWWithdrawalAlreadyProcessed = errors.New("W3|WithdrawalAlreadyProcessed: Withdrawal identifier has already been consumed.")
)

// Codec (C) Errors
var (
	ErrCTypeMismatch = errors.New("C1|TypeMismatch: Account discriminator does not match the expected type.")
	ErrCShortBuffer  = errors.New("C2|ShortBuffer: Buffer ended before the field was fully read.")
	ErrCTrailingData = errors.New("C3|TrailingData: Buffer holds bytes past the end of the account layout.")
)

// Governance (G) Errors
var (
	ErrGUnauthorized              = errors.New("G1|Unauthorized: Caller is not a timelock authority.")
	ErrGTimelockDelayNotMet       = errors.New("G2|TimelockDelayNotMet: Operation is not yet executable.")
	ErrGInvalidOperationIndex     = errors.New("G3|InvalidOperationIndex: No pending operation at the given index.")
	ErrGInvalidOperationKind      = errors.New("G4|InvalidOperationKind: Operation kind is not recognized.")
	ErrGInvalidOperationPayload   = errors.New("G5|InvalidOperationPayload: Operation payload has the wrong shape for its kind.")
	ErrGInvalidTimelockDelay      = errors.New("G6|InvalidTimelockDelay: Timelock delay must not be negative.")
	ErrGInvalidSigner             = errors.New("G7|InvalidSigner: Authorization key must not be the zero address.")
	ErrGInvalidAuthority          = errors.New("G8|InvalidAuthority: Authority must not be the zero address.")
	ErrGAuthorityAlreadyExists    = errors.New("G9|AuthorityAlreadyExists: Authority is already in the timelock set.")
	ErrGAuthorityNotFound         = errors.New("G10|AuthorityNotFound: Authority is not in the timelock set.")
	ErrGCannotRemoveLastAuthority = errors.New("G11|CannotRemoveLastAuthority: At least one timelock authority must remain.")
	ErrGNoAuthoritiesProvided     = errors.New("G12|NoAuthoritiesProvided: Initialization requires at least one authority.")
	ErrGTooManyAuthorities        = errors.New("G13|TooManyAuthorities: Timelock authority set is full.")
	ErrGDuplicateAuthority        = errors.New("G14|DuplicateAuthority: Initial authority set contains a duplicate.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameDesc := parts[1]
	nameParts := strings.SplitN(nameDesc, ":", 2)
	if len(nameParts) < 1 {
		return errStr
	}
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}
