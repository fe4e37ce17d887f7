// Package ledger implements the custodial ledger program: deposits, stakes,
// signed withdrawals with replay protection, and timelocked governance over
// one persistent state account.
//
// Every entry point runs inside a storage transaction and either commits
// completely or leaves no trace, matching the host ledger's serializable
// all-or-nothing execution. There is no unstake path: staked value leaves
// custody through the same signed withdrawal flow as deposits.
package ledger

import (
	"fmt"
	"time"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
	"github.com/alex-sumner/solana-rabbitx-contract/storage"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
	"github.com/alex-sumner/solana-rabbitx-contract/verify"
)

// Derivation seeds. Fixed string seeds plus (for withdrawal records) the
// bucket index; changing any of them breaks address compatibility with
// deployed integrations.
const (
	StateSeed            = "state"
	TokenAuthoritySeed   = "token_authority"
	NativeAccountSeed    = "sol_account"
	WithdrawalRecordSeed = "withdrawal_account"
)

// DefaultProgramID is the deployed program address.
var DefaultProgramID = common.MustBase58ToAddress("CZBh9LezU7rC2vpxCBs8w1TSFYmHDjU2WmWYkkcocq9W")

// Ledger binds the program identity to its account store. The zero value is
// not usable; construct with New.
type Ledger struct {
	store     *storage.AccountStore
	programID common.Address

	stateAddress common.Address
	stateBump    uint8

	// Now supplies governance timestamps; overridable in tests.
	Now func() int64
}

// New derives the program's state address and returns a Ledger over the
// given store. The state account itself is created by Initialize.
func New(store *storage.AccountStore, programID common.Address) (*Ledger, error) {
	stateAddress, stateBump, err := common.FindDerivedAddress([][]byte{[]byte(StateSeed)}, programID)
	if err != nil {
		return nil, fmt.Errorf("deriving state address: %w", err)
	}
	return &Ledger{
		store:        store,
		programID:    programID,
		stateAddress: stateAddress,
		stateBump:    stateBump,
		Now:          func() int64 { return time.Now().Unix() },
	}, nil
}

// ProgramID returns the program address.
func (l *Ledger) ProgramID() common.Address {
	return l.programID
}

// StateAddress returns the deterministic address of the state account.
func (l *Ledger) StateAddress() common.Address {
	return l.stateAddress
}

// InitializeParams carries the genesis configuration of the state account.
type InitializeParams struct {
	Owner            common.Address
	DefaultAsset     common.Address
	MinDeposit       uint64
	TimelockDelay    int64
	AuthorizationKey common.EthAddress
	Authorities      []common.Address
}

// Initialize creates the singleton state account. It validates the
// authority set, derives the custody sub-accounts recording their bumps,
// seeds the sequence counters, and registers the default asset.
func (l *Ledger) Initialize(params InitializeParams) error {
	if len(params.Authorities) == 0 {
		return rbxerrors.ErrGNoAuthoritiesProvided
	}
	if len(params.Authorities) > types.MaxAuthorities {
		return rbxerrors.ErrGTooManyAuthorities
	}
	for i := 0; i < len(params.Authorities); i++ {
		for j := i + 1; j < len(params.Authorities); j++ {
			if params.Authorities[i] == params.Authorities[j] {
				return rbxerrors.ErrGDuplicateAuthority
			}
		}
	}
	if params.DefaultAsset.IsZero() {
		return rbxerrors.ErrLInvalidAsset
	}
	if params.AuthorizationKey.IsZero() {
		return rbxerrors.ErrGInvalidSigner
	}
	if params.TimelockDelay < 0 {
		return rbxerrors.ErrGInvalidTimelockDelay
	}

	_, tokenBump, err := common.FindDerivedAddress([][]byte{[]byte(TokenAuthoritySeed)}, l.programID)
	if err != nil {
		return fmt.Errorf("deriving token custody authority: %w", err)
	}
	_, nativeBump, err := common.FindDerivedAddress([][]byte{[]byte(NativeAccountSeed)}, l.programID)
	if err != nil {
		return fmt.Errorf("deriving native custody account: %w", err)
	}

	state := &types.LedgerState{
		Owner:                params.Owner,
		AuthorizationKey:     params.AuthorizationKey,
		NextDepositSeq:       types.InitialSequence,
		NextStakeSeq:         types.InitialSequence,
		ReentrancyFlag:       types.Unlocked,
		TokenCustodyBump:     tokenBump,
		NativeCustodyBump:    nativeBump,
		TimelockAuthorities:  append([]common.Address(nil), params.Authorities...),
		TimelockDelaySeconds: params.TimelockDelay,
	}
	state.SupportedAssets = append(state.SupportedAssets, params.DefaultAsset)
	state.SetMinimumDeposit(params.DefaultAsset, params.MinDeposit)

	tx := l.store.Begin()
	defer tx.Discard()
	if _, ok, err := tx.Get(accountKey(l.stateAddress)); err != nil {
		return err
	} else if ok {
		return rbxerrors.ErrLAlreadyInitialized
	}
	tx.Put(accountKey(l.stateAddress), state.Encode())
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info(log.LedgerModule, "initialized",
		"state", l.stateAddress.String(),
		"owner", params.Owner.String(),
		"signer", params.AuthorizationKey.Hex(),
		"delay", params.TimelockDelay,
		"defaultAsset", params.DefaultAsset.String(),
		"minDeposit", params.MinDeposit)
	return nil
}

// State loads the current state account.
func (l *Ledger) State() (*types.LedgerState, error) {
	tx := l.store.Begin()
	defer tx.Discard()
	return l.loadState(tx)
}

func (l *Ledger) loadState(tx *storage.Tx) (*types.LedgerState, error) {
	data, ok, err := tx.Get(accountKey(l.stateAddress))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: state account %s", rbxerrors.ErrLAccountNotFound, l.stateAddress.String())
	}
	return types.DecodeLedgerState(data)
}

func (l *Ledger) saveState(tx *storage.Tx, state *types.LedgerState) {
	tx.Put(accountKey(l.stateAddress), state.Encode())
}

// TokenCustodyAuthority returns the derived address holding token custody.
func (l *Ledger) TokenCustodyAuthority() (common.Address, error) {
	state, err := l.State()
	if err != nil {
		return common.Address{}, err
	}
	return common.CreateDerivedAddress([][]byte{[]byte(TokenAuthoritySeed)}, state.TokenCustodyBump, l.programID)
}

// NativeCustodyAccount returns the derived address holding native custody.
func (l *Ledger) NativeCustodyAccount() (common.Address, error) {
	state, err := l.State()
	if err != nil {
		return common.Address{}, err
	}
	return common.CreateDerivedAddress([][]byte{[]byte(NativeAccountSeed)}, state.NativeCustodyBump, l.programID)
}

// WithdrawalRecordAddress returns the derived address of the replay record
// bucket covering the given withdrawal identifier.
func (l *Ledger) WithdrawalRecordAddress(id uint64) (common.Address, error) {
	bucket := types.BucketForID(id)
	addr, _, err := common.FindDerivedAddress(
		[][]byte{[]byte(WithdrawalRecordSeed), common.Uint64ToBytes(bucket)}, l.programID)
	return addr, err
}

// Version reports the program version string.
func (l *Ledger) Version() string {
	return types.ProgramVersion
}

// SigningDomain returns the EIP-712 domain separator bound to this
// instance's state account.
func (l *Ledger) SigningDomain() common.Hash {
	return verify.DomainSeparator(l.stateAddress)
}

// VerifyingContract returns the hex form of the 32-byte state address as
// used in the EIP-712 verifying-contract slot.
func (l *Ledger) VerifyingContract() string {
	return common.Bytes2Hex(l.stateAddress.Bytes())
}

func accountKey(addr common.Address) []byte {
	return append([]byte("acct:"), addr.Bytes()...)
}
