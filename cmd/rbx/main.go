// rbx is the operator CLI for the custodial ledger: initialize a state
// database, submit deposits, stakes and signed withdrawals, queue and
// execute timelock operations, and inspect state and events.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/ledger"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/storage"
	"github.com/alex-sumner/solana-rabbitx-contract/types"
	"github.com/alex-sumner/solana-rabbitx-contract/verify"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "rbx",
		Short: "Custodial ledger operator CLI",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dbPath   string
		logLevel string
		debug    string
	)
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "rbx.db", "Ledger database directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "Comma-separated modules to enable debug logging for")

	openLedger := func() *ledger.Ledger {
		log.InitLogger(logLevel)
		for _, m := range strings.Split(debug, ",") {
			if m != "" {
				log.EnableModule(m)
			}
		}
		store, err := storage.NewAccountStore(dbPath)
		if err != nil {
			fmt.Printf("Failed to open store at %s: %v\n", dbPath, err)
			os.Exit(1)
		}
		l, err := ledger.New(store, ledger.DefaultProgramID)
		if err != nil {
			fmt.Printf("Failed to open ledger: %v\n", err)
			os.Exit(1)
		}
		return l
	}

	var (
		initOwner     string
		initAuthKey   string
		initAsset     string
		initMin       uint64
		initDelay     int64
		initAuthority []string
	)
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize the state account",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			params := ledger.InitializeParams{
				Owner:            mustAddress(initOwner),
				DefaultAsset:     mustAddress(initAsset),
				MinDeposit:       initMin,
				TimelockDelay:    initDelay,
				AuthorizationKey: mustEthAddress(initAuthKey),
			}
			for _, a := range initAuthority {
				params.Authorities = append(params.Authorities, mustAddress(a))
			}
			if err := l.Initialize(params); err != nil {
				fail(err)
			}
			fmt.Printf("State account: %s\n", l.StateAddress().String())
			fmt.Printf("Verifying contract: 0x%s\n", l.VerifyingContract())
		},
	}
	initCmd.Flags().StringVar(&initOwner, "owner", "", "Owner address (base58)")
	initCmd.Flags().StringVar(&initAuthKey, "authorization-key", "", "Withdrawal signing key (20-byte hex)")
	initCmd.Flags().StringVar(&initAsset, "asset", "", "Default supported asset (base58)")
	initCmd.Flags().Uint64Var(&initMin, "min-deposit", 0, "Minimum deposit for the default asset")
	initCmd.Flags().Int64Var(&initDelay, "delay", 0, "Timelock delay in seconds")
	initCmd.Flags().StringArrayVar(&initAuthority, "authority", nil, "Timelock authority address (repeatable)")

	var stateCmd = &cobra.Command{
		Use:   "state",
		Short: "Print the state account",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			state, err := l.State()
			if err != nil {
				fail(err)
			}
			fmt.Printf("Version:              %s\n", l.Version())
			fmt.Printf("State account:        %s\n", l.StateAddress().String())
			fmt.Printf("Owner:                %s\n", state.Owner.String())
			fmt.Printf("Authorization key:    %s\n", state.AuthorizationKey.Hex())
			fmt.Printf("Next deposit seq:     %d\n", state.NextDepositSeq)
			fmt.Printf("Next stake seq:       %d\n", state.NextStakeSeq)
			fmt.Printf("Timelock delay:       %ds\n", state.TimelockDelaySeconds)
			fmt.Printf("Supported assets:     %d\n", len(state.SupportedAssets))
			for _, a := range state.SupportedAssets {
				min, _ := state.MinimumDepositFor(a)
				fmt.Printf("  %s (min %d)\n", a.String(), min)
			}
			fmt.Printf("Timelock authorities: %d\n", len(state.TimelockAuthorities))
			for _, a := range state.TimelockAuthorities {
				fmt.Printf("  %s\n", a.String())
			}
			fmt.Printf("Pending operations:   %d\n", len(state.PendingOperations))
			for i, op := range state.PendingOperations {
				fmt.Printf("  [%d] kind=%d queued=%d executable=%d\n", i, op.Kind, op.QueuedAt, op.ExecutableAt)
			}
		},
	}

	var (
		opAsset       string
		opAmount      uint64
		opActor       string
		opBeneficiary string
		opNative      bool
	)
	var depositCmd = &cobra.Command{
		Use:   "deposit",
		Short: "Deposit into custody",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			depositor := mustAddress(opActor)
			beneficiary := depositor
			if opBeneficiary != "" {
				beneficiary = mustAddress(opBeneficiary)
			}
			var seq uint64
			var err error
			if opNative {
				seq, err = l.DepositNativeFor(mustAddress(opAsset), opAmount, depositor, beneficiary)
			} else {
				seq, err = l.DepositFor(mustAddress(opAsset), opAmount, depositor, beneficiary)
			}
			if err != nil {
				fail(err)
			}
			fmt.Printf("Deposit sequence: %d\n", seq)
		},
	}
	var stakeCmd = &cobra.Command{
		Use:   "stake",
		Short: "Stake into the staking sub-custody",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			var seq uint64
			var err error
			if opNative {
				seq, err = l.StakeNative(mustAddress(opAsset), opAmount, mustAddress(opActor))
			} else {
				seq, err = l.Stake(mustAddress(opAsset), opAmount, mustAddress(opActor))
			}
			if err != nil {
				fail(err)
			}
			fmt.Printf("Stake sequence: %d\n", seq)
		},
	}
	for _, c := range []*cobra.Command{depositCmd, stakeCmd} {
		c.Flags().StringVar(&opAsset, "asset", "", "Asset address (base58); wrapped asset for --native")
		c.Flags().Uint64Var(&opAmount, "amount", 0, "Amount in base units")
		c.Flags().StringVar(&opActor, "from", "", "Paying account (base58)")
		c.Flags().BoolVar(&opNative, "native", false, "Move native coin instead of a token")
	}
	depositCmd.Flags().StringVar(&opBeneficiary, "beneficiary", "", "Credited account if different from --from")

	var (
		wID  uint64
		wSig string
	)
	var withdrawCmd = &cobra.Command{
		Use:   "withdraw",
		Short: "Submit a signed withdrawal",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			sig, err := parseSignature(wSig)
			if err != nil {
				fail(err)
			}
			beneficiary := mustAddress(opBeneficiary)
			if opNative {
				err = l.WithdrawNative(wID, mustAddress(opAsset), beneficiary, opAmount, sig)
			} else {
				err = l.Withdraw(wID, mustAddress(opAsset), beneficiary, opAmount, sig)
			}
			if err != nil {
				fail(err)
			}
			fmt.Printf("Withdrawal %d processed\n", wID)
		},
	}
	withdrawCmd.Flags().Uint64Var(&wID, "id", 0, "Withdrawal identifier")
	withdrawCmd.Flags().StringVar(&opAsset, "asset", "", "Asset address (base58)")
	withdrawCmd.Flags().StringVar(&opBeneficiary, "beneficiary", "", "Receiving account (base58)")
	withdrawCmd.Flags().Uint64Var(&opAmount, "amount", 0, "Amount in base units")
	withdrawCmd.Flags().StringVar(&wSig, "sig", "", "Signature r||s||v (65-byte hex)")
	withdrawCmd.Flags().BoolVar(&opNative, "native", false, "Release native coin instead of a token")

	var signKey string
	var signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Sign a withdrawal with a secp256k1 key",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			key, err := crypto.HexToECDSA(strings.TrimPrefix(signKey, "0x"))
			if err != nil {
				fail(err)
			}
			sig, err := verify.SignWithdrawal(key, l.SigningDomain(), wID, mustAddress(opAsset), mustAddress(opBeneficiary), opAmount)
			if err != nil {
				fail(err)
			}
			raw := make([]byte, 0, 65)
			raw = append(raw, sig.R[:]...)
			raw = append(raw, sig.S[:]...)
			raw = append(raw, sig.V)
			fmt.Printf("Signer:    %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
			fmt.Printf("Signature: %s\n", hex.EncodeToString(raw))
		},
	}
	signCmd.Flags().StringVar(&signKey, "key", "", "secp256k1 private key (hex)")
	signCmd.Flags().Uint64Var(&wID, "id", 0, "Withdrawal identifier")
	signCmd.Flags().StringVar(&opAsset, "asset", "", "Asset address (base58)")
	signCmd.Flags().StringVar(&opBeneficiary, "beneficiary", "", "Receiving account (base58)")
	signCmd.Flags().Uint64Var(&opAmount, "amount", 0, "Amount in base units")

	var (
		govKind    uint8
		govPayload string
		govIndex   int
	)
	var queueCmd = &cobra.Command{
		Use:   "queue",
		Short: "Queue a governance operation",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			payload, err := hex.DecodeString(strings.TrimPrefix(govPayload, "0x"))
			if err != nil {
				fail(err)
			}
			index, err := l.QueueOperation(mustAddress(opActor), govKind, payload)
			if err != nil {
				fail(err)
			}
			fmt.Printf("Queued at index %d\n", index)
		},
	}
	queueCmd.Flags().StringVar(&opActor, "from", "", "Timelock authority (base58)")
	queueCmd.Flags().Uint8Var(&govKind, "kind", 0, "Operation kind (1-6)")
	queueCmd.Flags().StringVar(&govPayload, "payload", "", "Kind-specific payload (hex)")

	var executeCmd = &cobra.Command{
		Use:   "execute",
		Short: "Execute a queued governance operation",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			if err := l.ExecuteOperation(mustAddress(opActor), govIndex); err != nil {
				fail(err)
			}
			fmt.Printf("Executed operation %d\n", govIndex)
		},
	}
	var cancelCmd = &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a queued governance operation",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			if err := l.CancelOperation(mustAddress(opActor), govIndex); err != nil {
				fail(err)
			}
			fmt.Printf("Cancelled operation %d\n", govIndex)
		},
	}
	for _, c := range []*cobra.Command{executeCmd, cancelCmd} {
		c.Flags().StringVar(&opActor, "from", "", "Timelock authority (base58)")
		c.Flags().IntVar(&govIndex, "index", 0, "Queue index")
	}

	var (
		evFrom  uint64
		evLimit int
	)
	var eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Print emitted events",
		Run: func(cmd *cobra.Command, args []string) {
			l := openLedger()
			events, err := l.Events(evFrom, evLimit)
			if err != nil {
				fail(err)
			}
			for i, ev := range events {
				fmt.Printf("[%d] %x id=%d beneficiary=%s amount=%d asset=%s\n",
					evFrom+uint64(i), ev.Header, ev.ID, ev.Beneficiary.String(), ev.Amount, ev.Asset.String())
			}
		},
	}
	eventsCmd.Flags().Uint64Var(&evFrom, "from", 0, "First event index")
	eventsCmd.Flags().IntVar(&evLimit, "limit", 50, "Maximum events to print")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the program version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(types.ProgramVersion)
		},
	}

	rootCmd.AddCommand(initCmd, stateCmd, depositCmd, stakeCmd, withdrawCmd, signCmd, queueCmd, executeCmd, cancelCmd, eventsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func mustAddress(s string) common.Address {
	addr, err := common.Base58ToAddress(s)
	if err != nil {
		fail(fmt.Errorf("bad address %q: %w", s, err))
	}
	return addr
}

func mustEthAddress(s string) common.EthAddress {
	return common.HexToEthAddress(s)
}

func parseSignature(s string) (verify.Signature, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return verify.Signature{}, err
	}
	if len(raw) != 65 {
		return verify.Signature{}, fmt.Errorf("signature must be 65 bytes, got %d", len(raw))
	}
	var sig verify.Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = raw[64]
	return sig, nil
}
