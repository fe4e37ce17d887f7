// Package verify reconstructs the typed-hash digest an off-ledger signer
// commits to when authorizing a withdrawal, and recovers the signer address
// from a secp256k1 signature over it. The construction follows EIP-712 and
// must stay byte-for-byte compatible with the external signer: integers are
// big-endian inside digests even though the account layout is little-endian,
// and the verifying-contract slot carries the full 32-byte ledger address of
// the state account despite the scheme's 20-byte address convention. Neither
// asymmetry is a bug; both are part of the wire contract.
package verify

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/alex-sumner/solana-rabbitx-contract/common"
	"github.com/alex-sumner/solana-rabbitx-contract/log"
	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
)

const (
	// DomainName and DomainVersion feed the EIP-712 domain separator.
	DomainName    = "RabbitXWithdrawal"
	DomainVersion = "1"

	// ChainTag is the fixed chain id: "SOLANA" in ASCII.
	ChainTag uint64 = 0x534f4c414e41
)

var (
	// WithdrawalTypehash = keccak256("Withdrawal(uint256 id,address token,address trader,uint256 amount)")
	WithdrawalTypehash = common.Keccak256([]byte("Withdrawal(uint256 id,address token,address trader,uint256 amount)"))

	// DomainTypehash = keccak256("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")
	DomainTypehash = common.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
)

// Signature is a secp256k1 signature in (v, r, s) form. V is accepted as
// 0/1 or the Ethereum convention 27/28.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// DomainSeparator computes the EIP-712 domain separator for a ledger-state
// account. stateAddress is the full 32-byte address of the state account.
func DomainSeparator(stateAddress common.Address) common.Hash {
	var chainID [32]byte
	copy(chainID[24:], common.Uint64ToBytesBE(ChainTag))

	return common.Keccak256(
		DomainTypehash.Bytes(),
		common.Keccak256([]byte(DomainName)).Bytes(),
		common.Keccak256([]byte(DomainVersion)).Bytes(),
		chainID[:],
		stateAddress.Bytes(),
	)
}

// WithdrawalHash computes the struct hash of one withdrawal. Both integer
// fields are big-endian u64 values.
func WithdrawalHash(id uint64, asset common.Address, beneficiary common.Address, amount uint64) common.Hash {
	return common.Keccak256(
		WithdrawalTypehash.Bytes(),
		common.Uint64ToBytesBE(id),
		asset.Bytes(),
		beneficiary.Bytes(),
		common.Uint64ToBytesBE(amount),
	)
}

// SigningDigest prefixes the domain separator and struct hash with the two
// literal bytes 0x19 0x01 and hashes the result.
func SigningDigest(domain common.Hash, withdrawalHash common.Hash) common.Hash {
	return common.Keccak256([]byte{0x19, 0x01}, domain.Bytes(), withdrawalHash.Bytes())
}

// RecoverSigner recovers the 20-byte signer address from a signature over
// the digest.
func RecoverSigner(digest common.Hash, sig Signature) (common.EthAddress, error) {
	recoveryID := sig.V
	if recoveryID >= 27 {
		recoveryID -= 27
	}
	if recoveryID > 1 {
		return common.EthAddress{}, fmt.Errorf("%w: v=%d", rbxerrors.ErrWInvalidSignatureFormat, sig.V)
	}

	compact := make([]byte, 65)
	copy(compact[0:32], sig.R[:])
	copy(compact[32:64], sig.S[:])
	compact[64] = recoveryID

	pubkey, err := crypto.SigToPub(digest.Bytes(), compact)
	if err != nil {
		return common.EthAddress{}, fmt.Errorf("%w: %v", rbxerrors.ErrWInvalidSignature, err)
	}
	return common.EthAddress(crypto.PubkeyToAddress(*pubkey)), nil
}

// VerifyWithdrawal checks that sig authorizes the withdrawal tuple under the
// given domain separator and was produced by expected. Any recovered-address
// mismatch or malformed signature fails with InvalidSignature.
func VerifyWithdrawal(domain common.Hash, id uint64, asset common.Address, beneficiary common.Address, amount uint64, sig Signature, expected common.EthAddress) error {
	digest := SigningDigest(domain, WithdrawalHash(id, asset, beneficiary, amount))
	recovered, err := RecoverSigner(digest, sig)
	if err != nil {
		return err
	}
	if !recovered.Equal(expected) {
		return fmt.Errorf("%w: recovered %s", rbxerrors.ErrWInvalidSignature, recovered.Hex())
	}
	log.Trace(log.VerifyModule, "withdrawal signature verified",
		"id", id, "signer", recovered.Hex(), "digest", digest.Hex())
	return nil
}

// SignWithdrawal produces the (v, r, s) authorization for a withdrawal
// tuple. Used by the admin CLI and tests; the production signer lives
// off-ledger and implements the identical construction.
func SignWithdrawal(privateKey *ecdsa.PrivateKey, domain common.Hash, id uint64, asset common.Address, beneficiary common.Address, amount uint64) (Signature, error) {
	digest := SigningDigest(domain, WithdrawalHash(id, asset, beneficiary, amount))
	compact, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return Signature{}, fmt.Errorf("signing withdrawal digest: %w", err)
	}
	var sig Signature
	copy(sig.R[:], compact[0:32])
	copy(sig.S[:], compact[32:64])
	sig.V = compact[64] + 27
	return sig, nil
}
