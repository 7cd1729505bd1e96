package accountmodel

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/core/vm"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/params"
)

// signTx signs hash with priv and packs the result into the 65-byte
// (r ‖ s ‖ v) form crypto.RecoverAddress expects, the inverse of its own
// compact-signature unpacking.
func signTx(t *testing.T, priv *btcec.PrivateKey, hash common.Hash) []byte {
	t.Helper()
	compact := ecdsa.SignCompact(priv, hash[:], true)
	sig := make([]byte, 65)
	copy(sig[0:32], compact[1:33])
	copy(sig[32:64], compact[33:65])
	sig[64] = compact[0] - 27 - 4
	return sig
}

func newSignedTx(t *testing.T) (*types.Transaction, *btcec.PrivateKey) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	from := crypto.PublicKeyToAddress(priv.PubKey())

	to := addr(0x42)
	tx := &types.Transaction{
		Type:               types.TxTypeEIP1559,
		From:               from,
		To:                 &to,
		GasLimit:           100_000,
		GasPerPubdataLimit: 1,
		MaxFeePerGas:       common.NewU256(10),
		Value:              common.ZeroU256(),
	}
	tx.Signature = signTx(t, priv, tx.Hash())
	return tx, priv
}

// addr builds a distinct, non-special-range address (first byte nonzero
// keeps it outside params.SpecialAddressSpaceBound) so a call target
// exercises the ordinary EE-launch path instead of hook dispatch.
func addr(b byte) common.Address {
	var a common.Address
	a[0] = 0xAA
	a[common.AddressLength-1] = b
	return a
}

func TestEOAValidateNonceMatch(t *testing.T) {
	props := &accounts.Properties{Nonce: 5}
	tx := &types.Transaction{Nonce: common.HashFromU256(common.NewU256(5))}
	require.NoError(t, EOA{}.ValidateNonce(props, tx))
}

func TestEOAValidateNonceMismatch(t *testing.T) {
	props := &accounts.Properties{Nonce: 5}
	tx := &types.Transaction{Nonce: common.HashFromU256(common.NewU256(6))}
	require.ErrorIs(t, EOA{}.ValidateNonce(props, tx), ErrNonceAlreadyUsed)
}

func TestEOAValidateSignatureAndBalance(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)

	props := io.ReadAccount(tx.From)
	props.Balance = common.NewU256(1_000_000)
	io.WriteAccount(tx.From, props, 0)

	err := EOA{}.Validate(io, nil, tx, tx.Hash(), nil, 0)
	require.NoError(t, err)
}

func TestEOAValidateBadSignature(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)
	tx.Signature[0] ^= 0xFF // corrupt

	err := EOA{}.Validate(io, nil, tx, tx.Hash(), nil, 0)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestEOAValidateInsufficientBalance(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)
	// no balance credited: required (gas_limit*max_fee + value) exceeds zero

	err := EOA{}.Validate(io, nil, tx, tx.Hash(), nil, 0)
	require.ErrorIs(t, err, ErrInsufficientBalanceForFee)
}

func TestEOAValidateSkipsSignatureForL1(t *testing.T) {
	io := state.NewIOSubsystem()
	tx := &types.Transaction{Type: types.TxTypeL1ToL2, From: addr(0x01)}
	require.NoError(t, EOA{}.Validate(io, nil, tx, common.Hash{}, nil, 0))
}

func TestEOAPayDebitsSenderCreditsCollectorAndBumpsNonce(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)
	tx.GasLimit = 100

	props := io.ReadAccount(tx.From)
	props.Balance = common.NewU256(10_000)
	props.Nonce = 3
	io.WriteAccount(tx.From, props, 0)

	gasPrice := common.NewU256(5)
	require.NoError(t, EOA{}.Pay(io, nil, tx, gasPrice, nil, 0))

	sender := io.ReadAccount(tx.From)
	require.Equal(t, uint64(9_500), sender.Balance.Uint64())
	require.Equal(t, uint64(4), sender.Nonce)

	collector := io.ReadAccount(params.FeeCollectorAddress)
	require.Equal(t, uint64(500), collector.Balance.Uint64())
}

func TestEOAPayInsufficientBalance(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)
	tx.GasLimit = 100

	err := EOA{}.Pay(io, nil, tx, common.NewU256(5), nil, 0)
	require.ErrorIs(t, err, ErrInsufficientBalanceForFee)
}

func TestEOARefundCreditsUnusedGas(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)

	props := io.ReadAccount(tx.From)
	props.Balance = common.NewU256(100)
	io.WriteAccount(tx.From, props, 0)

	require.NoError(t, EOA{}.Refund(io, tx, common.NewU256(50), 0))
	require.Equal(t, uint64(150), io.ReadAccount(tx.From).Balance.Uint64())
}

func TestEOARefundNilIsNoOp(t *testing.T) {
	io := state.NewIOSubsystem()
	tx, _ := newSignedTx(t)
	require.NoError(t, EOA{}.Refund(io, tx, nil, 0))
	require.Nil(t, io.ReadAccount(tx.From).Balance)
}

func TestEOAExecuteCallDispatch(t *testing.T) {
	runner, _ := newRunnerForModel()
	ee := vm.NewTestEE()
	to := addr(0x77)
	tx := &types.Transaction{From: addr(0x10), To: &to, GasLimit: 50_000, Data: []byte("ping")}
	ee.Script("ping") // empty script: TestEE.playNext reports an unconditional success

	result, deployed, err := EOA{}.Execute(nil, runner, tx, ee, 0)
	require.NoError(t, err)
	require.Nil(t, deployed)
	require.True(t, result.Succeeded())
}

func newRunnerForModel() (*vm.Runner, *state.IOSubsystem) {
	io := state.NewIOSubsystem()
	cfg := params.DefaultConfig()
	hooks := vm.NewHookTable(io, &cfg)
	return vm.NewRunner(io, &cfg, hooks), io
}
