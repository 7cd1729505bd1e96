package vm

import (
	"crypto/sha256"
	"math/big"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // precompile 0x03 requires this exact digest

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/crypto"
	"github.com/matter-labs/zksync-os/params"
)

// HookResult is a precompile's or system contract's outcome: returndata
// plus gas remaining, the "normal (returndata, status) pair" of §4.7.
type HookResult struct {
	Result  Result
	GasLeft uint64
}

// hookFunc is a pure computation over (calldata, gasGiven), charging its
// own price and returning the remaining gas (§4.7: "consume resources per
// a per-hook price").
type hookFunc func(io *state.IOSubsystem, frameID int, calldata []byte, gasGiven uint64) HookResult

// HookTable is the dispatch table from special address to hookFunc (§4.7).
type HookTable struct {
	io    *state.IOSubsystem
	cfg   *params.Config
	hooks map[common.Address]hookFunc
}

// NewHookTable builds the default dispatch table: the fixed precompile set
// plus the system contracts named in §4.7, unless cfg.DisableSystemContracts
// is set.
func NewHookTable(io *state.IOSubsystem, cfg *params.Config) *HookTable {
	t := &HookTable{io: io, cfg: cfg, hooks: make(map[common.Address]hookFunc)}
	t.hooks[params.EcrecoverAddress] = precompileEcrecover
	t.hooks[params.Sha256Address] = precompileSha256
	t.hooks[params.Ripemd160Address] = precompileRipemd160
	t.hooks[params.IdentityAddress] = precompileIdentity
	t.hooks[params.ModexpAddress] = precompileModexp
	t.hooks[params.Bn254AddAddress] = precompileBn254Add
	t.hooks[params.Bn254MulAddress] = precompileBn254Mul
	t.hooks[params.Bn254PairingAddress] = precompileBn254Pairing
	if !cfg.DisableSystemContracts {
		t.hooks[params.L1MessengerAddress] = systemL1MessengerSendToL1
		t.hooks[params.BaseTokenAddress] = systemBaseTokenWithdraw
		t.hooks[params.ContractDeployerAddress] = systemSetBytecodeDetails
	}
	return t
}

// Dispatch runs the hook registered at target, or returns empty success
// (the special range below SPECIAL_ADDRESS_SPACE_BOUND with nothing
// registered behaves as a no-op call, matching an empty account) if none
// is registered.
func (t *HookTable) Dispatch(target common.Address, calldata []byte, gasGiven uint64, frameID int) HookResult {
	fn, ok := t.hooks[target]
	if !ok {
		return HookResult{Result: Result{}, GasLeft: gasGiven}
	}
	return fn(t.io, frameID, calldata, gasGiven)
}

const (
	gasEcrecover = 3000
	gasSha256Base = 60
	gasSha256Word = 12
	gasRipemd160Base = 600
	gasRipemd160Word = 120
	gasIdentityBase = 15
	gasIdentityWord = 3
	gasBn254Add     = 150
	gasBn254Mul     = 6000
	gasBn254PairBase = 45000
	gasBn254PairPer  = 34000
)

func charge(gasGiven, cost uint64) (remaining uint64, ok bool) {
	if gasGiven < cost {
		return gasGiven, false
	}
	return gasGiven - cost, true
}

// precompileEcrecover recovers the signer address from (hash, v, r, s),
// secp256k1 via btcec, matching the 0x01 precompile (§4.7).
func precompileEcrecover(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	remaining, ok := charge(gasGiven, gasEcrecover)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	input := padTo(calldata, 128)
	hash := common.BytesToHash(input[:32])
	v := input[63]
	sig := make([]byte, 65)
	copy(sig[0:32], input[64:96])
	copy(sig[32:64], input[96:128])
	sig[64] = v
	addr, err := crypto.RecoverAddress(hash, sig)
	if err != nil {
		return HookResult{Result: Result{}, GasLeft: remaining}
	}
	var out [32]byte
	copy(out[12:], addr[:])
	return HookResult{Result: Result{ReturnData: out[:]}, GasLeft: remaining}
}

func precompileSha256(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	words := uint64(len(calldata)+31) / 32
	remaining, ok := charge(gasGiven, gasSha256Base+gasSha256Word*words)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	sum := sha256.Sum256(calldata)
	return HookResult{Result: Result{ReturnData: sum[:]}, GasLeft: remaining}
}

func precompileRipemd160(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	words := uint64(len(calldata)+31) / 32
	remaining, ok := charge(gasGiven, gasRipemd160Base+gasRipemd160Word*words)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	h := ripemd160.New()
	h.Write(calldata)
	sum := h.Sum(nil)
	var out [32]byte
	copy(out[12:], sum)
	return HookResult{Result: Result{ReturnData: out[:]}, GasLeft: remaining}
}

func precompileIdentity(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	words := uint64(len(calldata)+31) / 32
	remaining, ok := charge(gasGiven, gasIdentityBase+gasIdentityWord*words)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	out := make([]byte, len(calldata))
	copy(out, calldata)
	return HookResult{Result: Result{ReturnData: out}, GasLeft: remaining}
}

// precompileModexp implements 0x05: (base^exp) mod mod, with the
// big.Int standard library exponentiation standing in for the EIP-198
// gas-schedule-accurate kernel (out of scope per §1: "cryptographic
// primitives ... used as pure functions").
func precompileModexp(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	if len(calldata) < 96 {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: gasGiven}
	}
	baseLen := new(big.Int).SetBytes(calldata[0:32]).Uint64()
	expLen := new(big.Int).SetBytes(calldata[32:64]).Uint64()
	modLen := new(big.Int).SetBytes(calldata[64:96]).Uint64()
	cost := (baseLen + expLen + modLen + 1) * 20
	remaining, ok := charge(gasGiven, cost)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	rest := calldata[96:]
	base := readBig(rest, 0, baseLen)
	exp := readBig(rest, baseLen, expLen)
	mod := readBig(rest, baseLen+expLen, modLen)
	var result *big.Int
	if mod.Sign() == 0 {
		result = new(big.Int)
	} else {
		result = new(big.Int).Exp(base, exp, mod)
	}
	out := make([]byte, modLen)
	result.FillBytes(out)
	return HookResult{Result: Result{ReturnData: out}, GasLeft: remaining}
}

func readBig(data []byte, offset, length uint64) *big.Int {
	if offset >= uint64(len(data)) {
		return new(big.Int)
	}
	end := offset + length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return new(big.Int).SetBytes(data[offset:end])
}

func padTo(data []byte, n int) []byte {
	if len(data) >= n {
		return data[:n]
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// precompileBn254Add implements 0x06: BN254 point addition, via
// gnark-crypto's bn254 curve group.
func precompileBn254Add(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	remaining, ok := charge(gasGiven, gasBn254Add)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	input := padTo(calldata, 128)
	p1, ok1 := decodeG1(input[0:64])
	p2, ok2 := decodeG1(input[64:128])
	if !ok1 || !ok2 {
		return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: remaining}
	}
	var sum bn254.G1Affine
	var jac, j1, j2 bn254.G1Jac
	j1.FromAffine(&p1)
	j2.FromAffine(&p2)
	jac.Set(&j1).AddAssign(&j2)
	sum.FromJacobian(&jac)
	return HookResult{Result: Result{ReturnData: encodeG1(sum)}, GasLeft: remaining}
}

// precompileBn254Mul implements 0x07: BN254 scalar multiplication.
func precompileBn254Mul(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	remaining, ok := charge(gasGiven, gasBn254Mul)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	input := padTo(calldata, 96)
	p, okP := decodeG1(input[0:64])
	if !okP {
		return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: remaining}
	}
	scalar := new(big.Int).SetBytes(input[64:96])
	var res bn254.G1Jac
	var base bn254.G1Jac
	base.FromAffine(&p)
	res.ScalarMultiplication(&base, scalar)
	var out bn254.G1Affine
	out.FromJacobian(&res)
	return HookResult{Result: Result{ReturnData: encodeG1(out)}, GasLeft: remaining}
}

// precompileBn254Pairing implements 0x08: the BN254 pairing check over a
// sequence of (G1, G2) pairs, returning 32 bytes of 0/1.
func precompileBn254Pairing(_ *state.IOSubsystem, _ int, calldata []byte, gasGiven uint64) HookResult {
	if len(calldata)%192 != 0 {
		return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: gasGiven}
	}
	n := uint64(len(calldata) / 192)
	cost := gasBn254PairBase + gasBn254PairPer*n
	remaining, ok := charge(gasGiven, cost)
	if !ok {
		return HookResult{Result: Result{Failure: FailureOutOfResources}, GasLeft: 0}
	}
	g1s := make([]bn254.G1Affine, 0, n)
	g2s := make([]bn254.G2Affine, 0, n)
	for i := uint64(0); i < n; i++ {
		chunk := calldata[i*192 : (i+1)*192]
		p1, ok1 := decodeG1(chunk[0:64])
		p2, ok2 := decodeG2(chunk[64:192])
		if !ok1 || !ok2 {
			return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: remaining}
		}
		g1s = append(g1s, p1)
		g2s = append(g2s, p2)
	}
	ok, err := bn254.PairingCheck(g1s, g2s)
	out := make([]byte, 32)
	if err == nil && ok {
		out[31] = 1
	}
	return HookResult{Result: Result{ReturnData: out}, GasLeft: remaining}
}

func decodeG1(data []byte) (bn254.G1Affine, bool) {
	var p bn254.G1Affine
	p.X.SetBytes(data[0:32])
	p.Y.SetBytes(data[32:64])
	if p.X.IsZero() && p.Y.IsZero() {
		return p, true
	}
	return p, p.IsOnCurve()
}

func decodeG2(data []byte) (bn254.G2Affine, bool) {
	var p bn254.G2Affine
	p.X.A1.SetBytes(data[0:32])
	p.X.A0.SetBytes(data[32:64])
	p.Y.A1.SetBytes(data[64:96])
	p.Y.A0.SetBytes(data[96:128])
	if p.X.IsZero() && p.Y.IsZero() {
		return p, true
	}
	return p, p.IsOnCurve()
}

func encodeG1(p bn254.G1Affine) []byte {
	out := make([]byte, 64)
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	copy(out[0:32], xb[:])
	copy(out[32:64], yb[:])
	return out
}

// systemL1MessengerSendToL1 implements the L1 messenger's sendToL1(bytes)
// system contract: emits an L2->L1 message carrying the calldata verbatim
// (§4.7).
func systemL1MessengerSendToL1(io *state.IOSubsystem, frameID int, calldata []byte, gasGiven uint64) HookResult {
	io.EmitMessage(types.L2ToL1Message{Address: params.L1MessengerAddress, Payload: calldata}, frameID)
	return HookResult{Result: Result{}, GasLeft: gasGiven}
}

// systemBaseTokenWithdraw implements the base-token withdraw(address) /
// withdrawWithMessage(address,bytes) pair: both reduce to an L2->L1
// message recording the withdrawal, since the actual L1 settlement is out
// of scope (§4.7).
func systemBaseTokenWithdraw(io *state.IOSubsystem, frameID int, calldata []byte, gasGiven uint64) HookResult {
	if len(calldata) < 32 {
		return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: gasGiven}
	}
	payload := make([]byte, len(calldata))
	copy(payload, calldata)
	io.EmitMessage(types.L2ToL1Message{Address: params.BaseTokenAddress, Payload: payload}, frameID)
	return HookResult{Result: Result{}, GasLeft: gasGiven}
}

// systemSetBytecodeDetails implements the contract deployer's
// setBytecodeDetailsEVM hook: publishes a (hash -> bytecode) preimage and
// marks the target account deployed (§4.7, §3).
func systemSetBytecodeDetails(io *state.IOSubsystem, frameID int, calldata []byte, gasGiven uint64) HookResult {
	if len(calldata) < common.AddressLength+32 {
		return HookResult{Result: Result{Failure: FailureInvalidOpcode}, GasLeft: gasGiven}
	}
	addr := common.BytesToAddress(calldata[:common.AddressLength])
	codeHash := common.BytesToHash(calldata[common.AddressLength : common.AddressLength+32])
	code := calldata[common.AddressLength+32:]
	props := io.ReadAccount(addr)
	props.UsableBytecodeHash = codeHash
	props.ObservableBytecodeHash = codeHash
	props.UsableBytecodeLength = uint32(len(code))
	props.ObservableBytecodeLength = uint32(len(code))
	props.SetDeployed(true)
	io.PublishPreimage(codeHash, code, frameID)
	io.WriteAccount(addr, props, frameID)
	return HookResult{Result: Result{}, GasLeft: gasGiven}
}
