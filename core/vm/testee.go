package vm

import (
	"github.com/matter-labs/zksync-os/common"
)

// testAction is one scripted step a testEE's frame plays back: either a
// direct return/revert, or a nested call/create request followed by
// another action once the sub-frame resolves.
type testAction struct {
	Kind       PreemptionKind // PreemptionCallCompleted, CreateCompleted, CallRequest, CreateRequest
	ReturnData []byte
	Revert     bool
	Failure    FailureKind

	// SelfDestructed and Beneficiary script a same-frame self-destruct
	// signal on a CallCompleted/CreateCompleted action (EIP-6780, §4.5).
	SelfDestructed bool
	Beneficiary    common.Address

	Target   common.Address
	Value    *common.U256
	Calldata []byte
	InitCode []byte
	GasGiven uint64
}

type testFrame struct {
	script   []testAction
	pos      int
	gasGiven uint64
}

// TestEE is a minimal, fully deterministic ExecutionEnvironment used only
// by this package's own tests (§4.3: concrete interpreters are out of
// scope as collaborators; the Runner still needs something to drive). Each
// Launch call consumes one scripted action list keyed by calldata, letting
// a test assert the exact sequence of frames the Runner produces.
type TestEE struct {
	// Scripts maps a calldata string to the action sequence Launch should
	// play back for it, so tests can script nested call/create chains.
	Scripts map[string][]testAction
	// Retention is the EE's gas-for-callee fraction numerator/denominator,
	// mimicking an EVM-shaped 63/64 retention policy (§4.2).
	RetentionNumerator, RetentionDenominator uint64
}

// NewTestEE builds a TestEE with EVM-shaped 63/64 retention and no scripts;
// call Script to register behavior before use.
func NewTestEE() *TestEE {
	return &TestEE{Scripts: make(map[string][]testAction), RetentionNumerator: 63, RetentionDenominator: 64}
}

// Script registers the action sequence to play back when Launch is called
// with calldata equal to key.
func (e *TestEE) Script(key string, actions ...testAction) {
	e.Scripts[key] = actions
}

func (e *TestEE) Launch(params LaunchParams) (any, error) {
	script := e.Scripts[string(params.Calldata)]
	return &testFrame{script: script, gasGiven: params.Resources.Gas()}, nil
}

func (e *TestEE) Step(handle any) Preemption {
	f := handle.(*testFrame)
	return e.playNext(f)
}

func (e *TestEE) ResumeAfterCall(handle any, sub Preemption) Preemption {
	f := handle.(*testFrame)
	return e.playNext(f)
}

func (e *TestEE) ResumeAfterCreate(handle any, sub Preemption) Preemption {
	f := handle.(*testFrame)
	return e.playNext(f)
}

func (e *TestEE) playNext(f *testFrame) Preemption {
	if f.pos >= len(f.script) {
		// An exhausted (or never-scripted) frame returns immediately
		// without consuming anything, handing its whole gas allotment back.
		return Preemption{Kind: PreemptionCallCompleted, Result: Result{GasLeft: f.gasGiven}, GasLeft: f.gasGiven}
	}
	a := f.script[f.pos]
	f.pos++
	switch a.Kind {
	case PreemptionCallCompleted:
		res := Result{ReturnData: a.ReturnData, Reverted: a.Revert, Failure: a.Failure, SelfDestructed: a.SelfDestructed, Beneficiary: a.Beneficiary}
		return Preemption{Kind: PreemptionCallCompleted, Result: res, GasLeft: a.GasGiven}
	case PreemptionCreateCompleted:
		res := Result{ReturnData: a.ReturnData, Reverted: a.Revert, Failure: a.Failure, SelfDestructed: a.SelfDestructed, Beneficiary: a.Beneficiary}
		return Preemption{Kind: PreemptionCreateCompleted, Result: res, GasLeft: a.GasGiven}
	case PreemptionCallRequest:
		return Preemption{Kind: PreemptionCallRequest, Target: a.Target, Value: a.Value, Calldata: a.Calldata, GasGiven: a.GasGiven, Modifier: ModifierCall}
	case PreemptionCreateRequest:
		return Preemption{Kind: PreemptionCreateRequest, Value: a.Value, InitCode: a.InitCode, GasGiven: a.GasGiven}
	default:
		return Preemption{Kind: PreemptionCallCompleted, Result: Result{GasLeft: f.gasGiven}, GasLeft: f.gasGiven}
	}
}

// Return, Revert, and Fail build the three terminal action shapes other
// packages' tests need to script a TestEE-driven hook call without being
// able to name the unexported testAction type directly.
func Return(data []byte) testAction {
	return testAction{Kind: PreemptionCallCompleted, ReturnData: data}
}

func Revert() testAction {
	return testAction{Kind: PreemptionCallCompleted, Revert: true}
}

// ReturnWithGas is Return plus an explicit gasLeft report, for tests that
// exercise gas accounting above the Runner (§4.6).
func ReturnWithGas(data []byte, gasLeft uint64) testAction {
	return testAction{Kind: PreemptionCallCompleted, ReturnData: data, GasGiven: gasLeft}
}

// Destruct builds a CallCompleted action that also signals a same-frame
// self-destruct to beneficiary (EIP-6780, §4.5).
func Destruct(beneficiary common.Address) testAction {
	return testAction{Kind: PreemptionCallCompleted, SelfDestructed: true, Beneficiary: beneficiary}
}

func Fail(kind FailureKind) testAction {
	return testAction{Kind: PreemptionCallCompleted, Failure: kind}
}

func (e *TestEE) SupportsModifier(m CallModifier) bool { return true }

func (e *TestEE) IsStaticContext(handle any) bool { return false }

func (e *TestEE) AdjustGasForCallee(given uint64) uint64 {
	return given * e.RetentionNumerator / e.RetentionDenominator
}

func (e *TestEE) PrepareForDeployment(caller common.Address, initCode []byte, salt *common.Hash) DeploymentChecks {
	if len(initCode) == 0 {
		return DeploymentChecks{Failure: FailureInitcodeSizeLimit}
	}
	var addr common.Address
	copy(addr[:], caller[:])
	addr[common.AddressLength-1] ^= 0xFF // deterministic, distinguishable stand-in for CREATE/CREATE2 address derivation
	return DeploymentChecks{Address: addr, Charge: 32_000}
}
