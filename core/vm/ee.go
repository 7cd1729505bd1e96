// Package vm implements the Runner (§4.2), the Execution Environment
// contract (§4.3), and the system hook dispatch table (§4.7): the
// inter-frame dispatcher that coordinates nested calls and deployments
// across pluggable bytecode interpreters, none of which are themselves in
// scope (concrete EVM/WASM/EraVM interpreters are external collaborators,
// §1).
package vm

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/resources"
)

// CallModifier distinguishes the flavor of a CallRequest (plain call,
// delegatecall, staticcall, callcode) the way go-ethereum's
// vm.Contract/OpCode dispatch does, generalized to any EE.
type CallModifier uint8

const (
	ModifierCall CallModifier = iota
	ModifierDelegateCall
	ModifierStaticCall
	ModifierCallCode
)

// FailureKind enumerates the frame-local failure taxonomy of §4.3/§7.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureOutOfResources
	FailureInvalidOpcode
	FailureStackUnderflow
	FailureStackOverflow
	FailureOutOfOffset
	FailureStaticViolation
	FailureCallDepthExceeded
	FailureContractSizeLimit
	FailureInitcodeSizeLimit
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureOutOfResources:
		return "out of resources"
	case FailureInvalidOpcode:
		return "invalid opcode"
	case FailureStackUnderflow:
		return "stack underflow"
	case FailureStackOverflow:
		return "stack overflow"
	case FailureOutOfOffset:
		return "out of offset"
	case FailureStaticViolation:
		return "static violation"
	case FailureCallDepthExceeded:
		return "call depth exceeded"
	case FailureContractSizeLimit:
		return "contract size limit"
	case FailureInitcodeSizeLimit:
		return "initcode size limit"
	default:
		return "unknown failure"
	}
}

// Result is the outcome of a completed frame: either returndata from a
// normal return, or a Failed(kind) halt per §4.3.
type Result struct {
	Failure    FailureKind // FailureNone on success
	ReturnData []byte
	Reverted   bool // explicit REVERT (vs. a normal return) when Failure == FailureNone

	// GasLeft is the ergs the EE reports unspent when the frame completed,
	// copied in from the terminal Preemption by the Runner so callers above
	// RunCall/RunCreate (the bootloader) can meter actual execution instead
	// of only the intrinsic charge (§4.6).
	GasLeft uint64

	// SelfDestructed and Beneficiary signal that this frame self-destructed
	// (§4.2 CallCompleted step 1, §4.5). The Runner queues the destruction
	// in the frame's own IO frame, so the usual commit/rollback already
	// applied to every other write decides whether it survives.
	SelfDestructed bool
	Beneficiary    common.Address
}

// Succeeded reports whether the frame completed without reverting or
// failing.
func (r Result) Succeeded() bool { return r.Failure == FailureNone && !r.Reverted }

// LaunchParams is the argument bundle to ExecutionEnvironment.Launch
// (§4.3: "params = {resources, bytecode_ref, caller, callee, modifier,
// calldata, token_value, is_static}").
type LaunchParams struct {
	Resources  resources.ErgsPool
	BytecodeRef common.Hash
	Caller     common.Address
	Callee     common.Address
	Modifier   CallModifier
	Calldata   []byte
	TokenValue *common.U256
	IsStatic   bool
}

// DeploymentChecks is the outcome of PrepareForDeployment: the derived
// address, the gas charge for starting deployment, and whether the
// init-code passed size/validity checks (§4.3).
type DeploymentChecks struct {
	Address common.Address
	Charge  uint64
	Failure FailureKind // FailureNone if checks passed
}

// Preemption is the tagged union an EE yields control with (§4.2): exactly
// one of CallRequest, CreateRequest, CallCompleted, CreateCompleted is
// non-nil/active, indicated by Kind.
type PreemptionKind uint8

const (
	PreemptionCallRequest PreemptionKind = iota
	PreemptionCreateRequest
	PreemptionCallCompleted
	PreemptionCreateCompleted
	PreemptionNone // no request or completion; the Runner treats a frame yielding it as an invalid-opcode failure
)

type Preemption struct {
	Kind PreemptionKind

	// CallRequest fields.
	Target     common.Address
	Value      *common.U256
	Calldata   []byte
	GasGiven   uint64
	Modifier   CallModifier
	IsStatic   bool

	// CreateRequest fields (Value/GasGiven shared with CallRequest above).
	InitCode []byte
	Salt     *common.Hash // nil ⇒ no CREATE2 salt

	// CallCompleted / CreateCompleted fields.
	Result          Result
	GasLeft         uint64
	DeployedAddress common.Address // CreateCompleted only
}

// Frame is one entry in the Runner's call stack: the EE's own opaque frame
// handle plus the bookkeeping the Runner needs to drive it (§4.2 state:
// "a LIFO call stack of EE frame descriptors plus parallel IO frame
// identifiers").
type Frame struct {
	EE         ExecutionEnvironment
	Handle     any // EE-private frame state, opaque to the Runner
	IOFrame    int
	Caller     common.Address
	Callee     common.Address
	IsStatic   bool
	IsCreate   bool
	GasGiven   uint64
	// SelfDestructed records that the frame's completion signalled a
	// self-destruct, which the Runner queues in the frame's IO frame (§4.2
	// CallCompleted step 1). Nothing reads the field afterwards.
	SelfDestructed bool

	// Pending holds the Preemption still awaiting Runner handling.
	Pending Preemption

	// prepIOFrame and deployAddress are set on a deployer frame while its
	// constructor sub-frame runs, so CreateCompleted handling can commit
	// or rollback the deployment-preparation frame once the constructor
	// finishes (§4.2 CreateCompleted step 4).
	prepIOFrame   int
	deployAddress common.Address
}

// ExecutionEnvironment is the polymorphic interpreter capability the
// Runner drives (§4.3). A concrete EE (EVM, WASM, EraVM, native RISC-V) is
// an external collaborator; this interface is the contract the Runner and
// every such EE must agree on.
type ExecutionEnvironment interface {
	// Launch starts a new frame and returns its opaque handle.
	Launch(params LaunchParams) (any, error)

	// Step advances handle until it yields a Preemption.
	Step(handle any) Preemption

	// ResumeAfterCall feeds a completed sub-call's outcome back into
	// handle and continues execution.
	ResumeAfterCall(handle any, sub Preemption) Preemption

	// ResumeAfterCreate feeds a completed sub-deployment's outcome back
	// into handle and continues execution.
	ResumeAfterCreate(handle any, sub Preemption) Preemption

	// SupportsModifier reports whether this EE accepts m.
	SupportsModifier(m CallModifier) bool

	// IsStaticContext reports whether handle is currently executing under
	// a static (non-mutating) restriction.
	IsStaticContext(handle any) bool

	// AdjustGasForCallee applies this EE's retention policy to the gas a
	// caller offers a callee (§4.2: "e.g., 63/64 retention for EVM").
	AdjustGasForCallee(given uint64) uint64

	// PrepareForDeployment derives the deployment address and runs
	// init-code size/validity checks (§4.3).
	PrepareForDeployment(caller common.Address, initCode []byte, salt *common.Hash) DeploymentChecks
}
