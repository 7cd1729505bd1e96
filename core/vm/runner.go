package vm

import (
	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/resources"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/params"
)

// Runner is the inter-frame dispatcher of §4.2: it pumps the top EE frame,
// dispatches on its Preemption, and mediates IO-frame snapshot/commit/
// rollback around every nested call and deployment.
type Runner struct {
	io    *state.IOSubsystem
	cfg   *params.Config
	hooks *HookTable

	stack        []*Frame
	lastDeployed common.Address
}

// NewRunner builds a Runner over io, driven by cfg's feature flags and
// dispatching special-address calls through hooks.
func NewRunner(io *state.IOSubsystem, cfg *params.Config, hooks *HookTable) *Runner {
	return &Runner{io: io, cfg: cfg, hooks: hooks}
}

func isSpecialAddress(addr common.Address) bool {
	for _, b := range addr[:common.AddressLength-3] {
		if b != 0 {
			return false
		}
	}
	hi := uint32(addr[common.AddressLength-3])<<16 | uint32(addr[common.AddressLength-2])<<8 | uint32(addr[common.AddressLength-1])
	return hi < params.SpecialAddressSpaceBound
}

// RunCall launches a top-level call (§4.1.1 step 10: "call path via
// run_single_interaction") and pumps frames until the stack drains,
// returning the terminal Result.
func (r *Runner) RunCall(ee ExecutionEnvironment, caller, callee common.Address, value *common.U256, calldata []byte, gas uint64, isStatic bool) Result {
	root := &Frame{EE: ee, Caller: caller, Callee: caller}
	root.Pending = Preemption{
		Kind:     PreemptionCallRequest,
		Target:   callee,
		Value:    value,
		Calldata: calldata,
		GasGiven: gas,
		Modifier: ModifierCall,
		IsStatic: isStatic,
	}
	r.stack = []*Frame{root}
	return r.pump()
}

// RunCreate launches a top-level deployment (§4.1.1 step 10: "deployment
// path ... run_till_completion with a Create request") and returns the
// terminal Result plus the deployed address on success.
func (r *Runner) RunCreate(ee ExecutionEnvironment, caller common.Address, value *common.U256, initCode []byte, gas uint64, salt *common.Hash) (Result, common.Address) {
	root := &Frame{EE: ee, Caller: caller, Callee: caller}
	root.Pending = Preemption{
		Kind:     PreemptionCreateRequest,
		Value:    value,
		InitCode: initCode,
		GasGiven: gas,
		Salt:     salt,
	}
	r.stack = []*Frame{root}
	res := r.pump()
	return res, r.lastDeployed
}

func (r *Runner) pump() Result {
	for len(r.stack) > 0 {
		top := r.stack[len(r.stack)-1]
		switch top.Pending.Kind {
		case PreemptionCallRequest:
			r.handleCallRequest(top)
		case PreemptionCreateRequest:
			r.handleCreateRequest(top)
		case PreemptionCallCompleted:
			if done, result := r.handleCallCompleted(); done {
				return result
			}
		case PreemptionCreateCompleted:
			if done, result := r.handleCreateCompleted(); done {
				return result
			}
		default:
			return Result{Failure: FailureInvalidOpcode}
		}
	}
	return Result{Failure: FailureInvalidOpcode}
}

// handleCallRequest implements §4.2's CallRequest branch.
func (r *Runner) handleCallRequest(frame *Frame) {
	p := frame.Pending
	target := p.Target
	value := p.Value
	if value == nil {
		value = common.ZeroU256()
	}

	if isSpecialAddress(target) {
		allowed := target == params.FeeCollectorAddress || r.cfg.TransfersToKernelSpace || value.IsZero()
		if !allowed {
			frame.Pending = Preemption{Kind: PreemptionCallCompleted, Result: Result{Reverted: true}, GasLeft: p.GasGiven}
			return
		}
		if !value.IsZero() {
			r.transfer(frame.Callee, target, value, frame.IOFrame)
		}
		res := r.hooks.Dispatch(target, p.Calldata, p.GasGiven, frame.IOFrame)
		frame.Pending = Preemption{Kind: PreemptionCallCompleted, Result: res.Result, GasLeft: res.GasLeft}
		return
	}

	ioFrame := r.io.BeginFrame()
	if !value.IsZero() {
		if err := r.transferChecked(frame.Callee, target, value, ioFrame); err != nil {
			r.io.RollbackFrame(ioFrame)
			frame.Pending = Preemption{Kind: PreemptionCallCompleted, Result: Result{Reverted: true}, GasLeft: p.GasGiven}
			return
		}
	}

	gasForCallee := frame.EE.AdjustGasForCallee(p.GasGiven)
	handle, err := frame.EE.Launch(LaunchParams{
		Resources:  resources.ErgsPool(gasForCallee),
		Caller:     frame.Callee,
		Callee:     target,
		Modifier:   p.Modifier,
		Calldata:   p.Calldata,
		TokenValue: value,
		IsStatic:   p.IsStatic || frame.IsStatic,
	})
	if err != nil {
		r.io.RollbackFrame(ioFrame)
		frame.Pending = Preemption{Kind: PreemptionCallCompleted, Result: Result{Failure: FailureInvalidOpcode}, GasLeft: p.GasGiven}
		return
	}

	sub := &Frame{
		EE:       frame.EE,
		Handle:   handle,
		IOFrame:  ioFrame,
		Caller:   frame.Callee,
		Callee:   target,
		IsStatic: p.IsStatic || frame.IsStatic,
		GasGiven: gasForCallee,
	}
	sub.Pending = frame.EE.Step(handle)
	r.stack = append(r.stack, sub)
}

// handleCreateRequest implements §4.2's CreateRequest branch.
func (r *Runner) handleCreateRequest(frame *Frame) {
	p := frame.Pending
	value := p.Value
	if value == nil {
		value = common.ZeroU256()
	}

	prepFrame := r.io.BeginFrame()
	checks := frame.EE.PrepareForDeployment(frame.Callee, p.InitCode, p.Salt)
	if checks.Failure != FailureNone {
		r.io.RollbackFrame(prepFrame)
		frame.Pending = Preemption{Kind: PreemptionCreateCompleted, Result: Result{Failure: checks.Failure}, GasLeft: p.GasGiven}
		return
	}

	constructorFrame := r.io.BeginFrame()
	deployed := r.io.ReadAccount(checks.Address)
	deployed.Nonce = 1 // EIP-161
	r.io.WriteAccount(checks.Address, deployed, constructorFrame)
	r.io.MarkCreated(checks.Address)
	if !value.IsZero() {
		if err := r.transferChecked(frame.Callee, checks.Address, value, constructorFrame); err != nil {
			r.io.RollbackFrame(constructorFrame)
			r.io.RollbackFrame(prepFrame)
			frame.Pending = Preemption{Kind: PreemptionCreateCompleted, Result: Result{Reverted: true}, GasLeft: p.GasGiven}
			return
		}
	}

	handle, err := frame.EE.Launch(LaunchParams{
		Resources:  resources.ErgsPool(p.GasGiven - checks.Charge),
		Caller:     frame.Callee,
		Callee:     checks.Address,
		Calldata:   p.InitCode,
		TokenValue: value,
	})
	if err != nil {
		r.io.RollbackFrame(constructorFrame)
		r.io.RollbackFrame(prepFrame)
		frame.Pending = Preemption{Kind: PreemptionCreateCompleted, Result: Result{Failure: FailureInvalidOpcode}, GasLeft: p.GasGiven}
		return
	}

	sub := &Frame{
		EE:       frame.EE,
		Handle:   handle,
		IOFrame:  constructorFrame,
		Caller:   frame.Callee,
		Callee:   checks.Address,
		IsCreate: true,
		GasGiven: p.GasGiven - checks.Charge,
	}
	sub.Pending = frame.EE.Step(handle)
	frame.prepIOFrame = prepFrame
	frame.deployAddress = checks.Address
	r.stack = append(r.stack, sub)
}

func (r *Runner) handleCallCompleted() (done bool, result Result) {
	popped := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]

	if popped.Pending.Result.SelfDestructed {
		// §4.2 CallCompleted step 1: queue the destruction in the frame's
		// own IO frame. The commit/rollback below, already applied
		// uniformly to every other write the frame made, decides whether
		// the queued entry survives (EIP-6780 revert/self-destruct race,
		// Open Question (ii), spec.md §9).
		popped.SelfDestructed = true
		r.io.QueueSelfDestruct(popped.Callee, popped.Pending.Result.Beneficiary, popped.IOFrame)
	}
	if popped.Pending.Result.Succeeded() {
		if len(r.stack) > 0 {
			r.io.CommitFrame(popped.IOFrame, r.stack[len(r.stack)-1].IOFrame)
		}
	} else {
		r.io.RollbackFrame(popped.IOFrame)
	}

	// len(r.stack) == 1 means only the sentinel root frame RunCall pushed
	// remains: it was never Launched (Handle is nil), since it stands for
	// the original caller rather than a real EE frame, so the call chain
	// is done rather than awaiting a resume.
	if len(r.stack) <= 1 {
		res := popped.Pending.Result
		res.GasLeft = popped.Pending.GasLeft
		return true, res
	}
	parent := r.stack[len(r.stack)-1]
	parent.Pending = parent.EE.ResumeAfterCall(parent.Handle, popped.Pending)
	return false, Result{}
}

func (r *Runner) handleCreateCompleted() (done bool, result Result) {
	popped := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]

	if popped.Pending.Result.SelfDestructed {
		// A constructor self-destructing before it finishes (§4.5): same
		// queue/commit-rollback treatment as handleCallCompleted.
		popped.SelfDestructed = true
		r.io.QueueSelfDestruct(popped.Callee, popped.Pending.Result.Beneficiary, popped.IOFrame)
	}

	succeeded := popped.Pending.Result.Succeeded()
	if succeeded {
		r.lastDeployed = popped.Callee
	}
	if len(r.stack) > 0 {
		owner := r.stack[len(r.stack)-1]
		if succeeded {
			r.io.CommitFrame(popped.IOFrame, owner.IOFrame)
			if owner.prepIOFrame != 0 {
				r.io.CommitFrame(owner.prepIOFrame, owner.IOFrame)
			}
		} else {
			r.io.RollbackFrame(popped.IOFrame)
			if owner.prepIOFrame != 0 {
				r.io.RollbackFrame(owner.prepIOFrame)
			}
		}
	}

	// See the matching comment in handleCallCompleted: len(r.stack) == 1
	// means only the un-Launched sentinel root remains, so this is the
	// chain's terminal result rather than something to resume.
	if len(r.stack) <= 1 {
		res := popped.Pending.Result
		res.GasLeft = popped.Pending.GasLeft
		return true, res
	}
	parent := r.stack[len(r.stack)-1]
	completion := popped.Pending
	completion.DeployedAddress = popped.Callee
	parent.Pending = parent.EE.ResumeAfterCreate(parent.Handle, completion)
	return false, Result{}
}

// transfer moves value from -> to unconditionally (used for the
// fee-collector edge case where balance sufficiency is checked upstream
// by the account model, §4.2 edge cases).
func (r *Runner) transfer(from, to common.Address, value *common.U256, frameID int) {
	_ = r.transferChecked(from, to, value, frameID)
}

// transferChecked moves value from -> to, failing if from's balance is
// insufficient.
func (r *Runner) transferChecked(from, to common.Address, value *common.U256, frameID int) error {
	sender := r.io.ReadAccount(from)
	if sender.Balance == nil || sender.Balance.Cmp(value) < 0 {
		return errInsufficientBalance
	}
	recipient := r.io.ReadAccount(to)
	sender.Balance = new(common.U256).Sub(sender.Balance, value)
	recipientBalance := recipient.Balance
	if recipientBalance == nil {
		recipientBalance = common.ZeroU256()
	}
	recipient.Balance = new(common.U256).Add(recipientBalance, value)
	r.io.WriteAccount(from, sender, frameID)
	r.io.WriteAccount(to, recipient, frameID)
	return nil
}

var errInsufficientBalance = insufficientBalanceError{}

type insufficientBalanceError struct{}

func (insufficientBalanceError) Error() string { return "vm: insufficient balance for transfer" }
