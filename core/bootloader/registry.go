package bootloader

import (
	"fmt"

	"github.com/matter-labs/zksync-os/core/accounts"
	"github.com/matter-labs/zksync-os/core/vm"
)

// EERegistry is the "tagged-variant enum of the known EE kinds with a fixed
// dispatch table" called for in spec.md §9's Open Question on dynamic
// dispatch over EEs. Concrete interpreters (EVM, WASM, EraVM, native
// RISC-V) are external collaborators (§1); this registry is how the
// Bootloader is wired to whichever ones a given deployment actually
// provides, without the bootloader package importing any of them.
type EERegistry struct {
	byKind map[accounts.EEKind]vm.ExecutionEnvironment
}

// NewEERegistry builds an empty registry.
func NewEERegistry() *EERegistry {
	return &EERegistry{byKind: make(map[accounts.EEKind]vm.ExecutionEnvironment)}
}

// Register binds kind to ee, overwriting any previous binding.
func (r *EERegistry) Register(kind accounts.EEKind, ee vm.ExecutionEnvironment) {
	r.byKind[kind] = ee
}

// Resolve looks up the ExecutionEnvironment registered for kind.
func (r *EERegistry) Resolve(kind accounts.EEKind) (vm.ExecutionEnvironment, error) {
	ee, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("bootloader: no execution environment registered for kind %d", kind)
	}
	return ee, nil
}
