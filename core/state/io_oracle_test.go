package state_test

import (
	"encoding/binary"
	"testing"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/runtime/oracle"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/crypto"
)

// encodeCommitment matches ProvingOracle.InitialStateCommitment's wire
// format: 32-byte root followed by an 8-byte big-endian next_free.
func encodeCommitment(root common.Hash, nextFree uint64) []byte {
	resp := make([]byte, 40)
	copy(resp[:32], root[:])
	binary.BigEndian.PutUint64(resp[32:], nextFree)
	return resp
}

func TestIOSubsystemFromOracleResolvesPreimageMissThroughTape(t *testing.T) {
	data := []byte("deployed contract bytecode")
	hash := crypto.PreimageHash(data)
	root := common.BytesToHash([]byte("genesis-root"))

	// InitialStateCommitment is queried once at construction, Preimage once
	// on the Get miss below; the tape's responses must line up in that
	// order.
	tape := oracle.NewTape([][]byte{
		encodeCommitment(root, 3),
		data,
	})
	po := oracle.NewProvingOracle(tape)

	io := state.NewIOSubsystemFromOracle(po)

	gotRoot, gotNextFree := io.GenesisCommitment()
	if gotRoot != root || gotNextFree != 3 {
		t.Fatalf("GenesisCommitment() = (%s, %d), want (%s, 3)", gotRoot, gotNextFree, root)
	}

	got, ok := io.GetPreimage(hash)
	if !ok {
		t.Fatal("expected a local miss to resolve through the bound oracle")
	}
	if string(got) != string(data) {
		t.Fatalf("GetPreimage(%s) = %q, want %q", hash, got, data)
	}

	// A second read must come back from the now-warm local cache, not issue
	// another tape query (the tape only has one Preimage response queued).
	got2, ok := io.GetPreimage(hash)
	if !ok || string(got2) != string(data) {
		t.Fatalf("second GetPreimage() = (%q, %v), want cached %q", got2, ok, data)
	}
}

func TestIOSubsystemFromOracleRejectsMismatchedPreimage(t *testing.T) {
	hash := crypto.PreimageHash([]byte("expected"))
	tape := oracle.NewTape([][]byte{
		encodeCommitment(common.Hash{}, 0),
		[]byte("not the expected preimage"),
	})
	io := state.NewIOSubsystemFromOracle(oracle.NewProvingOracle(tape))

	if _, ok := io.GetPreimage(hash); ok {
		t.Fatal("a response that doesn't hash to the requested key must be rejected")
	}
}
