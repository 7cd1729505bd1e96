// Command zkcore-run is the minimal forward-mode driver: it loads a
// newline-delimited file of hex-encoded transactions, runs them through one
// block via the Bootloader over a ForwardOracle, and prints the resulting
// header and receipts. It exists to exercise the core end to end without a
// prover attached, the forward-mode half of spec.md §6.2's "forward
// (direct, e.g. DB-backed) / proving (single CSR-based channel)" split.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/matter-labs/zksync-os/common"
	"github.com/matter-labs/zksync-os/core/bootloader"
	"github.com/matter-labs/zksync-os/core/runtime/oracle"
	"github.com/matter-labs/zksync-os/core/state"
	"github.com/matter-labs/zksync-os/core/types"
	"github.com/matter-labs/zksync-os/internal/zklog"
	"github.com/matter-labs/zksync-os/params"
)

var cli struct {
	TxFile    string `arg:"" help:"Path to a file of newline-delimited hex-encoded transactions." type:"path"`
	Number    uint64 `help:"Block number to report in the header." default:"1"`
	Timestamp uint64 `help:"Block timestamp to report in the header." default:"0"`
	GasLimit  uint64 `help:"Block gas limit." default:"30000000"`
	AAEnabled bool   `help:"Permit account-abstraction (Contract) senders." default:"true"`
	Verbose   bool   `help:"Log at debug level instead of info."`
}

func main() {
	kong.Parse(&cli, kong.Description("Run a block of transactions against the forward-mode core."))

	txs, err := readTransactions(cli.TxFile)
	if err != nil {
		fatal(err)
	}

	// ForwardOracle below wraps this same io, so state.NewIOSubsystemFromOracle
	// would be circular here (it needs an Oracle before io exists); that
	// constructor is for a proving-mode driver backed by a ProvingOracle
	// tape instead, which has no such dependency on io.
	io := state.NewIOSubsystem()
	cfg := params.DefaultConfig()
	cfg.AAEnabled = cli.AAEnabled
	cfg.BlockGasLimit = cli.GasLimit

	ees := bootloader.NewEERegistry() // no concrete EE registered: this driver exercises
	// parsing, resource accounting, and account-model plumbing without a
	// bytecode interpreter attached; wiring a real EE is an external
	// collaborator's job (§1).

	bl := bootloader.New(io, &cfg, ees, zklog.Default())

	blockCtx := types.BlockContext{
		Number:        cli.Number,
		Timestamp:     cli.Timestamp,
		GasLimit:      cli.GasLimit,
		BaseFeePerGas: common.ZeroU256(),
	}
	o := oracle.NewForwardOracle(io, blockCtx, txs)

	result, err := bl.RunBlock(o)
	if err != nil {
		fatal(err)
	}

	printResult(result)
}

func readTransactions(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zkcore-run: open %s: %w", path, err)
	}
	defer f.Close()

	var out [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "0x")
		raw, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("zkcore-run: decode transaction: %w", err)
		}
		out = append(out, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func printResult(result *types.BlockResult) {
	fmt.Printf("block %d: %d tx, gas_used=%d, new_root=%s, next_free=%d\n",
		result.Header.Number, len(result.Receipts), result.GasUsed, result.NewRoot.Hex(), result.NewNextFree)
	for i, r := range result.Receipts {
		status := "ok"
		if r.Failed() {
			status = "failed"
		}
		fmt.Printf("  tx[%d] %s status=%s gas_used=%d logs=%d messages=%d\n",
			i, r.TxHash.Hex(), status, r.GasUsed, len(r.Logs), len(r.L2ToL1Messages))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
