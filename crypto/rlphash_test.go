package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matter-labs/zksync-os/common"
)

func TestEmptyOmmersHashIsStable(t *testing.T) {
	require.Equal(t, "1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347", hexNoPrefix(EmptyOmmersHash))
}

func hexNoPrefix(h common.Hash) string { return h.Hex()[2:] }

func TestRollingTxHashIsOrderSensitive(t *testing.T) {
	tx1 := common.BytesToHash([]byte{1})
	tx2 := common.BytesToHash([]byte{2})

	acc := common.Hash{}
	first := RollingTxHash(acc, tx1)
	firstThenSecond := RollingTxHash(first, tx2)

	secondFirst := RollingTxHash(acc, tx2)
	secondThenFirst := RollingTxHash(secondFirst, tx1)

	require.NotEqual(t, firstThenSecond, secondThenFirst)
}

func TestRollingTxHashIsDeterministic(t *testing.T) {
	acc := common.BytesToHash([]byte{0xAB})
	tx := common.BytesToHash([]byte{0xCD})
	require.Equal(t, RollingTxHash(acc, tx), RollingTxHash(acc, tx))
}
