package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiptFailedReflectsStatus(t *testing.T) {
	ok := &Receipt{Status: ReceiptStatusSuccessful}
	require.False(t, ok.Failed())

	failed := &Receipt{Status: ReceiptStatusFailed}
	require.True(t, failed.Failed())
}
