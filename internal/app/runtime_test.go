package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fixpoint-erp/fixpoint/internal/testing/guard"
)

func TestInTestMode(t *testing.T) {
	t.Setenv("FIXPOINT_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("FIXPOINT_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())

	RefreshTestMode()
}
