package numbering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "SRV-3-2026-00042", Format("SRV", 3, 2026, 42))
	require.Equal(t, "SRV-12-2025-00001", Format("SRV", 12, 2025, 1))
}
