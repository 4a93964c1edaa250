package sysinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func fixedProbe(avail uint64, err error) MemoryProbe {
	return func(context.Context) (uint64, error) { return avail, err }
}

func TestCheckMemory(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		need    uint64
		probe   MemoryProbe
		wantErr error
	}{
		{name: "fits", need: 1 << 20, probe: fixedProbe(1<<30, nil)},
		{name: "exact fit", need: 1 << 30, probe: fixedProbe(1<<30, nil)},
		{name: "too large", need: 2 << 30, probe: fixedProbe(1<<30, nil), wantErr: ErrInsufficientMemory},
		{name: "probe failure is advisory", need: 1 << 50, probe: fixedProbe(0, errors.New("no /proc"))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := CheckMemory(context.Background(), tc.need, tc.probe)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestHostProbes(t *testing.T) {
	t.Parallel()

	require.Positive(t, CPUs())
	require.NoError(t, CheckMemory(context.Background(), 1, nil))
}
