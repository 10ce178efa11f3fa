package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{" disable_drain", FlagDisablePointIndex.String(), ""})

	t.Run("run if set", func(t *testing.T) {
		var drainDisabled bool
		f.IfSet(FlagDisableDrain, func() {
			drainDisabled = true
		})
		require.True(t, drainDisabled)

		var probeDisabled bool
		f.IfSet(FlagDisableOscillationProbe, func() {
			probeDisabled = true
		})
		require.False(t, probeDisabled)
	})

	t.Run("run if not set", func(t *testing.T) {
		var runDrain bool
		f.IfNotSet(FlagDisableDrain, func() {
			runDrain = true
		})
		require.False(t, runDrain)

		var runBounds bool
		f.IfNotSet(FlagDisableBoundsIndex, func() {
			runBounds = true
		})
		require.True(t, runBounds)
	})

	t.Run("strings", func(t *testing.T) {
		require.Equal(t, []string{"DISABLE_DRAIN", "DISABLE_POINT_INDEX"}, f.Strings())
		require.Empty(t, New(nil).Strings())
	})
}
