package featureflag

type Flag string

const (
	FlagDisableBoundsIndex      Flag = "DISABLE_BOUNDS_INDEX"
	FlagDisablePointIndex       Flag = "DISABLE_POINT_INDEX"
	FlagDisableOscillationProbe Flag = "DISABLE_OSCILLATION_PROBE"
	FlagDisableDrain            Flag = "DISABLE_DRAIN"
)

func (f Flag) String() string {
	return string(f)
}
