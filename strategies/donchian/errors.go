package donchian

import "errors"

var (
	errLookback        = errors.New("lookback must be at least 1")
	errPositionPercent = errors.New("position_percent must be positive")
)
