package engine

import (
	"errors"
	"fmt"
)

// Error categories. Every sentinel below wraps exactly one of them so callers
// can branch with errors.Is on the category alone.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrData          = errors.New("data error")
	ErrExecution     = errors.New("execution error")
)

var (
	ErrNonPositiveCapital = fmt.Errorf("%w: initial capital must be positive", ErrConfiguration)
	ErrUnknownParameter   = fmt.Errorf("%w: unknown strategy parameter", ErrConfiguration)
	ErrInvalidParameter   = fmt.Errorf("%w: invalid strategy parameter", ErrConfiguration)
	ErrMissingParameter   = fmt.Errorf("%w: missing required strategy parameter", ErrConfiguration)
	ErrNilStrategy        = fmt.Errorf("%w: strategy is nil", ErrConfiguration)

	ErrEmptySeries      = fmt.Errorf("%w: bar series is empty", ErrData)
	ErrNonChronological = fmt.Errorf("%w: bar timestamps are not strictly increasing", ErrData)
	ErrMixedTickers     = fmt.Errorf("%w: bar series mixes tickers", ErrData)

	ErrZeroClosePrice      = fmt.Errorf("%w: close price is zero or negative", ErrExecution)
	ErrUnknownAsset        = fmt.Errorf("%w: asset is not traded in this run", ErrExecution)
	InsufficientBalanceErr = fmt.Errorf("%w: insufficient balance when applying fill", ErrExecution)
	ShortSellNotAllowedErr = fmt.Errorf("%w: short sell not allowed", ErrExecution)
	ErrRunFinished         = fmt.Errorf("%w: run already finished", ErrExecution)
)
