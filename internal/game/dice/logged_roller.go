package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every draw feeding an AI decision
// can be audited at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Float64 satisfies Source so a Roller can be passed anywhere a Source is expected.
func (r *Roller) Float64() float64 {
	v := r.src.Float64()
	r.logger.Debug("dice draw", zap.Float64("value", v))
	return v
}

// Range draws from [lo, hi) and logs the draw with a purpose label.
//
// Postcondition: identical to the package-level Range.
func (r *Roller) Range(label string, lo, hi float64) float64 {
	v := Range(r.src, lo, hi)
	r.logger.Debug("dice range",
		zap.String("label", label),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("value", v),
	)
	return v
}
