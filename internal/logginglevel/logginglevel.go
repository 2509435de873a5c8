package logginglevel

import (
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // the root command adjusts it according to the --debug flag
var Level = zap.NewAtomicLevelAt(zap.InfoLevel)
