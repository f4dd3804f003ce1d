package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/querycache"
)

// Logger adapts a zerolog.Logger to querycache.Logger.
type Logger struct{ L zerolog.Logger }

var _ querycache.Logger = Logger{}

func (z Logger) Debug(msg string, f querycache.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f querycache.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f querycache.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f querycache.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
