package notifications

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/constraints"
)

// LogConsumer is an implementation of the notifications consumer that
// logs a message for each event.
type LogConsumer[O constraints.Ordered, V comparable, W constraints.Unsigned] struct {
	log zerolog.Logger
}

var _ Consumer[int, int, uint] = (*LogConsumer[int, int, uint])(nil)

func NewLogConsumer[O constraints.Ordered, V comparable, W constraints.Unsigned](log zerolog.Logger) *LogConsumer[O, V, W] {
	lc := &LogConsumer[O, V, W]{
		log: log,
	}
	return lc
}

func (lc *LogConsumer[O, V, W]) OnEdge(at time.Time, totals map[O]W) {
	lc.log.Debug().
		Time("edge_time", at).
		Int("objects", len(totals)).
		Msg("edge emitted")
}

func (lc *LogConsumer[O, V, W]) OnEquivocationDetected(validator V) {
	lc.log.Warn().
		Interface("validator", validator).
		Msg("equivocation detected")
}

func (lc *LogConsumer[O, V, W]) OnObjectConfirmed(object O, weight W) {
	lc.log.Info().
		Interface("object", object).
		Uint64("weight", uint64(weight)).
		Msg("object confirmed")
}

func (lc *LogConsumer[O, V, W]) OnVoteDeclared(object O, at time.Time) {
	lc.log.Debug().
		Interface("object", object).
		Time("vote_time", at).
		Msg("vote declared")
}
