package terminal

import (
	"card-terminal/internal/core/domain"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// LogListener writes model notifications to a structured log.
type LogListener struct {
	log zerolog.Logger
}

var _ Listener = LogListener{}

func NewLogListener(log zerolog.Logger) LogListener {
	return LogListener{log: logger.Component(log, "terminal_events")}
}

// OnStateChange logs at debug level; the machine already logs transitions.
func (l LogListener) OnStateChange(from, to domain.State) {
	l.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("terminal state changed")
}

func (l LogListener) OnError(err error) {
	l.log.Warn().Err(err).Str("error_code", apperror.CodeOf(err)).Msg("terminal error")
}

func (l LogListener) OnDevicesDiscovered(devices []domain.Device) {
	serials := make([]string, 0, len(devices))
	for _, d := range devices {
		serials = append(serials, d.SerialNumber)
	}
	l.log.Info().Strs("serials", serials).Msg("readers discovered")
}

func (l LogListener) OnDisplayMessage(message string) {
	l.log.Info().Str("display", message).Msg("reader display")
}

// OnUpdateProgress logs only the start and the end of an update.
func (l LogListener) OnUpdateProgress(progress float64) {
	switch progress {
	case 0:
		l.log.Info().Msg("reader update started")
	case 1:
		l.log.Info().Msg("reader update finished")
	}
}
