package notifications

import (
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Notifier is the alert sink the pipeline fans out to. Delivery failures
// are the sink's problem; the pipeline never blocks on them.
type Notifier interface {
	Send(alert types.Alert) error
}

// Fanout delivers one alert to every sink, dropping per-sink errors into
// the session log.
type Fanout struct {
	sinks []Notifier
	log   *logger.Logger
}

// NewFanout builds a fanout over the given sinks. Nil sinks are skipped.
func NewFanout(log *logger.Logger, sinks ...Notifier) *Fanout {
	if log == nil {
		log = logger.NewDiscard()
	}
	f := &Fanout{log: log}
	for _, sink := range sinks {
		if sink != nil {
			f.sinks = append(f.sinks, sink)
		}
	}
	return f
}

// Publish sends one pipeline alert to every sink.
func (f *Fanout) Publish(alert types.Alert) {
	for _, sink := range f.sinks {
		if err := sink.Send(alert); err != nil {
			f.log.Warning("alert delivery failed: %v", err)
		}
	}
}

// PublishAll sends a batch of alerts in order.
func (f *Fanout) PublishAll(alerts []types.Alert) {
	for _, alert := range alerts {
		f.Publish(alert)
	}
}

// LogSink writes alerts into the session log. It is always available even
// when no external channel is configured.
type LogSink struct {
	Log *logger.Logger
}

func (s *LogSink) Send(alert types.Alert) error {
	if s.Log == nil {
		return nil
	}
	switch alert.Level {
	case types.AlertError:
		s.Log.Error("[%s] %s", alert.Source, alert.Message)
	case types.AlertWarning:
		s.Log.Warning("[%s] %s", alert.Source, alert.Message)
	default:
		s.Log.Info("[%s] %s", alert.Source, alert.Message)
	}
	return nil
}
