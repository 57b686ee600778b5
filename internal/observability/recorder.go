package observability

import (
	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// NewBoardRecorder returns a board listener that appends the events for each
// change to eventLog. A move into done additionally records task.completed.
// Append failures are reported through logger; the board is never affected.
func NewBoardRecorder(eventLog EventLog, logger log.FieldLogger) func(models.Change) {
	return func(ch models.Change) {
		events := changeEvents(ch)
		if len(events) == 0 {
			return
		}
		if err := eventLog.Append(events...); err != nil {
			logger.WithError(err).WithFields(log.Fields{
				"kind": ch.Kind,
				"task": ch.Task.ID,
			}).Warn("change not recorded")
		}
	}
}

func changeEvents(ch models.Change) []Event {
	typ, ok := EventTypeOf(ch.Kind)
	if !ok {
		return nil
	}
	e := Event{
		Time:     ch.Time.UTC(),
		Type:     typ,
		TaskID:   ch.Task.ID,
		Title:    ch.Task.Title,
		Priority: ch.Task.Priority,
		From:     ch.From,
		To:       ch.To,
		Index:    ch.Index,
	}
	if ch.Kind == models.ChangeMoved && ch.To == models.ColumnDone && ch.From != models.ColumnDone {
		completed := e
		completed.Type = EventTaskCompleted
		return []Event{e, completed}
	}
	return []Event{e}
}
