package core

import (
	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// NewChangeLogger returns a board listener that writes every change to
// logger at debug level.
func NewChangeLogger(logger log.FieldLogger) func(models.Change) {
	return func(ch models.Change) {
		fields := log.Fields{
			"kind":  ch.Kind,
			"task":  ch.Task.ID,
			"index": ch.Index,
		}
		if ch.Kind == models.ChangeMoved {
			fields["from"] = ch.From
			fields["to"] = ch.To
		} else {
			fields["column"] = ch.To
		}
		logger.WithFields(fields).Debug("board changed")
	}
}
