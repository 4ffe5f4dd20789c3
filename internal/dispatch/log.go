package dispatch

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogPrinter writes tickets to the log instead of a printer. It is used
// when no broker is configured.
type LogPrinter struct{}

func (LogPrinter) Print(ctx context.Context, t Ticket) error {
	entry := log.WithFields(log.Fields{
		"order_id":    t.OrderID,
		"table":       t.TableLabel,
		"destination": t.Destination,
		"wave":        t.Wave,
	})
	for _, l := range t.Lines {
		entry.WithFields(log.Fields{"qty": l.Quantity, "notes": l.Notes}).Info(l.Name)
	}
	return nil
}
