package harvest

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Observer receives progress events from the pull. Implementations must not
// block for long; they run on the single pull goroutine.
type Observer interface {
	PageFetched(query string, page, posts, callsUsed int)
	NoResults(query string)
	Throttled(endpoint string, callsUsed int)
	Pausing(endpoint string, d time.Duration, callsUsed int)
	QueryFailed(query string, err error, willRetry bool)
	PostRejected(postID, reason string)
	Duplicate(postID, number string)
	RowProduced(postID string, row OutputRow)
	BatchWritten(rows int, callsUsed int)
	WriteFailed(rows int, err error)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) PageFetched(string, int, int, int)   {}
func (NopObserver) NoResults(string)                    {}
func (NopObserver) Throttled(string, int)               {}
func (NopObserver) Pausing(string, time.Duration, int)  {}
func (NopObserver) QueryFailed(string, error, bool)     {}
func (NopObserver) PostRejected(string, string)         {}
func (NopObserver) Duplicate(string, string)            {}
func (NopObserver) RowProduced(string, OutputRow)       {}
func (NopObserver) BatchWritten(int, int)               {}
func (NopObserver) WriteFailed(int, error)              {}

// LogObserver reports events through logrus.
type LogObserver struct {
	Logger *logrus.Entry
}

// NewLogObserver wraps logger, tagging every entry with the run id.
func NewLogObserver(logger *logrus.Logger, runID string) *LogObserver {
	return &LogObserver{Logger: logger.WithField("run_id", runID)}
}

func (o *LogObserver) PageFetched(query string, page, posts, callsUsed int) {
	o.Logger.WithFields(logrus.Fields{
		"query":      query,
		"page":       page,
		"posts":      posts,
		"calls_used": callsUsed,
	}).Debug("Fetched search page")
}

func (o *LogObserver) NoResults(query string) {
	o.Logger.WithField("query", query).Debug("No posts matched query")
}

func (o *LogObserver) Throttled(endpoint string, callsUsed int) {
	o.Logger.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"calls_used": callsUsed,
	}).Warn("Rate limited by remote service")
}

func (o *LogObserver) Pausing(endpoint string, d time.Duration, callsUsed int) {
	o.Logger.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"pause":      d.String(),
		"calls_used": callsUsed,
	}).Info("Pausing requests")
}

func (o *LogObserver) QueryFailed(query string, err error, willRetry bool) {
	o.Logger.WithError(err).WithFields(logrus.Fields{
		"query":      query,
		"will_retry": willRetry,
	}).Error("Search query failed")
}

func (o *LogObserver) PostRejected(postID, reason string) {
	o.Logger.WithFields(logrus.Fields{
		"post_id": postID,
		"reason":  reason,
	}).Debug("Post rejected")
}

func (o *LogObserver) Duplicate(postID, number string) {
	o.Logger.WithFields(logrus.Fields{
		"post_id":      postID,
		"phone_number": number,
	}).Info("Duplicate phone number, not adding to sheet")
}

func (o *LogObserver) RowProduced(postID string, row OutputRow) {
	o.Logger.WithFields(logrus.Fields{
		"post_id":      postID,
		"phone_number": row.PhoneNumber,
		"locations":    row.Locations,
		"resources":    row.Resources,
		"created_at":   row.PostedAt,
	}).Info("New phone number discovered")
}

func (o *LogObserver) BatchWritten(rows int, callsUsed int) {
	o.Logger.WithFields(logrus.Fields{
		"rows":       rows,
		"calls_used": callsUsed,
	}).Debug("Appended rows to sink")
}

func (o *LogObserver) WriteFailed(rows int, err error) {
	o.Logger.WithError(err).WithField("rows", rows).Warn("Failed to append rows, will retry")
}
