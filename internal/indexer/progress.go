package indexer

// ProgressReporter receives callbacks while a project is indexed.
// OnScriptProcessed may be called from several goroutines at once.
type ProgressReporter interface {
	OnDiscoveryComplete(totalScripts int)
	OnScriptProcessed(relPath string, outcome Outcome)
	OnComplete(stats *Statistics)
}

// Outcome is what happened to one script during an indexing run
type Outcome string

const (
	OutcomeIndexed Outcome = "indexed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// NoOpProgressReporter discards all progress callbacks
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnDiscoveryComplete(int)           {}
func (NoOpProgressReporter) OnScriptProcessed(string, Outcome) {}
func (NoOpProgressReporter) OnComplete(*Statistics)            {}
