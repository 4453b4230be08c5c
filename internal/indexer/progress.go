package indexer

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks may be invoked from several workers at once.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before a batch is indexed.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file, with its error if it failed.
	OnFileProcessed(uri string, err error)

	// OnComplete is called when a batch finishes.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                     {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)         {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)  {}
func (n *NoOpProgressReporter) OnFileProcessed(uri string, err error) {}
func (n *NoOpProgressReporter) OnComplete(result *Result)             {}
