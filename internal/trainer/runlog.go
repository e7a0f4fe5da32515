package trainer

import (
	"fmt"
	"os"
)

// RunLog is an append-only text log of per-epoch statistics.
//
// Each line holds, space separated: epoch number, epoch wall time in
// seconds, train loss, test loss, train accuracy, test accuracy.
// Existing content is preserved so interrupted runs can be resumed
// into the same file.
type RunLog struct {
	file *os.File
}

// OpenRunLog opens (or creates) the log file for appending.
func OpenRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	return &RunLog{file: f}, nil
}

// Append writes one epoch line and flushes it to disk.
func (l *RunLog) Append(epoch int, epochTime, trainLoss, testLoss, trainAcc, testAcc float64) error {
	_, err := fmt.Fprintf(l.file, "%d %.2f %.4f %.4f %.4f %.4f\n",
		epoch, epochTime, trainLoss, testLoss, trainAcc, testAcc)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	return l.file.Close()
}
