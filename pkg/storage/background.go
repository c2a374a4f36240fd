package storage

import (
	"time"

	"github.com/adfharrison1/go-db-index/pkg/logger"
)

// StartBackgroundWorkers starts the periodic checkpoint worker
func (se *Engine) StartBackgroundWorkers() {
	if !se.Persistent() || se.checkpointInterval <= 0 {
		return
	}

	se.backgroundWg.Add(1)
	go func() {
		defer se.backgroundWg.Done()
		ticker := time.NewTicker(se.checkpointInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := se.Checkpoint(); err != nil {
					se.logger.Error("Background checkpoint failed", logger.Error(err))
				}
			case <-se.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops background workers
func (se *Engine) StopBackgroundWorkers() {
	se.stopOnce.Do(func() {
		close(se.stopChan)
	})
	se.backgroundWg.Wait()
}

// Close stops background workers, writes a final checkpoint and closes the journal
func (se *Engine) Close() error {
	se.closeOnce.Do(func() {
		se.StopBackgroundWorkers()

		if !se.Persistent() {
			return
		}
		if err := se.Checkpoint(); err != nil {
			se.closeErr = err
			return
		}
		if se.journal != nil {
			se.closeErr = se.journal.Close()
		}
	})
	return se.closeErr
}
