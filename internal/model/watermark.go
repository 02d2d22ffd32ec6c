package model

// SyncWatermark records how far a wallet's history has been ingested. It is
// only advanced after a batch has been persisted.
type SyncWatermark struct {
	Wallet              string `json:"wallet"`
	LastSyncedTimestamp int64  `json:"last_synced_ts"`
	LastSyncedBlock     int64  `json:"last_synced_block"`
}

// Advance returns a watermark moved forward to cover the given batch. The
// watermark never regresses.
func (w SyncWatermark) Advance(events []NormalizedEvent) SyncWatermark {
	out := w
	for _, ev := range events {
		if ev.TimestampSec > out.LastSyncedTimestamp {
			out.LastSyncedTimestamp = ev.TimestampSec
		}
		if ev.BlockNumber > out.LastSyncedBlock {
			out.LastSyncedBlock = ev.BlockNumber
		}
	}
	return out
}
