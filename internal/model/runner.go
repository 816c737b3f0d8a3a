package model

import "time"

// RecordState is the timing progress of a bib, derived from the two time fields.
type RecordState string

const (
	StateUnseen    RecordState = "unseen"
	StateCheckedIn RecordState = "checked_in"
	StatePartial   RecordState = "partial"
	StateComplete  RecordState = "complete"
)

// RunnerRecord is the timing record of a single bib number.
// DelayedStart and Finish are nil until recorded and are written once.
type RunnerRecord struct {
	Bib          int     `json:"numero_corredor"`
	Monitor      string  `json:"monitor"`
	DelayedStart *string `json:"tempo_de_atraso"`
	Finish       *string `json:"tempo_final"`
}

// State reports where the record is in the timing lifecycle.
func (r RunnerRecord) State() RecordState {
	switch {
	case r.DelayedStart != nil && r.Finish != nil:
		return StateComplete
	case r.DelayedStart != nil || r.Finish != nil:
		return StatePartial
	default:
		return StateCheckedIn
	}
}

// RankingEntry is one line of the classification. It is computed on demand
// and never stored.
type RankingEntry struct {
	Position     int     `json:"posicao"`
	Bib          int     `json:"numero_corredor"`
	Monitor      string  `json:"monitor"`
	DelayedStart *string `json:"tempo_de_atraso"`
	Finish       *string `json:"tempo_final"`
}

// Snapshot is the top-level structure of a JSON backup file.
type Snapshot struct {
	ExportedAt time.Time      `json:"exported_at"`
	Runners    []RunnerRecord `json:"runners"`
}
