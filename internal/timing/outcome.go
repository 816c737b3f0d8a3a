package timing

import "fmt"

// OutcomeKind discriminates the result of a reconciler operation.
type OutcomeKind string

const (
	Created         OutcomeKind = "created"
	Updated         OutcomeKind = "updated"
	CheckedIn       OutcomeKind = "checked_in"
	Deleted         OutcomeKind = "deleted"
	AlreadyRecorded OutcomeKind = "already_recorded"
	// FinishDominates rejects a delayed start for a runner that already finished.
	FinishDominates OutcomeKind = "finish_dominates"
	InvalidInput    OutcomeKind = "invalid_input"
	DuplicateBib    OutcomeKind = "duplicate_bib"
	NotFound        OutcomeKind = "not_found"
	StorageFailure  OutcomeKind = "storage_failure"
)

// Outcome is what a timing operation did. Domain failures are reported here
// instead of as errors.
type Outcome struct {
	Kind OutcomeKind `json:"outcome"`
	Bib  int         `json:"numero_corredor,omitempty"`
	// Time is the value written, for successful writes.
	Time string `json:"hora,omitempty"`
	// Existing is the value already stored when a write was rejected.
	Existing string `json:"existente,omitempty"`
	Err      error  `json:"-"`
}

// OK reports whether the operation changed the store.
func (o Outcome) OK() bool {
	switch o.Kind {
	case Created, Updated, CheckedIn, Deleted:
		return true
	}
	return false
}

// Message is the text shown to the monitor.
func (o Outcome) Message() string {
	switch o.Kind {
	case Created, Updated:
		return fmt.Sprintf("Tempo salvo para o corredor %d: %s", o.Bib, o.Time)
	case CheckedIn:
		return fmt.Sprintf("Check-in realizado para o corredor %d", o.Bib)
	case Deleted:
		return fmt.Sprintf("Corredor %d removido", o.Bib)
	case AlreadyRecorded:
		return fmt.Sprintf("Corredor %d já possui tempo registrado: %s", o.Bib, o.Existing)
	case FinishDominates:
		return fmt.Sprintf("Corredor %d já chegou (%s); tempo de atraso não registrado", o.Bib, o.Existing)
	case InvalidInput:
		if o.Err != nil {
			return fmt.Sprintf("Entrada inválida: %v", o.Err)
		}
		return "Número do corredor inválido"
	case DuplicateBib:
		return fmt.Sprintf("Corredor %d já cadastrado", o.Bib)
	case NotFound:
		return fmt.Sprintf("Corredor %d não encontrado", o.Bib)
	case StorageFailure:
		return "Falha ao acessar o banco de dados"
	}
	return string(o.Kind)
}
