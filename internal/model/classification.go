package model

import "encoding/json"

// Segments lists the filter values the results API knows about.
type Segments struct {
	Sex      []string `json:"sexo"`
	AgeRange []string `json:"range_idade"`
	Category []string `json:"modalidade"`
}

// ClassificationEntry is one athlete of the official classification kept by
// the results API. Age is sent as a number or a numeric string.
type ClassificationEntry struct {
	Position int         `json:"position"`
	Bib      int         `json:"numero_peito"`
	Name     string      `json:"nome_atleta"`
	Age      json.Number `json:"idade"`
	Sex      string      `json:"sexo"`
	Time     string      `json:"tempo_corrida"`
}
