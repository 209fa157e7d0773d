package dto

import "github.com/yukikurage/athlete-performance-api/internal/services"

// RowErrorDTO is one rejected CSV row
type RowErrorDTO struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResultDTO summarizes an import run
type ImportResultDTO struct {
	Total          int           `json:"total"`
	Created        int           `json:"created"`
	Skipped        int           `json:"skipped"`
	Errors         []RowErrorDTO `json:"errors"`
	DryRun         bool          `json:"dry_run"`
	UnknownColumns []string      `json:"unknown_columns"`
	Affected       []string      `json:"affected"`
}

func ToImportResultDTO(r services.ImportResult) ImportResultDTO {
	out := ImportResultDTO{
		Total:          r.Total,
		Created:        r.Created,
		Skipped:        r.Skipped,
		Errors:         make([]RowErrorDTO, len(r.Errors)),
		DryRun:         r.DryRun,
		UnknownColumns: nonNil(r.Unknown),
		Affected:       nonNil(r.Affected),
	}
	for i, e := range r.Errors {
		out.Errors[i] = RowErrorDTO{Row: e.Row, Message: e.Message}
	}
	return out
}
