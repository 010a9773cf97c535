package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, source_path, kind, status, settings_json, probe_json, params_json, staged_file, final_file, outcome, original_bytes, final_bytes, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		sourcePath      string
		kind            string
		statusStr       string
		settingsJSON    sql.NullString
		probeJSON       sql.NullString
		paramsJSON      sql.NullString
		stagedFile      sql.NullString
		finalFile       sql.NullString
		outcome         sql.NullString
		originalBytes   sql.NullInt64
		finalBytes      sql.NullInt64
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&kind,
		&statusStr,
		&settingsJSON,
		&probeJSON,
		&paramsJSON,
		&stagedFile,
		&finalFile,
		&outcome,
		&originalBytes,
		&finalBytes,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		SourcePath:      sourcePath,
		Kind:            kind,
		Status:          Status(statusStr),
		SettingsJSON:    settingsJSON.String,
		ProbeJSON:       probeJSON.String,
		ParamsJSON:      paramsJSON.String,
		StagedFile:      stagedFile.String,
		FinalFile:       finalFile.String,
		Outcome:         Outcome(outcome.String),
		OriginalBytes:   originalBytes.Int64,
		FinalBytes:      finalBytes.Int64,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
