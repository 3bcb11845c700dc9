package core

// import.go ingests profiles in bulk from three sources. All sources share
// one merge rule per record:
//
//   - no iccid                      -> skipped, "Missing ICCID"
//   - iccid already in the store     -> skipped, "Already exists"
//   - bad status (csv, text)         -> skipped, "Invalid status"
//   - otherwise                      -> normalized with the source's Defaults and inserted
//
// Any other record that cannot be normalized (for example a JSON record
// without a name, or a JSON record with a bad status) aborts the whole
// request. Records inserted before it stay stored.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/euicc/internal/store"
)

// Import sources, used in logs and metric labels.
const (
	SourceJSON = "json"
	SourceCSV  = "csv"
	SourceText = "text"
)

// csvColumns are the recognized CSV headers. Matching is case-sensitive.
var csvColumns = []string{"name", "iccid", "imsi", "ki", "opc", "standard", "status"}

type importCandidate struct {
	fields RawFields
	// row is the raw CSV row, reported instead of fields when iccid is missing.
	row map[string]string
}

// ImportJSON imports an array of field maps. Missing names are a
// request-level failure.
func (s *Service) ImportJSON(ctx context.Context, records []RawFields) (*ImportResult, error) {
	result, err := s.runImport(ctx, SourceJSON, JSONDefaults, candidatesFrom(records))
	return result, withPrefix("Error importing profiles", err)
}

// ImportText imports field maps produced by ScanText, possibly edited by
// the caller. Missing names default to "Profile " plus the first ten
// characters of the ICCID.
func (s *Service) ImportText(ctx context.Context, records []RawFields) (*ImportResult, error) {
	result, err := s.runImport(ctx, SourceText, TextDefaults, candidatesFrom(records))
	return result, withPrefix("Error importing profiles", err)
}

// ImportCSV imports a header-driven, UTF-8 CSV stream. A leading BOM is
// ignored, cells are trimmed, and unrecognized columns are dropped.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	candidates, err := readCSVCandidates(r)
	if err != nil {
		return nil, withPrefix("Error importing CSV", err)
	}
	result, err := s.runImport(ctx, SourceCSV, CSVDefaults, candidates)
	return result, withPrefix("Error importing CSV", err)
}

func candidatesFrom(records []RawFields) []importCandidate {
	out := make([]importCandidate, len(records))
	for i, fields := range records {
		out[i] = importCandidate{fields: fields}
	}
	return out
}

func (s *Service) runImport(ctx context.Context, source string, defaults Defaults, candidates []importCandidate) (*ImportResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, ErrTooManyImports) {
				return nil, &Error{Kind: KindUnavailable, Code: CodeTooManyImports, Message: err.Error(), Err: err}
			}
			return nil, err
		}
		defer s.limiter.Release()
	}

	start := time.Now()
	defer s.metrics.ObserveImport(source, start)

	logger := auditLogger(ctx).With("source", source, "records", len(candidates))
	result := &ImportResult{
		Success:  true,
		Imported: []Profile{},
		Skipped:  []SkippedRecord{},
	}

	for _, c := range candidates {
		p, skip, err := s.importOne(ctx, source, c, defaults)
		if err != nil {
			s.metrics.RecordImported(source, len(result.Imported))
			logger.Warn("import aborted", "imported", len(result.Imported), "error", err)
			return nil, err
		}
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			s.metrics.RecordSkipped(source, skip.Reason)
			continue
		}
		result.Imported = append(result.Imported, *p)
	}

	result.ImportedCount = len(result.Imported)
	result.SkippedCount = len(result.Skipped)
	s.metrics.RecordImported(source, result.ImportedCount)
	logger.Info("profiles imported", "imported", result.ImportedCount, "skipped", result.SkippedCount)
	return result, nil
}

// importOne applies the merge rule to one candidate. Exactly one of the
// profile, the skip record, or the error is non-nil.
func (s *Service) importOne(ctx context.Context, source string, c importCandidate, defaults Defaults) (*Profile, *SkippedRecord, error) {
	iccid, err := c.fields.String("iccid")
	if err != nil {
		return nil, nil, err
	}
	if iccid == "" {
		if c.row != nil {
			return nil, &SkippedRecord{Row: c.row, Reason: ReasonMissingICCID}, nil
		}
		return nil, &SkippedRecord{Data: c.fields, Reason: ReasonMissingICCID}, nil
	}

	exists, err := s.iccidExists(ctx, iccid)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, &SkippedRecord{ICCID: iccid, Reason: ReasonAlreadyExists}, nil
	}

	in, err := NormalizeProfile(c.fields, defaults)
	if errors.Is(err, ErrInvalidStatus) && source != SourceJSON {
		return nil, &SkippedRecord{ICCID: iccid, Reason: ReasonInvalidStatus}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	p, err := s.insertProfile(ctx, in)
	if errors.Is(err, store.ErrConflict) {
		return nil, &SkippedRecord{ICCID: iccid, Reason: ReasonAlreadyExists}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}

// readCSVCandidates parses the whole stream up front so that encoding and
// quoting errors fail the request before anything is inserted.
func readCSVCandidates(r io.Reader) ([]importCandidate, error) {
	data, err := readUTF8(r)
	if err != nil {
		if errors.Is(err, ErrInvalidEncoding) {
			return nil, BadRequest(CodeImportFailed, "%s", err.Error())
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, BadRequest(CodeImportFailed, "invalid csv: %s", err.Error())
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	index := MakeHeaderIndex(header)

	var candidates []importCandidate
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, BadRequest(CodeImportFailed, "invalid csv: %s", err.Error())
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}

		fields := make(RawFields, len(csvColumns))
		for _, col := range csvColumns {
			if _, ok := index[col]; ok {
				fields[col] = row[col]
			}
		}
		candidates = append(candidates, importCandidate{fields: fields, row: row})
	}
	return candidates, nil
}

// HeaderIndex maps a header name to its column position.
type HeaderIndex map[string]int

// MakeHeaderIndex indexes header names as written. The first occurrence
// of a repeated name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}
