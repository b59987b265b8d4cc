package gdc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataKind selects which fixed file contract a manifest is built for.
type DataKind string

const (
	KindRNASeq DataKind = "rnaseq" // STAR - Counts, Primary Tumor, open access
	KindWSI    DataKind = "wsi"    // SVS slide images, open access
)

// ParseDataKind validates a user-supplied kind string.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(s) {
	case KindRNASeq, KindWSI:
		return DataKind(s), nil
	}
	return "", fmt.Errorf("unknown data kind %q (want rnaseq or wsi)", s)
}

// ProjectFilters returns the fixed filter set for one project and kind.
func ProjectFilters(project string, kind DataKind) Filter {
	switch kind {
	case KindRNASeq:
		return And(
			In("cases.project.project_id", project),
			In("files.data_category", "Transcriptome Profiling"),
			In("files.data_type", "Gene Expression Quantification"),
			In("files.experimental_strategy", "RNA-Seq"),
			In("files.analysis.workflow_type", "STAR - Counts"),
			In("cases.samples.sample_type", "Primary Tumor"),
			In("files.access", "open"),
		)
	default:
		return And(
			In("cases.project.project_id", project),
			In("files.data_category", "Biospecimen"),
			In("files.data_type", "Slide Image"),
			In("files.data_format", "SVS"),
			In("files.access", "open"),
		)
	}
}

// QueryFields returns the field list requested for one kind.
func QueryFields(kind DataKind) []string {
	fields := []string{
		"file_id",
		"file_name",
		"cases.case_id",
		"cases.submitter_id",
	}
	if kind == KindRNASeq {
		fields = append(fields,
			"analysis.workflow_type",
			"cases.samples.sample_type",
		)
	}
	return fields
}

// WriteMetadata writes the pairing-ready metadata TSV for a set of hits:
// file_id, file_name, case_id, submitter_id, plus workflow_type and
// sample_type for RNA-seq.
func WriteMetadata(hits []FileHit, path string, kind DataKind) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	header := []string{"file_id", "file_name", "case_id", "submitter_id"}
	if kind == KindRNASeq {
		header = append(header, "workflow_type", "sample_type")
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(header, "\t"))
	sb.WriteByte('\n')

	for _, h := range hits {
		caseID, submitterID, sampleType := "", "", ""
		if len(h.Cases) > 0 {
			c0 := h.Cases[0]
			caseID = c0.CaseID
			submitterID = c0.SubmitterID
			if len(c0.Samples) > 0 {
				sampleType = c0.Samples[0].SampleType
			}
		}

		row := []string{h.FileID, h.FileName, caseID, submitterID}
		if kind == KindRNASeq {
			row = append(row, h.Analysis.WorkflowType, sampleType)
		}
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write metadata table: %w", err)
	}
	return nil
}
