package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/studywise/session-service/internal/repositories"
	"github.com/studywise/session-service/internal/utils"
)

const exportPageSize = 1000

// ExportService renders archived session results as spreadsheet downloads.
type ExportService interface {
	ExportExamResults(ctx context.Context, examID string) ([]byte, error)
}

type exportService struct {
	archive repositories.SessionArchiveRepository
	logger  utils.Logger
}

func NewExportService(archive repositories.SessionArchiveRepository, logger utils.Logger) ExportService {
	return &exportService{
		archive: archive,
		logger:  logger.With("component", "export_service"),
	}
}

// ExportExamResults writes every archived session of an exam into an xlsx
// workbook, one row per submitted session.
func (s *exportService) ExportExamResults(ctx context.Context, examID string) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Session ID", "Student ID", "Exam Title", "Score", "Total Score",
		"Correct", "Total Questions", "End Reason", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 0
	for offset := 0; ; offset += exportPageSize {
		archives, total, err := s.archive.ListByExam(ctx, examID, exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list session archives: %w", err)
		}

		for _, archive := range archives {
			row := []interface{}{
				archive.SessionID,
				archive.StudentID,
				archive.ExamTitle,
				archive.Score,
				archive.TotalScore,
				archive.CorrectCount,
				archive.TotalQuestions,
				string(archive.EndReason),
				archive.SubmittedAt.Format("2006-01-02 15:04:05"),
			}
			for colIndex, value := range row {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
				f.SetCellValue(sheetName, cell, value)
			}
			rowIndex++
		}

		if int64(offset+len(archives)) >= total || len(archives) == 0 {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported exam results", "exam_id", examID, "rows", rowIndex)
	return buf.Bytes(), nil
}
