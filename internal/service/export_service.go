package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const exportSheetName = "Members"

type ExportService struct {
	members repository.MemberRepository
}

func NewExportService() *ExportService {
	return &ExportService{}
}

func (s *ExportService) WithMemberRepo(r repository.MemberRepository) *ExportService {
	s.members = r
	return s
}

// Members renders the full member roster as an xlsx workbook. The buffer and
// suggested filename are returned; the handler sets the response headers.
func (s *ExportService) Members(ctx context.Context) (*bytes.Buffer, string, *Error) {
	l := logger.FromContext(ctx)

	members, err := s.members.ListAll(ctx)
	if err != nil {
		l.Error("failed to list members for export", zap.Error(err))
		return nil, "", NewError(ErrorCodeUnspecified, "failed to export members")
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		l.Error("failed to create sheet", zap.Error(err))
		return nil, "", NewError(ErrorCodeUnspecified, "failed to export members")
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheetName, "A", "A", 30)
	f.SetColWidth(exportSheetName, "B", "B", 14)
	f.SetColWidth(exportSheetName, "C", "C", 18)
	f.SetColWidth(exportSheetName, "D", "D", 22)
	f.SetColWidth(exportSheetName, "E", "E", 40)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"Name", "Birth date", "Phone", "Cell", "Departments"}
	for i, h := range headers {
		cellRef, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cellRef, h)
		f.SetCellStyle(exportSheetName, cellRef, cellRef, headerStyle)
	}

	for i, m := range members {
		row := i + 2
		f.SetCellValue(exportSheetName, exportCell(1, row), m.FullName)
		if m.BirthDate != nil {
			f.SetCellValue(exportSheetName, exportCell(2, row), m.BirthDate.Format(birthDateFmt))
		}
		if m.Phone != nil {
			f.SetCellValue(exportSheetName, exportCell(3, row), *m.Phone)
		}
		if m.CellName != nil {
			f.SetCellValue(exportSheetName, exportCell(4, row), *m.CellName)
		}
		if m.DeptNames != nil {
			f.SetCellValue(exportSheetName, exportCell(5, row), *m.DeptNames)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		l.Error("failed to write workbook", zap.Error(err))
		return nil, "", NewError(ErrorCodeUnspecified, "failed to export members")
	}

	filename := fmt.Sprintf("members_%s.xlsx", time.Now().Format("2006-01-02"))

	l.Info("members exported", zap.Int("member_count", len(members)))
	return buf, filename, nil
}

func exportCell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
