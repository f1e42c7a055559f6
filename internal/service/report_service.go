package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mautops/office-gin/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 报表工作表名称
const (
	ReportSheetSummary    = "Summary"
	ReportSheetAttendance = "Attendance"
	ReportSheetTasks      = "Tasks"
)

// ReportService 报表服务接口
type ReportService interface {
	WriteMonthlyReport(ctx context.Context, w io.Writer, month, year int) error
}

// reportService 月度 Excel 报表
type reportService struct {
	attendanceRepo repository.AttendanceRepository
	taskRepo       repository.DailyTaskRepository
	stats          StatisticsService
	clock          Clock
}

// NewReportService 创建报表服务
func NewReportService(db *gorm.DB, stats StatisticsService, opts ...Option) ReportService {
	o := buildOptions(opts)
	return &reportService{
		attendanceRepo: repository.NewAttendanceRepository(db),
		taskRepo:       repository.NewDailyTaskRepository(db),
		stats:          stats,
		clock:          o.clock,
	}
}

// WriteMonthlyReport 生成包含汇总、考勤、任务三个工作表的报表
func (s *reportService) WriteMonthlyReport(ctx context.Context, w io.Writer, month, year int) error {
	if month == 0 && year == 0 {
		now := s.clock()
		month, year = int(now.Month()), now.Year()
	}
	window, err := NewMonthRange(month, year, s.clock().Location())
	if err != nil {
		return err
	}

	summary, err := s.stats.GetAttendanceStatistics(ctx, month, year)
	if err != nil {
		return err
	}
	records, err := s.attendanceRepo.FindByFilter(ctx, &repository.AttendanceFilter{From: &window.From, To: &window.To})
	if err != nil {
		return NewStorageError("failed to load attendance records", err)
	}
	tasks, err := s.taskRepo.FindByFilter(ctx, &repository.DailyTaskFilter{From: &window.From, To: &window.To})
	if err != nil {
		return NewStorageError("failed to load tasks", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", ReportSheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	summaryRows := make([][]interface{}, 0, len(summary.Employees))
	for _, e := range summary.Employees {
		summaryRows = append(summaryRows, []interface{}{e.EmployeeID, e.EmployeeName, e.DaysPresent, e.DaysCompleted, e.TotalHours, e.AverageHours})
	}
	if err := writeTable(f, ReportSheetSummary, headerStyle,
		[]string{"Employee ID", "Employee Name", "Days Present", "Days Completed", "Total Hours", "Average Hours"},
		summaryRows); err != nil {
		return err
	}

	loc := s.clock().Location()
	attendanceRows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		var hours interface{} = ""
		if r.TotalHours != nil {
			hours = *r.TotalHours
		}
		attendanceRows = append(attendanceRows, []interface{}{
			r.Date.In(loc).Format("2006-01-02"),
			r.EmployeeID,
			r.EmployeeName,
			formatClock(r.CheckInTime, loc),
			formatClock(r.CheckOutTime, loc),
			hours,
			r.Status,
			r.CheckInLocation.Address,
		})
	}
	if _, err := f.NewSheet(ReportSheetAttendance); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeTable(f, ReportSheetAttendance, headerStyle,
		[]string{"Date", "Employee ID", "Employee Name", "Check In", "Check Out", "Total Hours", "Status", "Check-in Address"},
		attendanceRows); err != nil {
		return err
	}

	taskRows := make([][]interface{}, 0, len(tasks))
	for _, t := range tasks {
		taskRows = append(taskRows, []interface{}{
			t.Date.In(loc).Format("2006-01-02"),
			t.EmployeeID,
			t.Project,
			t.TaskDone,
			t.Remarks.TimeTaken,
			t.Remarks.TimeExpected,
			t.Remarks.Reason,
			t.ApprovalStatus,
			t.ApprovedBy,
			t.ManagerRemarks,
		})
	}
	if _, err := f.NewSheet(ReportSheetTasks); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeTable(f, ReportSheetTasks, headerStyle,
		[]string{"Date", "Employee ID", "Project", "Task Done", "Time Taken", "Time Expected", "Reason", "Status", "Approved By", "Manager Remarks"},
		taskRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeTable 写入表头和数据行
func writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}
