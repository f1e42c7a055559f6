package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mautops/office-gin/internal/model"
	"github.com/mautops/office-gin/internal/repository"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetAttendanceStatistics(ctx context.Context, month, year int) (*AttendanceStatistics, error)
	GetTaskStatistics(ctx context.Context, month, year int) (*TaskStatistics, error)
}

// EmployeeAttendanceSummary 员工出勤汇总
type EmployeeAttendanceSummary struct {
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	DaysPresent   int     `json:"days_present"`
	DaysCompleted int     `json:"days_completed"` // 已签退的天数
	TotalHours    float64 `json:"total_hours"`
	AverageHours  float64 `json:"average_hours"`
}

// AttendanceStatistics 出勤统计
type AttendanceStatistics struct {
	From         *time.Time                   `json:"from,omitempty"`
	To           *time.Time                   `json:"to,omitempty"`
	TotalRecords int                          `json:"total_records"`
	OpenRecords  int                          `json:"open_records"` // 未签退
	TotalHours   float64                      `json:"total_hours"`
	Employees    []*EmployeeAttendanceSummary `json:"employees"`
}

// TaskCountByEmployee 员工任务统计
type TaskCountByEmployee struct {
	EmployeeID string `json:"employee_id"`
	Pending    int    `json:"pending"`
	Approved   int    `json:"approved"`
	Rejected   int    `json:"rejected"`
}

// ApproverDecisions 审批人在统计窗口内做出的决定,按决定时间计入窗口
type ApproverDecisions struct {
	Approver string `json:"approver"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
}

// TaskStatistics 每日任务统计
type TaskStatistics struct {
	From                 *time.Time             `json:"from,omitempty"`
	To                   *time.Time             `json:"to,omitempty"`
	Total                int64                  `json:"total"`
	Pending              int64                  `json:"pending"`
	Approved             int64                  `json:"approved"`
	Rejected             int64                  `json:"rejected"`
	ApprovalRate         float64                `json:"approval_rate"` // 已决定任务中通过的百分比
	AverageDecisionHours float64                `json:"average_decision_hours"`
	ByEmployee           []*TaskCountByEmployee `json:"by_employee"`
	ByApprover           []*ApproverDecisions   `json:"by_approver"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	attendanceRepo repository.AttendanceRepository
	taskRepo       repository.DailyTaskRepository
	approvalRepo   repository.ApprovalRecordRepository
	clock          Clock
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB, opts ...Option) StatisticsService {
	o := buildOptions(opts)
	return &statisticsService{
		attendanceRepo: repository.NewAttendanceRepository(db),
		taskRepo:       repository.NewDailyTaskRepository(db),
		approvalRepo:   repository.NewApprovalRecordRepository(db),
		clock:          o.clock,
	}
}

// GetAttendanceStatistics 按员工汇总出勤
func (s *statisticsService) GetAttendanceStatistics(ctx context.Context, month, year int) (*AttendanceStatistics, error) {
	window, err := NewMonthRange(month, year, s.clock().Location())
	if err != nil {
		return nil, err
	}

	filter := &repository.AttendanceFilter{}
	stats := &AttendanceStatistics{Employees: []*EmployeeAttendanceSummary{}}
	if window != nil {
		filter.From, filter.To = &window.From, &window.To
		stats.From, stats.To = &window.From, &window.To
	}

	records, err := s.attendanceRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, NewStorageError("failed to load attendance records", err)
	}

	byEmployee := make(map[string]*EmployeeAttendanceSummary)
	for _, record := range records {
		summary, ok := byEmployee[record.EmployeeID]
		if !ok {
			summary = &EmployeeAttendanceSummary{EmployeeID: record.EmployeeID, EmployeeName: record.EmployeeName}
			byEmployee[record.EmployeeID] = summary
			stats.Employees = append(stats.Employees, summary)
		}
		summary.DaysPresent++
		stats.TotalRecords++
		if !record.IsCheckedOut() {
			stats.OpenRecords++
			continue
		}
		summary.DaysCompleted++
		if record.TotalHours != nil {
			summary.TotalHours += *record.TotalHours
			stats.TotalHours += *record.TotalHours
		}
	}

	for _, summary := range stats.Employees {
		summary.TotalHours = round2(summary.TotalHours)
		if summary.DaysCompleted > 0 {
			summary.AverageHours = round2(summary.TotalHours / float64(summary.DaysCompleted))
		}
	}
	stats.TotalHours = round2(stats.TotalHours)
	sort.Slice(stats.Employees, func(i, j int) bool {
		return stats.Employees[i].EmployeeID < stats.Employees[j].EmployeeID
	})

	return stats, nil
}

// GetTaskStatistics 汇总任务审批情况
func (s *statisticsService) GetTaskStatistics(ctx context.Context, month, year int) (*TaskStatistics, error) {
	window, err := NewMonthRange(month, year, s.clock().Location())
	if err != nil {
		return nil, err
	}

	stats := &TaskStatistics{ByEmployee: []*TaskCountByEmployee{}, ByApprover: []*ApproverDecisions{}}
	filter := &repository.DailyTaskFilter{}
	if window != nil {
		filter.From, filter.To = &window.From, &window.To
		stats.From, stats.To = &window.From, &window.To
	}

	counts, err := s.taskRepo.CountByStatus(ctx, filter.From, filter.To)
	if err != nil {
		return nil, NewStorageError("failed to count tasks", err)
	}
	stats.Pending = counts[model.ApprovalStatusPending]
	stats.Approved = counts[model.ApprovalStatusApproved]
	stats.Rejected = counts[model.ApprovalStatusRejected]
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	if decided := stats.Approved + stats.Rejected; decided > 0 {
		stats.ApprovalRate = round2(float64(stats.Approved) / float64(decided) * 100)
	}

	tasks, err := s.taskRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, NewStorageError("failed to load tasks", err)
	}

	byEmployee := make(map[string]*TaskCountByEmployee)
	var decisionHours float64
	var decisions int
	for _, task := range tasks {
		row, ok := byEmployee[task.EmployeeID]
		if !ok {
			row = &TaskCountByEmployee{EmployeeID: task.EmployeeID}
			byEmployee[task.EmployeeID] = row
			stats.ByEmployee = append(stats.ByEmployee, row)
		}
		switch task.ApprovalStatus {
		case model.ApprovalStatusApproved:
			row.Approved++
		case model.ApprovalStatusRejected:
			row.Rejected++
		default:
			row.Pending++
		}
		if task.ApprovedAt != nil {
			decisionHours += task.ApprovedAt.Sub(task.CreatedAt).Hours()
			decisions++
		}
	}
	if decisions > 0 {
		stats.AverageDecisionHours = round2(decisionHours / float64(decisions))
	}
	sort.Slice(stats.ByEmployee, func(i, j int) bool {
		return stats.ByEmployee[i].EmployeeID < stats.ByEmployee[j].EmployeeID
	})

	decisionCounts, err := s.approvalRepo.CountByApprover(ctx, filter.From, filter.To)
	if err != nil {
		return nil, NewStorageError("failed to count approval decisions", err)
	}
	byApprover := make(map[string]*ApproverDecisions)
	for _, c := range decisionCounts {
		row, ok := byApprover[c.Approver]
		if !ok {
			row = &ApproverDecisions{Approver: c.Approver}
			byApprover[c.Approver] = row
			stats.ByApprover = append(stats.ByApprover, row)
		}
		switch c.Result {
		case model.ApprovalStatusApproved:
			row.Approved += c.Count
		case model.ApprovalStatusRejected:
			row.Rejected += c.Count
		}
	}

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
