package report

import (
	"context"
	"fmt"
	"time"

	"crm-support/internal/features/ticket"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportQuery captures the query-string filters for the ticket report.
type ReportQuery struct {
	From       *time.Time
	To         *time.Time
	Status     ticket.TicketStatus
	AssignedTo string
	CreatedBy  string
	Page       int64
	Limit      int64
}

// ReportResult is the paginated report envelope.
type ReportResult struct {
	Total   int64           `json:"total"`
	Page    int64           `json:"page"`
	Pages   int64           `json:"pages"`
	Tickets []ticket.Ticket `json:"tickets"`
}

type ReportService interface {
	TicketReport(ctx context.Context, q ReportQuery) (*ReportResult, error)
	ExportTicketReport(ctx context.Context, q ReportQuery) ([]byte, string, error)
}

type ReportServiceImpl struct {
	ReportRepo ReportRepository
}

func NewReportService(reportRepo ReportRepository) ReportService {
	return &ReportServiceImpl{
		ReportRepo: reportRepo,
	}
}

func buildFilter(q ReportQuery) bson.M {
	filter := bson.M{}

	if q.From != nil || q.To != nil {
		created := bson.M{}
		if q.From != nil {
			created["$gte"] = *q.From
		}
		if q.To != nil {
			// Extend the to-date to the end of its day so the range is
			// inclusive the way users expect.
			endOfDay := q.To.Add(24*time.Hour - time.Millisecond)
			created["$lte"] = endOfDay
		}
		filter["created_at"] = created
	}

	if q.Status != "" {
		filter["status"] = q.Status
	}

	if q.AssignedTo != "" {
		if id := ObjectIDOrNil(q.AssignedTo); id != primitive.NilObjectID {
			filter["assigned_to"] = id
		}
	}

	if q.CreatedBy != "" {
		if id := ObjectIDOrNil(q.CreatedBy); id != primitive.NilObjectID {
			filter["created_by"] = id
		}
	}

	return filter
}

func (s *ReportServiceImpl) TicketReport(ctx context.Context, q ReportQuery) (*ReportResult, error) {
	filter := buildFilter(q)

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}

	tickets, total, err := s.ReportRepo.FindTickets(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	return &ReportResult{
		Total:   total,
		Page:    page,
		Pages:   pages,
		Tickets: tickets,
	}, nil
}

// exportColumns is the fixed header row of the xlsx export.
var exportColumns = []string{
	"ID", "Title", "Priority", "Status",
	"Customer", "Customer Email",
	"Assigned To", "Created By",
	"Created At", "Resolved At", "Closed At",
}

// ExportTicketReport renders every ticket matching the filter as an xlsx
// workbook. Export ignores pagination; staff want the whole filtered set in
// one file.
func (s *ReportServiceImpl) ExportTicketReport(ctx context.Context, q ReportQuery) ([]byte, string, error) {
	tickets, _, err := s.ReportRepo.FindTickets(ctx, buildFilter(q), 1, exportLimit)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Tickets"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, t := range tickets {
		values := []any{
			t.ID.Hex(),
			t.Title,
			string(t.Priority),
			string(t.Status),
			t.Customer.Name,
			t.Customer.Email,
			t.AssignedTo.Hex(),
			t.CreatedBy.Hex(),
			formatTime(&t.CreatedAt),
			formatTime(t.ResolvedAt),
			formatTime(t.ClosedAt),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ticket-report-%s.xlsx", time.Now().Format("2006-01-02"))
	return buffer.Bytes(), filename, nil
}

// exportLimit caps the export at a size a single workbook can sensibly hold.
const exportLimit = 10000

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
