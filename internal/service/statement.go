package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"loan-api/internal/domain"
	"loan-api/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type ExportStatus struct {
	Key        string    `json:"key"`
	Type       string    `json:"type"`
	CustomerID int64     `json:"customer_id"`
	LoanID     int64     `json:"loan_id"`
	Progress   float64   `json:"progress"`
	FileURL    *string   `json:"file_url"`
	Error      *string   `json:"error,omitempty"`
	Created    time.Time `json:"created_at"`
}

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

// ExportStorage stores a generated statement file and yields the URL it
// can be downloaded from. Backed by the local export directory or S3.
type ExportStorage interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

// ExportNotifier pushes statement-export lifecycle events to the
// customer's open websocket connections.
type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, customerID int64, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, customerID int64, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, customerID int64, exportID, errMsg string) error
}

// StatementService renders a loan's installment schedule to a
// spreadsheet in the background, tracking job status in redis.
type StatementService struct {
	repos   repository.Repos
	cache   Cache
	storage ExportStorage
	ws      ExportNotifier
}

func NewStatementService(repos repository.Repos, cache Cache, storage ExportStorage, ws ExportNotifier) *StatementService {
	return &StatementService{repos: repos, cache: cache, storage: storage, ws: ws}
}

func (s *StatementService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.cache.SAdd(ctx, exportSetKey, st.Key)
}

// StartStatementExport kicks off an async export of the loan's
// installment schedule and returns the job id. The id is bare; the
// redis key carries the "exports:" prefix.
func (s *StatementService) StartStatementExport(ctx context.Context, loanID, customerID int64) (string, error) {
	loan, err := s.repos.Loans.FindByID(ctx, loanID)
	if err != nil {
		return "", err
	}

	exportID := uuid.NewString()

	status := &ExportStatus{
		Key:        fmt.Sprintf("exports:%s", exportID),
		Type:       "statement",
		CustomerID: customerID,
		LoanID:     loan.ID,
		Progress:   0,
		Created:    time.Now(),
	}
	_ = s.saveStatus(ctx, status)

	go s.runStatementExport(context.Background(), status, loan)

	return exportID, nil
}

func (s *StatementService) runStatementExport(ctx context.Context, status *ExportStatus, loan *domain.Loan) {
	installments, err := s.repos.Installments.ListByLoan(ctx, loan.ID)
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("load installments: %v", err))
		return
	}

	data, err := renderStatement(loan, installments)
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("render statement: %v", err))
		return
	}

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.CustomerID, status.Key, 95, "uploading")
	}

	fileName := fmt.Sprintf("loan_%d_statement_%s.xlsx", loan.ID, time.Now().Format("20060102_150405"))
	savedName, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("save statement: %v", err))
		return
	}

	url := s.storage.GetURL(savedName)
	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.CustomerID, status.Key, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, status.CustomerID, status.Key, url, fileName)
	}
}

func (s *StatementService) failExport(ctx context.Context, status *ExportStatus, errMsg string) {
	log.Printf("export %s: %s", status.Key, errMsg)
	status.Error = &errMsg
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, status.CustomerID, status.Key, errMsg)
	}
}

func renderStatement(loan *domain.Loan, installments []domain.Installment) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Statement"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("loan_%d", loan.ID)})

	headers := []string{"#", "Due date", "Scheduled amount", "Paid amount", "Payment date", "Paid"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, inst := range installments {
		values := []any{
			row + 1,
			inst.DueDate.Format("2006-01-02"),
			inst.Amount.StringFixed(2),
			inst.PaidAmount.StringFixed(2),
			"",
			inst.IsPaid,
		}
		if inst.PaymentDate != nil {
			values[4] = inst.PaymentDate.Format("2006-01-02")
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	summaryRow := len(installments) + 3
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	_ = f.SetCellValue(sheet, cell, fmt.Sprintf("Total payable: %s", loan.TotalAmount().StringFixed(2)))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetExports lists the customer's export jobs, newest first.
func (s *StatementService) GetExports(ctx context.Context, customerID int64) ([]ExportStatus, error) {
	if s.cache == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.cache.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			continue
		}
		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.CustomerID == customerID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *StatementService) GetExport(ctx context.Context, exportID string, customerID int64) (*ExportStatus, error) {
	if s.cache == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.cache.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}
	if status.CustomerID != customerID {
		return nil, errors.New("export not found")
	}
	return &status, nil
}
