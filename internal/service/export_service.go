package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
	"github.com/noah-isme/member-console/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ExportFile is a rendered directory export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

var directoryColumns = []export.Column{
	{Key: "memberId", Title: "Member ID", Width: 1},
	{Key: "name", Title: "Name", Width: 2},
	{Key: "email", Title: "Email", Width: 2},
	{Key: "phone", Title: "Phone", Width: 1.2},
	{Key: "grade", Title: "Grade", Width: 0.6},
	{Key: "section", Title: "Section", Width: 0.6},
	{Key: "navigator", Title: "Navigator", Width: 1.4},
	{Key: "doctor", Title: "Doctor", Width: 1.4},
	{Key: "membership", Title: "Membership", Width: 1.2},
	{Key: "premiumExpiry", Title: "Premium Expiry", Width: 1},
}

// ExportService renders the buffered rows of a directory view.
type ExportService struct {
	directory *DirectoryService
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the default exporters.
func NewExportService(directory *DirectoryService, csv, pdf renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		directory: directory,
		renderers: map[ExportFormat]renderer{ExportCSV: csv, ExportPDF: pdf},
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the current buffer of a view in the requested format.
func (s *ExportService) Export(viewID string, format ExportFormat) (*ExportFile, error) {
	r, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	view, err := s.directory.View(viewID)
	if err != nil {
		return nil, err
	}

	members := view.Members()
	data := BuildDirectoryDataset(members)
	body, err := r.Render(data)
	if err != nil {
		s.logger.Error("directory export failed", zap.String("view_id", viewID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "render directory export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("members_%s.%s", s.now().Format("20060102_150405"), strings.ToLower(string(format))),
		ContentType: r.ContentType(),
		Body:        body,
		Rows:        len(members),
	}, nil
}

// BuildDirectoryDataset flattens members into export rows.
func BuildDirectoryDataset(members []models.Member) export.Dataset {
	rows := make([]map[string]string, 0, len(members))
	for _, m := range members {
		row := map[string]string{
			"memberId":   m.MemberID,
			"name":       m.FullName(),
			"email":      m.Email,
			"phone":      m.Phone,
			"grade":      m.Grade,
			"section":    m.Section,
			"membership": membershipLabel(m.MembershipStatus.State()),
		}
		if a := m.HealthcareTeam.Assignment(models.RoleNavigator); a != nil {
			row["navigator"] = a.Name
		}
		if a := m.HealthcareTeam.Assignment(models.RoleDoctor); a != nil {
			row["doctor"] = a.Name
		}
		if pm := m.MembershipStatus.PremiumMembership; pm.IsActive && pm.ExpiryDate != nil {
			row["premiumExpiry"] = pm.ExpiryDate.Format("2006-01-02")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: "Member Directory", Columns: directoryColumns, Rows: rows}
}

func membershipLabel(state models.LifecycleState) string {
	switch state {
	case models.StatePremiumActive:
		return "Premium"
	case models.StatePremiumInactive:
		return "Registered"
	default:
		return "Unregistered"
	}
}
