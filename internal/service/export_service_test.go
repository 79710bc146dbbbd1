package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
	appErrors "github.com/noah-isme/member-console/pkg/errors"
	"github.com/noah-isme/member-console/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) { return nil, errors.New("font missing") }
func (failingRenderer) ContentType() string                  { return "application/pdf" }

func exportMembers() []models.Member {
	expiry := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	members := makeMembers("m", 2)
	members[0] = assignedTo(members[0], models.RoleNavigator, "n-1")
	members[0].Email = "m1@example.com"
	members[0].MembershipStatus = models.MembershipStatus{
		IsRegistered:      true,
		PremiumMembership: models.PremiumMembership{IsActive: true, ExpiryDate: &expiry},
	}
	return members
}

func TestExportServiceCSV(t *testing.T) {
	directory, _, _, viewID := newDirectoryFixture(t, exportMembers())
	svc := NewExportService(directory, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 8, 15, 0, 0, time.UTC) }

	file, err := svc.Export(viewID, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "members_20250301_081500.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, 2, file.Rows)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Member ID", records[0][0])
	assert.Equal(t, "Mm001", records[1][0])
	assert.Equal(t, "m1@example.com", records[1][2])
	assert.Equal(t, "Staff n-1", records[1][6])
	assert.Equal(t, "Premium", records[1][8])
	assert.Equal(t, "2025-12-31", records[1][9])
	assert.Equal(t, "Unregistered", records[2][8])
}

func TestExportServicePDF(t *testing.T) {
	directory, _, _, viewID := newDirectoryFixture(t, exportMembers())
	svc := NewExportService(directory, nil, nil, nil)

	file, err := svc.Export(viewID, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportServiceErrors(t *testing.T) {
	directory, _, _, viewID := newDirectoryFixture(t, exportMembers())
	svc := NewExportService(directory, nil, failingRenderer{}, nil)

	_, err := svc.Export(viewID, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export("missing", ExportCSV)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Export(viewID, ExportPDF)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))

	require.NoError(t, directory.Close(viewID))
	_, err = svc.Export(viewID, ExportCSV)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
