package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"

	"github.com/gabrielvss/ecclesia/internal/repository"
)

func TestExportService_Members(t *testing.T) {
	birthDate := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)

	mockMemberRepo := new(MockMemberRepository)
	mockMemberRepo.On("ListAll", mock.Anything).Return([]*repository.Member{
		{
			ID:        1,
			FullName:  "Ana Souza",
			BirthDate: &birthDate,
			Phone:     strPtr("11 99999-0000"),
			CellName:  strPtr("North Cell"),
			DeptNames: strPtr("Media, Worship"),
		},
		{
			ID:       2,
			FullName: "Bruno Costa",
		},
	}, nil)

	service := NewExportService().
		WithMemberRepo(mockMemberRepo)

	buf, filename, err := service.Members(context.Background())

	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(filename, "members_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, openErr := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, openErr)
	defer f.Close()

	rows, rowsErr := f.GetRows(exportSheetName)
	assert.NoError(t, rowsErr)
	assert.Len(t, rows, 3)

	assert.Equal(t, []string{"Name", "Birth date", "Phone", "Cell", "Departments"}, rows[0])
	assert.Equal(t, []string{"Ana Souza", "1990-03-15", "11 99999-0000", "North Cell", "Media, Worship"}, rows[1])
	assert.Equal(t, "Bruno Costa", rows[2][0])

	mockMemberRepo.AssertExpectations(t)
}

func TestExportService_Members_Failure(t *testing.T) {
	mockMemberRepo := new(MockMemberRepository)
	mockMemberRepo.On("ListAll", mock.Anything).Return(nil, errors.New("db error"))

	service := NewExportService().
		WithMemberRepo(mockMemberRepo)

	buf, filename, err := service.Members(context.Background())

	assert.NotNil(t, err)
	assert.Equal(t, ErrorCodeUnspecified, err.Code)
	assert.Nil(t, buf)
	assert.Empty(t, filename)
}
