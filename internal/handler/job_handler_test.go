package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docpipe/internal/domain"
	"docpipe/internal/handler"
	"docpipe/mocks"
)

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile(field, filename)
	_, _ = part.Write(content)
	writer.Close()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestJobHandler_Submit_Accepted(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	jobID := uuid.New()
	mockSvc.On("Submit", mock.Anything, mock.AnythingOfType("service.JobSubmitInput")).
		Return(&domain.Job{ID: jobID, Status: domain.JobStatusPending, FileType: domain.FileTypePDF}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "file", "test.pdf", []byte("%PDF-1.4 test content"))

	h.Submit(c)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestJobHandler_Submit_MissingFile(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "attachment", "test.pdf", []byte("%PDF-1.4"))

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestJobHandler_Submit_UnsupportedFormat(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	mockSvc.On("Submit", mock.Anything, mock.AnythingOfType("service.JobSubmitInput")).
		Return(nil, domain.ErrUnsupportedFormat)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "file", "malware.exe", []byte{0x7F, 'E', 'L', 'F'})

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Error.Code)
}

func TestJobHandler_Status_OK(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	jobID := uuid.New()
	mockSvc.On("Status", mock.Anything, jobID).
		Return(&domain.Job{ID: jobID, Status: domain.JobStatusProcessing}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: jobID.String()}}

	h.Status(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobHandler_Status_InvalidID(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Status(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Status", mock.Anything, mock.Anything)
}

func TestJobHandler_Result_NotReady(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	jobID := uuid.New()
	mockSvc.On("Result", mock.Anything, jobID).Return(nil, domain.ErrResultNotReady)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/result", nil)
	c.Params = gin.Params{{Key: "id", Value: jobID.String()}}

	h.Result(c)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp handler.APIResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RESULT_NOT_READY", resp.Error.Code)
}

func TestJobHandler_Result_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockJobService)
	h := handler.NewJobHandler(mockSvc)

	jobID := uuid.New()
	mockSvc.On("Result", mock.Anything, jobID).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/result", nil)
	c.Params = gin.Params{{Key: "id", Value: jobID.String()}}

	h.Result(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
