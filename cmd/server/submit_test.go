package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openoj/judge-api/internal/archive"
	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/internal/validator"
)

func acceptedBodyTester(t *testing.T, body map[string]any) {
	assert.Contains(t, body, "submission_id", "contains submission_id key")

	raw, ok := body["submission_id"].(string)
	assert.True(t, ok, "submission_id is a string")

	_, err := uuid.Parse(raw)
	assert.NoError(t, err, "submission_id is a uuid")
}

func (s *ServerTestSuite) Test_CreateSubmission_StoresRequestTime() {
	before := time.Now()
	raw := s.createSubmission(
		clientAuth{userAlice.ID.String(), authToken},
		taskVisible.ID.String(),
		"cpp",
		`["int main() { return 0; }"]`,
	)
	after := time.Now()

	id, err := uuid.Parse(raw)
	s.Require().NoError(err)

	submission, err := models.ByID[models.Submission](s.T().Context(), s.tx, id)
	s.Require().NoError(err)

	// the stored instant is the middleware's request time; allow for the
	// database truncating to microseconds
	s.False(submission.CreatedAt.Before(before.Truncate(time.Microsecond)),
		"created_at predates the request")
	s.False(submission.CreatedAt.After(after.Add(time.Microsecond)),
		"created_at postdates the response")
}

func (s *ServerTestSuite) Test_CreateSubmission() {
	multiFileArchive, err := archive.EncodeZip(
		[]string{"main.c", "list.c", "list.h"},
		[]string{"int main() { return 0; }", "/* list.c */", "/* list.h */"},
	)
	s.Require().NoError(err, "failed to build archive fixture")

	tests := []struct {
		name           string
		auth           *clientAuth
		bodyTester     func(t *testing.T, body map[string]any)
		taskID         string
		lang           string
		code           string
		expectedStatus int
	}{
		{
			name:           "Valid",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["#include <cstdio>\nint main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusOK,
			bodyTester:     acceptedBodyTester,
		},
		{
			name:           "ValidUpperTaskID",
			taskID:         strings.ToUpper(taskVisible.ID.String()),
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusOK,
			bodyTester:     acceptedBodyTester,
		},
		{
			name:           "ValidArchive",
			taskID:         taskMultiFile.ID.String(),
			lang:           "c",
			code:           fmt.Sprintf("%q", multiFileArchive),
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusOK,
			bodyTester:     acceptedBodyTester,
		},
		{
			name:           "Anonymous",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           nil,
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthenticatedBodyTester,
		},
		{
			name:           "WrongToken",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), "not the token"},
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthenticatedBodyTester,
		},
		{
			name:           "InactiveUser",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userInactive.ID.String(), authToken},
			expectedStatus: http.StatusUnauthorized,
			bodyTester:     unauthenticatedBodyTester,
		},
		{
			name:           "HiddenTask",
			taskID:         taskHidden.ID.String(),
			lang:           "c",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusForbidden,
			bodyTester:     permissionDeniedBodyTester,
		},
		{
			name:           "HiddenTaskAdmin",
			taskID:         taskHidden.ID.String(),
			lang:           "c",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAdmin.ID.String(), authToken},
			expectedStatus: http.StatusOK,
			bodyTester:     acceptedBodyTester,
		},
		{
			name:           "TaskNotUUID",
			taskID:         "not-a-uuid",
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "TaskUnknown",
			taskID:         uuid.NewString(),
			lang:           "cpp",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusNotFound,
			bodyTester:     notFoundBodyTester,
		},
		{
			name:           "CodeMissing",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           "",
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "CodeNumber",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `5`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "CodeObject",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `{"main.c": "int main() { return 0; }"}`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "CodeMixedArray",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["int main() { return 0; }", 5]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "WrongFileCount",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           `["int main() { return 0; }", "int helper() { return 1; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "MultiFileWrongCount",
			taskID:         taskMultiFile.ID.String(),
			lang:           "c",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "ArchiveNotZip",
			taskID:         taskMultiFile.ID.String(),
			lang:           "c",
			code:           fmt.Sprintf("%q", base64String(100)),
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "ArchiveNotBase64",
			taskID:         taskMultiFile.ID.String(),
			lang:           "c",
			code:           `"!!! definitely not base64 !!!"`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "FileTooLarge",
			taskID:         taskVisible.ID.String(),
			lang:           "cpp",
			code:           fmt.Sprintf("[%q]", longString(validator.MaxFileBytes+1)),
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "ArchiveTooLarge",
			taskID:         taskMultiFile.ID.String(),
			lang:           "c",
			code:           fmt.Sprintf("%q", base64String(1<<23)),
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
		{
			name:           "MissingLang",
			taskID:         taskVisible.ID.String(),
			lang:           "",
			code:           `["int main() { return 0; }"]`,
			auth:           &clientAuth{userAlice.ID.String(), authToken},
			expectedStatus: http.StatusBadRequest,
			bodyTester:     assertErrorBodyWithFields,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			payload := fmt.Sprintf(`{"task_id": %q, "lang": %q`, tt.taskID, tt.lang)
			if tt.code != "" {
				payload += fmt.Sprintf(`, "code": %s`, tt.code)
			}
			payload += "}"

			req, err := http.NewRequest(
				http.MethodPost,
				fmt.Sprintf("%s/v1/submissions/", s.server.URL),
				strings.NewReader(payload),
			)
			s.Require().NoError(err, "failed to construct http request")

			req.Header.Add("Content-Type", "application/json")

			if tt.auth != nil {
				req.SetBasicAuth(tt.auth.id, tt.auth.token)
			}

			resp, err := doRequest(s.T(), req)
			s.Require().NoError(err)

			s.Equal(tt.expectedStatus, resp.code, "incorrect status code")
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

			tt.bodyTester(s.T(), body)
		})
	}
}
