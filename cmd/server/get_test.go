package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/openoj/judge-api/internal/archive"
)

// createSubmission drives the intake route and returns the new submission's
// id. code is the raw JSON for the code field.
func (s *ServerTestSuite) createSubmission(auth clientAuth, taskID, lang, code string) string {
	payload := fmt.Sprintf(`{"task_id": %q, "lang": %q, "code": %s}`, taskID, lang, code)

	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/v1/submissions/", s.server.URL),
		strings.NewReader(payload),
	)
	s.Require().NoError(err, "failed to construct http request")

	req.Header.Add("Content-Type", "application/json")
	req.SetBasicAuth(auth.id, auth.token)

	resp, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.code, "intake did not accept the submission")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

	raw, ok := body["submission_id"].(string)
	s.Require().True(ok, "submission_id is a string")

	return raw
}

// getSubmission drives the single lookup route.
func (s *ServerTestSuite) getSubmission(auth *clientAuth, submissionID string) *resp {
	req, err := http.NewRequest(
		http.MethodGet,
		fmt.Sprintf("%s/v1/submissions/%s/", s.server.URL, submissionID),
		nil,
	)
	s.Require().NoError(err, "failed to construct http request")

	if auth != nil {
		req.SetBasicAuth(auth.id, auth.token)
	}

	res, err := doRequest(s.T(), req)
	s.Require().NoError(err)

	return res
}

func (s *ServerTestSuite) Test_GetSubmission_NotFound() {
	tests := []struct {
		name         string
		submissionID string
	}{
		{name: "NotUUID", submissionID: "not-a-uuid"},
		{name: "Unknown", submissionID: uuid.NewString()},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.getSubmission(&clientAuth{userAlice.ID.String(), authToken}, tt.submissionID)

			s.Equal(http.StatusNotFound, resp.code, "incorrect status code")
			body := make(map[string]any)
			s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))
			notFoundBodyTester(s.T(), body)
		})
	}
}

func (s *ServerTestSuite) Test_GetSubmission_RoundTrip() {
	source := "#include <cstdio>\nint main() { puts(\"hello\"); return 0; }"
	id := s.createSubmission(
		clientAuth{userAlice.ID.String(), authToken},
		taskVisible.ID.String(),
		"cpp",
		fmt.Sprintf("[%q]", source),
	)

	// the task is visible, so even anonymous callers get the full payload
	resp := s.getSubmission(nil, id)
	s.Require().Equal(http.StatusOK, resp.code, "incorrect status code")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

	s.Equal("alice", body["username"])
	s.NotEmpty(body["human_timestamp"])
	s.Equal([]any{source}, body["code"])

	task, ok := body["task"].(map[string]any)
	s.Require().True(ok, "task is an object")
	s.Equal(taskVisible.ID.String(), task["id"])
	s.Equal("normal", task["type"])
	s.Equal(true, task["visible"])
}

func (s *ServerTestSuite) Test_GetSubmission_ArchiveRoundTrip() {
	files := []string{"int main() { return 0; }", "/* list impl */", "/* list header */"}
	encoded, err := archive.EncodeZip([]string{"main.c", "list.c", "list.h"}, files)
	s.Require().NoError(err, "failed to build archive fixture")

	id := s.createSubmission(
		clientAuth{userAlice.ID.String(), authToken},
		taskMultiFile.ID.String(),
		"c",
		fmt.Sprintf("%q", encoded),
	)

	resp := s.getSubmission(&clientAuth{userAlice.ID.String(), authToken}, id)
	s.Require().Equal(http.StatusOK, resp.code, "incorrect status code")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

	// archive entries come back as an array in the task's declared order
	s.Equal([]any{files[0], files[1], files[2]}, body["code"])

	task, ok := body["task"].(map[string]any)
	s.Require().True(ok, "task is an object")
	s.Equal([]any{"main.c", "list.c", "list.h"}, task["file_names"])
}

func (s *ServerTestSuite) Test_GetSubmission_HiddenTask() {
	tests := []struct {
		name string
		auth *clientAuth
	}{
		{name: "Anonymous", auth: nil},
		{name: "NonAdmin", auth: &clientAuth{userAlice.ID.String(), authToken}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.getSubmission(tt.auth, submissionHidden.ID.String())

			// redaction is a success, not an error
			s.Equal(http.StatusOK, resp.code, "incorrect status code")
			s.JSONEq("{}", resp.body, "hidden content must serialize to an empty object")
		})
	}
}

func (s *ServerTestSuite) Test_GetSubmission_HiddenTaskAdmin() {
	id := s.createSubmission(
		clientAuth{userAdmin.ID.String(), authToken},
		taskHidden.ID.String(),
		"c",
		`["int main() { return 0; }"]`,
	)

	// the author sees nothing on a hidden task either
	resp := s.getSubmission(&clientAuth{userAlice.ID.String(), authToken}, id)
	s.Require().Equal(http.StatusOK, resp.code)
	s.JSONEq("{}", resp.body)

	// admins see through the visibility gate
	resp = s.getSubmission(&clientAuth{userAdmin.ID.String(), authToken}, id)
	s.Require().Equal(http.StatusOK, resp.code)

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(resp.body), &body))

	s.Equal("root", body["username"])
	s.Equal([]any{"int main() { return 0; }"}, body["code"])

	task, ok := body["task"].(map[string]any)
	s.Require().True(ok, "task is an object")
	s.Equal(false, task["visible"])
}
