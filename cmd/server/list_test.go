package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openoj/judge-api/internal/models"
)

// listSubmissions drives the listing route. query is appended verbatim.
func (s *ServerTestSuite) listSubmissions(auth *clientAuth, query string) map[string]any {
	url := fmt.Sprintf("%s/v1/submissions/", s.server.URL)
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	s.Require().NoError(err, "failed to construct http request")

	if auth != nil {
		req.SetBasicAuth(auth.id, auth.token)
	}

	res, err := doRequest(s.T(), req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, res.code, "incorrect status code")

	body := make(map[string]any)
	s.Require().NoError(json.Unmarshal([]byte(res.body), &body))

	return body
}

func (s *ServerTestSuite) resultRows(body map[string]any) []any {
	rows, ok := body["results"].([]any)
	s.Require().True(ok, "results is an array")
	return rows
}

func (s *ServerTestSuite) Test_ListSubmissions_ByUsername() {
	body := s.listSubmissions(nil, "username=alice")

	rows := s.resultRows(body)
	s.Require().Len(rows, 3)
	s.Nil(body["next"])

	// newest first: the hidden-task submission was seeded last, and for an
	// anonymous caller it must hold its position as an empty object
	s.Equal(map[string]any{}, rows[0])

	unjudged, ok := rows[1].(map[string]any)
	s.Require().True(ok)
	s.Equal(submissionUnjudged.ID.String(), unjudged["submission_id"])
	s.Equal("alice", unjudged["username"])
	s.Equal("python", unjudged["language"])

	// no verdict yet aggregates to zero
	s.Equal(0.0, unjudged["score"])
	s.Equal(0.0, unjudged["full_score"])
	s.Equal(0.0, unjudged["time"])
	s.Equal(0.0, unjudged["memory"])

	judged, ok := rows[2].(map[string]any)
	s.Require().True(ok)
	s.Equal(submissionJudged.ID.String(), judged["submission_id"])
	s.Equal(taskVisible.ID.String(), judged["task_id"])
	s.Equal("cpp", judged["language"])

	// scores sum across groups, time and memory take the worst run
	s.Equal(80.0, judged["score"])
	s.Equal(100.0, judged["full_score"])
	s.Equal(1.25, judged["time"])
	s.Equal(512.0, judged["memory"])

	s.NotEmpty(judged["human_timestamp"])
	s.InDelta(float64(submissionJudged.CreatedAt.UnixMilli()), judged["timestamp"], 1)
}

func (s *ServerTestSuite) Test_ListSubmissions_AdminSeesHidden() {
	body := s.listSubmissions(&clientAuth{userAdmin.ID.String(), authToken}, "username=alice")

	rows := s.resultRows(body)
	s.Require().Len(rows, 3)

	hidden, ok := rows[0].(map[string]any)
	s.Require().True(ok)
	s.Equal(submissionHidden.ID.String(), hidden["submission_id"])
	s.Equal(taskHidden.ID.String(), hidden["task_id"])
	s.Equal("alice", hidden["username"])
}

func (s *ServerTestSuite) Test_ListSubmissions_EmptyAnswers() {
	tests := []struct {
		name  string
		query string
	}{
		{name: "UnknownUsername", query: "username=nobody"},
		{name: "TaskNotUUID", query: "task_id=not-a-uuid"},
		{name: "TaskUnknown", query: "task_id=" + uuid.NewString()},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := s.listSubmissions(nil, tt.query)

			s.Equal([]any{}, body["results"], "results must be an empty array, not null")
			s.Nil(body["next"])
		})
	}
}

func (s *ServerTestSuite) Test_ListSubmissions_ByTask() {
	body := s.listSubmissions(nil, "task_id="+taskVisible.ID.String())

	rows := s.resultRows(body)
	s.Require().Len(rows, 2)

	for _, row := range rows {
		entry, ok := row.(map[string]any)
		s.Require().True(ok)
		s.Equal(taskVisible.ID.String(), entry["task_id"])
	}
}

func (s *ServerTestSuite) Test_ListSubmissions_DuplicateUsername() {
	body := s.listSubmissions(nil, "username=eve")

	// the collision is answered as if nothing matched
	s.Equal([]any{}, body["results"])
	s.Nil(body["next"])

	// and both accounts got fresh, distinct usernames
	a, err := models.ByID[models.User](s.T().Context(), s.tx, userDupA.ID)
	s.Require().NoError(err)
	b, err := models.ByID[models.User](s.T().Context(), s.tx, userDupB.ID)
	s.Require().NoError(err)

	s.NotEqual("eve", a.Username)
	s.NotEqual("eve", b.Username)
	s.NotEqual(a.Username, b.Username)
	s.Len(a.Username, 40)
	s.Len(b.Username, 40)
}

func (s *ServerTestSuite) Test_ListSubmissions_Pagination() {
	pager := models.User{
		Username: "paginator",
		Token:    "unused",
		Active:   datatypes.NewNull(true),
	}
	s.Require().NoError(s.tx.Create(&pager).Error)

	for range 15 {
		submission := models.Submission{
			TaskID:   taskVisible.ID,
			UID:      pager.ID,
			Language: "go",
		}
		s.Require().NoError(s.tx.Create(&submission).Error)
	}

	tests := []struct {
		name         string
		query        string
		expectedLen  int
		expectedNext any
	}{
		{
			name:         "FirstPage",
			query:        "username=paginator&limit=10&offset=0",
			expectedLen:  10,
			expectedNext: 10.0,
		},
		{
			name:         "SecondPage",
			query:        "username=paginator&limit=10&offset=10",
			expectedLen:  5,
			expectedNext: nil,
		},
		{
			name:         "DefaultLimit",
			query:        "username=paginator",
			expectedLen:  10,
			expectedNext: 10.0,
		},
		{
			name:         "LimitClamped",
			query:        "username=paginator&limit=200",
			expectedLen:  15,
			expectedNext: nil,
		},
		{
			name:         "NegativeLimit",
			query:        "username=paginator&limit=-3",
			expectedLen:  10,
			expectedNext: 10.0,
		},
		{
			name:         "NegativeOffset",
			query:        "username=paginator&offset=-7",
			expectedLen:  10,
			expectedNext: 10.0,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := s.listSubmissions(nil, tt.query)

			s.Len(s.resultRows(body), tt.expectedLen)
			if tt.expectedNext == nil {
				s.Nil(body["next"])
			} else {
				s.Equal(tt.expectedNext, body["next"])
			}
		})
	}
}
