package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPClient(t *testing.T, token string, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", AccessToken: token, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

const nextQuestionBody = `{
	"next_question": {
		"id": "Q7",
		"topic": "Cardio",
		"difficulty": 3,
		"question": "Which valve separates the left atrium and left ventricle?",
		"options": ["Mitral", "Tricuspid", "Pulmonary", "Aortic"],
		"correct": "Mitral",
		"misconception": "Confusing left and right AV valves"
	},
	"learner_state": {"confidence_avg": 0.64, "topic_mastery": {"Cardio": 0.7, "Neuro": 0.4}},
	"explanation": null
}`

func TestHTTPClient_NextWireFormat(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	c := newTestHTTPClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, nextQuestionBody)
	})

	correct := false
	resp, err := c.Next(context.Background(), Request{
		UserID:     12,
		QuestionID: "Q6",
		Answer:     "Tricuspid",
		IsCorrect:  &correct,
		TimeTaken:  2.5,
		Confidence: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "/quiz/next", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, map[string]any{
		"user_id":     float64(12),
		"question_id": "Q6",
		"answer":      "Tricuspid",
		"is_correct":  false,
		"time_taken":  2.5,
		"confidence":  0.7,
	}, gotBody)

	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, "Q7", resp.NextQuestion.ID)
	assert.Equal(t, "Which valve separates the left atrium and left ventricle?", resp.NextQuestion.Text)
	assert.Equal(t, []string{"Mitral", "Tricuspid", "Pulmonary", "Aortic"}, resp.NextQuestion.Options)
	assert.Equal(t, "Confusing left and right AV valves", resp.NextQuestion.Misconception)
	require.True(t, resp.LearnerState.Complete())
	assert.Equal(t, 0.64, *resp.LearnerState.ConfidenceAvg)
	assert.Equal(t, 0.7, resp.LearnerState.TopicMastery["Cardio"])
	assert.Empty(t, resp.Explanation)
}

func TestHTTPClient_SkipOmitsIsCorrect(t *testing.T) {
	var gotBody map[string]any
	c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		io.WriteString(w, `{"next_question": null}`)
	})

	resp, err := c.Next(context.Background(), SkipRequest(0))
	require.NoError(t, err)
	assert.Nil(t, resp.NextQuestion)
	assert.Nil(t, resp.LearnerState)

	_, present := gotBody["is_correct"]
	assert.False(t, present)
	assert.Equal(t, "SKIP", gotBody["question_id"])
	assert.Equal(t, "SKIP", gotBody["answer"])
	assert.Equal(t, float64(0), gotBody["time_taken"])
}

func TestHTTPClient_LogMistake(t *testing.T) {
	var gotPath string
	var got MistakeNotice
	c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"status":"saved","id":4242}`)
	})

	notice := MistakeNotice{
		UserID: 3, QuestionID: "Q1", Topic: "Renal", QuestionText: "Functional unit of the kidney?",
		UserAnswer: "Ureter", CorrectAnswer: "Nephron",
	}
	require.NoError(t, c.LogMistake(context.Background(), notice))
	assert.Equal(t, "/quiz/log_mistake", gotPath)
	assert.Equal(t, notice, got)
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limit",
			status: http.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "3"},
			body:   `{"detail":"slow down"}`,
			check: func(t *testing.T, err error) {
				var rl *ErrRateLimit
				require.ErrorAs(t, err, &rl)
				assert.Equal(t, 3*time.Second, rl.RetryAfter)
				assert.Contains(t, err.Error(), "slow down")
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			check: func(t *testing.T, err error) {
				var u *ErrUnavailable
				require.ErrorAs(t, err, &u)
				assert.Equal(t, http.StatusBadGateway, u.StatusCode)
			},
		},
		{
			name:   "client error",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","user_id"],"msg":"field required"}]}`,
			check: func(t *testing.T, err error) {
				var rej *ErrRejected
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, http.StatusUnprocessableEntity, rej.StatusCode)
				assert.Contains(t, rej.Detail, "field required")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Next(context.Background(), SkipRequest(0))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPClient_InvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"too few options", `{"next_question":{"id":"Q","topic":"T","question":"?","options":["only"],"correct":"only"}}`},
		{"missing correct", `{"next_question":{"id":"Q","topic":"T","question":"?","options":["a","b"]}}`},
		{"difficulty out of range", `{"next_question":{"id":"Q","topic":"T","difficulty":9,"question":"?","options":["a","b"],"correct":"a"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			_, err := c.Next(context.Background(), SkipRequest(0))
			var inv *ErrInvalidResponse
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.body, string(inv.Body))
		})
	}
}

func TestHTTPClient_PartialLearnerStateIsDropped(t *testing.T) {
	question := `{"id":"Q8","topic":"Neuro","question":"Which lobe processes vision?","options":["Frontal","Occipital"],"correct":"Occipital"}`
	tests := []struct {
		name string
		body string
	}{
		{"service update failed", `{"next_question":` + question + `,"learner_state":{"topic_mastery":{},"error":"db locked"},"explanation":"Vision is occipital."}`},
		{"confidence wrong type", `{"next_question":` + question + `,"learner_state":{"confidence_avg":"high","topic_mastery":{}},"explanation":"Vision is occipital."}`},
		{"mastery not numeric", `{"next_question":` + question + `,"learner_state":{"confidence_avg":0.5,"topic_mastery":{"Cardio":"good"}},"explanation":"Vision is occipital."}`},
		{"not an object", `{"next_question":` + question + `,"learner_state":"unavailable","explanation":"Vision is occipital."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			resp, err := c.Next(context.Background(), SkipRequest(0))
			require.NoError(t, err)
			require.NotNil(t, resp.NextQuestion)
			assert.Equal(t, "Q8", resp.NextQuestion.ID)
			assert.Equal(t, "Vision is occipital.", resp.Explanation)
			assert.Nil(t, resp.LearnerState)
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewHTTPClient(HTTPConfig{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Next(context.Background(), SkipRequest(0))
	var u *ErrUnavailable
	require.ErrorAs(t, err, &u)
	assert.Equal(t, 0, u.StatusCode)
}

func TestHTTPClient_CancelledContext(t *testing.T) {
	c := newTestHTTPClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Next(ctx, SkipRequest(0))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(future), 50*time.Minute)
}
