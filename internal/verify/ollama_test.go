package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/errs"
	"github.com/schemalens/schemalens/internal/schema"
)

func ollamaStub(t *testing.T, innerJudgment string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models":[{"name":"llama2"}]}`))
		case "/api/generate":
			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama2", req.Model)
			assert.False(t, req.Stream)
			assert.Equal(t, "json", req.Format)
			assert.Contains(t, req.Prompt, "PROPOSED RELATIONSHIP")

			w.WriteHeader(http.StatusOK)
			body, _ := json.Marshal(generateResponse{Response: innerJudgment})
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func sampleCandidate() detect.Candidate {
	return detect.Candidate{
		SourceTable:  "orders",
		SourceColumn: "customer_id",
		TargetTable:  "customers",
		TargetColumn: "id",
		Confidence:   0.9,
		Evidence:     []string{"naming convention"},
	}
}

func TestOllama_JudgeParsesStructuredVerdict(t *testing.T) {
	srv := ollamaStub(t, `{"is_valid":true,"confidence":0.92,"relationship_type":"foreign_key","cardinality":"N:1","explanation":"classic lookup"}`)
	defer srv.Close()

	oracle, err := NewOllama(srv.URL, "llama2", 0)
	require.NoError(t, err)

	source := &schema.Table{Name: "orders", Columns: []schema.Column{{Name: "customer_id", DataType: "integer"}}}
	target := &schema.Table{Name: "customers", Columns: []schema.Column{{Name: "id", DataType: "integer", IsPrimaryKey: true}}}

	judgment, err := oracle.Judge(context.Background(), sampleCandidate(), source, target, nil)
	require.NoError(t, err)

	assert.True(t, judgment.IsValid)
	assert.InDelta(t, 0.92, judgment.Confidence, 1e-9)
	assert.Equal(t, KindForeignKey, judgment.Kind)
	assert.Equal(t, ManyToOne, judgment.Cardinality)
	assert.Equal(t, "classic lookup", judgment.Explanation)
}

func TestOllama_JudgeRejectsUnparseableVerdict(t *testing.T) {
	srv := ollamaStub(t, "the model rambled instead of answering")
	defer srv.Close()

	oracle, err := NewOllama(srv.URL, "llama2", 0)
	require.NoError(t, err)

	_, err = oracle.Judge(context.Background(), sampleCandidate(), nil, nil, nil)
	require.Error(t, err)
}

func TestNewOllama_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "llama2", 0)
	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
}

func TestOllama_JudgeClampsConfidence(t *testing.T) {
	srv := ollamaStub(t, `{"is_valid":true,"confidence":3.5,"cardinality":"1:N"}`)
	defer srv.Close()

	oracle, err := NewOllama(srv.URL, "llama2", 0)
	require.NoError(t, err)

	judgment, err := oracle.Judge(context.Background(), sampleCandidate(), nil, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, judgment.Confidence, 1e-9)
}
