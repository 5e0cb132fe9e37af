package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/schemalens/schemalens/internal/detect"
	"github.com/schemalens/schemalens/internal/errs"
	"github.com/schemalens/schemalens/internal/schema"
)

const defaultJudgeTimeout = 30 * time.Second

// Ollama is an Oracle backed by a local Ollama server's /api/generate
// endpoint, asking the model for a structured JSON judgment per candidate.
type Ollama struct {
	host   string
	model  string
	client *http.Client
}

// NewOllama probes the server's /api/tags endpoint before returning, so an
// unreachable model is discovered at construction time. Callers treat that
// error as the signal to fall back to the rule-based oracle for the whole
// run.
func NewOllama(host, model string, timeout time.Duration) (*Ollama, error) {
	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}
	o := &Ollama{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}

	resp, err := o.client.Get(host + "/api/tags")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnavailable, "oracle server unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.ErrKindUnavailable,
			fmt.Sprintf("oracle server returned status %d", resp.StatusCode))
	}
	return o, nil
}

func (o *Ollama) Name() string { return "ollama/" + o.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Judge sends one candidate to the model and parses its JSON verdict. Any
// transport or parse failure surfaces as an error; the caller substitutes
// the default judgment.
func (o *Ollama) Judge(ctx context.Context, c detect.Candidate, source, target *schema.Table, samples schema.SampleSet) (Judgment, error) {
	prompt := buildPrompt(c, source, target, samples)

	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return Judgment{}, fmt.Errorf("encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Judgment{}, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Judgment{}, errs.Wrap(errs.ErrKindUnavailable, "oracle call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Judgment{}, errs.New(errs.ErrKindUnavailable,
			fmt.Sprintf("oracle returned status %d", resp.StatusCode))
	}

	var outer generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&outer); err != nil {
		return Judgment{}, errs.Wrap(errs.ErrKindQueryFailed, "decode oracle envelope", err)
	}

	var judgment Judgment
	if err := json.Unmarshal([]byte(outer.Response), &judgment); err != nil {
		return Judgment{}, errs.Wrap(errs.ErrKindQueryFailed, "parse oracle judgment", err)
	}

	if judgment.Confidence < 0 {
		judgment.Confidence = 0
	}
	if judgment.Confidence > 1 {
		judgment.Confidence = 1
	}
	if judgment.Cardinality == "" {
		judgment.Cardinality = OneToMany
	}
	if judgment.Kind == "" {
		judgment.Kind = KindForeignKey
	}
	return judgment, nil
}

// buildPrompt renders the candidate, both tables' column metadata, and any
// sample rows into the verification prompt.
func buildPrompt(c detect.Candidate, source, target *schema.Table, samples schema.SampleSet) string {
	var b strings.Builder

	b.WriteString("Analyze whether a valid database relationship exists between these tables and columns.\n\n")
	b.WriteString("PROPOSED RELATIONSHIP:\n")
	fmt.Fprintf(&b, "- Source table: %s\n", c.SourceTable)
	fmt.Fprintf(&b, "- Source column: %s\n", c.SourceColumn)
	fmt.Fprintf(&b, "- Target table: %s\n", c.TargetTable)
	fmt.Fprintf(&b, "- Target column: %s\n", c.TargetColumn)
	fmt.Fprintf(&b, "- Detector evidence: %s\n", strings.Join(c.Evidence, "; "))

	writeTableSection(&b, "SOURCE", source)
	writeTableSection(&b, "TARGET", target)

	if samples != nil {
		writeSampleSection(&b, c.SourceTable, samples)
		if c.TargetTable != c.SourceTable {
			writeSampleSection(&b, c.TargetTable, samples)
		}
	}

	b.WriteString(`
Respond in JSON with exactly this structure:
{
  "is_valid": true or false,
  "confidence": a number between 0.0 and 1.0,
  "relationship_type": "foreign_key" or "junction_table" or "none",
  "cardinality": "1:1" or "1:N" or "N:1" or "N:M",
  "explanation": "a short explanation"
}

Consider:
1. Do the column names suggest a relationship?
2. Are the data types compatible?
3. Does the cardinality make sense for the domain?
4. Is there supporting evidence in the sample data?
`)
	return b.String()
}

func writeTableSection(b *strings.Builder, role string, table *schema.Table) {
	if table == nil {
		return
	}
	fmt.Fprintf(b, "\n%s TABLE (%s) COLUMNS:\n", role, table.Name)
	if cols, err := json.MarshalIndent(table.Columns, "", "  "); err == nil {
		b.Write(cols)
		b.WriteString("\n")
	}
}

func writeSampleSection(b *strings.Builder, table string, samples schema.SampleSet) {
	rows, ok := samples[table]
	if !ok || len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "\nSAMPLE DATA (%s):\n", table)
	if data, err := json.MarshalIndent(rows, "", "  "); err == nil {
		b.Write(data)
		b.WriteString("\n")
	}
}
