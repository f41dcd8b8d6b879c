package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its final summary
// against testdata/golden/{name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
//
// The summary is marshaled compactly with fixed field order, so equal
// final states always produce identical golden bytes.
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, sc.Name, &res.Summary)
	return res, nil
}

// AssertGolden compares an already-computed summary against its golden
// file.
func AssertGolden(t *testing.T, name string, sum *Summary) {
	t.Helper()

	data, err := marshalSummary(sum)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func marshalSummary(sum *Summary) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sum); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
