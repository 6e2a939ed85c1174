package store

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeRow hands scanResult a row with caller-chosen JSONB payloads.
type fakeRow struct {
	steps    []byte
	metadata []byte
}

func (r fakeRow) Scan(dest ...any) error {
	*dest[0].(*string) = "row-1"
	*dest[1].(*string) = "query"
	*dest[2].(*string) = "answer"
	*dest[3].(*float64) = 0.9
	*dest[4].(*string) = "openai"
	*dest[5].(*string) = "gpt-4o"
	*dest[6].(*string) = "standard"
	*dest[7].(*int) = 100
	*dest[8].(*[]byte) = r.steps
	*dest[9].(*[]byte) = r.metadata
	*dest[10].(*string) = StatusCompleted
	*dest[11].(*string) = ""
	*dest[12].(*time.Time) = time.Now()
	*dest[13].(*time.Time) = time.Now()
	return nil
}

func TestScanResultDecodesJSONColumns(t *testing.T) {
	s := &Store{logger: zap.NewNop()}

	r, err := s.scanResult(fakeRow{
		steps:    []byte(`[{"number":1,"content":"work","confidence":1}]`),
		metadata: []byte(`{"failed_samples":0}`),
	})
	if err != nil {
		t.Fatalf("scanResult: %v", err)
	}
	if len(r.Steps) != 1 || r.Steps[0].Content != "work" {
		t.Errorf("got steps %+v", r.Steps)
	}
	if r.Metadata["failed_samples"] != float64(0) {
		t.Errorf("got metadata %v", r.Metadata)
	}
}

func TestScanResultLogsUndecodableColumns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := &Store{logger: zap.New(core)}

	r, err := s.scanResult(fakeRow{
		steps:    []byte(`"not a step list"`),
		metadata: []byte(`[1, 2, 3]`),
	})
	if err != nil {
		t.Fatalf("scanResult: %v", err)
	}
	if r.ID != "row-1" || r.Answer != "answer" {
		t.Errorf("scalar columns lost: %+v", r)
	}
	if len(r.Steps) != 0 {
		t.Errorf("got steps %+v from undecodable column", r.Steps)
	}

	warned := make(map[string]bool)
	for _, entry := range logs.All() {
		warned[entry.Message] = true
	}
	if !warned["stored steps undecodable"] {
		t.Error("undecodable steps column not logged")
	}
	if !warned["stored metadata undecodable"] {
		t.Error("undecodable metadata column not logged")
	}
}
