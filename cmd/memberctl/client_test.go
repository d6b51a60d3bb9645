package main

import (
	"bytes"
	"testing"
)

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, []byte(`{"memorials":{"total":10,"migrated":4}}`)); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"memorials\": {\n    \"migrated\": 4,\n    \"total\": 10\n  }\n}\n"
	if buf.String() != want {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintJSONPassesThroughNonJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, []byte("plain text")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain text" {
		t.Errorf("output = %q", buf.String())
	}
}
