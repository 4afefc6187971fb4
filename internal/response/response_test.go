package response

import (
	"encoding/json"
	"testing"
)

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"z":1,"a":2,"m":3}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestOrderedMapSetOverwritesWithoutReordering(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 99)

	if got, _ := m.Get("a"); got != 99 {
		t.Fatalf("expected overwritten value 99, got %v", got)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 keys after overwrite, got %d", m.Len())
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"a":99,"b":2}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestErrorOnlyResponseHasNoData(t *testing.T) {
	resp := ErrorOnlyResponse("boom", map[string]any{"code": "INTERNAL"})
	if resp.Data != nil {
		t.Fatalf("expected nil data, got %v", resp.Data)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Message != "boom" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
}

func TestDataResponseKeepsDataAndOmitsEmptyErrors(t *testing.T) {
	m := NewOrderedMap()
	m.Set("ok", true)
	resp := DataResponse(m)

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["data"]; !ok {
		t.Fatalf("expected data field in %s", data)
	}
	if _, ok := decoded["errors"]; ok {
		t.Fatalf("expected no errors field in %s", data)
	}
}
