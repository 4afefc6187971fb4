package globalid

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := GlobalID{TypeName: "User", ID: map[string]any{"id": "42"}}

	s, err := Encode(g)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TypeName != g.TypeName {
		t.Fatalf("got typename %q, want %q", decoded.TypeName, g.TypeName)
	}
	if decoded.ID["id"] != "42" {
		t.Fatalf("got id %v, want 42", decoded.ID["id"])
	}
}

func TestDecodeRejectsInvalidBase64(t *testing.T) {
	if _, err := Decode("not base64!!"); err == nil {
		t.Fatalf("expected an error decoding invalid base64")
	}
}

func TestDecodeRejectsNonJSONPayload(t *testing.T) {
	// valid base64, but not JSON once decoded
	if _, err := Decode("bm90anNvbg=="); err == nil {
		t.Fatalf("expected an error decoding non-JSON payload")
	}
}

func TestEncodeDistinguishesCompositeKeys(t *testing.T) {
	a, err := Encode(GlobalID{TypeName: "Order", ID: map[string]any{"tenant": "a", "id": "1"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(GlobalID{TypeName: "Order", ID: map[string]any{"tenant": "b", "id": "1"}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a == b {
		t.Fatalf("expected different global ids for different tenant keys")
	}
}
