package amqp

import (
	"testing"
)

func TestRecordChangeJSONRoundTrip(t *testing.T) {
	msg := NewRecordChange("transactions", OpCreate, 1700000000000)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := RecordChangeFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Collection != "transactions" || back.Op != OpCreate || back.ID != 1700000000000 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestRecordChangeFromJSONRejectsGarbage(t *testing.T) {
	if _, err := RecordChangeFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
