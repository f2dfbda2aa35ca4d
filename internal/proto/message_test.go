package proto

import (
	"encoding/json"
	"testing"
)

func TestMessageIDDecoding(t *testing.T) {
	cases := []struct {
		raw  string
		want MessageID
	}{
		{`{"msg_id": 7}`, 7},
		{`{"msg_id": "12"}`, 12},
		{`{"msg_id": " 3 "}`, 3},
		{`{"msg_id": 4.0}`, 4},
		{`{"msg_id": 4.5}`, 0},
		{`{"msg_id": "abc"}`, 0},
		{`{"msg_id": null}`, 0},
		{`{"msg_id": true}`, 0},
		{`{}`, 0},
	}

	for _, tc := range cases {
		var data ReactData
		if err := json.Unmarshal([]byte(tc.raw), &data); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if data.MsgID != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.raw, data.MsgID, tc.want)
		}
	}
}

func TestHistoryEntryIsPositional(t *testing.T) {
	entry := HistoryEntry{
		Nickname:   "alice",
		Decoration: "*",
		Text:       "hi",
		Timestamp:  "2024-01-02T03:04:05",
		ID:         9,
		Avatar:     "a.png",
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `["alice","*","hi","2024-01-02T03:04:05",9,"a.png"]`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}

	var decoded HistoryEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != entry {
		t.Fatalf("decoded %+v, want %+v", decoded, entry)
	}

	if err := json.Unmarshal([]byte(`["too","short"]`), &decoded); err == nil {
		t.Fatalf("expected error for short entry")
	}
}
