package kafka

import "testing"

type payload struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"id":3,"text":"nasty rat"}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 3 || got.Text != "nasty rat" {
		t.Fatalf("got %+v", got)
	}
	if _, err := DecodeJSON[payload]([]byte(`{"id":`)); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
