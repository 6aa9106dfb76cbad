package repository

import "testing"

func TestTopicDerivation(t *testing.T) {
	p := &KafkaPublisher{prefix: "ohlcv"}

	tests := []struct {
		symbol string
		want   string
	}{
		{"AAPL", "ohlcv.AAPL"},
		{"BTC-USD", "ohlcv.BTC-USD"},
		{"^GSPC", "ohlcv.-GSPC"},
		{"BRK.B", "ohlcv.BRK.B"},
	}
	for _, tt := range tests {
		if got := p.Topic(tt.symbol); got != tt.want {
			t.Errorf("Topic(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}

	// Deterministic: same symbol, same topic.
	if p.Topic("AAPL") != p.Topic("AAPL") {
		t.Error("topic derivation is not deterministic")
	}
}
