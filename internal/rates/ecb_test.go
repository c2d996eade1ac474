package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/log"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<Cube>
		<Cube time="2024-06-14">
			<Cube currency="USD" rate="1.0720"/>
			<Cube currency="GBP" rate="0.8450"/>
			<Cube currency="JPY" rate="168.20"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func TestParseRates(t *testing.T) {
	rates, err := parseRates([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parseRates() error = %v", err)
	}

	tests := []struct {
		currency string
		expected string
	}{
		{"EUR", "1"},
		{"USD", "1.0720"},
		{"GBP", "0.8450"},
		{"JPY", "168.20"},
	}
	for _, tt := range tests {
		rate, ok := rates[tt.currency]
		if !ok {
			t.Errorf("rates missing %s", tt.currency)
			continue
		}
		want, _ := decimal.NewFromString(tt.expected)
		if !rate.Equal(want) {
			t.Errorf("rates[%s] = %s, want %s", tt.currency, rate, want)
		}
	}
}

func TestParseRatesEmptyFeed(t *testing.T) {
	empty := `<?xml version="1.0"?><gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01"><Cube><Cube time="2024-06-14"/></Cube></gesmes:Envelope>`
	if _, err := parseRates([]byte(empty)); err == nil {
		t.Error("parseRates() of empty feed succeeded, want error")
	}
}

func TestParseRatesInvalidXML(t *testing.T) {
	if _, err := parseRates([]byte("not xml at all <<<")); err == nil {
		t.Error("parseRates() of invalid XML succeeded, want error")
	}
}

func TestConvert(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Hour, log.New(log.DefaultConfig()))
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   string
		from, to string
		expected string
	}{
		{"same currency", "100", "USD", "USD", "100"},
		{"eur to usd", "100", "EUR", "USD", "107.20"},
		{"usd to eur", "107.20", "USD", "EUR", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _ := decimal.NewFromString(tt.amount)
			got, err := client.Convert(ctx, amount, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			want, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(want) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s", tt.amount, tt.from, tt.to, got, want)
			}
		})
	}

	if _, err := client.Convert(ctx, decimal.NewFromInt(1), "USD", "XXX"); err == nil {
		t.Error("Convert() to unknown currency succeeded, want error")
	}

	if requests != 1 {
		t.Errorf("feed fetched %d times, want 1 (cached)", requests)
	}
}
