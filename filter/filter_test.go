package filter

import (
	"testing"

	"frames-scraper/config"
	"frames-scraper/models"
)

func TestApply(t *testing.T) {
	records := []models.Record{
		{"product_name": "Cheap", "retail_price": "49.00"},
		{"product_name": "Mid", "retail_price": "149.00"},
		{"product_name": "Expensive", "retail_price": "499.00"},
		{"product_name": "No price", "retail_price": ""},
		{"product_name": "", "retail_price": "99.00"},
	}

	tests := []struct {
		name string
		cfg  config.Filters
		want []string
	}{
		{
			name: "no criteria keeps everything",
			cfg:  config.Filters{},
			want: []string{"Cheap", "Mid", "Expensive", "No price", ""},
		},
		{
			name: "required field drops empty names",
			cfg:  config.Filters{RequireFields: []string{"product_name"}},
			want: []string{"Cheap", "Mid", "Expensive", "No price"},
		},
		{
			name: "min price keeps unpriced records",
			cfg:  config.Filters{PriceField: "retail_price", MinPrice: 100},
			want: []string{"Mid", "Expensive", "No price"},
		},
		{
			name: "price range",
			cfg:  config.Filters{PriceField: "retail_price", MinPrice: 100, MaxPrice: 200},
			want: []string{"Mid", "No price"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFilter(&tt.cfg).Apply(records)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() kept %d records, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i]["product_name"] != name {
					t.Errorf("record %d = %q, want %q", i, got[i]["product_name"], name)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	if NewFilter(&config.Filters{}).Enabled() {
		t.Error("empty filters should be disabled")
	}
	if !NewFilter(&config.Filters{MinPrice: 1}).Enabled() {
		t.Error("min price filter should be enabled")
	}
}
