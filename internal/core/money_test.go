package core

import "testing"

func TestParseDecimalToPence(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "plain", in: "12.34", want: 1234},
		{name: "comma separator", in: "12,34", want: 1234},
		{name: "integer", in: "200", want: 20000},
		{name: "single decimal", in: "5.5", want: 550},
		{name: "rounds half up", in: "12.345", want: 1235},
		{name: "rounds down", in: "12.344", want: 1234},
		{name: "rejects negative", in: "-3.00", wantErr: true},
		{name: "rejects sign", in: "+3.00", wantErr: true},
		{name: "rejects zero", in: "0.00", wantErr: true},
		{name: "rejects empty", in: "", wantErr: true},
		{name: "rejects garbage", in: "12.3.4", wantErr: true},
		{name: "rejects letters", in: "12a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToPence(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalToPence(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDecimalToPence(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSignedPence(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "debit", in: "-15.99", want: -1599},
		{name: "credit", in: "20.00", want: 2000},
		{name: "explicit plus", in: "+1.50", want: 150},
		{name: "zero", in: "0.00", want: 0},
		{name: "invalid", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedPence(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignedPence(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSignedPence(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPounds(t *testing.T) {
	if got := FormatPounds(1234); got != "£12.34" {
		t.Errorf("FormatPounds(1234) = %q", got)
	}
	if got := FormatPounds(-105); got != "-£1.05" {
		t.Errorf("FormatPounds(-105) = %q", got)
	}
	if got := FormatPounds(30000); got != "£300.00" {
		t.Errorf("FormatPounds(30000) = %q", got)
	}
}
