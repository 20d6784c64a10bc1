package severity

import "testing"

func TestOrdering(t *testing.T) {
	all := All()
	if len(all) != 4 {
		t.Fatalf("expected 4 severities, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if !all[i].Above(all[i-1]) {
			t.Errorf("%q should rank above %q", all[i], all[i-1])
		}
		if !all[i-1].Below(all[i]) {
			t.Errorf("%q should rank below %q", all[i-1], all[i])
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"none", None, false},
		{"low", Low, false},
		{"medium", Medium, false},
		{"high", High, false},
		{"HIGH", "", true},
		{"critical", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnknownRanksBelowNone(t *testing.T) {
	if Severity("urgent").Rank() >= None.Rank() {
		t.Error("unknown severity must rank below none")
	}
	if Severity("urgent").Valid() {
		t.Error("unknown severity must not be valid")
	}
}
