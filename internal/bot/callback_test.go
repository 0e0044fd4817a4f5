package bot

import (
	"reflect"
	"testing"
)

func TestSplitCallback(t *testing.T) {
	tests := []struct {
		data     string
		wantVerb string
		wantArgs []string
	}{
		{"menu", "menu", []string{}},
		{"topic:12", "topic", []string{"12"}},
		{"ans:2", "ans", []string{"2"}},
		{"adm:menu", "adm:menu", []string{}},
		{"adm:deltopic:5", "adm:deltopic", []string{"5"}},
		{"adm:topics:lessons:uptest", "adm:topics", []string{"lessons", "uptest"}},
		{"adm:lessons:uptest:7", "adm:lessons", []string{"uptest", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			verb, args := splitCallback(tt.data)
			if verb != tt.wantVerb {
				t.Errorf("verb = %q, want %q", verb, tt.wantVerb)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			if len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestCallbackInt(t *testing.T) {
	if _, err := callbackInt(nil, 0); err == nil {
		t.Error("callbackInt(nil, 0) should error")
	}
	if _, err := callbackInt([]string{"abc"}, 0); err == nil {
		t.Error("callbackInt(abc) should error")
	}
	n, err := callbackInt([]string{"42"}, 0)
	if err != nil || n != 42 {
		t.Errorf("callbackInt(42) = %d, %v", n, err)
	}
}
