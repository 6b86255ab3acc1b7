package normalize

import (
	"bytes"
	"testing"
)

func TestCSourceNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "crlf to lf",
			in:   "int main(void) {\r\n    return 0;\r\n}\r\n",
			want: "int main(void) {\n    return 0;\n}\n",
		},
		{
			name: "bare cr to lf",
			in:   "a\rb\n",
			want: "a\nb\n",
		},
		{
			name: "trailing whitespace stripped",
			in:   "int x = 1;   \nint y = 2;\t\n",
			want: "int x = 1;\nint y = 2;\n",
		},
		{
			name: "blank line runs collapse",
			in:   "a\n\n\n\n\nb\n",
			want: "a\n\nb\n",
		},
		{
			name: "exactly one trailing newline",
			in:   "static int n;\n\n\n",
			want: "static int n;\n",
		},
		{
			name: "missing trailing newline added",
			in:   "static int n;",
			want: "static int n;\n",
		},
		{
			name: "whitespace only becomes single newline",
			in:   "   \n\t\n",
			want: "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CSource{}.Normalize([]byte(tt.in))
			if string(got) != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCSourceIdempotent(t *testing.T) {
	inputs := []string{
		"int main(void) {\r\n\r\n\r\n    return 0;   \r\n}",
		"a\n\nb\n",
		"",
		"\n",
	}
	for _, in := range inputs {
		once := CSource{}.Normalize([]byte(in))
		twice := CSource{}.Normalize(once)
		if !bytes.Equal(once, twice) {
			t.Errorf("normalization of %q is not idempotent: %q != %q", in, once, twice)
		}
	}
}

func TestCSourceKeepsEmptyContent(t *testing.T) {
	if got := (CSource{}).Normalize(nil); len(got) != 0 {
		t.Errorf("empty content must stay empty, got %q", got)
	}
}
