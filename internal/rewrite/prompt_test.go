package rewrite

import "testing"

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("hola como estas")
	if got != Instruction+"hola como estas" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestDecodingOptionsFixedPolicy(t *testing.T) {
	o := decodingOptions(Request{Inputs: "x", MaxNewTokens: 150, Temperature: 0.5})
	if o.MaxNewTokens != 150 || o.Temperature != 0.5 || !o.Deterministic || !o.EarlyStopping {
		t.Fatalf("unexpected options: %+v", o)
	}
}

func TestExcerpt(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hola", 50, "hola"},
		{"abcdef", 3, "abc"},
		{"¿cómo está?", 4, "¿cóm"},
		{"", 5, ""},
	}
	for _, c := range cases {
		if got := excerpt(c.in, c.n); got != c.want {
			t.Fatalf("excerpt(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}
