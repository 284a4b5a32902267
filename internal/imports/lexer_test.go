package imports

import "testing"

func TestMask(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		style lexStyle
		want  string
	}{
		{"line comment", "a // b\nc", javaStyle, "a     \nc"},
		{"block comment keeps newlines", "a /* b\nc */ d", javaStyle, "a     \n     d"},
		{"string", `x = "import a.B;";`, javaStyle, `x =              ;`},
		{"escaped quote", `"a\"b" c`, javaStyle, `       c`},
		{"char literal", `'"' x`, javaStyle, `    x`},
		{"text block", "s = \"\"\"\nimport a.B;\n\"\"\"; t", javaStyle, "s =    \n           \n   ; t"},
		{"template literal", "a `x\ny` b", scriptStyle, "a   \n   b"},
		{"backtick is code in java", "a `x` b", javaStyle, "a `x` b"},
		{"unterminated string stops at newline", "\"abc\nd", javaStyle, "    \nd"},
		{"unterminated block comment", "a /* b", javaStyle, "a     "},
		{"regex literal hides backtick", "a = /`/; b", scriptStyle, "a =    ; b"},
		{"regex class holds slash", "r = /[/]x/g", scriptStyle, "r =       g"},
		{"regex after keyword", "return /'/.test(s)", scriptStyle, "return    .test(s)"},
		{"division between names", "x = a / b / c", scriptStyle, "x = a / b / c"},
		{"division after string", `s = "a" / 2 / "b"`, scriptStyle, `s =     / 2 /    `},
		{"unterminated regex is code", "x = / y\nz", scriptStyle, "x = / y\nz"},
		{"slash is code in java", "a = /`/;", javaStyle, "a = /`/;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(mask([]byte(tt.src), tt.style))
			if got != tt.want {
				t.Errorf("mask(%q) = %q, want %q", tt.src, got, tt.want)
			}
			if len(got) != len(tt.src) {
				t.Errorf("mask changed length: %d -> %d", len(tt.src), len(got))
			}
		})
	}
}

func TestLineAt(t *testing.T) {
	src := []byte("a\nb\nc")
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{2, 2},
		{4, 3},
		{100, 3},
	}
	for _, tt := range tests {
		if got := lineAt(src, tt.offset); got != tt.want {
			t.Errorf("lineAt(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}
