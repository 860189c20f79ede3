package value

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     interface{}
		want    Value
		wantErr bool
	}{
		{name: "int from int64", kind: KindInt, raw: int64(5), want: Int(5)},
		{name: "int rejects float", kind: KindInt, raw: 5.5, wantErr: true},
		{name: "int rejects string", kind: KindInt, raw: "5", wantErr: true},
		{name: "float widens int", kind: KindFloat, raw: int64(5), want: Float(5)},
		{name: "float accepts float64", kind: KindFloat, raw: 2.5, want: Float(2.5)},
		{name: "char accepts single rune", kind: KindChar, raw: "a", want: Char('a')},
		{name: "char rejects multi-rune", kind: KindChar, raw: "ab", wantErr: true},
		{name: "string passthrough", kind: KindString, raw: "hello", want: String("hello")},
		{name: "email valid", kind: KindEmail, raw: "a@b.com", want: Email("a@b.com")},
		{name: "email invalid", kind: KindEmail, raw: "not-an-email", wantErr: true},
		{
			name: "char interval ordered",
			kind: KindCharInterval,
			raw:  []interface{}{"a", "z"},
			want: CharInterval('a', 'z'),
		},
		{
			name:    "char interval rejects inverted bounds",
			kind:    KindCharInterval,
			raw:     []interface{}{"z", "a"},
			wantErr: true,
		},
		{
			name: "string interval ordered",
			kind: KindStringInterval,
			raw:  []interface{}{"apple", "banana"},
			want: StringInterval("apple", "banana"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce("col", tt.kind, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var typeErr *TypeError
				assert.ErrorAs(t, err, &typeErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		v    Value
	}{
		{"int", KindInt, Int(-42)},
		{"float", KindFloat, Float(3.14159)},
		{"char", KindChar, Char('λ')},
		{"string", KindString, String("héllo wörld")},
		{"empty string", KindString, String("")},
		{"char interval", KindCharInterval, CharInterval('a', 'z')},
		{"string interval", KindStringInterval, StringInterval("a", "zzz")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tt.v))
			got, err := Decode(&buf, tt.kind)
			require.NoError(t, err)
			assert.True(t, tt.v.Equal(got))
		})
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Int(1)))
	truncated := bytes.NewReader(buf.Bytes()[:4])
	_, err := Decode(truncated, KindInt)
	require.Error(t, err)
}
