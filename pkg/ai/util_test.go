package ai

import (
	"reflect"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json untouched",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced with language tag",
			in:   "Here you go:\n```json\n{\"a\": 1}\n```\nHope that helps.",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without language tag",
			in:   "```\n[1, 2, 3]\n```",
			want: "[1, 2, 3]",
		},
		{
			name: "unterminated fence",
			in:   "```json\n{\"a\": 1}",
			want: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		in      string
		want    payload
		wantErr bool
	}{
		{
			name: "standard json",
			in:   `{"name": "test"}`,
			want: payload{Name: "test"},
		},
		{
			name: "double encoded",
			in:   `"{\"name\": \"test\"}"`,
			want: payload{Name: "test"},
		},
		{
			name: "markdown fenced",
			in:   "```json\n{\"name\": \"test\"}\n```",
			want: payload{Name: "test"},
		},
		{
			name: "malformed but repairable",
			in:   `{name: "test"}`,
			want: payload{Name: "test"},
		},
		{
			name: "duplicate leading brace",
			in:   `{{"name": "test"}`,
			want: payload{Name: "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := UnmarshalFlexible(tt.in, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalFlexible() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalFlexibleMapPayload(t *testing.T) {
	var got map[string]string
	in := "```json\n{\"ml\": \"machine learning\"}\n```"
	if err := UnmarshalFlexible(in, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	want := map[string]string{"ml": "machine learning"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnmarshalFlexible() = %v, want %v", got, want)
	}
}
