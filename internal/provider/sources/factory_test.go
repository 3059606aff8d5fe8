package sources

import (
	"context"
	"testing"
)

type nopGetter struct{}

func (nopGetter) Get(context.Context, string) ([]byte, error) { return nil, nil }

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{kind: "leagueofgraphs"},
		{kind: "opgg"},
		{kind: "u.gg", wantErr: true},
		{kind: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			src, err := New(tt.kind, nopGetter{}, "na")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if err == nil && src.Name() != tt.kind {
				t.Errorf("expected source %q, got %q", tt.kind, src.Name())
			}
		})
	}
}
