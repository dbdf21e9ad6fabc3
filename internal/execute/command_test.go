package execute

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		wantErr bool
	}{
		{
			name:    "simple command",
			command: "ffmpeg -hide_banner -i /dev/video0",
			want:    []string{"ffmpeg", "-hide_banner", "-i", "/dev/video0"},
		},
		{
			name:    "double quoted argument",
			command: `ffmpeg -metadata title="camera one" -i /dev/video0`,
			want:    []string{"ffmpeg", "-metadata", "title=camera one", "-i", "/dev/video0"},
		},
		{
			name:    "single quoted argument",
			command: "echo 'hello world'",
			want:    []string{"echo", "hello world"},
		},
		{
			name:    "nested quote kinds",
			command: `echo "it's fine"`,
			want:    []string{"echo", "it's fine"},
		},
		{
			name:    "escaped space",
			command: `cat /tmp/with\ space`,
			want:    []string{"cat", "/tmp/with space"},
		},
		{
			name:    "collapses repeated spaces",
			command: "uname   -m",
			want:    []string{"uname", "-m"},
		},
		{
			name:    "unterminated quote",
			command: `echo "oops`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.command)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCommand failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommand(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}
