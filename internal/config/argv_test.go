package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "espeak-ng -v pt-br", want: []string{"espeak-ng", "-v", "pt-br"}},
		{name: "quoted spaces", input: `piper --model "pt BR.onnx"`, want: []string{"piper", "--model", "pt BR.onnx"}},
		{name: "single quote", input: `say -v 'Luciana'`, want: []string{"say", "-v", "Luciana"}},
		{name: "escaped space", input: `tts hello\ world`, want: []string{"tts", "hello world"}},
		{name: "empty quoted argument", input: `tts ""`, want: []string{"tts", ""}},
		{name: "leading comment", input: `# espeak-ng`, want: nil},
		{name: "unterminated quote", input: `tts "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `tts hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitCommand(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
