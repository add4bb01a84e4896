package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantTool Tool
		wantArgs []string
		wantErr  error
	}{
		{
			name:     "plain adb arguments",
			line:     "shell getprop ro.product.model",
			wantTool: ADB,
			wantArgs: []string{"shell", "getprop", "ro.product.model"},
		},
		{
			name:     "leading adb is dropped",
			line:     "adb reboot recovery",
			wantTool: ADB,
			wantArgs: []string{"reboot", "recovery"},
		},
		{
			name:     "leading fastboot selects fastboot",
			line:     "fastboot flash boot boot.img",
			wantTool: Fastboot,
			wantArgs: []string{"flash", "boot", "boot.img"},
		},
		{
			name:     "double quotes keep spaces",
			line:     `shell "echo hello world"`,
			wantTool: ADB,
			wantArgs: []string{"shell", "echo hello world"},
		},
		{
			name:     "single quotes keep spaces",
			line:     `push 'My Photos/a b.jpg' /sdcard/`,
			wantTool: ADB,
			wantArgs: []string{"push", "My Photos/a b.jpg", "/sdcard/"},
		},
		{
			name:     "backslash escapes a space",
			line:     `pull /sdcard/a\ b.txt out.txt`,
			wantTool: ADB,
			wantArgs: []string{"pull", "/sdcard/a b.txt", "out.txt"},
		},
		{
			name:     "quoted operator is literal",
			line:     `shell "ls; echo done"`,
			wantTool: ADB,
			wantArgs: []string{"shell", "ls; echo done"},
		},
		{
			name:     "extra whitespace collapses",
			line:     "   devices    -l  ",
			wantTool: ADB,
			wantArgs: []string{"devices", "-l"},
		},
		{
			name:     "backticks are not substituted",
			line:     "shell echo `id`",
			wantTool: ADB,
			wantArgs: []string{"shell", "echo", "`id`"},
		},
		{
			name:     "dollar substitution is not expanded",
			line:     "shell echo $(id)",
			wantTool: ADB,
			wantArgs: []string{"shell", "echo", "$(id)"},
		},
		{
			name:    "empty line",
			line:    "   ",
			wantErr: ErrEmptyCommand,
		},
		{
			name:    "bare adb",
			line:    "adb",
			wantErr: ErrEmptyCommand,
		},
		{
			name:    "bare fastboot",
			line:    "fastboot",
			wantErr: ErrEmptyCommand,
		},
		{
			name:    "unquoted operator",
			line:    "shell ls; reboot",
			wantErr: ErrShellOperator,
		},
		{
			name:    "unquoted pipe",
			line:    "logcat | grep foo",
			wantErr: ErrShellOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, args, err := Tokenize(tt.line)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTool, tool)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	_, _, err := Tokenize(`shell "echo hi`)
	require.Error(t, err)
}
