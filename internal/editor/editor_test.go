package editor

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestEditor(t *testing.T) {
	res, err := Launch(nil, Config{
		Text:          "Hello world!\n\nBonjour le monde!\n; This is a comment\n",
		CommentPrefix: ";",
		Command:       "true",
	})
	require.NoError(t, err, "failed to launch editor")
	require.Equal(t, "Hello world!\n\nBonjour le monde!\n", res)
}

func TestEditorNoOp(t *testing.T) {
	res, err := Launch(nil, Config{
		Text:          "%% comments survive when no editor runs\n",
		CommentPrefix: "%%",
		Command:       CommandNoOp,
	})
	require.NoError(t, err, "failed to launch editor")
	require.Equal(t, "%% comments survive when no editor runs\n", res)
}
