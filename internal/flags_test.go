package internal

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRegisterCommandFlags(t *testing.T) {
	var (
		str = "default"
		n   uint
	)
	cmd := &cobra.Command{}
	err := RegisterCommandFlags(cmd, []*Flag{
		{Name: "str", EnvVar: "SUDP_TEST_STR", Usage: "a string", String: &str},
		{Name: "num", EnvVar: "SUDP_TEST_NUM", Usage: "a number", Uint: &n},
	})
	require.NoError(t, err)

	require.NoError(t, cmd.PersistentFlags().Set("str", "flagged"))
	require.NoError(t, cmd.PersistentFlags().Set("num", "7"))
	require.Equal(t, "flagged", str)
	require.Equal(t, uint(7), n)
}

func TestFlagEnvFallback(t *testing.T) {
	t.Setenv("SUDP_TEST_STR", "from env")
	t.Setenv("SUDP_TEST_NUM", "9")
	var (
		str = "default"
		n   uint
	)
	cmd := &cobra.Command{}
	err := RegisterCommandFlags(cmd, []*Flag{
		{Name: "str", EnvVar: "SUDP_TEST_STR", Usage: "a string", String: &str},
		{Name: "num", EnvVar: "SUDP_TEST_NUM", Usage: "a number", Uint: &n},
	})
	require.NoError(t, err)
	require.Equal(t, "from env", str)
	require.Equal(t, uint(9), n)
}

func TestFlagEnvParseError(t *testing.T) {
	t.Setenv("SUDP_TEST_NUM", "not a number")
	var n uint
	err := RegisterCommandFlags(&cobra.Command{}, []*Flag{
		{Name: "num", EnvVar: "SUDP_TEST_NUM", Usage: "a number", Uint: &n},
	})
	require.Error(t, err)
}

func TestValidateEnv(t *testing.T) {
	origEnv, origLevel, origPort := Env, LogLevel, Port
	defer func() { Env, LogLevel, Port = origEnv, origLevel, origPort }()

	Env, LogLevel, Port = "dev", "info", 4444
	require.NoError(t, ValidateEnv())

	Env = "staging"
	require.Error(t, ValidateEnv())

	Env, LogLevel = "prod", "verbose"
	require.Error(t, ValidateEnv())

	LogLevel, Port = "error", 0
	require.Error(t, ValidateEnv())
}
