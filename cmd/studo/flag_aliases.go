package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var contentFlagAliases = map[string]string{
	"desc":        "content",
	"description": "content",
	"body":        "content",
}

var deadlineFlagAliases = map[string]string{
	"due": "deadline",
}

func addContentFlagAliases(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		setFlagAliases(cmd.Flags(), contentFlagAliases)
	}
}

func addDeadlineFlagAliases(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		setFlagAliases(cmd.Flags(), deadlineFlagAliases)
	}
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return normalize(f, name)
	})
}
