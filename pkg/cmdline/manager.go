// Copyright (c) Contributors to the busapp project.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cmdline provides a thin registry on top of cobra/pflag so that
// subcommands can declare their flags as data (a Flag literal) instead of
// imperative Flags().StringVar calls scattered across command files.
package cmdline

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvHandler applies an environment variable's value to flag.
type EnvHandler func(flag *pflag.Flag, value string) error

// EnvSetValue is the default EnvHandler: it sets the flag's value
// through pflag's own Set, which runs the flag's normal type parsing.
func EnvSetValue(flag *pflag.Flag, value string) error {
	return flag.Value.Set(value)
}

// CommandManager registers commands and flags for a single CLI root. Every
// busapp subcommand is registered through one CommandManager so that
// BUSAPP_* environment variables can be resolved against the same flag
// table regardless of which subcommand defines them.
type CommandManager struct {
	fm       *flagManager
	commands map[string]*cobra.Command
	root     *cobra.Command
}

// NewCommandManager returns a manager rooted at root. root itself is
// registered, so RegisterFlagForCmd can target it like any other command.
// RegisterFlagForCmd adds a flag to the command's local flag set
// (cmd.Flags()), not to its PersistentFlags().
func NewCommandManager(root *cobra.Command) *CommandManager {
	m := &CommandManager{
		fm:       newFlagManager(),
		commands: make(map[string]*cobra.Command),
		root:     root,
	}
	m.commands[root.Name()] = root
	return m
}

// RegisterCmd adds cmd as a child of the manager's root command.
func (m *CommandManager) RegisterCmd(cmd *cobra.Command) {
	m.root.AddCommand(cmd)
	m.commands[cmd.Name()] = cmd
}

// RegisterSubCmd adds child as a child of parent, both of which must
// already be registered (or be the root) with this manager.
func (m *CommandManager) RegisterSubCmd(parent, child *cobra.Command) {
	parent.AddCommand(child)
	m.commands[child.Name()] = child
}

// RegisterFlagForCmd binds flag's pflag.Value/DefaultValue pair onto each
// of cmds, recording the flag so environment lookups in
// UpdateCmdFlagFromEnv can find it again by ID.
func (m *CommandManager) RegisterFlagForCmd(flag *Flag, cmds ...*cobra.Command) error {
	return m.fm.registerFlagForCmd(flag, cmds...)
}

// UpdateCmdFlagFromEnv walks cmd's flags and, for any flag registered with
// EnvKeys, applies every key that is set under prefix (or, for flags
// marked WithoutPrefix, as the bare key), in EnvKeys order, so a later set
// key overrides an earlier one.
func (m *CommandManager) UpdateCmdFlagFromEnv(cmd *cobra.Command, prefix string) error {
	return m.fm.updateCmdFlagFromEnv(cmd, prefix)
}

// Cmd returns a previously registered command by name, or nil.
func (m *CommandManager) Cmd(name string) *cobra.Command {
	return m.commands[name]
}

// Root returns the manager's root command.
func (m *CommandManager) Root() *cobra.Command { return m.root }
