// Package ucli provides a cli builder implementation based on the urfave/cli
// library.
package ucli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/rgbd/cli"
	"golang.org/x/xerrors"
)

// Option is the type of the options of the builder.
type Option func(*Builder)

// WithUsage sets the description of the application.
func WithUsage(usage string) Option {
	return func(b *Builder) {
		b.usage = usage
	}
}

// WithVersion sets the version announced by the application.
func WithVersion(version string) Option {
	return func(b *Builder) {
		b.version = version
	}
}

// WithFlags sets the global flags available from all the commands.
func WithFlags(flags ...cli.Flag) Option {
	return func(b *Builder) {
		b.flags = flags
	}
}

// Builder implements a cli builder based on urfave/cli
//
// - implements cli.Builder
type Builder struct {
	commands []*cmdBuilder
	name     string
	usage    string
	version  string
	flags    []cli.Flag
}

// NewBuilder returns a new initialized builder for the application of the
// given name.
func NewBuilder(name string, opts ...Option) *Builder {
	b := &Builder{
		name: name,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build implements cli.Builder.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:     b.name,
		Usage:    b.usage,
		Version:  b.version,
		Commands: buildCommand(b.commands),
		Flags:    buildFlags(b.flags),
	}

	app.Setup()

	return app
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	cmd := &cmdBuilder{
		name: name,
	}
	b.commands = append(b.commands, cmd)

	return cmd
}

// cmdBuilder is the struct provided to build commands.
//
// - implements cli.CommandBuilder
type cmdBuilder struct {
	name        string
	description string
	action      cli.Action
	flags       []urfave.Flag
	subcommands []*cmdBuilder
}

// SetDescription implements cli.CommandBuilder.
func (b *cmdBuilder) SetDescription(value string) {
	b.description = value
}

// SetFlags implements cli.CommandBuilder.
func (b *cmdBuilder) SetFlags(flags ...cli.Flag) {
	b.flags = buildFlags(flags)
}

// SetAction implements cli.CommandBuilder.
func (b *cmdBuilder) SetAction(action cli.Action) {
	b.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (b *cmdBuilder) SetSubCommand(name string) cli.CommandBuilder {
	builder := &cmdBuilder{
		name: name,
	}
	b.subcommands = append(b.subcommands, builder)

	return builder
}

// flags is the adapter of the urfave context that expands the paths.
//
// - implements cli.Flags
type flags struct {
	*urfave.Context
}

// Path implements cli.Flags. It expands the leading tilde of the path to the
// home directory of the user.
func (f flags) Path(name string) string {
	return expandPath(f.Context.Path(name))
}

// IsSet implements cli.Flags. It looks up the flag in the lineage of the
// context so that the global flags are found from a command.
func (f flags) IsSet(name string) bool {
	for _, ctx := range f.Context.Lineage() {
		if ctx.IsSet(name) {
			return true
		}
	}

	return false
}

func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// choice is the value of a choice flag.
//
// - implements urfave.Generic
type choice struct {
	value   string
	choices []string
}

// Set implements urfave.Generic. It fails if the value is not one of the
// choices.
func (c *choice) Set(value string) error {
	for _, ch := range c.choices {
		if strings.EqualFold(ch, value) {
			c.value = ch
			return nil
		}
	}

	return xerrors.Errorf("unknown choice '%s', expected one of %s",
		value, strings.Join(c.choices, ", "))
}

// String implements urfave.Generic.
func (c *choice) String() string {
	return c.value
}

// buildFlags converts cli.Flag to their corresponding urfave/cli.
func buildFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))

	for i, f := range flags {
		var flag urfave.Flag

		switch e := f.(type) {
		case cli.StringFlag:
			flag = &urfave.StringFlag{
				Name:     e.Name,
				Usage:    e.Usage,
				Required: e.Required,
				Value:    e.Value,
			}
		case cli.PathFlag:
			flag = &urfave.PathFlag{
				Name:     e.Name,
				Usage:    e.Usage,
				Required: e.Required,
				Value:    e.Value,
			}
		case cli.StringSliceFlag:
			flag = &urfave.StringSliceFlag{
				Name:     e.Name,
				Usage:    e.Usage,
				Required: e.Required,
				Value:    urfave.NewStringSlice(e.Value...),
			}
		case cli.DurationFlag:
			flag = &urfave.DurationFlag{
				Name:     e.Name,
				Usage:    e.Usage,
				Required: e.Required,
				Value:    e.Value,
			}
		case cli.IntFlag:
			flag = &urfave.IntFlag{
				Name:     e.Name,
				Usage:    e.Usage,
				Required: e.Required,
				Value:    e.Value,
			}
		case cli.BoolFlag:
			flag = &urfave.BoolFlag{
				Name:  e.Name,
				Usage: e.Usage,
				Value: e.Value,
			}
		case cli.ChoiceFlag:
			flag = &urfave.GenericFlag{
				Name:  e.Name,
				Usage: fmt.Sprintf("%s (%s)", e.Usage, strings.Join(e.Choices, ", ")),
				Value: &choice{value: e.Value, choices: e.Choices},
			}
		default:
			panic(fmt.Sprintf("flag type '%T' not supported", f))
		}

		res[i] = flag
	}

	return res
}

// buildCommand recursively builds the commands from a cmdBuilder struct to a
// urfave commands.
func buildCommand(cmds []*cmdBuilder) []*urfave.Command {
	commands := make([]*urfave.Command, len(cmds))

	for i, cmd := range cmds {
		commands[i] = &urfave.Command{
			Name:        cmd.name,
			Usage:       cmd.description,
			Action:      makeAction(cmd.action),
			Flags:       cmd.flags,
			Subcommands: buildCommand(cmd.subcommands),
		}
	}

	return commands
}

// makeAction transforms a cli.Action to its urfave form.
func makeAction(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(flags{Context: ctx})
	}
}
