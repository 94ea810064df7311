package main

import (
	"context"
	"os"
	"os/signal"
	"path"

	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	subdelete "github.com/opst/gemdclient/cmd/gemd/subcommands/delete"
	subget "github.com/opst/gemdclient/cmd/gemd/subcommands/get"
	subinit "github.com/opst/gemdclient/cmd/gemd/subcommands/init"
	subjob "github.com/opst/gemdclient/cmd/gemd/subcommands/job"
	sublist "github.com/opst/gemdclient/cmd/gemd/subcommands/list"
	subregister "github.com/opst/gemdclient/cmd/gemd/subcommands/register"
	subver "github.com/opst/gemdclient/cmd/gemd/subcommands/version"
	"github.com/opst/gemdclient/pkg/logger"
)

func main() {
	name := path.Base(os.Args[0])
	l := logger.Default()
	l.SetPrefix(name)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd, err := build(".")
	if err != nil {
		l.Fatal(err)
	}
	os.Exit(flarc.Run(ctx, cmd, flarc.WithHelp(true)))
}

func build(cwd string) (flarc.Command, error) {
	cf, err := common.Flags(cwd)
	if err != nil {
		return nil, err
	}

	initCmd, err := subinit.New()
	if err != nil {
		return nil, err
	}
	get, err := subget.New()
	if err != nil {
		return nil, err
	}
	list, err := sublist.New()
	if err != nil {
		return nil, err
	}
	register, err := subregister.New()
	if err != nil {
		return nil, err
	}
	del, err := subdelete.New()
	if err != nil {
		return nil, err
	}
	job, err := subjob.New()
	if err != nil {
		return nil, err
	}
	version, err := subver.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Command line interface of the materials data platform",
		cf,
		flarc.WithSubcommand("init", initCmd),
		flarc.WithSubcommand("get", get),
		flarc.WithSubcommand("list", list),
		flarc.WithSubcommand("register", register),
		flarc.WithSubcommand("delete", del),
		flarc.WithSubcommand("job", job),
		flarc.WithSubcommand("version", version),
	)
}
