package main

import (
	"context"

	"github.com/trezcool/ekklesia/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	return gooseRunFunc(ctx, cli.db, database.GooseLogger(cli.logger), args[0], args[1:]...)
}
