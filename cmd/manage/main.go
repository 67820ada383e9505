package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/config"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/database"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/repository"
)

const usage = `usage:
  manage migrate up|down
  manage createuser --username NAME --password PASS [--perm CODENAME|all ...]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	switch os.Args[1] {
	case "migrate":
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		switch os.Args[2] {
		case "up":
			err = database.MigrateUp(db)
		case "down":
			err = database.MigrateDown(db)
		default:
			err = fmt.Errorf("unknown migrate direction %q", os.Args[2])
		}
		if err != nil {
			log.Fatal().Err(err).Msg("migrate failed")
		}

	case "createuser":
		fs := flag.NewFlagSet("createuser", flag.ExitOnError)
		username := fs.String("username", "", "login name")
		password := fs.String("password", "", "login password")
		perms := fs.StringSlice("perm", nil, "permission codename, repeatable; all grants every permission")
		_ = fs.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			log.Fatal().Msg("--username and --password are required")
		}

		codenames, err := auth.ExpandPermissions(*perms)
		if err != nil {
			log.Fatal().Err(err).Msg("bad permissions")
		}
		hash, err := auth.NewBcryptHasher(0).Hash(*password)
		if err != nil {
			log.Fatal().Err(err).Msg("hash password")
		}
		id, err := repository.New(db).CreateUser(context.Background(), *username, hash, codenames)
		if err != nil {
			log.Fatal().Err(err).Msg("create user failed")
		}
		log.Info().Int64("id", id).Str("username", *username).Int("permissions", len(codenames)).Msg("user created")

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
