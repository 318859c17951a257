package main

import (
	"log"

	"github.com/charonlabs/charon/pkg/database"
)

const (
	docMigrate = `Apply database migrations`
)

type optsMigrate struct {
	optsGeneral
	optsDatabase
}

func (c *optsMigrate) Execute(args []string) error {
	err := database.Migrate(&database.Options{URL: c.optsDatabase.url()})
	if err != nil {
		return err
	}
	log.Println("database schema up to date")
	return nil
}
