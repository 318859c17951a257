package main

import (
	"github.com/charonlabs/charon/internal/utils"
	"github.com/charonlabs/charon/pkg/api"
	"github.com/charonlabs/charon/pkg/api/http/server"
	"github.com/charonlabs/charon/pkg/database"
	"github.com/charonlabs/charon/pkg/queue"
)

const (
	docApi = `Run the API server`
)

type optsAPI struct {
	optsGeneral
	optsDatabase
	optsQueue
	optsPayment

	Addr    string `long:"addr" env:"ADDR" description:"Address to bind to" default:"localhost:8402"`
	TLSCert string `long:"cert" env:"CERT" description:"Path to TLS certificate"`
	TLSKey  string `long:"key" env:"KEY" description:"Path to TLS key"`

	Standalone bool `long:"standalone" env:"STANDALONE" description:"Run with in-memory store, queue & cache. No external services, no persistence. Jobs execute in this process"`
}

func (c *optsAPI) Execute(args []string) error {
	// This main serves charon's API to clients over HTTP. Since this is
	// configured with OptionsClientDefault it performs no job execution
	// itself; a worker process handles that.
	//
	// With --standalone everything runs in this one process instead,
	// which is handy for dev & demos but keeps state only in memory.
	opts := api.OptionsClientDefault()
	opts.Debug = c.Debug
	c.optsPayment.apply(opts)

	var svc api.API
	var err error
	if c.Standalone {
		svc, err = api.NewStandalone(opts)
	} else {
		tlsCfg, terr := utils.TLSConfig(c.QueueTLSCaCert, c.QueueTLSCert, c.QueueTLSKey)
		if terr != nil {
			return terr
		}
		svc, err = api.New(
			&database.Options{URL: c.optsDatabase.url()},
			&queue.Options{URL: c.optsQueue.url(), TLSConfig: tlsCfg},
			opts,
		)
	}
	if err != nil {
		return err
	}
	defer svc.Close()

	s := server.NewServer(c.Addr, c.TLSCert, c.TLSKey, c.Debug)
	return s.ServeForever(svc)
}
