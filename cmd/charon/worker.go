package main

import (
	"github.com/charonlabs/charon/internal/utils"
	"github.com/charonlabs/charon/pkg/api"
	"github.com/charonlabs/charon/pkg/database"
	"github.com/charonlabs/charon/pkg/queue"
)

const (
	docWorker = `Run a charon job worker`
)

type optsWorker struct {
	optsGeneral
	optsDatabase
	optsQueue
	optsPayment
}

func (c *optsWorker) Execute(args []string) error {
	// This main runs a charon worker: it pulls dispatched jobs off the
	// queue, runs their oracle queries & writes results back.
	//
	// It does not serve the API to clients; see the api command for that.
	// Though you could have one server type do both if you wanted.
	tlsCfg, err := utils.TLSConfig(c.QueueTLSCaCert, c.QueueTLSCert, c.QueueTLSKey)
	if err != nil {
		return err
	}

	opts := api.OptionsServerDefault()
	opts.Debug = c.Debug
	c.optsPayment.apply(opts)

	svc, err := api.New(
		&database.Options{URL: c.optsDatabase.url()},
		&queue.Options{URL: c.optsQueue.url(), TLSConfig: tlsCfg},
		opts,
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Run()
}
