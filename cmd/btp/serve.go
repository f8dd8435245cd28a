package main

import (
	"context"
	"os/signal"
	"syscall"

	"BehindThePicture/pkg/server"
)

func serveCmd(args []string) error {
	flagSet, configPath := newFlagSet("serve")
	addr := flagSet.String("addr", "", "listen address (default from config)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	env, err := loadEnvironment(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		env.cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(env.cfg, env.logger).Run(ctx)
}
