package main

import (
	"github.com/joeydtaylor/steeze-dq/pkg/serverfx"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		serverfx.Module(
			serverfx.WithService("dq"),
			serverfx.WithConfigEnv("DQ_CONFIG"),
			serverfx.WithDefaultConfig("dq.toml"),
		),
	).Run()
}
