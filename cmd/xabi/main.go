package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/xuperchain/xabi/cmd/xabi/cmd"
)

func main() {
	rootCmd, err := NewServiceCommand()
	if err != nil {
		log.Fatalf("start service failed.err:%v", err)
	}

	if err = rootCmd.Execute(); err != nil {
		log.Fatalf("xabi exit.err:%v", err)
	}
}

func NewServiceCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:           "xabi <command> [arguments]",
		Short:         "xabi runs the application side of the engine abi.",
		Long:          "xabi runs the application process serving the engine abi, and calls it from the engine side.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       "xabi startup --conf /home/rd/xabi/conf/env.yaml",
	}

	rootCmd.AddCommand(cmd.GetVersionCmd().GetCmd())
	rootCmd.AddCommand(cmd.GetStartupCmd().GetCmd())
	rootCmd.AddCommand(cmd.GetCallCmd().GetCmd())
	return rootCmd, nil
}
