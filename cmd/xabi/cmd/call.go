package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/abi/client"
	"github.com/xuperchain/xabi/kernel/common/xconfig"
	"github.com/xuperchain/xabi/lib/logs"
)

type CallCmd struct {
	BaseCmd
}

func GetCallCmd() *CallCmd {
	callCmdIns := new(CallCmd)

	var (
		envCfgPath string
		height     uint32
	)

	callCmdIns.cmd = &cobra.Command{
		Use:   "call <getMetadata|finalize|clear|query> [endpoint] [params]",
		Short: "Call the running application once from the engine side.",
		Example: "xabi call getMetadata --conf conf/env.yaml\n" +
			"xabi call query token_getBalance '{\"address\":\"aa01\"}' --conf conf/env.yaml",
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := CallApp(envCfgPath, args, height)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	callCmdIns.cmd.Flags().StringVarP(&envCfgPath, "conf", "c", "",
		"environment config file path")
	callCmdIns.cmd.Flags().Uint32Var(&height, "height", 0, "finalized height for finalize")

	return callCmdIns
}

func CallApp(envCfgPath string, args []string, height uint32) (string, error) {
	envConf, err := xconfig.LoadEnvConf(envCfgPath)
	if err != nil {
		return "", err
	}
	appConf, err := envConf.LoadAppConf()
	if err != nil {
		return "", err
	}
	log, err := logs.NewLogger("", client.SubModName)
	if err != nil {
		return "", err
	}

	cli := client.NewClient(client.NewConfig(appConf), log)
	ctx := context.Background()
	if err := cli.Connect(ctx); err != nil {
		return "", err
	}
	defer cli.Disconnect()

	switch method := args[0]; method {
	case abi.MethodGetMetadata:
		resp, err := cli.GetMetadata(ctx, &abi.GetMetadataRequest{})
		if err != nil {
			return "", err
		}
		return string(resp.Data), nil
	case abi.MethodFinalize:
		if _, err := cli.Finalize(ctx, &abi.FinalizeRequest{FinalizedHeight: height}); err != nil {
			return "", err
		}
		return fmt.Sprintf("finalized %d", height), nil
	case abi.MethodClear:
		if _, err := cli.Clear(ctx, &abi.ClearRequest{}); err != nil {
			return "", err
		}
		return "cleared", nil
	case abi.MethodQuery:
		if len(args) < 2 {
			return "", fmt.Errorf("query needs an endpoint, e.g. token_getBalance")
		}
		params := []byte{}
		if len(args) > 2 {
			params = []byte(args[2])
		}
		resp, err := cli.Query(ctx, &abi.QueryRequest{Method: args[1], Params: params, Header: &abi.BlockHeader{}})
		if err != nil {
			return "", err
		}
		return string(resp.Data), nil
	default:
		return "", fmt.Errorf("method %s cannot be called from the command line", method)
	}
}
