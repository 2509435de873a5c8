package serve

import (
	"github.com/cirruslabs/mediacache/internal/command/common"
	serverpkg "github.com/cirruslabs/mediacache/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultAddr = "127.0.0.1:8080"

var configPath string
var token string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the media retrieval server",
		RunE:  serve,
	}

	cmd.Flags().StringVarP(&configPath, "file", "f", "",
		"configuration file path (e.g. /etc/mediacache.yml)")
	cmd.Flags().StringVar(&token, "token", "",
		"credential to use for the authenticated media (overrides backend.token)")

	return cmd
}

func serve(cmd *cobra.Command, _ []string) error {
	config, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}

	service, err := common.NewService(config, token, zap.S())
	if err != nil {
		return err
	}

	opts := []serverpkg.Option{
		serverpkg.WithLogger(zap.S()),
	}

	if config.Secret != "" {
		opts = append(opts, serverpkg.WithSecret(config.Secret))
	}

	addr := config.Addr
	if addr == "" {
		addr = defaultAddr
	}

	server, err := serverpkg.New(addr, service, opts...)
	if err != nil {
		return err
	}

	return server.Run(cmd.Context())
}
